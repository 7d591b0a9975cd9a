// Package querier contains the default [domain.Querier] implementation, used
// to run find options over documents held in memory.
package querier

import (
	"fmt"
	"iter"
	"slices"

	"github.com/vinicius-lino-figueiredo/restquery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/projector"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// Querier implements [domain.Querier].
type Querier struct {
	mtchr domain.Matcher
	cmpr  domain.Comparer
	fn    domain.FieldNavigator
	proj  domain.Projector
}

// NewQuerier returns a new implementation of [domain.Querier].
func NewQuerier(opts ...Option) domain.Querier {
	q := Querier{
		cmpr: comparer.NewComparer(),
		fn:   fieldnavigator.NewFieldNavigator(),
	}
	for _, opt := range opts {
		opt(&q)
	}
	if q.proj == nil {
		q.proj = projector.NewProjector(projector.WithFieldNavigator(q.fn))
	}
	if q.mtchr == nil {
		q.mtchr = matcher.NewMatcher(
			matcher.WithComparer(q.cmpr),
			matcher.WithFieldNavigator(q.fn),
		)
	}
	return &q
}

// Query implements [domain.Querier]. Documents are filtered, sorted, paged
// and projected in this order. A negative limit is read as its absolute value
// and zero means no limit. The returned documents are the ones yielded by docs
// unless a projection is given.
func (q *Querier) Query(docs iter.Seq[domain.Document], filter domain.Filter, opts ...domain.FindOption) ([]domain.Document, error) {
	if docs == nil {
		return make([]domain.Document, 0), nil
	}
	fo := domain.NewFindOptions(opts...)
	if fo.Limit < 0 {
		fo.Limit = -fo.Limit
	}

	pred, err := q.mtchr.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}

	res, err := q.filter(docs, pred, fo)
	if err != nil {
		return nil, err
	}

	if len(fo.Sort) > 0 {
		sorted, err := q.sort(res, fo.Sort)
		if err != nil {
			return nil, fmt.Errorf("sorting: %w", err)
		}
		res = q.skipAndLimit(sorted, fo.Skip, fo.Limit)
	}

	res, err = q.proj.Project(res, fo.Projection)
	if err != nil {
		return nil, fmt.Errorf("projecting: %w", err)
	}
	return res, nil
}

// filter collects matching documents. Without sort, skip and limit are
// applied while reading, stopping as soon as the limit is reached.
func (q *Querier) filter(docs iter.Seq[domain.Document], pred domain.Predicate, fo domain.FindOptions) ([]domain.Document, error) {
	var skipped int64
	res := make([]domain.Document, 0)
	sorting := len(fo.Sort) > 0

	for doc := range docs {
		matches, err := pred(doc)
		if err != nil {
			return nil, fmt.Errorf("matching document: %w", err)
		}
		if !matches {
			continue
		}
		if !sorting {
			if skipped < fo.Skip {
				skipped++
				continue
			}
		}
		res = append(res, doc)
		if !sorting && fo.Limit > 0 && int64(len(res)) == fo.Limit {
			break
		}
	}
	return res, nil
}

func (q *Querier) sort(data []domain.Document, sort domain.Sort) ([]domain.Document, error) {
	addrs := make([][]string, len(sort))
	for n, crit := range sort {
		addr, err := q.fn.GetAddress(crit.Key)
		if err != nil {
			return nil, fmt.Errorf("getting address: %w", err)
		}
		addrs[n] = addr
	}

	res := slices.Clone(data)
	var err error
	slices.SortStableFunc(res, func(a, b domain.Document) int {
		if err != nil {
			return 0
		}
		for n, crit := range sort {
			comp, cErr := q.compareByCriterion(a, b, addrs[n], crit.Order)
			if cErr != nil {
				err = cErr
				return 0
			}
			if comp != 0 {
				return comp
			}
		}
		return 0
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (q *Querier) compareByCriterion(a, b domain.Document, addr []string, order int) (int, error) {
	criterionA, expandedA, err := q.fn.GetField(a, addr...)
	if err != nil {
		return 0, fmt.Errorf("getting field: %w", err)
	}
	criterionB, expandedB, err := q.fn.GetField(b, addr...)
	if err != nil {
		return 0, fmt.Errorf("getting field: %w", err)
	}

	comp, err := q.cmpr.Compare(
		q.sortKey(criterionA, expandedA),
		q.sortKey(criterionB, expandedB),
	)
	if err != nil {
		return 0, fmt.Errorf("comparing: %w", err)
	}
	if order < 0 {
		return -comp, nil
	}
	return comp, nil
}

// sortKey returns the single value found at a path, or the list of values
// when a list was crossed.
func (q *Querier) sortKey(g []domain.GetSetter, expanded bool) any {
	if !expanded && len(g) == 1 {
		return g[0]
	}
	res := make([]any, len(g))
	for n, v := range g {
		res[n] = v
	}
	return res
}

func (q *Querier) skipAndLimit(data []domain.Document, skip, limit int64) []domain.Document {
	length := int64(len(data))

	skip = max(skip, 0)
	skip = min(skip, length)

	end := length
	if limit > 0 {
		end = min(skip+limit, length)
	}
	return data[skip:end]
}
