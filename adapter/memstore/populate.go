package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// populate replaces the ids found at each option path by the referenced
// documents: a single id becomes a document (or nil when nothing matches) and
// a list of ids becomes a list of documents.
func (s *Store) populate(ctx context.Context, docs []domain.Document, opts []domain.PopulateOption) error {
	for _, opt := range opts {
		ref, err := s.reference(opt)
		if err != nil {
			return err
		}
		addr, err := s.fn.GetAddress(opt.Path)
		if err != nil {
			return err
		}
		findOpts, err := populateFindOptions(opt)
		if err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"path":  opt.Path,
			"model": opt.Model,
		}).Debug("populating")

		for _, doc := range docs {
			values, _, err := s.fn.GetField(doc, addr...)
			if err != nil {
				return err
			}
			for _, value := range values {
				v, defined := value.Get()
				if !defined || v == nil {
					continue
				}
				populated, err := ref.resolve(ctx, v, opt, findOpts)
				if err != nil {
					return fmt.Errorf("populating %s: %w", opt.Path, err)
				}
				value.Set(populated)
			}
		}
	}
	return nil
}

func (s *Store) reference(opt domain.PopulateOption) (*Store, error) {
	if opt.Model != "" {
		if ref, ok := s.references[opt.Model]; ok {
			return ref, nil
		}
		return nil, ErrUnknownReference{Model: opt.Model}
	}
	if ref, ok := s.references[opt.Path]; ok {
		return ref, nil
	}
	return nil, ErrUnknownReference{Path: opt.Path}
}

// resolve finds the documents referenced by v. Without a sort option, lists
// keep the order of their ids.
func (s *Store) resolve(ctx context.Context, v any, opt domain.PopulateOption, findOpts []domain.FindOption) (any, error) {
	ids, isList := v.([]any)
	if !isList {
		ids = []any{v}
	}

	var filter domain.Filter = domain.Filter{"_id": domain.Filter{"$in": ids}}
	if len(opt.Match) > 0 {
		filter = domain.Filter{domain.And: []any{filter, opt.Match}}
	}

	found, err := s.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}

	if !isList {
		if len(found) == 0 {
			return nil, nil
		}
		return found[0], nil
	}
	if _, sorted := opt.Options["sort"]; !sorted {
		s.sortByIDs(found, ids)
	}
	res := make([]any, len(found))
	for n, doc := range found {
		res[n] = doc
	}
	return res, nil
}

// sortByIDs orders docs as their _id appear in ids. Documents whose _id was
// projected out keep their place at the end.
func (s *Store) sortByIDs(docs []domain.Document, ids []any) {
	position := func(doc domain.Document) int {
		id, ok := doc["_id"]
		if !ok {
			return len(ids)
		}
		for n, candidate := range ids {
			if c, err := s.comparer.Compare(id, candidate); err == nil && c == 0 {
				return n
			}
		}
		return len(ids)
	}
	slices.SortStableFunc(docs, func(a, b domain.Document) int {
		return position(a) - position(b)
	})
}

// populateFindOptions reads the select, sort, skip, limit and nested populate
// settings of opt.
func populateFindOptions(opt domain.PopulateOption) ([]domain.FindOption, error) {
	var res []domain.FindOption
	if opt.Select != "" {
		res = append(res, domain.WithFindProjection([]string{opt.Select}))
	}
	if v, ok := opt.Options["sort"]; ok {
		sort, err := sortOption(v)
		if err != nil {
			return nil, err
		}
		res = append(res, domain.WithFindSort(sort))
	}
	for _, key := range []string{"skip", "limit"} {
		v, ok := opt.Options[key]
		if !ok {
			continue
		}
		n, ok := structure.AsInteger(v)
		if !ok || n < 0 {
			return nil, ErrInvalidOption{Option: key, Value: v}
		}
		if key == "skip" {
			res = append(res, domain.WithFindSkip(int64(n)))
		} else {
			res = append(res, domain.WithFindLimit(int64(n)))
		}
	}
	if len(opt.Populate) > 0 {
		res = append(res, domain.WithFindPopulate(opt.Populate))
	}
	return res, nil
}

// sortOption reads "a -b" text, or an object of orders whose keys are taken
// in alphabetical order unless the object is ordered.
func sortOption(v any) (domain.Sort, error) {
	if str, ok := v.(string); ok {
		var sort domain.Sort
		for field := range strings.FieldsFuncSeq(str, isSeparator) {
			order := 1
			switch field[0] {
			case '-':
				order, field = -1, field[1:]
			case '+':
				field = field[1:]
			}
			if field != "" {
				sort = append(sort, domain.SortField{Key: field, Order: order})
			}
		}
		return sort, nil
	}

	seq, l, err := structure.Seq2(v)
	if err != nil {
		return nil, ErrInvalidOption{Option: "sort", Value: v}
	}
	sort := make(domain.Sort, 0, l)
	for key, value := range seq {
		order, ok := sortOrder(value)
		if !ok {
			return nil, ErrInvalidOption{Option: "sort", Value: v}
		}
		sort = append(sort, domain.SortField{Key: key, Order: order})
	}
	if _, ordered := v.(domain.Ordered); !ordered {
		slices.SortFunc(sort, func(a, b domain.SortField) int {
			return strings.Compare(a.Key, b.Key)
		})
	}
	return sort, nil
}

func sortOrder(v any) (int, bool) {
	if str, ok := v.(string); ok {
		switch strings.ToLower(str) {
		case "asc", "ascending", "1":
			return 1, true
		case "desc", "descending", "-1":
			return -1, true
		}
		return 0, false
	}
	n, ok := structure.AsInteger(v)
	if !ok || (n != 1 && n != -1) {
		return 0, false
	}
	return n, true
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}
