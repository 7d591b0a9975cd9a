// Package runner contains the default [domain.Runner], which dispatches a
// [domain.Descriptor] to a [domain.Store] by operation type.
package runner

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/compiler"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/flattener"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/jsonparser"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/logging"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// Runner implements [domain.Runner].
type Runner struct {
	store      domain.Store
	flattener  domain.Flattener
	compiler   domain.CodeCompiler
	jsonParser domain.JSONParser
	logger     logrus.FieldLogger
}

// NewRunner returns a new implementation of [domain.Runner].
func NewRunner(options ...Option) domain.Runner {
	r := &Runner{
		flattener:  flattener.NewFlattener(),
		compiler:   compiler.NewDeny(),
		jsonParser: jsonparser.NewJSONParser(),
		logger:     logging.Discard(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run implements [domain.Runner]. Store errors are returned wrapped with the
// operation name.
func (r *Runner) Run(ctx context.Context, d domain.Descriptor) (domain.Result, error) {
	if r.store == nil {
		return domain.Result{}, domain.ErrNilStore
	}

	r.logger.WithFields(logrus.Fields{
		"operation": d.Operation,
		"limit":     d.Limit,
		"flatten":   d.Flatten,
	}).Debug("running descriptor")

	res := domain.Result{Operation: d.Operation}
	var err error
	switch d.Operation {
	case domain.OperationFind:
		res.Documents, err = r.find(ctx, d)
	case domain.OperationFindOne:
		res.Document, err = r.findOne(ctx, d)
	case domain.OperationCount:
		res.Count, err = r.store.Count(ctx, d.Filter)
	case domain.OperationDistinct:
		res.Values, err = r.store.Distinct(ctx, d.DistinctField(), d.Filter)
	case domain.OperationAggregate:
		res.Documents, err = r.store.Aggregate(ctx, d.Pipeline)
	case domain.OperationMapReduce:
		res.Output, err = r.mapReduce(ctx, d)
	default:
		return domain.Result{}, domain.ErrUnsupportedOperation{Operation: d.Operation}
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("%s: %w", d.Operation, err)
	}
	return res, nil
}

func findOptions(d domain.Descriptor) []domain.FindOption {
	opts := []domain.FindOption{
		domain.WithFindLimit(d.Limit),
	}
	if d.Skip != nil {
		opts = append(opts, domain.WithFindSkip(*d.Skip))
	}
	if len(d.Sort) > 0 {
		opts = append(opts, domain.WithFindSort(d.Sort))
	}
	if len(d.Projection) > 0 {
		opts = append(opts, domain.WithFindProjection(d.Projection))
	}
	if len(d.Populate) > 0 {
		opts = append(opts, domain.WithFindPopulate(d.Populate))
	}
	return opts
}

func (r *Runner) find(ctx context.Context, d domain.Descriptor) ([]domain.Document, error) {
	docs, err := r.store.Find(ctx, d.Filter, findOptions(d)...)
	if err != nil || !d.Flatten {
		return docs, err
	}
	flat := make([]domain.Document, len(docs))
	for n, doc := range docs {
		if flat[n], err = r.flattener.Flatten(doc); err != nil {
			return nil, err
		}
	}
	return flat, nil
}

func (r *Runner) findOne(ctx context.Context, d domain.Descriptor) (domain.Document, error) {
	doc, err := r.store.FindOne(ctx, d.Filter, findOptions(d)...)
	if err != nil || doc == nil || !d.Flatten {
		return doc, err
	}
	return r.flattener.Flatten(doc)
}

func (r *Runner) mapReduce(ctx context.Context, d domain.Descriptor) (any, error) {
	src := d.MapReduce
	if src == nil {
		return nil, domain.ErrParse{Param: "map", Reason: "mapReduce needs a map function"}
	}

	job := domain.MapReduceJob{
		Filter: d.Filter,
		Limit:  d.Limit,
	}
	var err error
	if job.Map, err = r.compiler.Compile(src.Map); err != nil {
		return nil, err
	}
	if job.Reduce, err = r.compiler.Compile(src.Reduce); err != nil {
		return nil, err
	}
	if src.Finalize != "" {
		if job.Finalize, err = r.compiler.Compile(src.Finalize); err != nil {
			return nil, err
		}
	}
	if src.Scope != "" {
		if job.Scope, err = r.scope(src.Scope); err != nil {
			return nil, err
		}
	}
	return r.store.MapReduce(ctx, job)
}

func (r *Runner) scope(raw string) (domain.Document, error) {
	parsed, err := r.jsonParser.Parse([]byte(raw))
	if err != nil {
		return nil, domain.ErrParse{Param: "scope", Value: raw, Reason: "malformed JSON", Err: err}
	}
	seq, length, err := structure.Seq2(parsed)
	if err != nil {
		return nil, domain.ErrParse{Param: "scope", Value: raw, Reason: "scope must be a JSON object", Err: err}
	}
	scope := make(domain.Document, length)
	for k, v := range seq {
		scope[k] = v
	}
	return scope, nil
}
