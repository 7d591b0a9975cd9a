// Package mongostore contains a [domain.Store] backed by a MongoDB
// collection.
package mongostore

import (
	"context"
	"errors"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/logging"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store implements [domain.Store].
type Store struct {
	coll       *mongo.Collection
	references map[string]string
	logger     logrus.FieldLogger
}

// NewStore returns a new implementation of [domain.Store]. It fails with
// [ErrNoCollection] unless [WithCollection] is given.
func NewStore(options ...Option) (domain.Store, error) {
	s := &Store{
		references: make(map[string]string),
		logger:     logging.Discard(),
	}
	for _, option := range options {
		option(s)
	}
	if s.coll == nil {
		return nil, ErrNoCollection
	}
	return s, nil
}

// Find implements [domain.Store]. Populate options turn the query into an
// aggregation.
func (s *Store) Find(ctx context.Context, filter domain.Filter, opts ...domain.FindOption) ([]domain.Document, error) {
	fo := domain.NewFindOptions(opts...)
	f, err := filterToBSON(filter)
	if err != nil {
		return nil, err
	}

	if len(fo.Populate) > 0 {
		pipeline, err := s.findPipeline(f, fo)
		if err != nil {
			return nil, err
		}
		return s.aggregate(ctx, pipeline)
	}

	findOpts := options.Find().SetLimit(fo.Limit)
	if fo.Skip > 0 {
		findOpts.SetSkip(fo.Skip)
	}
	if sort := sortDocument(fo.Sort); sort != nil {
		findOpts.SetSort(sort)
	}
	if proj := projection(fo.Projection); proj != nil {
		findOpts.SetProjection(proj)
	}

	s.logger.WithField("filter", f).Debug("find")
	cursor, err := s.coll.Find(ctx, f, findOpts)
	if err != nil {
		return nil, err
	}
	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return documentsFromBSON(results), nil
}

// FindOne implements [domain.Store]. It returns a nil document when nothing
// matches.
func (s *Store) FindOne(ctx context.Context, filter domain.Filter, opts ...domain.FindOption) (domain.Document, error) {
	fo := domain.NewFindOptions(opts...)
	if len(fo.Populate) > 0 {
		docs, err := s.Find(ctx, filter, append(slices.Clip(opts), domain.WithFindLimit(1))...)
		if err != nil || len(docs) == 0 {
			return nil, err
		}
		return docs[0], nil
	}

	f, err := filterToBSON(filter)
	if err != nil {
		return nil, err
	}
	findOpts := options.FindOne()
	if fo.Skip > 0 {
		findOpts.SetSkip(fo.Skip)
	}
	if sort := sortDocument(fo.Sort); sort != nil {
		findOpts.SetSort(sort)
	}
	if proj := projection(fo.Projection); proj != nil {
		findOpts.SetProjection(proj)
	}

	s.logger.WithField("filter", f).Debug("findOne")
	var result bson.M
	if err := s.coll.FindOne(ctx, f, findOpts).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return documentFromBSON(result), nil
}

// Count implements [domain.Store].
func (s *Store) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	f, err := filterToBSON(filter)
	if err != nil {
		return 0, err
	}
	s.logger.WithField("filter", f).Debug("count")
	return s.coll.CountDocuments(ctx, f)
}

// Distinct implements [domain.Store].
func (s *Store) Distinct(ctx context.Context, field string, filter domain.Filter) ([]any, error) {
	f, err := filterToBSON(filter)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"field": field, "filter": f}).Debug("distinct")
	var values bson.A
	if err := s.coll.Distinct(ctx, field, f).Decode(&values); err != nil {
		return nil, err
	}
	return fromBSON(values).([]any), nil
}

// Aggregate implements [domain.Store].
func (s *Store) Aggregate(ctx context.Context, pipeline []any) ([]domain.Document, error) {
	conv, err := toBSON(pipeline)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, conv)
}

func (s *Store) aggregate(ctx context.Context, pipeline any) ([]domain.Document, error) {
	s.logger.WithField("pipeline", pipeline).Debug("aggregate")
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return documentsFromBSON(results), nil
}

// MapReduce implements [domain.Store]. The job must be compiled to
// [domain.JavaScript]; results are returned inline as documents.
func (s *Store) MapReduce(ctx context.Context, job domain.MapReduceJob) (any, error) {
	cmd, err := mapReduceCommand(s.coll.Name(), job)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("collection", s.coll.Name()).Debug("mapReduce")
	var out struct {
		Results []bson.M `bson:"results"`
	}
	if err := s.coll.Database().RunCommand(ctx, cmd).Decode(&out); err != nil {
		return nil, err
	}
	return documentsFromBSON(out.Results), nil
}
