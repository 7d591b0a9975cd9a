// Package memstore contains a [domain.Store] holding its documents in memory.
// Documents are keyed by _id and kept in insertion order. Stores can be filled
// with [Store.Insert] or from JSON lines with [Store.Load], and reference each
// other for populate options.
package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/hasher"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/jsonparser"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/querier"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/ctxsync"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/logging"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/uncomparable"
)

// Store implements [domain.Store]. It is safe for concurrent use.
type Store struct {
	mu   *ctxsync.RWMutex
	docs *uncomparable.Map[domain.Document]

	querier     domain.Querier
	comparer    domain.Comparer
	hasher      domain.Hasher
	fn          domain.FieldNavigator
	idGenerator domain.IDGenerator
	parser      domain.JSONParser

	references            map[string]*Store
	corruptAlertThreshold float64
	logger                logrus.FieldLogger
}

// NewStore returns an empty [Store].
func NewStore(options ...Option) *Store {
	s := &Store{
		mu:                    ctxsync.NewRWMutex(),
		comparer:              comparer.NewComparer(),
		hasher:                hasher.NewHasher(),
		fn:                    fieldnavigator.NewFieldNavigator(),
		idGenerator:           idgenerator.NewIDGenerator(),
		parser:                jsonparser.NewJSONParser(),
		references:            make(map[string]*Store),
		corruptAlertThreshold: 0.1,
		logger:                logging.Discard(),
	}
	for _, option := range options {
		option(s)
	}
	if s.querier == nil {
		s.querier = querier.NewQuerier(
			querier.WithComparer(s.comparer),
			querier.WithFieldNavigator(s.fn),
		)
	}
	s.docs = uncomparable.New[domain.Document](s.hasher, s.comparer)
	return s
}

// Insert adds copies of docs to the store, generating an _id for documents
// that have none. Nothing is inserted if any _id is already taken.
func (s *Store) Insert(ctx context.Context, docs ...domain.Document) error {
	if err := s.mu.Lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	batch := uncomparable.New[domain.Document](s.hasher, s.comparer)
	for _, doc := range docs {
		cp := structure.Clone(doc).(domain.Document)
		if _, ok := cp["_id"]; !ok {
			id, err := s.idGenerator.GenerateID()
			if err != nil {
				return fmt.Errorf("generating id: %w", err)
			}
			cp["_id"] = id
		}
		id := cp["_id"]
		_, taken, err := s.docs.Get(id)
		if err != nil {
			return err
		}
		_, repeated, err := batch.Get(id)
		if err != nil {
			return err
		}
		if taken || repeated {
			return ErrDuplicateID{ID: id}
		}
		if err := batch.Set(id, cp); err != nil {
			return err
		}
	}
	for id, doc := range batch.Iter() {
		if err := s.docs.Set(id, doc); err != nil {
			return err
		}
	}
	s.logger.WithField("count", batch.Len()).Debug("documents inserted")
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	_ = s.mu.RLock(context.Background())
	defer s.mu.RUnlock()
	return s.docs.Len()
}

// query runs the querier under a read lock, returning copies of the stored
// documents.
func (s *Store) query(ctx context.Context, filter domain.Filter, opts ...domain.FindOption) ([]domain.Document, error) {
	if err := s.mu.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	res, err := s.querier.Query(s.docs.Values(), filter, opts...)
	if err != nil {
		return nil, err
	}
	for n, doc := range res {
		res[n] = structure.Clone(doc).(domain.Document)
	}
	return res, nil
}

// Find implements [domain.Store]. References are resolved after the lock of
// this store is released.
func (s *Store) Find(ctx context.Context, filter domain.Filter, opts ...domain.FindOption) ([]domain.Document, error) {
	fo := domain.NewFindOptions(opts...)
	s.logger.WithFields(logrus.Fields{
		"filter": filter,
		"limit":  fo.Limit,
		"skip":   fo.Skip,
	}).Debug("find")

	res, err := s.query(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	if len(fo.Populate) > 0 {
		if err := s.populate(ctx, res, fo.Populate); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// FindOne implements [domain.Store].
func (s *Store) FindOne(ctx context.Context, filter domain.Filter, opts ...domain.FindOption) (domain.Document, error) {
	res, err := s.Find(ctx, filter, append(slices.Clip(opts), domain.WithFindLimit(1))...)
	if err != nil || len(res) == 0 {
		return nil, err
	}
	return res[0], nil
}

// Count implements [domain.Store].
func (s *Store) Count(ctx context.Context, filter domain.Filter) (int64, error) {
	res, err := s.query(ctx, filter, domain.WithFindProjection([]string{"_id"}))
	if err != nil {
		return 0, err
	}
	return int64(len(res)), nil
}

// Distinct implements [domain.Store]. List values contribute each of their
// items, and values are returned in the order they are first found.
func (s *Store) Distinct(ctx context.Context, field string, filter domain.Filter) ([]any, error) {
	addr, err := s.fn.GetAddress(field)
	if err != nil {
		return nil, err
	}
	docs, err := s.query(ctx, filter)
	if err != nil {
		return nil, err
	}

	seen := uncomparable.New[any](s.hasher, s.comparer)
	add := func(v any) error {
		_, ok, err := seen.Get(v)
		if err != nil || ok {
			return err
		}
		return seen.Set(v, v)
	}
	for _, doc := range docs {
		values, _, err := s.fn.GetField(doc, addr...)
		if err != nil {
			return nil, err
		}
		for _, value := range values {
			v, defined := value.Get()
			if !defined {
				continue
			}
			items, isList := v.([]any)
			if !isList {
				items = []any{v}
			}
			for _, item := range items {
				if err := add(item); err != nil {
					return nil, err
				}
			}
		}
	}

	res := make([]any, 0, seen.Len())
	for v := range seen.Values() {
		res = append(res, v)
	}
	return res, nil
}

// Aggregate implements [domain.Store]. Pipelines are not supported.
func (s *Store) Aggregate(context.Context, []any) ([]domain.Document, error) {
	return nil, domain.ErrUnsupportedOperation{Operation: domain.OperationAggregate}
}

// MapReduce implements [domain.Store]. Map/reduce is not supported.
func (s *Store) MapReduce(context.Context, domain.MapReduceJob) (any, error) {
	return nil, domain.ErrUnsupportedOperation{Operation: domain.OperationMapReduce}
}
