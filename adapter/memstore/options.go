package memstore

import (
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// WithQuerier sets the querier that runs find options over stored documents.
func WithQuerier(q domain.Querier) Option {
	return func(s *Store) {
		s.querier = q
	}
}

// WithComparer sets the comparer used to find documents by _id and to
// dedupe distinct values.
func WithComparer(c domain.Comparer) Option {
	return func(s *Store) {
		s.comparer = c
	}
}

// WithHasher sets the hasher paired with the comparer. Values considered
// equal by one must have the same hash in the other.
func WithHasher(h domain.Hasher) Option {
	return func(s *Store) {
		s.hasher = h
	}
}

// WithFieldNavigator sets the field navigator used by distinct and populate.
func WithFieldNavigator(fn domain.FieldNavigator) Option {
	return func(s *Store) {
		s.fn = fn
	}
}

// WithIDGenerator sets the generator of _id values for documents inserted
// without one.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(s *Store) {
		s.idGenerator = g
	}
}

// WithJSONParser sets the parser of the lines read by [Store.Load].
func WithJSONParser(p domain.JSONParser) Option {
	return func(s *Store) {
		s.parser = p
	}
}

// WithReference registers the store holding the documents referenced by a
// populate path or model name. Populate options are looked up by model first,
// then by path.
func WithReference(name string, ref *Store) Option {
	return func(s *Store) {
		s.references[name] = ref
	}
}

// WithCorruptAlertThreshold sets the fraction of lines [Store.Load] accepts to
// skip as corrupt. Defaults to 0.1.
func WithCorruptAlertThreshold(t float64) Option {
	return func(s *Store) {
		s.corruptAlertThreshold = t
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Option configures store behavior through the functional options pattern.
type Option func(*Store)
