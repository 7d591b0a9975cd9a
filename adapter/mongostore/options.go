package mongostore

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// WithCollection sets the collection queries run against. Required.
func WithCollection(c *mongo.Collection) Option {
	return func(s *Store) {
		s.coll = c
	}
}

// WithReference maps a populate path to the collection holding the
// referenced documents. Populate options naming a model use the model
// instead, and unmapped paths use the path itself as collection name.
func WithReference(path, collection string) Option {
	return func(s *Store) {
		s.references[path] = collection
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
