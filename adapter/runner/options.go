package runner

import (
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// WithStore sets the store descriptors are run against. A runner without a
// store returns [domain.ErrNilStore].
func WithStore(s domain.Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithFlattener sets the flattener applied to documents when a descriptor
// asks for flat results.
func WithFlattener(f domain.Flattener) Option {
	return func(r *Runner) {
		r.flattener = f
	}
}

// WithCompiler sets the compiler for map/reduce sources. The default denies
// every source.
func WithCompiler(c domain.CodeCompiler) Option {
	return func(r *Runner) {
		r.compiler = c
	}
}

// WithJSONParser sets the parser for the map/reduce scope.
func WithJSONParser(j domain.JSONParser) Option {
	return func(r *Runner) {
		r.jsonParser = j
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Option configures runner behavior through the functional options pattern.
type Option func(*Runner)
