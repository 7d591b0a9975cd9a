package walker

import "github.com/vinicius-lino-figueiredo/restquery/domain"

// WithCoercer sets the coercer used to detect date strings.
func WithCoercer(c domain.Coercer) Option {
	return func(w *Walker) {
		w.coercer = c
	}
}

// WithAllowJavaScript allows the server side JavaScript operators $where,
// $function and $accumulator, which are rejected by default.
func WithAllowJavaScript(allow bool) Option {
	return func(w *Walker) {
		w.allowJavaScript = allow
	}
}

// WithParam sets the parameter name reported in errors. Defaults to "q".
func WithParam(name string) Option {
	return func(w *Walker) {
		w.param = name
	}
}

// Option configures walker behavior through the functional options pattern.
type Option func(*Walker)
