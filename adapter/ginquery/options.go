package ginquery

import (
	"github.com/sirupsen/logrus"
)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRequestIDHeader sets the header read for, and written with, the
// request id. Defaults to X-Request-Id.
func WithRequestIDHeader(name string) Option {
	return func(h *handler) {
		h.requestIDHeader = name
	}
}

// Option configures the middleware and handler through the functional
// options pattern.
type Option func(*handler)
