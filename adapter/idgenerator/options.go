package idgenerator

import (
	"io"
	"time"
)

// WithReader sets the reader that will provide random bytes.
func WithReader(r io.Reader) Option {
	return func(igo *IDGenerator) {
		igo.reader = r
	}
}

// WithNow sets the clock used for the timestamp part of identifiers.
func WithNow(now func() time.Time) Option {
	return func(igo *IDGenerator) {
		igo.now = now
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*IDGenerator)
