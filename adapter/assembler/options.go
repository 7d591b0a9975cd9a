package assembler

import "github.com/vinicius-lino-figueiredo/restquery/domain"

// WithCoercer sets the coercer used to type literals.
func WithCoercer(c domain.Coercer) Option {
	return func(a *Assembler) {
		a.coercer = c
	}
}

// Option configures assembler behavior through the functional options pattern.
type Option func(*Assembler)
