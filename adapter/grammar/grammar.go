// Package grammar contains the default [domain.Tokenizer], which reads the
// leading {operator} token of a raw parameter value.
package grammar

import (
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

var operators = map[string]domain.Operator{
	"gt":     domain.OpGt,
	"gte":    domain.OpGte,
	"lt":     domain.OpLt,
	"lte":    domain.OpLte,
	"in":     domain.OpIn,
	"nin":    domain.OpNin,
	"ne":     domain.OpNe,
	"size":   domain.OpSize,
	"all":    domain.OpAll,
	"mod":    domain.OpMod,
	"i":      domain.OpInsensitive,
	"e":      domain.OpEndsWith,
	"b":      domain.OpBeginsWith,
	"m":      domain.OpElemMatch,
	"empty":  domain.OpEmpty,
	"!empty": domain.OpNotEmpty,
	"c":      domain.OpCustom,
}

// Tokenizer implements [domain.Tokenizer].
type Tokenizer struct{}

// NewTokenizer returns a new implementation of [domain.Tokenizer].
func NewTokenizer() domain.Tokenizer {
	return Tokenizer{}
}

// Split implements [domain.Tokenizer].
func (Tokenizer) Split(raw string) domain.Token {
	return Split(raw)
}

// Split returns the operator at the start of raw and the literal following
// it. Only recognized operators count: "{x}a" has no operator and "{x}a" is
// the literal.
func Split(raw string) domain.Token {
	if len(raw) < 3 || raw[0] != '{' {
		return domain.Token{Op: domain.OpNone, Literal: raw}
	}
	end := strings.IndexByte(raw, '}')
	if end < 0 {
		return domain.Token{Op: domain.OpNone, Literal: raw}
	}
	op, ok := operators[raw[1:end]]
	if !ok {
		return domain.Token{Op: domain.OpNone, Literal: raw}
	}
	return domain.Token{Op: op, Literal: raw[end+1:]}
}
