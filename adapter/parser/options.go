package parser

import (
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// WithTokenizer sets the tokenizer that reads {operator} prefixes.
func WithTokenizer(t domain.Tokenizer) Option {
	return func(p *Parser) {
		p.tokenizer = t
	}
}

// WithCoercer sets the coercer used for directive values. Unless an assembler
// or walker is also given, the default ones are built with it too.
func WithCoercer(c domain.Coercer) Option {
	return func(p *Parser) {
		p.coercer = c
	}
}

// WithAssembler sets the assembler that writes field conditions.
func WithAssembler(a domain.Assembler) Option {
	return func(p *Parser) {
		p.assembler = a
	}
}

// WithWalker sets the walker used on filters decoded from the q parameter.
func WithWalker(w domain.Walker) Option {
	return func(p *Parser) {
		p.walker = w
	}
}

// WithJSONParser sets the parser for JSON parameter values.
func WithJSONParser(j domain.JSONParser) Option {
	return func(p *Parser) {
		p.jsonParser = j
	}
}

// WithDecoder sets the decoder used for structured populate options.
func WithDecoder(d domain.Decoder) Option {
	return func(p *Parser) {
		p.decoder = d
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDefaultLimit sets the limit used when no valid limit parameter is
// given. Defaults to [domain.DefaultLimit].
func WithDefaultLimit(l int64) Option {
	return func(p *Parser) {
		p.defaultLimit = l
	}
}

// WithIgnoredKeys sets field keys that never become conditions.
func WithIgnoredKeys(keys ...string) Option {
	return func(p *Parser) {
		for _, k := range keys {
			p.ignoredKeys[k] = true
		}
	}
}

// WithIgnoreFieldKeys makes the parser skip every field key, leaving the
// filter to the q parameter alone.
func WithIgnoreFieldKeys(ignore bool) Option {
	return func(p *Parser) {
		p.ignoreFieldKeys = ignore
	}
}

// Option configures parser behavior through the functional options pattern.
type Option func(*Parser)
