// Package assembler contains the default [domain.Assembler], which turns an
// operator token and its literal into filter conditions.
package assembler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/adapter/coercer"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

const regexFlags = "imsxu"

// Assembler implements [domain.Assembler].
type Assembler struct {
	coercer domain.Coercer
}

// NewAssembler returns a new implementation of [domain.Assembler].
func NewAssembler(options ...Option) domain.Assembler {
	a := &Assembler{
		coercer: coercer.NewCoercer(),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Assemble implements [domain.Assembler].
func (a *Assembler) Assemble(filter domain.Filter, field string, tok domain.Token) error {
	switch tok.Op {
	case domain.OpEmpty:
		return a.emptiness(filter, domain.Or, field)
	case domain.OpNotEmpty:
		return a.emptiness(filter, domain.Nor, field)
	}

	if tok.Literal == "" {
		return nil
	}

	switch tok.Op {
	case domain.OpNone:
		return a.plain(filter, field, tok.Literal)
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		return a.set(filter, field, operator(tok.Op, a.coercer.Value(tok.Literal)))
	case domain.OpNe:
		if b, ok := a.coercer.Bool(tok.Literal); ok {
			return a.set(filter, field, operator(tok.Op, b))
		}
		return a.set(filter, field, operator(tok.Op, a.coercer.Value(tok.Literal)))
	case domain.OpIn, domain.OpNin, domain.OpAll:
		return a.set(filter, field, operator(tok.Op, a.list(tok.Literal)))
	case domain.OpMod:
		return a.mod(filter, field, tok.Literal)
	case domain.OpSize:
		n, err := strconv.ParseInt(strings.TrimSpace(tok.Literal), 10, 64)
		if err != nil || n < 0 {
			return parseErr(field, tok.Literal, "size must be a non-negative integer")
		}
		return a.set(filter, field, operator(tok.Op, n))
	case domain.OpInsensitive:
		lit := regexp.QuoteMeta(tok.Literal)
		return a.set(filter, field, domain.Regex{Pattern: "^" + lit + "$", Options: "i"})
	case domain.OpEndsWith:
		return a.set(filter, field, domain.Regex{Pattern: regexp.QuoteMeta(tok.Literal) + "$"})
	case domain.OpBeginsWith:
		return a.set(filter, field, domain.Regex{Pattern: "^" + regexp.QuoteMeta(tok.Literal)})
	case domain.OpCustom:
		return a.custom(filter, field, tok.Literal)
	case domain.OpElemMatch:
		return a.elemMatch(filter, field, tok.Literal)
	default:
		return parseErr(field, tok.Literal, "unknown operator "+string(tok.Op))
	}
}

func (a *Assembler) plain(filter domain.Filter, field, literal string) error {
	if b, ok := a.coercer.Bool(literal); ok {
		if b {
			return a.set(filter, field, true)
		}
		// a missing field is read as false too
		if err := appendClause(filter, domain.Or, domain.Filter{field: domain.Filter{"$exists": false}}); err != nil {
			return err
		}
		return appendClause(filter, domain.Or, domain.Filter{field: false})
	}

	if r, ok := a.coercer.Regex(literal); ok {
		if err := r.Validate(); err != nil {
			return parseErr(field, literal, "invalid pattern: "+err.Error())
		}
		return a.set(filter, field, r)
	}

	if strings.ContainsRune(literal, '|') {
		for part := range strings.SplitSeq(literal, "|") {
			if part == "" {
				continue
			}
			if err := appendClause(filter, domain.Or, domain.Filter{field: a.coercer.Value(part)}); err != nil {
				return err
			}
		}
		return nil
	}

	return a.set(filter, field, a.coercer.Value(literal))
}

func (a *Assembler) emptiness(filter domain.Filter, combinator, field string) error {
	if err := appendClause(filter, combinator, domain.Filter{field: ""}); err != nil {
		return err
	}
	return appendClause(filter, combinator, domain.Filter{field: domain.Filter{"$exists": false}})
}

func (a *Assembler) list(literal string) []any {
	parts := strings.Split(literal, ",")
	values := make([]any, len(parts))
	for n, part := range parts {
		values[n] = a.coercer.ValueNoDate(part)
	}
	return values
}

func (a *Assembler) mod(filter domain.Filter, field, literal string) error {
	parts := strings.Split(literal, ",")
	if len(parts) != 2 {
		return parseErr(field, literal, "mod needs a divisor and a remainder")
	}
	values := make([]any, 2)
	for n, part := range parts {
		num, ok := a.coercer.Number(part)
		if !ok {
			return parseErr(field, literal, "mod arguments must be numbers")
		}
		values[n] = num
	}
	return a.set(filter, field, operator(domain.OpMod, values))
}

func (a *Assembler) custom(filter domain.Filter, field, literal string) error {
	idx := strings.LastIndexByte(literal, '/')
	if idx < 0 {
		return parseErr(field, literal, "custom pattern must be written as pattern/flags")
	}
	pattern, flags := literal[:idx], literal[idx+1:]
	if pattern == "" {
		return parseErr(field, literal, "custom pattern is empty")
	}
	for _, f := range flags {
		if !strings.ContainsRune(regexFlags, f) {
			return parseErr(field, literal, "unknown pattern flag "+strconv.QuoteRune(f))
		}
	}
	r := domain.Regex{Pattern: pattern, Options: flags}
	if err := r.Validate(); err != nil {
		return parseErr(field, literal, "invalid pattern: "+err.Error())
	}
	return a.set(filter, field, r)
}

func (a *Assembler) elemMatch(filter domain.Filter, field, literal string) error {
	key, value, found := strings.Cut(literal, ",")
	if !found || key == "" {
		return parseErr(field, literal, "element match must be written as key,value")
	}
	if strings.HasPrefix(key, "$") {
		return domain.ErrSecurityRejection{Key: field, Reason: "element match key cannot be an operator"}
	}
	return a.set(filter, field, domain.Filter{"$elemMatch": domain.Filter{key: a.coercer.Value(value)}})
}

// set writes cond for field. When field already holds a condition, the new one
// is added to $and so neither is lost.
func (a *Assembler) set(filter domain.Filter, field string, cond any) error {
	if _, exists := filter[field]; exists {
		return appendClause(filter, domain.And, domain.Filter{field: cond})
	}
	filter[field] = cond
	return nil
}

func appendClause(filter domain.Filter, combinator string, clause domain.Filter) error {
	current, exists := filter[combinator]
	if !exists {
		filter[combinator] = []any{clause}
		return nil
	}
	list, ok := current.([]any)
	if !ok {
		return parseErr(combinator, "", "combinator must hold a list of conditions")
	}
	filter[combinator] = append(list, clause)
	return nil
}

func operator(op domain.Operator, v any) domain.Filter {
	return domain.Filter{"$" + string(op): v}
}

func parseErr(field, value, reason string) error {
	return domain.ErrParse{Param: field, Value: value, Reason: reason}
}
