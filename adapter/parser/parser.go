// Package parser contains the default [domain.Parser]. It routes every
// request parameter either to a descriptor directive (q, t, f, s, sk, l, p,
// fl and the map/reduce sources) or to a field condition, then applies the
// descriptor defaults and validation.
package parser

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/assembler"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/coercer"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/grammar"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/jsonparser"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/walker"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/logging"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// Parser implements [domain.Parser]. It holds no per-call state and is safe
// for concurrent use.
type Parser struct {
	tokenizer       domain.Tokenizer
	coercer         domain.Coercer
	assembler       domain.Assembler
	walker          domain.Walker
	jsonParser      domain.JSONParser
	decoder         domain.Decoder
	logger          logrus.FieldLogger
	defaultLimit    int64
	ignoredKeys     map[string]bool
	ignoreFieldKeys bool
}

// NewParser returns a new implementation of [domain.Parser].
func NewParser(options ...Option) domain.Parser {
	p := &Parser{
		tokenizer:    grammar.NewTokenizer(),
		coercer:      coercer.NewCoercer(),
		jsonParser:   jsonparser.NewJSONParser(),
		decoder:      decoder.NewDecoder(),
		logger:       logging.Discard(),
		defaultLimit: domain.DefaultLimit,
		ignoredKeys:  make(map[string]bool),
	}
	for _, option := range options {
		option(p)
	}
	if p.assembler == nil {
		p.assembler = assembler.NewAssembler(assembler.WithCoercer(p.coercer))
	}
	if p.walker == nil {
		p.walker = walker.NewWalker(walker.WithCoercer(p.coercer))
	}
	return p
}

// state is the scratch data of a single Parse call.
type state struct {
	d         domain.Descriptor
	q         *domain.Value
	sortBy    *domain.Value
	mapReduce domain.MapReduceSource
	fields    domain.Params
}

// Parse implements [domain.Parser]. Keys starting with '$' fail the whole
// call before anything else is read.
func (p *Parser) Parse(params domain.Params) (domain.Descriptor, error) {
	for _, param := range params {
		if strings.HasPrefix(param.Key, "$") {
			return domain.Descriptor{}, domain.ErrSecurityRejection{
				Key:    param.Key,
				Reason: "parameter names cannot start with '$'",
			}
		}
	}

	s := &state{d: domain.NewDescriptor()}
	s.d.Limit = p.defaultLimit

	for _, param := range params {
		if err := p.route(s, param); err != nil {
			return domain.Descriptor{}, err
		}
	}

	if err := p.filter(s); err != nil {
		return domain.Descriptor{}, err
	}
	if err := p.validate(s); err != nil {
		return domain.Descriptor{}, err
	}

	p.logger.WithFields(logrus.Fields{
		"params":    len(params),
		"operation": s.d.Operation,
		"limit":     s.d.Limit,
	}).Debug("parsed query parameters")
	return s.d, nil
}

func (p *Parser) route(s *state, param domain.Param) error {
	key, v := param.Key, param.Value

	switch key {
	case "f", "select", "p":
	default:
		if isDirective(key) && v.Kind == domain.List {
			return domain.ErrParse{
				Param:  key,
				Value:  strings.Join(v.List, ","),
				Reason: "parameter cannot be repeated",
			}
		}
	}

	switch key {
	case "q":
		s.q = &v
		return nil
	case "t":
		return p.operation(s, v)
	case "f", "select":
		return p.projection(s, v)
	case "s", "sort":
		return p.sort(s, key, v)
	case "sort_by":
		s.sortBy = &v
		return nil
	case "sk", "skip", "skips":
		return p.skip(s, key, v)
	case "l", "limit":
		return p.limit(s, key, v)
	case "p":
		return p.populate(s, v)
	case "fl":
		return p.flatten(s, v)
	case "map", "reduce", "scope", "finalize":
		return p.mapReduceSource(s, key, v)
	default:
		if p.ignoreFieldKeys || p.ignoredKeys[key] {
			p.logger.WithField("key", key).Debug("ignoring field key")
			return nil
		}
		s.fields = append(s.fields, param)
		return nil
	}
}

func isDirective(key string) bool {
	switch key {
	case "q", "t", "f", "select", "s", "sort", "sort_by", "sk", "skip",
		"skips", "l", "limit", "p", "fl", "map", "reduce", "scope",
		"finalize":
		return true
	default:
		return false
	}
}

// filter builds the descriptor filter: the q filter first, then one condition
// per field key, in parameter order.
func (p *Parser) filter(s *state) error {
	if s.q != nil {
		if err := p.query(s, *s.q); err != nil {
			return err
		}
	}
	for _, param := range s.fields {
		if err := p.field(s.d.Filter, param); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) field(filter domain.Filter, param domain.Param) error {
	switch param.Value.Kind {
	case domain.Scalar:
		return p.assembler.Assemble(filter, param.Key, p.tokenizer.Split(param.Value.Scalar))
	case domain.List:
		for _, item := range param.Value.List {
			sub := domain.Filter{}
			if err := p.assembler.Assemble(sub, param.Key, p.tokenizer.Split(item)); err != nil {
				return err
			}
			if len(sub) > 0 {
				if err := appendAnd(filter, param.Key, sub); err != nil {
					return err
				}
			}
		}
		return nil
	case domain.Structured:
		if key, found := operatorKey(param.Value.Structured); found {
			return domain.ErrSecurityRejection{
				Key:    param.Key + "." + key,
				Reason: "structured values cannot contain operators",
			}
		}
		v, err := p.walker.Walk(param.Value.Structured)
		if err != nil {
			return err
		}
		if _, exists := filter[param.Key]; exists {
			return appendAnd(filter, param.Key, domain.Filter{param.Key: v})
		}
		filter[param.Key] = v
		return nil
	default:
		return domain.ErrParse{Param: param.Key, Reason: "unknown value kind " + param.Value.Kind.String()}
	}
}

// operatorKey returns the first key starting with '$' found anywhere in v.
func operatorKey(v any) (string, bool) {
	if seq, _, err := structure.Seq2(v); err == nil {
		for k, val := range seq {
			if strings.HasPrefix(k, "$") {
				return k, true
			}
			if found, ok := operatorKey(val); ok {
				return k + "." + found, true
			}
		}
		return "", false
	}
	if seq, _, err := structure.Seq(v); err == nil {
		for val := range seq {
			if found, ok := operatorKey(val); ok {
				return found, true
			}
		}
	}
	return "", false
}

func appendAnd(filter domain.Filter, key string, clause domain.Filter) error {
	current, exists := filter[domain.And]
	if !exists {
		filter[domain.And] = []any{clause}
		return nil
	}
	list, ok := current.([]any)
	if !ok {
		return domain.ErrParse{Param: key, Reason: "$and must hold a list of conditions"}
	}
	filter[domain.And] = append(list, clause)
	return nil
}
