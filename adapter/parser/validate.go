package parser

import (
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// validate applies sort_by and checks that the directives the operation
// depends on are present.
func (p *Parser) validate(s *state) error {
	if s.sortBy != nil {
		sort, err := sortBy(*s.sortBy)
		if err != nil {
			return err
		}
		s.d.Sort = sort
	}

	switch s.d.Operation {
	case domain.OperationDistinct:
		if s.d.DistinctField() == "" {
			return domain.ErrParse{Param: "f", Reason: "distinct needs a field"}
		}
	case domain.OperationAggregate:
		if s.d.Pipeline == nil {
			return domain.ErrParse{Param: "q", Reason: "aggregate needs a JSON array of stages"}
		}
	case domain.OperationMapReduce:
		return p.validateMapReduce(s)
	}

	if s.mapReduce != (domain.MapReduceSource{}) {
		p.logger.WithField("operation", s.d.Operation).
			Debug("ignoring map/reduce parameters")
	}
	return nil
}

func (p *Parser) validateMapReduce(s *state) error {
	mr := s.mapReduce
	if mr.Map == "" {
		return domain.ErrParse{Param: "map", Reason: "mapReduce needs a map function"}
	}
	if mr.Reduce == "" {
		return domain.ErrParse{Param: "reduce", Reason: "mapReduce needs a reduce function"}
	}
	if mr.Scope != "" {
		scope, err := p.jsonParser.Parse([]byte(mr.Scope))
		if err != nil {
			return domain.ErrParse{Param: "scope", Value: mr.Scope, Reason: "malformed JSON", Err: err}
		}
		if !structure.IsObject(scope) {
			return domain.ErrParse{Param: "scope", Value: mr.Scope, Reason: "scope must be a JSON object"}
		}
	}
	s.d.MapReduce = &mr
	return nil
}
