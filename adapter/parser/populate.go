package parser

import (
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// populate reads the p parameter: a JSON object or array, a comma separated
// list of paths or a single path. Repeated p parameters are concatenated.
func (p *Parser) populate(s *state, v domain.Value) error {
	var opts []domain.PopulateOption
	var err error
	switch v.Kind {
	case domain.Scalar:
		opts, err = p.populateText(v.Scalar)
	case domain.List:
		for _, item := range v.List {
			more, err := p.populateText(item)
			if err != nil {
				return err
			}
			opts = append(opts, more...)
		}
	case domain.Structured:
		opts, err = p.populateValue(v.Structured)
	}
	if err != nil {
		return err
	}
	if len(opts) > 0 {
		s.d.Populate = append(s.d.Populate, opts...)
	}
	return nil
}

func (p *Parser) populateText(raw string) ([]domain.PopulateOption, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil, nil
	case strings.HasPrefix(raw, "{"), strings.HasPrefix(raw, "["),
		strings.HasPrefix(raw, "%7B"), strings.HasPrefix(raw, "%5B"):
		decoded, err := unescape("p", raw)
		if err != nil {
			return nil, err
		}
		parsed, err := p.jsonParser.Parse([]byte(decoded))
		if err != nil {
			return nil, domain.ErrParse{Param: "p", Value: raw, Reason: "malformed JSON", Err: err}
		}
		return p.populateValue(parsed)
	case strings.ContainsRune(raw, ','):
		var opts []domain.PopulateOption
		for path := range strings.SplitSeq(raw, ",") {
			if path = strings.TrimSpace(path); path != "" {
				opts = append(opts, domain.PopulateOption{Path: path})
			}
		}
		return opts, nil
	default:
		return []domain.PopulateOption{{Path: raw}}, nil
	}
}

func (p *Parser) populateValue(v any) ([]domain.PopulateOption, error) {
	items, err := populateItems(v)
	if err != nil {
		return nil, err
	}
	var opts []domain.PopulateOption
	if err := p.decoder.Decode(items, &opts); err != nil {
		return nil, domain.ErrParse{Param: "p", Reason: "invalid populate options", Err: err}
	}
	if err := checkPaths(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// populateItems lifts every accepted populate shape into a list of objects:
// a path becomes {"path": path} and a single object a list of one. Nested
// populate values are lifted the same way.
func populateItems(v any) ([]any, error) {
	if path, ok := v.(string); ok {
		return []any{map[string]any{"path": path}}, nil
	}
	if structure.IsObject(v) {
		item, err := populateItem(v)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	}
	seq, length, err := structure.Seq(v)
	if err != nil {
		return nil, domain.ErrParse{Param: "p", Reason: "populate must be a path, an object or a list", Err: err}
	}
	items := make([]any, 0, length)
	for item := range seq {
		lifted, err := populateItems(item)
		if err != nil {
			return nil, err
		}
		items = append(items, lifted...)
	}
	return items, nil
}

func populateItem(v any) (map[string]any, error) {
	seq, length, _ := structure.Seq2(v)
	item := make(map[string]any, length)
	for k, val := range seq {
		item[k] = val
	}
	if nested, ok := item["populate"]; ok {
		lifted, err := populateItems(nested)
		if err != nil {
			return nil, err
		}
		item["populate"] = lifted
	}
	return item, nil
}

func checkPaths(opts []domain.PopulateOption) error {
	for _, opt := range opts {
		if strings.TrimSpace(opt.Path) == "" {
			return domain.ErrParse{Param: "p", Reason: "populate path is required"}
		}
		if err := checkPaths(opt.Populate); err != nil {
			return err
		}
	}
	return nil
}
