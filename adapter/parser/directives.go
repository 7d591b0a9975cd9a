package parser

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

func scalar(key string, v domain.Value) (string, error) {
	if v.Kind != domain.Scalar {
		return "", domain.ErrParse{Param: key, Reason: "expected a single text value, got " + v.Kind.String()}
	}
	return strings.TrimSpace(v.Scalar), nil
}

func (p *Parser) operation(s *state, v domain.Value) error {
	raw, err := scalar("t", v)
	if err != nil || raw == "" {
		return err
	}
	op := domain.OperationType(raw)
	if !op.Valid() {
		return domain.ErrParse{Param: "t", Value: raw, Reason: "unknown operation type"}
	}
	s.d.Operation = op
	return nil
}

func (p *Parser) projection(s *state, v domain.Value) error {
	switch v.Kind {
	case domain.Scalar:
		if raw := strings.TrimSpace(v.Scalar); raw != "" {
			s.d.Projection = append(s.d.Projection, raw)
		}
		return nil
	case domain.List:
		for _, item := range v.List {
			if raw := strings.TrimSpace(item); raw != "" {
				s.d.Projection = append(s.d.Projection, raw)
			}
		}
		return nil
	default:
		return domain.ErrParse{Param: "f", Reason: "projection must be text"}
	}
}

// query decodes the q parameter. It runs after every parameter was routed,
// so the operation type is already known.
func (p *Parser) query(s *state, v domain.Value) error {
	var parsed any
	switch v.Kind {
	case domain.Structured:
		parsed = v.Structured
	default:
		raw, err := scalar("q", v)
		if err != nil || raw == "" {
			return err
		}
		if raw, err = unescape("q", raw); err != nil {
			return err
		}
		parse := p.jsonParser.Parse
		if s.d.Operation == domain.OperationAggregate {
			parse = p.jsonParser.ParseOrdered
		}
		if parsed, err = parse([]byte(raw)); err != nil {
			return domain.ErrParse{Param: "q", Value: raw, Reason: "malformed JSON", Err: err}
		}
	}

	walked, err := p.walker.Walk(parsed)
	if err != nil {
		return err
	}

	if structure.IsObject(walked) {
		if s.d.Operation == domain.OperationAggregate {
			return domain.ErrParse{Param: "q", Reason: "aggregate needs a JSON array of stages"}
		}
		seq, length, _ := structure.Seq2(walked)
		filter := make(domain.Filter, length)
		for k, val := range seq {
			filter[k] = val
		}
		s.d.Filter = filter
		return nil
	}
	if structure.IsList(walked) {
		if s.d.Operation != domain.OperationAggregate {
			return domain.ErrParse{Param: "q", Reason: "a JSON array is only valid with t=aggregate"}
		}
		seq, length, _ := structure.Seq(walked)
		s.d.Pipeline = make([]any, 0, length)
		for stage := range seq {
			s.d.Pipeline = append(s.d.Pipeline, stage)
		}
		return nil
	}
	return domain.ErrParse{Param: "q", Reason: "expected a JSON object"}
}

// unescape undoes one more level of URL encoding for JSON values that arrive
// double encoded.
func unescape(key, raw string) (string, error) {
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw, nil
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", domain.ErrParse{Param: key, Value: raw, Reason: "malformed escape sequence", Err: err}
	}
	return decoded, nil
}

func (p *Parser) sort(s *state, key string, v domain.Value) error {
	var sort domain.Sort
	var err error
	switch v.Kind {
	case domain.Structured:
		sort, err = p.sortObject(key, v.Structured)
	default:
		raw, serr := scalar(key, v)
		if serr != nil || raw == "" {
			return serr
		}
		if strings.HasPrefix(raw, "{") {
			obj, perr := p.jsonParser.ParseOrdered([]byte(raw))
			if perr != nil {
				return domain.ErrParse{Param: key, Value: raw, Reason: "malformed JSON", Err: perr}
			}
			sort, err = p.sortObject(key, obj)
		} else {
			sort, err = sortFields(key, raw)
		}
	}
	if err != nil {
		return err
	}
	if len(sort) > 0 {
		s.d.Sort = sort
	}
	return nil
}

// sortObject reads {"field": order, ...}. Key order is kept for
// [domain.Ordered]; other objects are sorted by key.
func (p *Parser) sortObject(key string, obj any) (domain.Sort, error) {
	seq, length, err := structure.Seq2(obj)
	if err != nil {
		return nil, domain.ErrParse{Param: key, Reason: "sort must be an object or a field list", Err: err}
	}
	sort := make(domain.Sort, 0, length)
	for field, val := range seq {
		order, ok := sortOrder(val)
		if !ok {
			return nil, domain.ErrParse{Param: key, Value: field, Reason: "sort order must be 1 or -1"}
		}
		sort = append(sort, domain.SortField{Key: field, Order: order})
	}
	if _, ordered := obj.(domain.Ordered); !ordered {
		slices.SortFunc(sort, func(a, b domain.SortField) int {
			return strings.Compare(a.Key, b.Key)
		})
	}
	return sort, nil
}

func sortOrder(v any) (int, bool) {
	if n, ok := structure.AsInteger(v); ok {
		return n, n == 1 || n == -1
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "asc", "ascending":
		return 1, true
	case "-1", "desc", "descending":
		return -1, true
	default:
		return 0, false
	}
}

// sortFields reads the "a,-b" or "a -b" form.
func sortFields(key, raw string) (domain.Sort, error) {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	sort := make(domain.Sort, 0, len(tokens))
	for _, tok := range tokens {
		order := 1
		switch tok[0] {
		case '-':
			order, tok = -1, tok[1:]
		case '+':
			tok = tok[1:]
		}
		if tok == "" {
			return nil, domain.ErrParse{Param: key, Value: raw, Reason: "empty sort field"}
		}
		sort = append(sort, domain.SortField{Key: tok, Order: order})
	}
	return sort, nil
}

// sortBy reads field[,direction]. It is applied after s/sort and replaces
// them.
func sortBy(v domain.Value) (domain.Sort, error) {
	raw, err := scalar("sort_by", v)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, domain.ErrParse{Param: "sort_by", Reason: "a field is required"}
	}
	parts := strings.Split(raw, ",")
	if len(parts) > 2 {
		return nil, domain.ErrParse{Param: "sort_by", Value: raw, Reason: "expected field[,direction]"}
	}
	field := strings.TrimSpace(parts[0])
	if field == "" {
		return nil, domain.ErrParse{Param: "sort_by", Value: raw, Reason: "a field is required"}
	}
	order := 1
	if len(parts) == 2 {
		switch strings.TrimSpace(parts[1]) {
		case "", "1":
		case "-1":
			order = -1
		default:
			return nil, domain.ErrParse{Param: "sort_by", Value: raw, Reason: "direction must be 1 or -1"}
		}
	}
	return domain.Sort{{Key: field, Order: order}}, nil
}

func (p *Parser) skip(s *state, key string, v domain.Value) error {
	raw, err := scalar(key, v)
	if err != nil || raw == "" {
		return err
	}
	n, ok := parseInt(raw)
	if !ok {
		return domain.ErrParse{Param: key, Value: raw, Reason: "skip must be an integer"}
	}
	if n < 0 {
		return domain.ErrParse{Param: key, Value: raw, Reason: "skip cannot be negative"}
	}
	s.d.Skip = &n
	return nil
}

func (p *Parser) limit(s *state, key string, v domain.Value) error {
	raw, err := scalar(key, v)
	if err != nil {
		return err
	}
	n, ok := parseInt(raw)
	if !ok {
		p.logger.WithField(key, raw).Debug("limit is not a number, keeping the default")
		return nil
	}
	s.d.Limit = n
	return nil
}

// parseInt reads the integer at the start of s, ignoring anything after it:
// "12abc" is 12. A 0x prefix reads hexadecimal digits.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, s = 16, s[2:]
	}
	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16:
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return false
	}
}

func (p *Parser) flatten(s *state, v domain.Value) error {
	raw, err := scalar("fl", v)
	if err != nil {
		return err
	}
	if raw == "" {
		s.d.Flatten = true
		return nil
	}
	b, ok := p.coercer.Bool(raw)
	if !ok {
		return domain.ErrParse{Param: "fl", Value: raw, Reason: "expected a boolean"}
	}
	s.d.Flatten = b
	return nil
}

func (p *Parser) mapReduceSource(s *state, key string, v domain.Value) error {
	raw, err := scalar(key, v)
	if err != nil {
		return err
	}
	switch key {
	case "map":
		s.mapReduce.Map = raw
	case "reduce":
		s.mapReduce.Reduce = raw
	case "scope":
		s.mapReduce.Scope = raw
	case "finalize":
		s.mapReduce.Finalize = raw
	}
	return nil
}
