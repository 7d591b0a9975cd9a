// Package jsonparser contains the default [domain.JSONParser]. It reads JSON
// parameter values strictly, can keep the key order of objects and unwraps
// the Extended JSON forms {"$oid": ...} and {"$date": ...}.
package jsonparser

import (
	"io"
	"regexp"
	"strconv"
	"time"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

var numberPattern = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

// Parser implements [domain.JSONParser].
type Parser struct {
	maxDepth int
	extended bool
}

// NewJSONParser returns a new implementation of [domain.JSONParser].
func NewJSONParser(options ...Option) domain.JSONParser {
	p := &Parser{
		maxDepth: 64,
		extended: true,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Parse implements [domain.JSONParser].
func (p *Parser) Parse(data []byte) (any, error) {
	return p.run(data, false)
}

// ParseOrdered implements [domain.JSONParser].
func (p *Parser) ParseOrdered(data []byte) (any, error) {
	return p.run(data, true)
}

func (p *Parser) run(data []byte, ordered bool) (any, error) {
	r := &reader{
		data:     data,
		n:        len(data),
		ordered:  ordered,
		extended: p.extended,
		maxDepth: p.maxDepth,
	}
	v, err := r.parse()
	if err != nil {
		return nil, ErrSyntax{Offset: r.i, Err: err}
	}
	return v, nil
}

type reader struct {
	data     []byte
	i        int
	n        int
	depth    int
	maxDepth int
	ordered  bool
	extended bool
}

func (r *reader) parse() (any, error) {
	r.skip()
	val, err := r.value()
	if err != nil {
		return nil, err
	}
	r.skip()
	if r.i != r.n {
		return nil, ErrTrailingData
	}
	return val, nil
}

func (r *reader) skip() {
	for r.i < r.n {
		switch r.data[r.i] {
		case ' ', '\t', '\n', '\r':
			r.i++
		default:
			return
		}
	}
}

func (r *reader) value() (any, error) {
	if r.i >= r.n {
		return nil, io.ErrUnexpectedEOF
	}
	switch r.data[r.i] {
	case '{':
		return r.nested(r.obj)
	case '[':
		return r.nested(r.arr)
	case '"':
		return r.str()
	case 't':
		return r.expect("true", true)
	case 'f':
		return r.expect("false", false)
	case 'n':
		return r.expect("null", nil)
	default:
		return r.num()
	}
}

func (r *reader) nested(fn func() (any, error)) (any, error) {
	if r.depth++; r.depth > r.maxDepth {
		return nil, ErrTooDeep
	}
	v, err := fn()
	r.depth--
	return v, err
}

func (r *reader) obj() (any, error) {
	r.i++ // skip '{'
	r.skip()
	var pairs domain.Ordered
	if r.i < r.n && r.data[r.i] == '}' {
		r.i++
		return r.object(pairs), nil
	}
	index := make(map[string]int)
	for {
		r.skip()
		key, err := r.str()
		if err != nil {
			return nil, err
		}
		r.skip()
		if r.i >= r.n || r.data[r.i] != ':' {
			return nil, ErrNoColon
		}
		r.i++
		r.skip()
		val, err := r.value()
		if err != nil {
			return nil, err
		}
		// a repeated key keeps its first position and its last value
		if n, ok := index[key]; ok {
			pairs[n].Value = val
		} else {
			index[key] = len(pairs)
			pairs = append(pairs, domain.Pair{Key: key, Value: val})
		}
		r.skip()
		if r.i >= r.n {
			return nil, io.ErrUnexpectedEOF
		}
		if r.data[r.i] == '}' {
			r.i++
			break
		}
		if r.data[r.i] != ',' {
			return nil, ErrNoComma
		}
		r.i++
	}
	if r.extended && len(pairs) == 1 {
		if v, ok, err := unwrap(pairs[0]); ok || err != nil {
			return v, err
		}
	}
	return r.object(pairs), nil
}

func (r *reader) object(pairs domain.Ordered) any {
	if r.ordered {
		if pairs == nil {
			return domain.Ordered{}
		}
		return pairs
	}
	m := make(map[string]any, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}

func unwrap(p domain.Pair) (any, bool, error) {
	switch p.Key {
	case "$oid":
		s, ok := p.Value.(string)
		if !ok || !domain.IsObjectIDHex(s) {
			return nil, true, ErrInvalidObjectID
		}
		return domain.ObjectID(s), true, nil
	case "$date":
		switch t := p.Value.(type) {
		case float64:
			return time.UnixMilli(int64(t)).UTC(), true, nil
		case string:
			d, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, true, ErrInvalidDate
			}
			return d, true, nil
		}
		return nil, true, ErrInvalidDate
	}
	return nil, false, nil
}

func (r *reader) arr() (any, error) {
	r.i++ // skip '['
	r.skip()
	out := []any{}
	if r.i < r.n && r.data[r.i] == ']' {
		r.i++
		return out, nil
	}
	for {
		val, err := r.value()
		if err != nil {
			return nil, err
		}
		out = append(out, val)
		r.skip()
		if r.i >= r.n {
			return nil, io.ErrUnexpectedEOF
		}
		if r.data[r.i] == ']' {
			r.i++
			break
		}
		if r.data[r.i] != ',' {
			return nil, ErrNoComma
		}
		r.i++
		r.skip()
	}
	return out, nil
}

func (r *reader) str() (string, error) {
	if r.i >= r.n || r.data[r.i] != '"' {
		return "", ErrExpectedString
	}
	for i := r.i + 1; i < r.n; i++ {
		switch r.data[i] {
		case '\\':
			i++
		case '"':
			s, err := decodeString(r.data[r.i+1 : i])
			if err != nil {
				return "", err
			}
			r.i = i + 1
			return s, nil
		}
	}
	return "", ErrUnterminatedString
}

func decodeString(b []byte) (string, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '\\':
			if i+1 >= len(b) {
				return "", ErrUnterminatedString
			}
			switch e := b[i+1]; e {
			case '"', '\\', '/':
				out = append(out, e)
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'u':
				rr, size, err := slashU(b[i:])
				if err != nil {
					return "", err
				}
				out = utf8.AppendRune(out, rr)
				i += size
				continue
			default:
				return "", ErrUnknownEscapeChar{Char: e}
			}
			i += 2

		case c < ' ':
			return "", ErrInvalidControlChar{Char: c}

		case c < utf8.RuneSelf:
			out = append(out, c)
			i++

		default:
			rr, size := utf8.DecodeRune(b[i:])
			out = utf8.AppendRune(out, rr)
			i += size
		}
	}
	return string(out), nil
}

// slashU reads a \uXXXX escape, combining it with a following one when both
// form a surrogate pair. Unpaired surrogates become U+FFFD.
func slashU(b []byte) (rune, int, error) {
	rr := hexRune(b)
	if rr < 0 {
		return 0, 0, ErrInvalidUTF8Char
	}
	if !utf16.IsSurrogate(rr) {
		return rr, 6, nil
	}
	if rr1 := hexRune(b[6:]); rr1 >= 0 {
		if dec := utf16.DecodeRune(rr, rr1); dec != unicode.ReplacementChar {
			return dec, 12, nil
		}
	}
	return unicode.ReplacementChar, 6, nil
}

func hexRune(b []byte) rune {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return -1
	}
	r, err := strconv.ParseUint(string(b[2:6]), 16, 16)
	if err != nil {
		return -1
	}
	return rune(r)
}

func (r *reader) num() (any, error) {
	start := r.i
	for r.i < r.n {
		c := r.data[r.i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			r.i++
		} else {
			break
		}
	}
	s := string(r.data[start:r.i])
	if !numberPattern.MatchString(s) {
		r.i = start
		return nil, ErrInvalidNumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrInvalidNumber
	}
	return v, nil
}

func (r *reader) expect(lit string, val any) (any, error) {
	end := r.i + len(lit)
	if end > r.n || string(r.data[r.i:end]) != lit {
		limit := min(r.n, end)
		return nil, ErrInvalidLiteral{Value: string(r.data[r.i:limit])}
	}
	r.i = end
	return val, nil
}
