// Package params builds [domain.Params] from the shapes request parameters
// usually arrive in: decoded url.Values, raw query strings and generic maps.
package params

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// ErrQuery is returned by [FromQuery] when a key or value is not correctly
// escaped.
type ErrQuery struct {
	Pair string
	Err  error
}

// Error implements [error].
func (e ErrQuery) Error() string {
	return fmt.Sprintf("invalid query pair %q: %s", e.Pair, e.Err)
}

// Unwrap returns the underlying error.
func (e ErrQuery) Unwrap() error { return e.Err }

// FromValues returns the params in v sorted by key. Keys with more than one
// value become lists.
func FromValues(v url.Values) domain.Params {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ps := make(domain.Params, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, domain.Param{Key: k, Value: fromStrings(v[k])})
	}
	return ps
}

// FromQuery decodes a raw query string such as "a=1&b={gt}2", keeping keys
// in the order they first appear. Repeated keys become lists.
func FromQuery(raw string) (domain.Params, error) {
	var keys []string
	values := make(map[string][]string)
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, ErrQuery{Pair: pair, Err: err}
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, ErrQuery{Pair: pair, Err: err}
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = append(values[key], value)
	}

	ps := make(domain.Params, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, domain.Param{Key: k, Value: fromStrings(values[k])})
	}
	return ps, nil
}

// FromMap converts a generic map, such as a decoded JSON request body, sorted
// by key. Strings, numbers and booleans become scalars, lists of those become
// lists and objects become structured values. A nil value is an empty scalar.
func FromMap(m any) (domain.Params, error) {
	seq, length, err := structure.Seq2(m)
	if err != nil {
		return nil, err
	}
	ps := make(domain.Params, 0, length)
	for k, v := range seq {
		value, err := fromAny(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		ps = append(ps, domain.Param{Key: k, Value: value})
	}
	slices.SortFunc(ps, func(a, b domain.Param) int {
		return strings.Compare(a.Key, b.Key)
	})
	return ps, nil
}

func fromStrings(l []string) domain.Value {
	if len(l) == 0 {
		return domain.ScalarValue("")
	}
	return domain.ListValue(l...)
}

func fromAny(v any) (domain.Value, error) {
	if v == nil {
		return domain.ScalarValue(""), nil
	}
	if s, ok := scalar(v); ok {
		return domain.ScalarValue(s), nil
	}
	if structure.IsObject(v) {
		return domain.StructuredValue(v), nil
	}
	seq, _, err := structure.Seq(v)
	if err != nil {
		return domain.Value{}, err
	}
	var l []string
	for item := range seq {
		s, ok := scalar(item)
		if !ok {
			return domain.StructuredValue(v), nil
		}
		l = append(l, s)
	}
	return fromStrings(l), nil
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	}
	if n, ok := structure.AsInteger(v); ok {
		return strconv.Itoa(n), true
	}
	return "", false
}
