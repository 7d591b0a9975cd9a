// Package fieldnavigator contains the default [domain.FieldNavigator]
// implementation. Paths are split on dots. Numeric segments index lists, while
// other segments crossing a list are applied to every item, one level deep.
package fieldnavigator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// ErrInvalidField is returned for paths with empty segments, such as "a..b".
type ErrInvalidField struct {
	Field string
}

// Error implements [error].
func (e ErrInvalidField) Error() string {
	return fmt.Sprintf("invalid field path %q", e.Field)
}

// FieldNavigator implements [domain.FieldNavigator].
type FieldNavigator struct{}

// NewFieldNavigator returns a new implementation of [domain.FieldNavigator].
func NewFieldNavigator() domain.FieldNavigator {
	return &FieldNavigator{}
}

// GetAddress implements [domain.FieldNavigator].
func (fn *FieldNavigator) GetAddress(field string) ([]string, error) {
	addr := strings.Split(field, ".")
	for _, part := range addr {
		if part == "" {
			return nil, ErrInvalidField{Field: field}
		}
	}
	return addr, nil
}

// GetField implements [domain.FieldNavigator]. At least one value is always
// returned; missing fields are represented by undefined values.
func (fn *FieldNavigator) GetField(doc any, addr ...string) ([]domain.GetSetter, bool, error) {
	if len(addr) == 0 {
		return nil, false, ErrInvalidField{}
	}
	res, expanded := fn.walk(doc, addr, nil, false)
	return res, expanded, nil
}

func (fn *FieldNavigator) walk(v any, addr []string, res []domain.GetSetter, expanded bool) ([]domain.GetSetter, bool) {
	key, rest := addr[0], addr[1:]

	switch t := v.(type) {
	case domain.Document:
		if len(rest) == 0 {
			return append(res, NewGetSetterWithDoc(t, key)), expanded
		}
		child, ok := t[key]
		if !ok {
			return append(res, NewGetSetterEmpty()), expanded
		}
		return fn.walk(child, rest, res, expanded)
	case []any:
		if idx, err := strconv.Atoi(key); err == nil {
			if len(rest) == 0 {
				return append(res, NewGetSetterWithArrayIndex(t, idx)), expanded
			}
			if idx < 0 || idx >= len(t) {
				return append(res, NewGetSetterEmpty()), expanded
			}
			return fn.walk(t[idx], rest, res, expanded)
		}
		if len(t) == 0 {
			return append(res, NewGetSetterEmpty()), true
		}
		for _, item := range t {
			if _, nested := item.([]any); nested {
				res = append(res, NewGetSetterEmpty())
				continue
			}
			res, _ = fn.walk(item, addr, res, true)
		}
		return res, true
	default:
		return append(res, NewGetSetterEmpty()), expanded
	}
}
