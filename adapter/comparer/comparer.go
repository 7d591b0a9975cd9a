// Package comparer contains the default [domain.Comparer] implementation. It
// follows the type order used by MongoDB: undefined, null, numbers, strings,
// objects, lists, identifiers, booleans, dates and patterns.
package comparer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// Type classes, in ascending order.
const (
	Undefined uint8 = iota
	Null
	Number
	String
	Object
	List
	Identifier
	Boolean
	Date
	Pattern
)

// ErrUncomparable is returned when a value has no type class.
type ErrUncomparable struct {
	Value any
}

// Error implements [error].
func (e ErrUncomparable) Error() string {
	return fmt.Sprintf("cannot compare value of type %T", e.Value)
}

// Comparer implements [domain.Comparer].
type Comparer struct{}

// NewComparer returns a new implementation of [domain.Comparer].
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Compare implements [domain.Comparer]. [domain.Getter] values are read
// first, and undefined values are lower than anything else.
func (c *Comparer) Compare(a, b any) (int, error) {
	a, aDefined := Concrete(a)
	b, bDefined := Concrete(b)

	ta, err := c.class(a, aDefined)
	if err != nil {
		return 0, err
	}
	tb, err := c.class(b, bDefined)
	if err != nil {
		return 0, err
	}
	if ta != tb {
		return cmp.Compare(ta, tb), nil
	}

	switch ta {
	case Number:
		fa, _ := AsFloat(a)
		fb, _ := AsFloat(b)
		return cmp.Compare(fa, fb), nil
	case String:
		return strings.Compare(a.(string), b.(string)), nil
	case Identifier:
		return strings.Compare(string(a.(domain.ObjectID)), string(b.(domain.ObjectID))), nil
	case Boolean:
		return compareBool(a.(bool), b.(bool)), nil
	case Date:
		return a.(time.Time).Compare(b.(time.Time)), nil
	case Pattern:
		ra, rb := a.(domain.Regex), b.(domain.Regex)
		if n := strings.Compare(ra.Pattern, rb.Pattern); n != 0 {
			return n, nil
		}
		return strings.Compare(ra.Options, rb.Options), nil
	case List:
		return c.compareLists(a, b)
	case Object:
		return c.compareObjects(a, b)
	default:
		return 0, nil
	}
}

// Comparable implements [domain.Comparer].
func (c *Comparer) Comparable(a, b any) bool {
	a, aDefined := Concrete(a)
	b, bDefined := Concrete(b)
	ta, err := c.class(a, aDefined)
	if err != nil || ta == Undefined {
		return false
	}
	tb, err := c.class(b, bDefined)
	return err == nil && ta == tb
}

// Class returns the type class of v.
func (c *Comparer) Class(v any) (uint8, error) {
	v, defined := Concrete(v)
	return c.class(v, defined)
}

func (c *Comparer) class(v any, defined bool) (uint8, error) {
	if !defined {
		return Undefined, nil
	}
	switch v.(type) {
	case nil:
		return Null, nil
	case string:
		return String, nil
	case domain.ObjectID:
		return Identifier, nil
	case bool:
		return Boolean, nil
	case time.Time:
		return Date, nil
	case domain.Regex:
		return Pattern, nil
	}
	if _, ok := AsFloat(v); ok {
		return Number, nil
	}
	if structure.IsObject(v) {
		return Object, nil
	}
	if structure.IsList(v) {
		return List, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return Null, nil
	}
	return 0, ErrUncomparable{Value: v}
}

func (c *Comparer) compareLists(a, b any) (int, error) {
	seqA, _, _ := structure.Seq(a)
	seqB, _, _ := structure.Seq(b)
	listA, listB := slices.Collect(seqA), slices.Collect(seqB)

	for n := range min(len(listA), len(listB)) {
		comp, err := c.Compare(listA[n], listB[n])
		if err != nil || comp != 0 {
			return comp, err
		}
	}
	return cmp.Compare(len(listA), len(listB)), nil
}

// compareObjects compares keys in alphabetical order, then their values,
// then the number of keys.
func (c *Comparer) compareObjects(a, b any) (int, error) {
	keysA, valuesA := sortedFields(a)
	keysB, valuesB := sortedFields(b)

	for n := range min(len(keysA), len(keysB)) {
		if comp := strings.Compare(keysA[n], keysB[n]); comp != 0 {
			return comp, nil
		}
		comp, err := c.Compare(valuesA[keysA[n]], valuesB[keysB[n]])
		if err != nil || comp != 0 {
			return comp, err
		}
	}
	return cmp.Compare(len(keysA), len(keysB)), nil
}

func sortedFields(obj any) ([]string, map[string]any) {
	seq, length, _ := structure.Seq2(obj)
	keys := make([]string, 0, length)
	values := make(map[string]any, length)
	for k, v := range seq {
		keys = append(keys, k)
		values[k] = v
	}
	slices.Sort(keys)
	return keys, values
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// Concrete reads [domain.Getter] values until a concrete value is found. The
// boolean is false when the value is undefined.
func Concrete(v any) (any, bool) {
	for {
		g, ok := v.(domain.Getter)
		if !ok {
			return v, true
		}
		if v, ok = g.Get(); !ok {
			return nil, false
		}
	}
}

// AsFloat converts any built-in number to float64.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}
