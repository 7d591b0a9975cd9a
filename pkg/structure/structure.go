// Package structure contains type-related operations, such as iterating over a
// value of type any and converting numbers.
package structure

import (
	"errors"
	"iter"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

var (
	// ErrNilObj may be returned by [Seq] or [Seq2] when a nil value is
	// passed as argument.
	ErrNilObj = errors.New("nil object")
)

// ErrNonObject is returned by [Seq2] when a value that is neither a struct,
// a string keyed map nor a [domain.Ordered] is passed as argument.
type ErrNonObject struct {
	Type reflect.Type
}

func (e ErrNonObject) Error() string {
	return "value of type " + typeName(e.Type) + " is not an object"
}

// ErrNonList is returned by [Seq] when a value that is neither a slice nor an
// array is passed as argument.
type ErrNonList struct {
	Type reflect.Type
}

func (e ErrNonList) Error() string {
	return "value of type " + typeName(e.Type) + " is not a list"
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// IsObject reports whether [Seq2] can iterate over obj.
func IsObject(obj any) bool {
	_, _, err := Seq2(obj)
	return err == nil
}

// IsList reports whether [Seq] can iterate over obj. Byte slices are treated
// as scalars.
func IsList(obj any) bool {
	_, _, err := Seq(obj)
	return err == nil
}

// Seq2 returns an iterator over the keys and values of obj, along with the
// number of entries. It works for string keyed maps, structs (using the json
// tag for names) and [domain.Ordered], which is iterated in order.
func Seq2(obj any) (iter.Seq2[string, any], int, error) {
	if obj == nil {
		return nil, 0, ErrNilObj
	}
	if i, length, err := fastPathObject(obj); err != nil || i != nil {
		return i, length, err
	}
	return iterReflectObject(obj)
}

func fastPathObject(obj any) (iter.Seq2[string, any], int, error) {
	if isScalar(obj) {
		return nil, 0, ErrNonObject{Type: reflect.TypeOf(obj)}
	}
	switch t := obj.(type) {
	case map[string]any:
		return iterMap(t), len(t), nil
	case domain.Ordered:
		return iterOrdered(t), len(t), nil
	case map[string]string:
		return iterMap(t), len(t), nil
	case map[string]float64:
		return iterMap(t), len(t), nil
	case map[string]int:
		return iterMap(t), len(t), nil
	case map[string]int64:
		return iterMap(t), len(t), nil
	case map[string]bool:
		return iterMap(t), len(t), nil
	}
	return nil, 0, nil
}

func isScalar(obj any) bool {
	switch obj.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		time.Time, *regexp.Regexp, []byte,
		domain.ObjectID, domain.Regex, domain.JavaScript:
		return true
	default:
		return false
	}
}

func iterReflectObject(obj any) (iter.Seq2[string, any], int, error) {
	v := reflect.ValueNoEscapeOf(obj)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, 0, ErrNilObj
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			i, l := iterReflectMap(v)
			return i, l, nil
		}
	case reflect.Struct:
		if _, ok := v.Interface().(time.Time); !ok {
			i, l := iterReflectStruct(v)
			return i, l, nil
		}
	}
	return nil, 0, ErrNonObject{Type: v.Type()}
}

func iterReflectMap(v reflect.Value) (iter.Seq2[string, any], int) {
	return func(yield func(string, any) bool) {
		it := v.MapRange()
		for it.Next() {
			if !yield(it.Key().String(), it.Value().Interface()) {
				return
			}
		}
	}, v.Len()
}

func iterReflectStruct(v reflect.Value) (iter.Seq2[string, any], int) {
	fields := make(domain.Ordered, 0, v.NumField())
	for k, v := range listStructFields(v) {
		fields = append(fields, domain.Pair{Key: k, Value: v})
	}
	return iterOrdered(fields), len(fields)
}

func listStructFields(v reflect.Value) iter.Seq2[string, any] {
	var tag string
	var field reflect.StructField
	var omitEmpty bool
	return func(yield func(string, any) bool) {
		typ := v.Type()
		for n := range typ.NumField() {
			omitEmpty = false
			field = typ.Field(n)

			if field.PkgPath != "" {
				continue
			}

			tag = field.Name
			if t, found := field.Tag.Lookup("json"); found {
				name, opts, _ := strings.Cut(t, ",")
				if name == "-" && opts == "" {
					continue
				}
				for sub := range strings.SplitSeq(opts, ",") {
					if sub == "omitempty" || sub == "omitzero" {
						omitEmpty = true
					}
				}
				if name != "" {
					tag = name
				}
			}
			if omitEmpty && v.Field(n).IsZero() {
				continue
			}
			if !yield(tag, v.Field(n).Interface()) {
				return
			}
		}
	}
}

func iterMap[T any](m map[string]T) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range m {
			if !yield(k, v) {
				return
			}
		}
	}
}

func iterOrdered(o domain.Ordered) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, p := range o {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Seq returns an iterator over a slice or array of any type.
func Seq(obj any) (iter.Seq[any], int, error) {
	if obj == nil {
		return nil, 0, ErrNilObj
	}
	if isScalar(obj) {
		return nil, 0, ErrNonList{Type: reflect.TypeOf(obj)}
	}
	switch t := obj.(type) {
	case []any:
		return iterSlice(t), len(t), nil
	case []string:
		return iterSlice(t), len(t), nil
	case []float64:
		return iterSlice(t), len(t), nil
	case []int:
		return iterSlice(t), len(t), nil
	case []domain.Document:
		return iterSlice(t), len(t), nil
	}
	return iterReflectList(obj)
}

func iterReflectList(obj any) (iter.Seq[any], int, error) {
	v := reflect.ValueNoEscapeOf(obj)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, 0, ErrNilObj
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, 0, ErrNonList{Type: v.Type()}
	}
	return func(yield func(any) bool) {
		for n := range v.Len() {
			if !yield(v.Index(n).Interface()) {
				return
			}
		}
	}, v.Len(), nil
}

func iterSlice[T any](m []T) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range m {
			if !yield(v) {
				return
			}
		}
	}
}

// AsInteger converts any built-in number to int and returns a flag that informs
// if the argument is a valid integer.
func AsInteger(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint:
		return int(t), true
	case uint8:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case uint64:
		return int(t), true
	case float32:
		if trunc := math.Trunc(float64(t)); trunc == float64(t) {
			return int(trunc), true
		}
		return 0, false
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		if trunc := math.Trunc(t); trunc == t {
			return int(trunc), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Clone returns a deep copy of documents and lists found in v. Other values
// are returned as they are.
func Clone(v any) any {
	switch t := v.(type) {
	case domain.Document:
		res := make(domain.Document, len(t))
		for k, item := range t {
			res[k] = Clone(item)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = Clone(item)
		}
		return res
	default:
		return v
	}
}
