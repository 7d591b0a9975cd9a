// Package hasher contains a JSON based implementation of [domain.Hasher]. It
// hashes the values found in documents: objects, lists, numbers, strings,
// booleans, dates, identifiers and patterns. Values that cannot be marshaled,
// like channels and functions, are hashed by address.
package hasher

import (
	"bytes"
	"encoding/json"
	"hash/fnv"
	"slices"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// undefined is hashed in place of values that do not exist.
type undefined struct{}

func (undefined) MarshalJSON() ([]byte, error) { return []byte(`{"$undefined":true}`), nil }

// Hasher implements [domain.Hasher].
type Hasher struct{}

// NewHasher returns a new implementation of [domain.Hasher].
func NewHasher() domain.Hasher {
	return &Hasher{}
}

// Hash implements [domain.Hasher]. Numbers of any type hash as float64 and
// dates as UTC, so values the default comparer finds equal hash equally.
func (h *Hasher) Hash(value any) (uint64, error) {
	b, err := json.Marshal(h.canonicalize(value))
	if err != nil {
		return 0, err
	}

	hasher := fnv.New64a()
	_, _ = hasher.Write(b) // fnv.sum64a.Write never returns error
	return hasher.Sum64(), nil
}

func (h *Hasher) canonicalize(a any) any {
	a, defined := comparer.Concrete(a)
	if !defined {
		return undefined{}
	}

	switch t := a.(type) {
	case nil, bool, string, domain.ObjectID, domain.Regex:
		return t
	case time.Time:
		return t.UTC()
	}
	if f, ok := comparer.AsFloat(a); ok {
		return f
	}
	if f, ok := h.fields(a); ok {
		return f
	}
	if i, ok := h.items(a); ok {
		return i
	}

	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Func:
		if v.IsNil() {
			return nil
		}
		return v.Pointer()
	}
	return a
}

func (h *Hasher) fields(a any) (object, bool) {
	seq, length, err := structure.Seq2(a)
	if err != nil {
		return nil, false
	}
	pairs := make(object, 0, length)
	for k, v := range seq {
		pairs = append(pairs, keyValuePair{key: k, val: h.canonicalize(v)})
	}
	return pairs, true
}

func (h *Hasher) items(a any) ([]any, bool) {
	seq, length, err := structure.Seq(a)
	if err != nil {
		return nil, false
	}
	res := make([]any, 0, length)
	for v := range seq {
		res = append(res, h.canonicalize(v))
	}
	return res, true
}

type keyValuePair struct {
	key string
	val any
}

type object []keyValuePair

// MarshalJSON writes the pairs sorted by key.
func (o object) MarshalJSON() ([]byte, error) {
	sorted := slices.SortedFunc(slices.Values(o), func(a, b keyValuePair) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		default:
			return 0
		}
	})

	buf := bytes.NewBuffer(append(make([]byte, 0, 1024), '{'))
	for n, item := range sorted {
		if n > 0 {
			_ = buf.WriteByte(',')
		}
		b, _ := json.Marshal(item.key)
		_, _ = buf.Write(b)
		_ = buf.WriteByte(':')
		v, err := json.Marshal(item.val)
		if err != nil {
			return nil, err
		}
		_, _ = buf.Write(v)
	}
	_ = buf.WriteByte('}')
	return buf.Bytes(), nil
}
