// Package flattener contains the default [domain.Flattener].
package flattener

import (
	"iter"
	"strconv"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

// Flattener implements [domain.Flattener]. {"a": {"b": [1, 2]}} becomes
// {"a.b.0": 1, "a.b.1": 2}. Empty objects and lists are kept as values.
type Flattener struct {
	delimiter string
	maxDepth  int
	keepLists bool
}

// NewFlattener returns a new implementation of [domain.Flattener].
func NewFlattener(options ...Option) domain.Flattener {
	f := &Flattener{
		delimiter: ".",
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// Flatten implements [domain.Flattener]. doc must be an object.
func (f *Flattener) Flatten(doc any) (domain.Document, error) {
	seq, length, err := structure.Seq2(doc)
	if err != nil {
		return nil, err
	}
	out := make(domain.Document, length)
	f.object(out, "", seq, 1)
	return out, nil
}

func (f *Flattener) object(out domain.Document, prefix string, seq iter.Seq2[string, any], depth int) {
	for k, v := range seq {
		f.value(out, f.key(prefix, k), v, depth)
	}
}

func (f *Flattener) value(out domain.Document, key string, v any, depth int) {
	if f.maxDepth > 0 && depth >= f.maxDepth {
		out[key] = v
		return
	}
	if seq, length, err := structure.Seq2(v); err == nil {
		if length == 0 {
			out[key] = v
			return
		}
		f.object(out, key, seq, depth+1)
		return
	}
	if f.keepLists {
		out[key] = v
		return
	}
	seq, length, err := structure.Seq(v)
	if err != nil || length == 0 {
		out[key] = v
		return
	}
	n := 0
	for item := range seq {
		f.value(out, f.key(key, strconv.Itoa(n)), item, depth+1)
		n++
	}
}

func (f *Flattener) key(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + f.delimiter + k
}
