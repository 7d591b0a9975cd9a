// Package uncomparable contains a map with keys of type [any], compared with
// a [domain.Comparer] instead of ==, which returns an error instead of
// panicking. Iteration follows insertion order.
package uncomparable

import (
	"iter"
	"slices"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// Map represents a map[K]T, where K does not need to be [comparable]. Keys
// found equal by the comparer share an entry, so 1 and 1.0 are the same key
// with the default comparer.
type Map[T any] struct {
	buckets  map[uint64][]int
	entries  []kv[T]
	hasher   domain.Hasher
	comparer domain.Comparer
	length   int
}

// New returns a new instance of [Map] with the given [domain.Hasher] and
// [domain.Comparer].
func New[T any](hasher domain.Hasher, comparer domain.Comparer) *Map[T] {
	return &Map[T]{
		buckets:  make(map[uint64][]int),
		hasher:   hasher,
		comparer: comparer,
	}
}

// find returns the hash of key and the position of its entry, or -1.
func (m *Map[T]) find(key any) (uint64, int, error) {
	h, err := m.hasher.Hash(key)
	if err != nil {
		return 0, -1, err
	}
	for _, n := range m.buckets[h] {
		c, err := m.comparer.Compare(key, m.entries[n].key)
		if err != nil {
			return 0, -1, err
		}
		if c == 0 {
			return h, n, nil
		}
	}
	return h, -1, nil
}

// Delete removes a given key from the map, if it exists. If the given key could
// not be hashed or some comparison failed, it returns the error.
func (m *Map[T]) Delete(key any) error {
	h, n, err := m.find(key)
	if err != nil || n < 0 {
		return err
	}
	m.buckets[h] = slices.DeleteFunc(m.buckets[h], func(i int) bool { return i == n })
	if len(m.buckets[h]) == 0 {
		delete(m.buckets, h)
	}
	m.entries[n] = kv[T]{deleted: true}
	m.length--
	return nil
}

// Get returns the value for the given key with a bool to indicate whether it
// exists in the map or not. If hash or comparison fails, returns an error.
func (m *Map[T]) Get(key any) (T, bool, error) {
	_, n, err := m.find(key)
	if err != nil || n < 0 {
		return *new(T), false, err
	}
	return m.entries[n].value, true, nil
}

// Set adds or replaces the given key in the map, returning error on hash or
// comparison failure. A replaced key keeps its position.
func (m *Map[T]) Set(key any, value T) error {
	h, n, err := m.find(key)
	if err != nil {
		return err
	}
	if n >= 0 {
		m.entries[n].value = value
		return nil
	}
	m.buckets[h] = append(m.buckets[h], len(m.entries))
	m.entries = append(m.entries, kv[T]{key: key, value: value})
	m.length++
	return nil
}

// Len returns the amount of stored values.
func (m *Map[T]) Len() int {
	return m.length
}

// Keys returns an [iter.Seq] containing all the stored keys.
func (m *Map[T]) Keys() iter.Seq[any] {
	return func(yield func(any) bool) {
		for k := range m.Iter() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns an [iter.Seq] containing all the stored values.
func (m *Map[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range m.Iter() {
			if !yield(v) {
				return
			}
		}
	}
}

// Iter returns an [iter.Seq2] containing all the key+value pairs.
func (m *Map[T]) Iter() iter.Seq2[any, T] {
	return func(yield func(any, T) bool) {
		for _, e := range m.entries {
			if e.deleted {
				continue
			}
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

type kv[T any] struct {
	key     any
	value   T
	deleted bool
}
