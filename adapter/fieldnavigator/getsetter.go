package fieldnavigator

import "github.com/vinicius-lino-figueiredo/restquery/domain"

// ListGetSetter is a [domain.GetSetter] that reads and writes one item of a
// list.
type ListGetSetter struct {
	List  []any
	Index int
}

// NewGetSetterWithArrayIndex returns a [domain.GetSetter] for list[index].
func NewGetSetterWithArrayIndex(list []any, index int) domain.GetSetter {
	return &ListGetSetter{List: list, Index: index}
}

func (l *ListGetSetter) inRange() bool {
	return l.Index >= 0 && l.Index < len(l.List)
}

// Get implements [domain.GetSetter].
func (l *ListGetSetter) Get() (any, bool) {
	if l.inRange() {
		return l.List[l.Index], true
	}
	return nil, false
}

// Set implements [domain.GetSetter]. Indexes out of range are ignored.
func (l *ListGetSetter) Set(value any) {
	if l.inRange() {
		l.List[l.Index] = value
	}
}

// Unset implements [domain.GetSetter]. List items are set to nil instead of
// removed, keeping the other indexes valid.
func (l *ListGetSetter) Unset() {
	if l.inRange() {
		l.List[l.Index] = nil
	}
}

// DocGetSetter is a [domain.GetSetter] that reads and writes one key of a
// [domain.Document].
type DocGetSetter struct {
	Doc domain.Document
	Key string
}

// NewGetSetterWithDoc returns a [domain.GetSetter] for doc[key].
func NewGetSetterWithDoc(doc domain.Document, key string) domain.GetSetter {
	return &DocGetSetter{Doc: doc, Key: key}
}

// Get implements [domain.GetSetter].
func (d *DocGetSetter) Get() (any, bool) {
	v, ok := d.Doc[d.Key]
	return v, ok
}

// Set implements [domain.GetSetter].
func (d *DocGetSetter) Set(value any) {
	d.Doc[d.Key] = value
}

// Unset implements [domain.GetSetter].
func (d *DocGetSetter) Unset() {
	delete(d.Doc, d.Key)
}

// EmptyGetSetter is a [domain.GetSetter] of a value that does not exist.
type EmptyGetSetter struct{}

// NewGetSetterEmpty returns a [domain.GetSetter] of an undefined value.
func NewGetSetterEmpty() domain.GetSetter {
	return EmptyGetSetter{}
}

// Get implements [domain.GetSetter].
func (EmptyGetSetter) Get() (any, bool) { return nil, false }

// Set implements [domain.GetSetter].
func (EmptyGetSetter) Set(any) {}

// Unset implements [domain.GetSetter].
func (EmptyGetSetter) Unset() {}
