package mongostore

import (
	"errors"
	"fmt"
)

// ErrNoCollection is returned by [NewStore] when no collection was given.
var ErrNoCollection = errors.New("no collection configured")

// ErrConvert is returned when a value cannot be represented in BSON.
type ErrConvert struct {
	Value  any
	Reason string
}

// Error implements [error].
func (e ErrConvert) Error() string {
	return fmt.Sprintf("cannot convert %v to bson: %s", e.Value, e.Reason)
}
