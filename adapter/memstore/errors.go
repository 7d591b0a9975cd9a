package memstore

import (
	"fmt"
)

// ErrDuplicateID is returned by [Store.Insert] when a document has the same
// _id as a stored one or as another document of the same call.
type ErrDuplicateID struct {
	ID any
}

// Error implements [error].
func (e ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate _id %v", e.ID)
}

// ErrCorruptData is returned by [Store.Load] when too many lines could not be
// read as documents.
type ErrCorruptData struct {
	CorruptionRate        float64
	CorruptItems          int
	DataLength            int
	CorruptAlertThreshold float64
}

// Error implements [error].
func (e ErrCorruptData) Error() string {
	return fmt.Sprintf(
		"%.1f%% of the data is corrupt (%d of %d lines), more than the %.1f%% threshold",
		e.CorruptionRate*100, e.CorruptItems, e.DataLength, e.CorruptAlertThreshold*100,
	)
}

// ErrUnknownReference is returned when a populate option names neither a
// model nor a path registered with [WithReference].
type ErrUnknownReference struct {
	Model string
	Path  string
}

// Error implements [error].
func (e ErrUnknownReference) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no store registered for model %q", e.Model)
	}
	return fmt.Sprintf("no store registered for path %q", e.Path)
}

// ErrInvalidOption is returned for populate options of the wrong shape.
type ErrInvalidOption struct {
	Option string
	Value  any
}

// Error implements [error].
func (e ErrInvalidOption) Error() string {
	return fmt.Sprintf("invalid populate option %s: %v", e.Option, e.Value)
}
