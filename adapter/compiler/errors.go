package compiler

import "fmt"

// ErrInvalidSource is returned when a source cannot be accepted by the
// JavaScript compiler.
type ErrInvalidSource struct {
	Source string
	Reason string
}

// Error implements [error].
func (e ErrInvalidSource) Error() string {
	if e.Source == "" {
		return "invalid source: " + e.Reason
	}
	return fmt.Sprintf("invalid source %q: %s", e.Source, e.Reason)
}
