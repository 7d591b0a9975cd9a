package jsonparser

import (
	"errors"
	"fmt"
)

var (
	// ErrTrailingData is returned when there are unskippable bytes after
	// the JSON data structure in the content ends.
	ErrTrailingData = errors.New("trailing data after JSON")
	// ErrInvalidUTF8Char is returned when a \u escape is incomplete or not
	// hexadecimal.
	ErrInvalidUTF8Char = errors.New("invalid utf8 char")
	// ErrExpectedString is returned when a JSON object is started, but no
	// string is found for the key.
	ErrExpectedString = errors.New("expected string")
	// ErrUnterminatedString is returned when a string starts, but is not
	// terminated before end of bytes.
	ErrUnterminatedString = errors.New("unterminated string")
	// ErrNoComma is returned when there is no comma between segments of
	// data in objects or arrays.
	ErrNoComma = errors.New("expected comma")
	// ErrNoColon is returned when there is no colon after the definition of
	// a key in a JSON object.
	ErrNoColon = errors.New("expected colon")
	// ErrInvalidNumber is returned when a non-null non-bool literal could
	// not be correctly read as a number.
	ErrInvalidNumber = errors.New("invalid JSON number")
	// ErrTooDeep is returned when nesting exceeds the configured depth.
	ErrTooDeep = errors.New("maximum nesting depth exceeded")
	// ErrInvalidObjectID is returned when {"$oid": ...} does not hold 24
	// lowercase hexadecimal characters.
	ErrInvalidObjectID = errors.New("invalid $oid value")
	// ErrInvalidDate is returned when {"$date": ...} holds neither a number
	// of milliseconds nor an RFC 3339 string.
	ErrInvalidDate = errors.New("invalid $date value")
)

// ErrSyntax wraps any error found while reading JSON with the offset where it
// happened.
type ErrSyntax struct {
	Offset int
	Err    error
}

// Error implements [error].
func (e ErrSyntax) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %s", e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e ErrSyntax) Unwrap() error { return e.Err }

// ErrInvalidLiteral when a known token (either true, false or null) starts but
// is not correctly finished.
type ErrInvalidLiteral struct {
	Value string
}

// Error implements [error].
func (e ErrInvalidLiteral) Error() string {
	return fmt.Sprintf("invalid literal %q", e.Value)
}

// ErrUnknownEscapeChar is returned when the escape character (\) does not
// precede a valid escapable char (any of "\/bfnrtu).
type ErrUnknownEscapeChar struct {
	Char byte
}

// Error implements [error].
func (e ErrUnknownEscapeChar) Error() string {
	return fmt.Sprintf("unknown escape char, %q", e.Char)
}

// ErrInvalidControlChar indicates an invalid control character was found
// inside a string.
type ErrInvalidControlChar struct {
	Char byte
}

// Error implements [error].
func (e ErrInvalidControlChar) Error() string {
	return fmt.Sprintf("invalid control char, %q", e.Char)
}
