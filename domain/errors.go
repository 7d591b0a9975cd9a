package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNil is returned when the passed target, which should be a
	// pointer, is passed as a nil value.
	ErrTargetNil = errors.New("target interface is nil")
	// ErrNonPointer is returned when a decoding target is not a pointer.
	ErrNonPointer = errors.New("target is not a pointer")
	// ErrCodeExecutionDisabled is returned by the default [CodeCompiler],
	// which refuses to compile caller supplied code.
	ErrCodeExecutionDisabled = errors.New("code execution is disabled")
	// ErrNilStore is returned when a runner is used without a [Store].
	ErrNilStore = errors.New("no store configured")
	// ErrParseFailed matches any [ErrParse] with [errors.Is].
	ErrParseFailed = errors.New("parse failed")
	// ErrSecurity matches any [ErrSecurityRejection] with [errors.Is].
	ErrSecurity = errors.New("security rejection")
)

// ErrParse is returned when a parameter value is structurally invalid:
// malformed JSON in q, a malformed sort_by, a malformed pattern and so on.
// Parse errors are never downgraded to a default value.
type ErrParse struct {
	Param  string
	Value  string
	Reason string
	Err    error
}

// Error implements [error].
func (e ErrParse) Error() string {
	msg := fmt.Sprintf("invalid value for parameter %q: %s", e.Param, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e ErrParse) Unwrap() error { return e.Err }

// Is reports whether target is [ErrParseFailed].
func (e ErrParse) Is(target error) bool { return target == ErrParseFailed }

// ErrSecurityRejection is returned when a parameter could inject operators
// into the filter, such as a top level key starting with '$'. The whole parse
// fails when it is returned.
type ErrSecurityRejection struct {
	Key    string
	Reason string
}

// Error implements [error].
func (e ErrSecurityRejection) Error() string {
	return fmt.Sprintf("rejected parameter %q: %s", e.Key, e.Reason)
}

// Is reports whether target is [ErrSecurity].
func (e ErrSecurityRejection) Is(target error) bool { return target == ErrSecurity }

// ErrUnsupportedOperation is returned by a [Store] or a runner that cannot
// execute the requested operation.
type ErrUnsupportedOperation struct {
	Operation OperationType
}

// Error implements [error].
func (e ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("unsupported operation %q", string(e.Operation))
}

// ErrUnsupportedCode is returned by a [Store] that receives compiled code of
// a type it cannot run.
type ErrUnsupportedCode struct {
	Code any
}

// Error implements [error].
func (e ErrUnsupportedCode) Error() string {
	return fmt.Sprintf("unsupported compiled code of type %T", e.Code)
}

// ErrDecode is returned by [Decoder.Decode] to easily wrap third party decoding
// errors.
type ErrDecode struct {
	Source any
	Target any
}

// Error implements [error].
func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}
