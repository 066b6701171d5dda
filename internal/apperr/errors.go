// Package apperr defines the error kinds shared by the storage, index and
// repository layers.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrAmbiguousState = errors.New("ambiguous state")
	ErrCorruptData    = errors.New("corrupt data")
	ErrValidation     = errors.New("validation failed")
	ErrIO             = errors.New("i/o error")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyExists  = errors.New("already exists")
)

// Error carries a kind sentinel, a message naming the entity or path
// involved, and the underlying cause if any.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind wrapping cause.
func Wrap(kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// NotFound is shorthand for New(ErrNotFound, ...).
func NotFound(format string, args ...any) error {
	return New(ErrNotFound, format, args...)
}

// Validation is shorthand for New(ErrValidation, ...).
func Validation(format string, args ...any) error {
	return New(ErrValidation, format, args...)
}

// IO wraps a filesystem failure.
func IO(cause error, format string, args ...any) error {
	return Wrap(ErrIO, cause, format, args...)
}

// Corrupt wraps a decode failure.
func Corrupt(cause error, format string, args ...any) error {
	return Wrap(ErrCorruptData, cause, format, args...)
}

// KindOf returns a machine-readable name for the kind of err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAmbiguousState):
		return "ambiguous_state"
	case errors.Is(err, ErrCorruptData):
		return "corrupt_data"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "internal"
	}
}
