package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Repositories return ErrNotFound and ErrConflict directly;
// services wrap them in *Error with a human-readable message.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
)

// Error is the structured error returned by the services.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound builds a NotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// BadRequest builds a BadRequest error wrapping cause.
func BadRequest(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrBadRequest, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Invalid builds a Validation error for a single field.
func Invalid(field, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: field + " " + fmt.Sprintf(format, args...)}
}
