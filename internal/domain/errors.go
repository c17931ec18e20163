package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Stores return ErrNotFound (wrapped) for missing rows; the
// service layer decides whether that means a missing owner or a bad
// reference inside a submission.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrIntegrityViolation = errors.New("integrity violation")
)

// Error carries a kind, a detail that is safe to show to API clients and
// an optional underlying cause that is not.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf(format, args...)}
}

func InvalidReference(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidReference, Detail: fmt.Sprintf(format, args...)}
}

// IntegrityViolation wraps a storage constraint failure.
func IntegrityViolation(cause error) *Error {
	return &Error{
		Kind:   ErrIntegrityViolation,
		Detail: "preference rows violate a storage constraint",
		Err:    cause,
	}
}
