// Package apperr defines the typed errors surfaced at the service boundary.
// Each error carries a kind used for transport mapping and a stable
// machine-readable code such as "Reservation.CapacityExceeded".
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindFailure Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindValidation:
		return "Validation"
	case KindForbidden:
		return "Forbidden"
	default:
		return "Failure"
	}
}

type Error struct {
	Kind        Kind
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func NotFound(code, description string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Description: description}
}

func Conflict(code, description string) *Error {
	return &Error{Kind: KindConflict, Code: code, Description: description}
}

func Validation(code, description string) *Error {
	return &Error{Kind: KindValidation, Code: code, Description: description}
}

func Forbidden(code, description string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Description: description}
}

func Failure(code, description string, err error) *Error {
	return &Error{Kind: KindFailure, Code: code, Description: description, Err: err}
}

// From returns err as an *Error, wrapping anything else as a generic failure.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Failure("General.Failure", "An unexpected error occurred", err)
}

func KindOf(err error) Kind {
	return From(err).Kind
}

func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return From(err).Code
}
