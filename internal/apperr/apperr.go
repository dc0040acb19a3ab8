// Package apperr carries the service-wide error taxonomy. Every error
// that crosses the handler boundary is an *Error with a Kind that maps
// to a stable HTTP status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status-code mapping.
type Kind int

const (
	Validation    Kind = iota // missing/malformed input
	Auth                      // missing/expired/malformed token
	Authorization             // valid token scoped to a different org
	NotFound
	Conflict // duplicate name/email
	Internal // unexpected store failure
)

// Error is the structured error surfaced to API callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, not exposed to callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to its response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case Validation:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause while keeping the caller-facing message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// From extracts the *Error from err, or wraps err as Internal so the
// boundary always has a status code to report.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: Internal, Message: "internal_error", Err: err}
}
