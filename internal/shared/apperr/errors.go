// Package apperr defines the error taxonomy shared by every feature.
// Usecases return *Error values; the transport layer maps them to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// KindValidation marks malformed or disallowed input.
	KindValidation Kind = iota + 1
	// KindAuthentication marks bad credentials or an unusable session token.
	KindAuthentication
	// KindNotFound marks a missing resource, or one the caller does not own.
	KindNotFound
	// KindStorage marks an unexpected persistence failure.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is an application error with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a validation error with the given message.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf formats a validation error message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// WrapValidation keeps the underlying error's text as the client-facing message.
func WrapValidation(err error) error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// Authentication returns an authentication error.
func Authentication(msg string) error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

// NotFound returns a not-found error.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Storage wraps an unexpected persistence failure. The message is never shown to clients.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf reports the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// Status maps err to an HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to a client.
// Storage and unclassified errors are hidden.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStorage {
		return e.Message
	}
	return "internal server error"
}
