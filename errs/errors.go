// Package errs defines the error taxonomy shared by handlers and the single
// translation point that turns errors into HTTP responses.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for clients.
type Code string

const (
	// NotFound indicates the requested record does not exist.
	NotFound Code = "NOT_FOUND"
	// InvalidRequest indicates a malformed body, query or path parameter.
	InvalidRequest Code = "INVALID_REQUEST"
	// AccessDenied indicates the caller failed the user capability check.
	AccessDenied Code = "ACCESS_DENIED"
	// Unauthorized indicates a credential mismatch at login.
	Unauthorized Code = "UNAUTHORIZED"
	// Conflict indicates a uniqueness violation, e.g. a reused email.
	Conflict Code = "CONFLICT"
	// RateLimited indicates the client exceeded its request budget.
	RateLimited Code = "RATE_LIMIT_EXCEEDED"
	// Internal indicates a store failure or any unclassified fault.
	Internal Code = "INTERNAL"
)

// Status maps a code to its HTTP status.
func (c Code) Status() int {
	switch c {
	case NotFound:
		return http.StatusNotFound
	case InvalidRequest:
		return http.StatusBadRequest
	case AccessDenied:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a client-safe message and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that keeps cause for logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or Internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// MessageOf returns the client-safe message for err. Causes are never
// exposed; unclassified errors get a generic message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
