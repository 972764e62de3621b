// Package apperror defines the single error type that crosses the HTTP boundary.
package apperror

import (
	"errors"
	"net/http"
)

// APIError carries the HTTP status and client-facing message of a failure.
// Err is the underlying domain error, if any, and is never shown to clients.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Wrap attaches the domain error that caused e.
func (e *APIError) Wrap(err error) *APIError {
	e.Err = err
	return e
}

func New(status int, message string) *APIError {
	return &APIError{StatusCode: status, Message: message}
}

func BadRequest(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, message)
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, message)
}

// From returns the *APIError in err's chain, or a generic 500 wrapping err.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("Something went wrong").Wrap(err)
}
