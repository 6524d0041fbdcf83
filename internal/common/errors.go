// Package common defines shared constants and sentinel errors used across
// the server, the worker and the admin tools. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")
	ErrorUnavailable  = errors.New("service unavailable")

	// Job errors. A permanent job failure is never retried.
	ErrorPermanent = errors.New("permanent failure")
)

// ValidationError is a BadRequest carrying a client-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap makes errors.Is(err, ErrorBadRequest) hold for every ValidationError.
func (e *ValidationError) Unwrap() error { return ErrorBadRequest }

// NewValidationError returns a BadRequest error with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
