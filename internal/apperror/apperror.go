// Package apperror defines the error taxonomy shared by the service and HTTP layers.
//
// Every domain failure is an *AppError wrapping one sentinel. Callers branch with
// errors.Is(err, apperror.ErrNotFound) and friends; the HTTP layer maps each
// sentinel to a status code. Anything that is NOT an *AppError is treated as an
// unexpected failure (a storage outage, a bug) and becomes a 500.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed or semantically empty input, duplicate
	// registrations and other caller mistakes (HTTP 400).
	ErrValidation = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	// ErrUnauthenticated means no session credential, or one that failed verification.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the supplied username/password pair was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("no %s: %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when a request carries no usable session.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Unauthorized is returned for rejected credentials. The message must not say
// whether the username or the password was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
