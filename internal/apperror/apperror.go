// Package apperror defines the application's error taxonomy.
//
// Every layer below the handlers returns one of these typed errors instead of
// raw strings or HTTP status codes. The handlers own the mapping to HTTP
// (see internal/handler/response.go), so the service and repository layers
// stay transport-agnostic.
//
// SENTINEL ERRORS + errors.Is():
// Each category has a sentinel (ErrNotFound, ErrConflict, ...). An AppError
// wraps the sentinel via Unwrap(), so callers anywhere up the chain can do
//
//	errors.Is(err, apperror.ErrConflict)
//
// even when the error has been wrapped again with fmt.Errorf("...: %w", err).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrChainStuck means no eligible receiver remains for a spinner.
	// This is terminal: retrying the same draw repeats the failure, and only
	// an administrative reset (or manual reassignment) can resolve it. It gets
	// its own sentinel rather than reusing ErrConflict so handlers can report
	// a distinct error code that the client renders differently.
	ErrChainStuck = errors.New("chain stuck")
)

type AppError struct {
	Err     error  // category sentinel
	Message string // human-readable error message
	Field   string // optional: field causing the error
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
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError for a failed admin credential check.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// ChainStuck returns the terminal "no eligible receiver" error.
func ChainStuck() *AppError {
	return &AppError{
		Err:     ErrChainStuck,
		Message: "no available recipients: the chain is stuck",
	}
}
