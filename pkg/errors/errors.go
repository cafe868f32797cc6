// Package errors defines the sentinel errors shared across the engine and a
// wrapper type that carries an HTTP status code to the transport layer.
//
// None of the retrieval-core sentinels are fatal: malformed documents and
// unknown query terms are recovered locally by skipping their contribution.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedDocument marks a course whose selected field is missing or
	// empty. The document is skipped during vocabulary and index builds.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrUnknownTerm marks a query term absent from the vocabulary. It
	// contributes no postings constraint.
	ErrUnknownTerm = errors.New("term not in vocabulary")
	// ErrCorruptArtifact marks a persisted index artifact that failed
	// parsing or checksum validation.
	ErrCorruptArtifact = errors.New("corrupt index artifact")
	// ErrStaleArtifact marks an artifact whose corpus fingerprint no longer
	// matches the live corpus.
	ErrStaleArtifact = errors.New("stale index artifact")

	ErrCourseNotFound = errors.New("course not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrInternal       = errors.New("internal error")
)

// AppError pairs a sentinel with a human-readable message and HTTP status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError around a sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf builds an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the transport layer should
// return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
