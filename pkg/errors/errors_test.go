package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapsSentinel(t *testing.T) {
	err := New(ErrInvalidInput, http.StatusBadRequest, "limit must be positive")

	assert.Equal(t, "invalid input: limit must be positive", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "unknown field %q", "faculty")
	assert.Equal(t, `invalid input: unknown field "faculty"`, err.Error())
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error status wins", New(ErrInternal, http.StatusConflict, "conflict"), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("searching: %w", New(ErrInvalidInput, http.StatusBadRequest, "bad limit")), http.StatusBadRequest},
		{"course not found", ErrCourseNotFound, http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"invalid query", fmt.Errorf("%w: empty query", ErrInvalidQuery), http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"internal", ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}
