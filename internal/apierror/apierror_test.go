package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := NewAPIError(ErrConflict, "sync already running for store", nil)
	assert.Equal(t, "CONFLICT: sync already running for store", err.Error())
}

func TestIs(t *testing.T) {
	err := NewAPIError(ErrConflict, "duplicate", nil)
	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(errors.New("plain"), ErrConflict))
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"NotFound", NewAPIError(ErrNotFound, "store not found", nil), http.StatusNotFound},
		{"Conflict", NewAPIError(ErrConflict, "job already running", nil), http.StatusConflict},
		{"InvalidInput", NewAPIError(ErrInvalidInput, "bad payload", nil), http.StatusBadRequest},
		{"BadRequest", NewAPIError(ErrBadRequest, "bad request", nil), http.StatusBadRequest},
		{"InternalServer", NewAPIError(ErrInternalServer, "boom", nil), http.StatusInternalServerError},
		{"Unknown", errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapErrorToHTTPStatus(tt.err))
		})
	}
}
