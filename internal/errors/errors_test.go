package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"duplicate email", ErrDuplicateEmail, http.StatusConflict, "DUPLICATE_EMAIL"},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"user not found", ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped sentinel", fmt.Errorf("refresh: %w", ErrInvalidToken), http.StatusUnauthorized, "INVALID_TOKEN"},
		{"unknown error", errors.New("mysql has gone away"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.expectedStatus, httpErr.StatusCode)
			assert.Equal(t, tt.expectedCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_NeverLeaksInternalDetail(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("dial tcp 10.0.0.5:3306: connect: connection refused"))
	assert.Equal(t, "internal server error", httpErr.Message)
	assert.NotContains(t, httpErr.Message, "10.0.0.5")
}
