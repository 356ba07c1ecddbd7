package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrForbidden,
		ErrConflict, ErrInternal, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "product 7 not found"}
	assert.Equal(t, "NOT_FOUND: product 7 not found", appErr.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("socket closed")}
	assert.Contains(t, wrapped.Error(), "socket closed")
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := NotFound("product", "7")
	assert.True(t, errors.Is(appErr, ErrNotFound))
	assert.Nil(t, (&AppError{Code: "X"}).Unwrap())
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
		code     string
	}{
		{http.StatusNotFound, ErrNotFound, "NOT_FOUND"},
		{http.StatusBadRequest, ErrInvalidInput, "INVALID_INPUT"},
		{http.StatusUnauthorized, ErrUnauthorized, "UNAUTHORIZED"},
		{http.StatusForbidden, ErrForbidden, "FORBIDDEN"},
		{http.StatusConflict, ErrConflict, "CONFLICT"},
		{http.StatusServiceUnavailable, ErrServiceUnavail, "SERVICE_UNAVAILABLE"},
		{http.StatusInternalServerError, ErrInternal, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "backend said no")
			require.NotNil(t, err)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, "backend said no", err.Message)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestFromStatus_UnknownStatusKeepsCode(t *testing.T) {
	err := FromStatus(http.StatusTeapot, "")
	assert.Equal(t, "HTTP_418", err.Code)
	assert.Equal(t, http.StatusText(http.StatusTeapot), err.Message)
	assert.Nil(t, err.Err)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("dup")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("wrap: %w", ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Invalid email or password", Message(fmt.Errorf("signin: %w", InvalidInput("Invalid email or password"))))
	assert.Equal(t, "dial tcp: refused", Message(errors.New("dial tcp: refused")))
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(FromStatus(http.StatusUnauthorized, "Not authenticated")))
	assert.False(t, IsUnauthorized(Forbidden("nope")))
}
