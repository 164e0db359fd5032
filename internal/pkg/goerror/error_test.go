package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("cause")

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Server", err: NewServer(errCause), want: http.StatusInternalServerError},
		{name: "BadRequest", err: NewBusiness("nope", CodeBadRequest), want: http.StatusBadRequest},
		{name: "TooManyRequest", err: NewBusiness("slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "NotFound", err: NewBusiness("missing", CodeNotFound), want: http.StatusNotFound},
		{name: "InvalidInput", err: NewInvalidInput(errCause), want: http.StatusUnprocessableEntity},
		{name: "InvalidFormat", err: NewInvalidFormat(), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			require.ErrorAs(t, tt.err, &gerr)
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewBusinessCause(t *testing.T) {
	// Arrange & Act
	err := NewBusinessCause(errCause, "Invalid code", CodeBadRequest, "attempts_remaining", "2", "dangling")

	// Assert
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, errCause)
	assert.Equal(t, "Invalid code", gerr.Msg())
	assert.Equal(t, TypeBusiness, gerr.Type())
	assert.Equal(t, map[string]string{"attempts_remaining": "2"}, gerr.Fields())
}

func TestNewServerCause(t *testing.T) {
	err := NewServerCause(errCause, "Delivery is not configured")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, errCause)
	assert.Equal(t, "Delivery is not configured", gerr.Msg())
	assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
}

func TestNewInvalidInput_Fields(t *testing.T) {
	var gerr *Error

	require.ErrorAs(t, NewInvalidInput(nil, "otp", "required"), &gerr)
	assert.Equal(t, map[string]string{"otp": "required"}, gerr.Fields())
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())

	require.ErrorAs(t, NewInvalidInput(nil, "otp"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}

func TestCode_Unknown(t *testing.T) {
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(99).String())
	assert.Equal(t, "ERROR_TYPE_UNKNOWN", Type(99).String())
}
