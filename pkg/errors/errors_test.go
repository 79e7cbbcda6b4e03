package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesTypeAndMessage(t *testing.T) {
	err := New(ErrorTypeNotFound, "no pool registered for key db1")

	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Equal(t, "not_found: no pool registered for key db1", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrorTypeConnection, "acquire failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection: acquire failed: connection refused", err.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "whatever"))
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeConfig, "bad dsn")

	assert.True(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(err, ErrorTypeConnection))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeConfig))

	// Type survives wrapping by callers.
	wrapped := Wrap(err, ErrorTypeConnection, "outer")
	assert.True(t, IsType(wrapped, ErrorTypeConnection))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrorTypeConnection, "down")))
	assert.True(t, IsRetryable(New(ErrorTypeTimeout, "slow")))
	assert.False(t, IsRetryable(New(ErrorTypeConfig, "bad")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeQuery, "bad statement").
		WithDetail("table", "users").
		WithDetail("attempt", 2)

	require.NotNil(t, err.Details)
	assert.Equal(t, "users", err.Details["table"])
	assert.Equal(t, 2, err.Details["attempt"])
}
