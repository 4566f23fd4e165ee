package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFromStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		check     func(error) bool
		retryable bool
	}{
		{400, func(err error) bool { var e *InvalidRequestError; return errors.As(err, &e) }, false},
		{401, func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }, false},
		{403, func(err error) bool { var e *AccessDeniedError; return errors.As(err, &e) }, false},
		{404, func(err error) bool { var e *NotFoundError; return errors.As(err, &e) }, false},
		{408, func(err error) bool { var e *RequestTimeoutError; return errors.As(err, &e) }, true},
		{413, func(err error) bool { var e *ContextLengthError; return errors.As(err, &e) }, false},
		{422, func(err error) bool { var e *InvalidRequestError; return errors.As(err, &e) }, false},
		{429, func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }, true},
		{500, func(err error) bool { var e *ServerError; return errors.As(err, &e) }, true},
		{529, func(err error) bool { var e *ServerError; return errors.As(err, &e) }, true},
		{418, func(err error) bool { var e *ProviderError; return errors.As(err, &e) }, false},
	}

	for _, tt := range tests {
		err := ErrorFromStatusCode(tt.status, "test error", "anthropic", 0, nil)
		assert.True(t, tt.check(err), "status %d: unexpected type %T", tt.status, err)
		assert.Equal(t, tt.retryable, IsRetryable(err), "status %d", tt.status)
	}
}

func TestIsRetryableWrapped(t *testing.T) {
	rl := ErrorFromStatusCode(429, "slow down", "anthropic", 0, nil)
	assert.True(t, IsRetryable(fmt.Errorf("call: %w", rl)))

	auth := ErrorFromStatusCode(401, "bad key", "anthropic", 0, nil)
	assert.False(t, IsRetryable(fmt.Errorf("call: %w", auth)))

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(&ConfigurationError{SDKError: SDKError{Message: "no key"}}))
	assert.True(t, IsRetryable(&ProviderError{Retryable: true}))
}

func TestSDKErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &ConfigurationError{SDKError: SDKError{Message: "bad", Cause: cause}}
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "bad: root cause", err.Error())
}

func TestProviderErrorMessage(t *testing.T) {
	err := ErrorFromStatusCode(500, "overloaded", "anthropic", 0, nil)
	assert.Contains(t, err.Error(), "[anthropic] overloaded")
	assert.Contains(t, err.Error(), "status=500")
}
