package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoProvider is returned when a request cannot be routed to any adapter.
var ErrNoProvider = errors.New("no provider available")

// ErrIncompleteStream means a stream closed without a finish event.
var ErrIncompleteStream = errors.New("stream ended before the response finished")

// SDKError is the base error type for gateway errors.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// ProviderError represents an error returned by an LLM provider.
type ProviderError struct {
	SDKError
	Provider   string
	StatusCode int
	Retryable  bool
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

// Concrete provider error types.

type AuthenticationError struct{ ProviderError }
type AccessDeniedError struct{ ProviderError }
type NotFoundError struct{ ProviderError }
type InvalidRequestError struct{ ProviderError }
type RateLimitError struct{ ProviderError }
type ServerError struct{ ProviderError }
type ContextLengthError struct{ ProviderError }

// Non-provider errors.

type RequestTimeoutError struct{ SDKError }
type AbortError struct{ SDKError }
type ConfigurationError struct{ SDKError }

// ErrorFromStatusCode maps an HTTP status code to the matching error type.
func ErrorFromStatusCode(statusCode int, message, provider string, retryAfter time.Duration, cause error) error {
	pe := ProviderError{
		SDKError:   SDKError{Message: message, Cause: cause},
		Provider:   provider,
		StatusCode: statusCode,
		RetryAfter: retryAfter,
	}

	switch statusCode {
	case 400, 422:
		return &InvalidRequestError{ProviderError: pe}
	case 401:
		return &AuthenticationError{ProviderError: pe}
	case 403:
		return &AccessDeniedError{ProviderError: pe}
	case 404:
		return &NotFoundError{ProviderError: pe}
	case 408:
		return &RequestTimeoutError{SDKError: pe.SDKError}
	case 413:
		return &ContextLengthError{ProviderError: pe}
	case 429:
		pe.Retryable = true
		return &RateLimitError{ProviderError: pe}
	case 500, 502, 503, 504, 529:
		pe.Retryable = true
		return &ServerError{ProviderError: pe}
	default:
		pe.Retryable = statusCode >= 500
		return &pe
	}
}

// IsRetryable reports whether err is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var (
		cfg     *ConfigurationError
		abort   *AbortError
		timeout *RequestTimeoutError
		auth    *AuthenticationError
		denied  *AccessDeniedError
		missing *NotFoundError
		invalid *InvalidRequestError
		length  *ContextLengthError
		limited *RateLimitError
		server  *ServerError
		pe      *ProviderError
	)
	switch {
	case errors.As(err, &cfg), errors.As(err, &abort):
		return false
	case errors.As(err, &auth), errors.As(err, &denied), errors.As(err, &missing),
		errors.As(err, &invalid), errors.As(err, &length):
		return false
	case errors.As(err, &timeout), errors.As(err, &limited), errors.As(err, &server):
		return true
	case errors.As(err, &pe):
		return pe.Retryable
	default:
		return false
	}
}

// retryAfter extracts a server-provided retry hint, if any.
func retryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}
