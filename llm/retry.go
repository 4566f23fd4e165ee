package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures retry behavior with exponential backoff.
type RetryPolicy struct {
	MaxRetries        int           // retry attempts after the initial call
	BaseDelay         time.Duration // delay before the first retry
	MaxDelay          time.Duration // cap for any single delay
	BackoffMultiplier float64
	Jitter            bool // scale each delay by a random factor in [0.5, 1.5)
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns two retries starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          time.Minute,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay calculates the delay before retry attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if p.MaxDelay > 0 {
		delay = math.Min(delay, float64(p.MaxDelay))
	}
	if p.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}

// Retry executes fn, retrying retryable errors according to policy.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return zero, err
		}

		delay := policy.Delay(attempt)
		if hint, ok := retryAfter(err); ok {
			if policy.MaxDelay > 0 && hint > policy.MaxDelay {
				// The server asks for longer than we are willing to wait.
				return zero, err
			}
			delay = hint
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &AbortError{SDKError: SDKError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-timer.C:
		}

		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
	}

	return zero, err
}
