package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         time.Second,
		BackoffMultiplier: 2.0,
		MaxDelay:          time.Minute,
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for i, expected := range want {
		assert.Equal(t, expected, policy.Delay(i), "attempt %d", i)
	}
}

func TestRetryPolicyDelayWithMaxCap(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, BackoffMultiplier: 2.0, MaxDelay: 5 * time.Second}
	assert.Equal(t, 5*time.Second, policy.Delay(10))
}

func TestRetryPolicyDelayWithJitter(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, BackoffMultiplier: 2.0, MaxDelay: time.Minute, Jitter: true}
	for i := 0; i < 100; i++ {
		got := policy.Delay(0)
		assert.GreaterOrEqual(t, got, 500*time.Millisecond)
		assert.Less(t, got, 1500*time.Millisecond)
	}
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffMultiplier: 1}
}

func TestRetrySucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	var retried []int
	policy := fastPolicy(3)
	policy.OnRetry = func(_ error, attempt int, _ time.Duration) { retried = append(retried, attempt) }

	got, err := Retry(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", ErrorFromStatusCode(503, "unavailable", "anthropic", 0, nil)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, ErrorFromStatusCode(401, "bad key", "anthropic", 0, nil)
	})
	var auth *AuthenticationError
	require.ErrorAs(t, err, &auth)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
		calls++
		return 0, ErrorFromStatusCode(500, "boom", "anthropic", 0, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsRetryAfterAboveMax(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, ErrorFromStatusCode(429, "slow down", "anthropic", time.Hour, nil)
	})
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 1, calls)
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour, BackoffMultiplier: 1}

	_, err := Retry(ctx, policy, func(context.Context) (int, error) {
		cancel()
		return 0, ErrorFromStatusCode(500, "boom", "anthropic", 0, nil)
	})
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.True(t, errors.Is(err, context.Canceled))
}
