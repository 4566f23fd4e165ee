package llm

import (
	"context"
	"log/slog"
	"time"
)

// RetryMiddleware retries retryable Complete errors with policy.
func RetryMiddleware(policy RetryPolicy) Middleware {
	return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
		return Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
			return next(ctx, req)
		})
	}
}

// LoggingMiddleware logs each Complete call with its outcome and latency.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		attrs := []any{
			"provider", req.Provider,
			"model", req.Model,
			"turns", len(req.Turns),
			"tools", len(req.Tools),
			"duration", time.Since(start),
		}
		if err != nil {
			logger.ErrorContext(ctx, "llm call failed", append(attrs, "error", err)...)
			return nil, err
		}
		logger.DebugContext(ctx, "llm call",
			append(attrs,
				"stop_reason", resp.StopReason,
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)...)
		return resp, nil
	}
}

// StreamLoggingMiddleware logs the opening of each stream.
func StreamLoggingMiddleware(logger *slog.Logger) StreamMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req Request, next func(context.Context, Request) (<-chan StreamEvent, error)) (<-chan StreamEvent, error) {
		ch, err := next(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "llm stream failed", "provider", req.Provider, "model", req.Model, "error", err)
			return nil, err
		}
		logger.DebugContext(ctx, "llm stream opened", "provider", req.Provider, "model", req.Model)
		return ch, nil
	}
}
