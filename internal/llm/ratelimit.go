package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/studysage/internal/logger"
)

// NewLimiter paces requests to requestsPerSecond with a burst of one.
// A non-positive rate disables pacing.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// RateLimitedCall waits for the limiter and then makes exactly one call.
// Failures are returned as-is; callers decide whether to try again.
func RateLimitedCall[T any](ctx context.Context, limiter *rate.Limiter, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	result, err := fn(ctx)
	if err != nil {
		log.Debug("Rate limited call failed: %v", err)
		return zero, err
	}
	return result, nil
}
