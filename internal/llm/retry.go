package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"maintenance-copilot/internal/common/metrics"
)

// permanentError stops the retry loop.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

func permanent(err error) error { return &permanentError{err: err} }

// newLimiter converts a requests-per-minute budget into a token bucket.
func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// callWithRetry runs fn up to maxRetries+1 times with exponential backoff.
func callWithRetry(ctx context.Context, provider string, limiter *rate.Limiter, maxRetries int, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				metrics.LLMRequests.WithLabelValues(provider, "timeout").Inc()
				return fmt.Errorf("%w: %v", ErrLLMTimeout, ctx.Err())
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			metrics.LLMRequests.WithLabelValues(provider, "timeout").Inc()
			return fmt.Errorf("%w: rate limiter: %v", ErrLLMTimeout, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			metrics.LLMRequests.WithLabelValues(provider, "success").Inc()
			return nil
		}

		if ctx.Err() != nil {
			metrics.LLMRequests.WithLabelValues(provider, "timeout").Inc()
			return fmt.Errorf("%w: %v", ErrLLMTimeout, lastErr)
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			break
		}
	}

	metrics.LLMRequests.WithLabelValues(provider, "error").Inc()
	return fmt.Errorf("%w: %s: %v", ErrLLMCompletionFailed, provider, lastErr)
}
