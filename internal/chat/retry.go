package chat

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// RetryConfig controls the backoff applied to provider calls.
// Retries apply only to Embedder and Generator calls, never to
// relational store operations.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig matches the provider contract: up to 3 attempts
// with exponential backoff from 1s capped at 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by failure category.
// Matched case-insensitively against err.Error().
//
// String matching is used because provider SDKs do not expose typed
// errors for transient failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "connection refused", "timeout", "temporary"}, // network errors
}

// retryable reports whether err is transient. 4xx failures other than
// rate limits are fatal and never retried.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// withRetry runs fn with the orchestrator's retry policy. Each attempt
// first waits on the rate limiter (if any). Non-retryable errors surface
// immediately; exhausted retries surface the last error. Both cases are
// wrapped in *ProviderError naming the operation.
func (o *Orchestrator) withRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	delay := o.retry.InitialInterval

	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return &ProviderError{Operation: operation, Attempts: attempt, Err: err}
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				o.logger.Debug("provider call recovered",
					"operation", operation, "attempts", attempt)
			}
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return &ProviderError{Operation: operation, Attempts: attempt, Err: err}
		}
		if attempt == o.retry.MaxAttempts {
			break
		}

		o.logger.Debug("retrying provider call",
			"operation", operation, "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return &ProviderError{Operation: operation, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
			delay = min(delay*2, o.retry.MaxInterval)
		}
	}

	return &ProviderError{Operation: operation, Attempts: o.retry.MaxAttempts, Err: lastErr}
}

// WithRateLimiter installs a shared limiter waited on before every
// provider attempt.
func (o *Orchestrator) WithRateLimiter(l *rate.Limiter) *Orchestrator {
	o.limiter = l
	return o
}
