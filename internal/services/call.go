package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/ispot/internal/metrics"
	"github.com/desertthunder/ispot/internal/shared"
)

// DefaultRetryAfter is the wait used when a 429 carries no usable Retry-After header.
const DefaultRetryAfter = 10 * time.Second

// RetryPolicy bounds how long [Call] keeps retrying rate limited operations.
// A zero MaxAttempts or MaxElapsed means no limit on that axis.
type RetryPolicy struct {
	MaxAttempts       int
	MaxElapsed        time.Duration
	DefaultRetryAfter time.Duration
}

// DefaultRetryPolicy retries without an attempt cap for up to fifteen minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       0,
		MaxElapsed:        15 * time.Minute,
		DefaultRetryAfter: DefaultRetryAfter,
	}
}

// PolicyFromConfig converts the [api.retry] config table.
func PolicyFromConfig(c shared.RetryConfig) RetryPolicy {
	p := RetryPolicy{
		MaxAttempts:       c.MaxAttempts,
		MaxElapsed:        time.Duration(c.MaxElapsedSeconds) * time.Second,
		DefaultRetryAfter: time.Duration(c.DefaultRetryAfterSeconds) * time.Second,
	}
	if p.DefaultRetryAfter <= 0 {
		p.DefaultRetryAfter = DefaultRetryAfter
	}
	return p
}

// RateLimitError is returned by a single request that received HTTP 429.
// [Call] absorbs it; callers outside this package only see it wrapped in [shared.ErrRetryExhausted].
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// TransportError is any failure that is neither a rate limit nor an authorization rejection:
// network errors, unexpected statuses and undecodable bodies.
//
// It matches [shared.ErrFatalTransport] with errors.Is.
type TransportError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%v: %s %s", shared.ErrFatalTransport, e.Method, e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == shared.ErrFatalTransport
}

// Call runs fn, retrying while it fails with a [RateLimitError].
//
// Unauthorized and transport errors are returned on the first occurrence. Each backoff is
// logged as a warning and bounded by the service's [RetryPolicy]; when the policy is exhausted
// the error wraps both [shared.ErrRetryExhausted] and the last rate limit error.
func Call[T any](ctx context.Context, s *SpotifyService, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	start := s.now()
	attempts := 0
	for {
		result, err := fn(ctx)
		if err == nil {
			s.metrics.ObserveRequest(op, metrics.OutcomeSuccess)
			return result, nil
		}

		var rl *RateLimitError
		if !errors.As(err, &rl) {
			if errors.Is(err, shared.ErrUnauthorized) {
				s.metrics.ObserveRequest(op, metrics.OutcomeUnauthorized)
			} else {
				s.metrics.ObserveRequest(op, metrics.OutcomeError)
			}
			return zero, err
		}

		s.metrics.ObserveRequest(op, metrics.OutcomeRateLimited)
		attempts++

		wait := rl.RetryAfter
		if wait <= 0 {
			wait = s.retry.DefaultRetryAfter
		}

		if s.retry.MaxAttempts > 0 && attempts >= s.retry.MaxAttempts {
			return zero, fmt.Errorf("%w: %s after %d attempts: %w", shared.ErrRetryExhausted, op, attempts, err)
		}
		if s.retry.MaxElapsed > 0 && s.now().Sub(start)+wait > s.retry.MaxElapsed {
			return zero, fmt.Errorf("%w: %s would exceed %s: %w", shared.ErrRetryExhausted, op, s.retry.MaxElapsed, err)
		}

		s.logger.Warn("rate limited by spotify, backing off", "op", op, "retry_after", wait, "attempt", attempts)
		s.metrics.ObserveBackoff(wait)

		if err := s.sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("%s cancelled during backoff: %w", op, err)
		}
	}
}

// parseRetryAfter reads a Retry-After header as delta seconds or an HTTP date.
func parseRetryAfter(h http.Header, now time.Time, fallback time.Duration) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
