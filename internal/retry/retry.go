// Package retry runs an operation again when it fails with a transient error,
// waiting an exponentially growing delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrExhausted wraps the last error once every attempt failed transiently.
var ErrExhausted = errors.New("retry attempts exhausted")

// Classifier reports whether err is worth another attempt.
type Classifier func(err error) bool

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// BaseDelay is the wait before the first retry; it doubles for each later retry.
	BaseDelay time.Duration
	// IsTransient classifies errors. Nil means IsTransient.
	IsTransient Classifier
	Logger      *slog.Logger
}

// transientMarkers are matched case-insensitively against error messages.
var transientMarkers = []string{
	"429",
	"quota",
	"rate limit",
	"ratelimit",
	"resource exhausted",
	"resource_exhausted",
	"too many requests",
}

// IsTransient treats rate-limit and quota errors as transient. Context
// cancellation and everything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Delay returns the wait before retry number n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}
	return p.BaseDelay << (n - 1)
}

// Do calls fn until it succeeds, fails permanently, or the policy runs out of
// retries. Permanent errors are returned unchanged after a single attempt.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	classify := p.IsTransient
	if classify == nil {
		classify = IsTransient
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	var zero T
	attempts := 1 + max(p.MaxRetries, 0)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !classify(err) {
			return zero, err
		}
		if attempt >= attempts {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
		}

		wait := p.Delay(attempt)
		log.WarnContext(ctx, "Transient failure, retrying",
			"attempt", attempt, "max_attempts", attempts, "delay", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry abandoned: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
