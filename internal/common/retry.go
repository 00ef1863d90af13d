package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/bankweave/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError marks an error as explicitly retryable or permanent,
// overriding the default policy of WithRetry.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is known to be transient: a rate limit, a
// deadline, or an error explicitly marked retryable.
func IsRetryable(err error) bool {
	var marked *RetryableError
	if errors.As(err, &marked) {
		return marked.Retryable
	}
	return isRateLimited(err) || errors.Is(err, context.DeadlineExceeded)
}

func isRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrPlaidRateLimit)
}

// isPermanent reports failures WithRetry gives up on immediately. A provider
// that answered with a refusal is reported to the user, not asked again.
func isPermanent(err error) bool {
	var marked *RetryableError
	if errors.As(err, &marked) {
		return !marked.Retryable
	}
	if isRateLimited(err) {
		return false
	}
	return errors.Is(err, ErrUpstream) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// WithRetry runs operation until it succeeds, fails permanently or runs out
// of attempts. Delays grow by opts.Multiplier up to opts.MaxDelay; rate
// limits wait the full MaxDelay.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	delay := opts.InitialDelay
	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		wait := delay
		if isRateLimited(err) {
			wait = opts.MaxDelay
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"rate_limited", isRateLimited(err),
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
	}
}
