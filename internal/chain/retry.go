package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// Retry classification errors.
var (
	ErrRetryable = &msigerr.MultisigError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: msigerr.ExitGeneral,
	}

	ErrTimeout = &msigerr.MultisigError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: msigerr.ExitGeneral,
	}

	ErrRateLimited = &msigerr.MultisigError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: msigerr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first
	BaseDelay   time.Duration // Delay before the first retry
	MaxDelay    time.Duration // Upper bound on any single delay

	// OnRetry, when set, is called before each sleep with the 1-based
	// attempt that failed and its error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns 4 attempts with delays of roughly 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// Retry runs operation with DefaultRetryConfig.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig runs operation until it succeeds, returns a non-retryable
// error, exhausts cfg.MaxAttempts, or ctx is done.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// calculateDelay returns baseDelay*2^attempt capped at maxDelay, jittered
// into [delay/2, delay).
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := maxDelay
	if attempt < 32 {
		if d := baseDelay << attempt; d > 0 && d < maxDelay {
			delay = d
		}
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: Jitter does not require cryptographic randomness
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ParseRetryAfter parses a Retry-After header given in seconds. It returns 0
// when the header is absent or not an integer.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// WrapRetryable marks err as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
