package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Policy retries an operation until it succeeds, the error stops being
// retryable, or the attempt budget runs out. Execute honors ctx during the
// waits between attempts, not inside fn itself.
type Policy interface {
	Execute(ctx context.Context, fn func() error) error
}

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig returns conservative defaults for backoff retries.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Backoff retries with exponentially growing delays, capped at MaxDelay.
type Backoff struct {
	config *Config
}

// NewBackoff applies defaults when config is nil.
func NewBackoff(config *Config) *Backoff {
	if config == nil {
		config = DefaultConfig()
	}
	return &Backoff{config: config}
}

func (b *Backoff) Execute(ctx context.Context, fn func() error) error {
	cfg := b.config

	for attempt := 1; ; attempt++ {
		lastErr := fn()
		if lastErr == nil {
			return nil
		}

		if attempt >= cfg.MaxAttempts {
			return &MaxRetriesExceededError{LastError: lastErr, MaxAttempts: cfg.MaxAttempts}
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if err := sleep(ctx, b.delay(attempt)); err != nil {
			return err
		}
	}
}

func (b *Backoff) delay(attempt int) time.Duration {
	delay := float64(b.config.BaseDelay) * math.Pow(b.config.Multiplier, float64(attempt-1))
	if delay > float64(b.config.MaxDelay) {
		delay = float64(b.config.MaxDelay)
	}

	return time.Duration(delay)
}

// sleep waits for the backoff delay but returns early when ctx is done, so a
// canceled bake does not sit out the remaining wait.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Matched against lowercased error text. The upstream failures worth retrying
// (refused connections, resets, 5xx responses, throttling) surface here as
// plain wrapped errors without typed sentinels.
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// MaxRetriesExceededError indicates that all retry attempts were exhausted.
type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.MaxAttempts, e.LastError)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

// IsMaxRetriesExceeded reports whether err is a MaxRetriesExceededError.
func IsMaxRetriesExceeded(err error) bool {
	var maxRetriesErr *MaxRetriesExceededError
	return errors.As(err, &maxRetriesErr)
}
