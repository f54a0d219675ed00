package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a stored item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for transport failures: timeouts, refused
	// connections, remote hangups during a clone.
	ErrNetwork = errors.New("network error")

	// ErrCacheMiss is returned by helpers that treat a miss as an error.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks an error as worth another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff controls RetryWithPolicy.
type Backoff struct {
	Attempts int
	Delay    time.Duration // doubled after every failed attempt

	// OnRetry, if set, runs before each sleep with the 1-based attempt
	// that just failed.
	OnRetry func(attempt int, err error)
}

// DefaultBackoff is three attempts starting at one second.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// RetryWithBackoff runs fn with DefaultBackoff.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return RetryWithPolicy(ctx, DefaultBackoff, fn)
}

// RetryWithPolicy runs fn until it succeeds, returns an error not wrapped
// with Retryable, or b.Attempts is used up.
func RetryWithPolicy(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var last error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		last = err
		if !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if b.OnRetry != nil {
			b.OnRetry(i+1, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return last
}
