package providers

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

// Operation is one attempt of a retryable call. The attempt number is
// 1-based; results are captured by the closure.
type Operation func(ctx context.Context, attempt int) error

// RetryPolicy re-runs an operation with exponential backoff until it
// succeeds, exhausts MaxAttempts, or fails with a non-retryable error.
// It is pure control flow and knows nothing about HTTP.
type RetryPolicy struct {
	// MaxAttempts includes the initial attempt. Values below 1 behave as 1.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; each further
	// retry doubles it. Zero disables backoff entirely.
	BaseDelay time.Duration

	// MaxDelay caps a computed backoff. Zero means uncapped.
	MaxDelay time.Duration

	// Jitter spreads each delay uniformly across (1-Jitter) to (1+Jitter)
	// of its nominal value. Clamped to [0, 1].
	Jitter float64

	// Retryable decides whether a failed attempt is re-run. Nil falls
	// back to IsRetryable.
	Retryable func(error) bool
}

// DefaultRetryPolicy mirrors the configuration defaults: 3 attempts,
// 500ms base delay doubling up to 8s, 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Jitter:      0.2,
	}
}

// Execute invokes op until it succeeds or retries are exhausted. Each
// failure has the attempt number stamped into the error's request context
// before the retry decision is made, so the terminal error always reports
// how many attempts were spent.
//
// The backoff sleep honors ctx; cancellation during the sleep returns the
// context's error immediately.
func (p RetryPolicy) Execute(ctx context.Context, op Operation) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		stampAttempt(err, attempt)
		if attempt >= maxAttempts || !retryable(err) {
			return err
		}
		if sleepErr := sleepContext(ctx, p.delay(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
}

// delay computes the backoff before attempt+1:
// min(MaxDelay, BaseDelay * 2^(attempt-1) * jitter factor).
func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	jitter := p.Jitter
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	d *= 1 + (rand.Float64()*2-1)*jitter
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

func stampAttempt(err error, attempt int) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		apiErr.WithContext("attempt", strconv.Itoa(attempt))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
