package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicy_Execute_SuccessFirstAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt != 1 {
			t.Errorf("expected attempt 1, got %d", attempt)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicy_Execute_AuthErrorNotRetried(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return NewAPIError("openai", 401, "invalid api key")
	})
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt for auth error, got %d", calls)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if got := apiErr.RequestContext["attempt"]; got != "1" {
		t.Errorf("expected attempt context %q, got %q", "1", got)
	}
}

func TestRetryPolicy_Execute_ContentPolicyNotRetried(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return NewAPIError("openai", 400, "rejected by content_filter")
	})
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt for content policy error, got %d", calls)
	}
	if !IsContentPolicyError(err) {
		t.Errorf("expected content policy error, got %v", err)
	}
}

func TestRetryPolicy_Execute_ServerErrorExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("expected attempt %d, got %d", calls, attempt)
		}
		return NewAPIError("groq", 500, "internal error")
	})
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if got := apiErr.RequestContext["attempt"]; got != "3" {
		t.Errorf("expected attempt context %q, got %q", "3", got)
	}
}

func TestRetryPolicy_Execute_EventualSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt <= 3 {
			return NewAPIError("openai", 429, "rate limit exceeded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}
}

func TestRetryPolicy_Execute_StampsWrappedErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		return fmt.Errorf("attempt failed: %w", NewAPIError("ollama", 503, "overloaded"))
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped *APIError, got %T", err)
	}
	if got := apiErr.RequestContext["attempt"]; got != "2" {
		t.Errorf("expected attempt context %q, got %q", "2", got)
	}
}

func TestRetryPolicy_Execute_CustomPredicate(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(error) bool { return false },
	}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return NewAPIError("openai", 500, "internal error")
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt with always-false predicate, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetryPolicy_Execute_ZeroMaxAttempts(t *testing.T) {
	policy := RetryPolicy{}

	calls := 0
	err := policy.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return NewAPIError("openai", 500, "internal error")
	})
	if calls != 1 {
		t.Errorf("expected zero-value policy to run exactly once, got %d calls", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetryPolicy_Execute_CancelDuringBackoff(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	err := policy.Execute(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return NewAPIError("openai", 500, "internal error")
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancellation should interrupt backoff, slept %v", elapsed)
	}
}

func TestRetryPolicy_Delay_Bounds(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Hour,
		Jitter:    0.2,
	}

	for attempt := 1; attempt <= 4; attempt++ {
		nominal := policy.BaseDelay << (attempt - 1)
		lo := time.Duration(float64(nominal) * 0.8)
		hi := time.Duration(float64(nominal) * 1.2)
		for i := 0; i < 200; i++ {
			d := policy.delay(attempt)
			if d < lo || d > hi {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
			}
		}
	}
}

func TestRetryPolicy_Delay_CappedAtMax(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  150 * time.Millisecond,
		Jitter:    0.2,
	}

	for i := 0; i < 200; i++ {
		if d := policy.delay(5); d > policy.MaxDelay {
			t.Fatalf("delay %v exceeds max %v", d, policy.MaxDelay)
		}
	}
}

func TestRetryPolicy_Delay_NoJitter(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 50 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 50 * time.Millisecond},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := policy.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_Delay_ZeroBase(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3}
	if d := policy.delay(1); d != 0 {
		t.Errorf("expected zero delay with zero base, got %v", d)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", policy.MaxAttempts)
	}
	if policy.BaseDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms base delay, got %v", policy.BaseDelay)
	}
	if policy.MaxDelay != 8*time.Second {
		t.Errorf("expected 8s max delay, got %v", policy.MaxDelay)
	}
	if policy.Jitter != 0.2 {
		t.Errorf("expected 0.2 jitter, got %v", policy.Jitter)
	}
}
