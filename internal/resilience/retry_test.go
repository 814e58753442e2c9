package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultPolicy(), "test", func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), "test", func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), "test", func(_ context.Context) error {
		calls++
		return Transient(errors.New("always fails"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorNoRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), "test", func(_ context.Context) error {
		calls++
		return errors.New("syntax error at or near SELECT")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_CustomRetryable(t *testing.T) {
	var calls int
	p := fastPolicy(4)
	p.Retryable = func(error) bool { return true }
	_ = Do(context.Background(), p, "test", func(_ context.Context) error {
		calls++
		return errors.New("anything")
	})
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Do(ctx, Policy{Attempts: 5, Backoff: time.Hour, MaxBackoff: time.Hour}, "test", func(_ context.Context) error {
		calls++
		cancel()
		return Transient(errors.New("temporary"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestValue_ReturnsResult(t *testing.T) {
	var calls int
	v, err := Value(context.Background(), fastPolicy(2), "test", func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Transient(errors.New("temporary"))
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{Attempts: 3, Backoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond}.withDefaults()
	if d := p.delay(0); d != 10*time.Millisecond {
		t.Errorf("attempt 0: got %v", d)
	}
	if d := p.delay(1); d != 20*time.Millisecond {
		t.Errorf("attempt 1: got %v", d)
	}
	if d := p.delay(5); d != 25*time.Millisecond {
		t.Errorf("attempt 5 should cap: got %v", d)
	}

	p.Jitter = 0.5
	for i := 0; i < 50; i++ {
		d := p.delay(0)
		if d < 5*time.Millisecond || d > 15*time.Millisecond {
			t.Fatalf("jittered delay out of range: %v", d)
		}
	}
}
