package worker

import (
	"context"
	"testing"
	"time"
)

func TestSourceLimiter_New(t *testing.T) {
	limiter := NewSourceLimiter(60, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewSourceLimiter(60, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestSourceLimiter_Wait(t *testing.T) {
	limiter := NewSourceLimiter(6000, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "citation_lookup"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different source has its own budget
	if err := limiter.Wait(ctx, "search"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestSourceLimiter_SharedBudget(t *testing.T) {
	// 60 rpm = 1 rps, burst 1
	limiter := NewSourceLimiter(60, 1)

	if !limiter.Allow("citation_lookup") {
		t.Error("first request should pass")
	}

	// Token consumed, second immediate request must be refused
	if limiter.Allow("citation_lookup") {
		t.Error("expected allow to fail (exhausted budget)")
	}

	// Another source is unaffected
	if !limiter.Allow("search") {
		t.Error("expected allow for other source")
	}
}

func TestSourceLimiter_SequentialBound(t *testing.T) {
	// 1200 rpm = 20 rps = 50ms interval, burst 1.
	// Three sequential calls must take at least 2 intervals.
	limiter := NewSourceLimiter(1200, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "citation_lookup"); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 100*time.Millisecond {
		t.Errorf("expected >= 100ms for 3 calls at 50ms interval, got %v", elapsed)
	}
}

func TestSourceLimiter_SetSourceRate(t *testing.T) {
	limiter := NewSourceLimiter(6000, 10)

	limiter.SetSourceRate("slow", 1, 1)

	if !limiter.Allow("slow") {
		t.Error("first request should pass")
	}
	if limiter.Allow("slow") {
		t.Error("second request should fail")
	}
	if !limiter.Allow("fast") {
		t.Error("other source should pass")
	}
}

func TestSourceLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewSourceLimiter(6000, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "search", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if time.Since(start) < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", time.Since(start))
	}
}
