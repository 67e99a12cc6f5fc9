package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SourceLimiter enforces a shared requests-per-minute budget per external
// verification source. All calls to one source go through a single
// rate.Limiter instance, so N sequential calls take at least (N-1)
// intervals regardless of how many goroutines issue them.
type SourceLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewSourceLimiter creates a limiter with a default per-source budget.
func NewSourceLimiter(requestsPerMinute int, burst int) *SourceLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}

	return &SourceLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(float64(requestsPerMinute) / 60.0),
		defaultBurst: burst,
	}
}

// Wait blocks until the source's budget allows another request.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	return l.getLimiter(source).Wait(ctx)
}

// Allow checks if a request is allowed without waiting.
func (l *SourceLimiter) Allow(source string) bool {
	return l.getLimiter(source).Allow()
}

// getLimiter returns the rate limiter for a source, creating it on first use.
func (l *SourceLimiter) getLimiter(source string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[source]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[source] = limiter

	return limiter
}

// SetSourceRate sets a custom budget for a specific source.
func (l *SourceLimiter) SetSourceRate(source string, requestsPerMinute int, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters[source] = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}

// WaitWithDelay waits for the budget and adds an additional delay, used to
// spread bursts of single-citation lookups.
func (l *SourceLimiter) WaitWithDelay(ctx context.Context, source string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, source); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}
