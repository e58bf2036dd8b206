// Package ratelimit implements per-actor politeness delays between requests.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/maktaba/bookcrawler/internal/metrics"
)

// Limiter enforces a minimum interval between requests per actor. Each actor
// (one pool worker) owns an independent timer, so workers never serialize
// against each other; the aggregate site rate is workers / delay.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// New creates a Limiter with the given minimum inter-request interval.
// A non-positive interval disables throttling.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the actor's next request slot is available, respecting
// the context.
func (l *Limiter) Wait(ctx context.Context, actor string) error {
	if l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	limiter, exists := l.limiters[actor]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[actor] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(waited)
	}
	return nil
}
