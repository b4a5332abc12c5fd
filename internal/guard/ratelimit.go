// Package guard holds request guards that protect the engine and its
// upstream dependencies.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steamfolio/portfolio/internal/domain"
)

// RateLimiter implements a sliding window rate limiter keyed by client.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
// A non-positive limit disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Check returns a GuardResult indicating whether key is within its limit.
// Allowed requests are counted against the window.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	if rl.limit <= 0 {
		return domain.GuardResult{Allowed: true}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.prune(key, now)

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}

// Sweep drops keys with no requests inside the window.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key := range rl.windows {
		if len(rl.prune(key, now)) == 0 {
			delete(rl.windows, key)
		}
	}
}

// Keys returns the number of tracked clients.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

func (rl *RateLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	rl.windows[key] = valid
	return valid
}
