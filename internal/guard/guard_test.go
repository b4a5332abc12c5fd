package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)}
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "127.0.0.1")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "127.0.0.1")
	rl.Check(ctx, "127.0.0.1")
	result := rl.Check(ctx, "127.0.0.1")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
	assert.Contains(t, result.Reason, "2/1m0s")
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "10.0.0.1").Allowed)
	assert.True(t, rl.Check(ctx, "10.0.0.2").Allowed)
	assert.False(t, rl.Check(ctx, "10.0.0.1").Allowed)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clock := newClock()
	rl := NewRateLimiter(2, time.Minute)
	rl.now = clock.now
	ctx := context.Background()

	rl.Check(ctx, "k")
	clock.advance(30 * time.Second)
	rl.Check(ctx, "k")
	assert.False(t, rl.Check(ctx, "k").Allowed)

	clock.advance(31 * time.Second)
	assert.True(t, rl.Check(ctx, "k").Allowed, "first request left the window")
	assert.False(t, rl.Check(ctx, "k").Allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Check(context.Background(), "k").Allowed)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	clock := newClock()
	rl := NewRateLimiter(5, time.Minute)
	rl.now = clock.now
	ctx := context.Background()

	rl.Check(ctx, "old")
	clock.advance(45 * time.Second)
	rl.Check(ctx, "recent")
	clock.advance(20 * time.Second)

	rl.Sweep()
	assert.Equal(t, 1, rl.Keys())
}

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, 5*time.Second)

	result := cb.Check(context.Background(), "github")
	assert.True(t, result.Allowed)
	assert.Equal(t, CircuitClosed, cb.State("github"))
}

func TestCircuitBreaker_OpensOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.Check(ctx, "github")
	cb.RecordFailure("github")
	cb.RecordFailure("github")

	result := cb.Check(ctx, "github")
	assert.False(t, result.Allowed)
	assert.Equal(t, "circuit_breaker", result.Guard)
	assert.Equal(t, "open", cb.State("github").String())
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.Check(ctx, "github")
	cb.RecordFailure("github")
	cb.RecordSuccess("github")
	cb.RecordFailure("github")

	assert.True(t, cb.Check(ctx, "github").Allowed)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := newClock()
	cb := NewCircuitBreaker(1, 30*time.Second)
	cb.now = clock.now
	ctx := context.Background()

	cb.RecordFailure("github")
	assert.False(t, cb.Check(ctx, "github").Allowed)

	clock.advance(31 * time.Second)
	assert.True(t, cb.Check(ctx, "github").Allowed, "one probe after the reset timeout")
	assert.Equal(t, CircuitHalfOpen, cb.State("github"))
	assert.False(t, cb.Check(ctx, "github").Allowed, "second probe waits")

	cb.RecordSuccess("github")
	assert.Equal(t, CircuitClosed, cb.State("github"))
	assert.True(t, cb.Check(ctx, "github").Allowed)
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	clock := newClock()
	cb := NewCircuitBreaker(3, 30*time.Second)
	cb.now = clock.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cb.RecordFailure("github")
	}
	clock.advance(time.Minute)
	assert.True(t, cb.Check(ctx, "github").Allowed)

	cb.RecordFailure("github")
	assert.Equal(t, CircuitOpen, cb.State("github"))
	assert.False(t, cb.Check(ctx, "github").Allowed)
}
