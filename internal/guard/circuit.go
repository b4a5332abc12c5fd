package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steamfolio/portfolio/internal/domain"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "closed"
}

// CircuitBreaker stops calls to an upstream after repeated failures and
// lets a single probe through once the reset timeout has passed.
type CircuitBreaker struct {
	mu            sync.Mutex
	circuits      map[string]*circuit
	failThreshold int
	resetTimeout  time.Duration
	now           func() time.Time
}

type circuit struct {
	state       CircuitState
	failures    int
	probing     bool
	lastFailure time.Time
}

// NewCircuitBreaker creates a circuit breaker that opens after failThreshold
// consecutive failures.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		circuits:      make(map[string]*circuit),
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		now:           time.Now,
	}
}

func (cb *CircuitBreaker) get(key string) *circuit {
	c, ok := cb.circuits[key]
	if !ok {
		c = &circuit{state: CircuitClosed}
		cb.circuits[key] = c
	}
	return c
}

// Check returns whether the circuit for key allows a call.
func (cb *CircuitBreaker) Check(_ context.Context, key string) domain.GuardResult {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	switch c.state {
	case CircuitOpen:
		since := cb.now().Sub(c.lastFailure)
		if since < cb.resetTimeout {
			return domain.GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("circuit open for %s, resets in %s", key, (cb.resetTimeout - since).Round(time.Second)),
				Guard:   "circuit_breaker",
			}
		}
		c.state = CircuitHalfOpen
		c.probing = true
		return domain.GuardResult{Allowed: true}
	case CircuitHalfOpen:
		if c.probing {
			return domain.GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("circuit half-open for %s, probe in flight", key),
				Guard:   "circuit_breaker",
			}
		}
		c.probing = true
	}
	return domain.GuardResult{Allowed: true}
}

// RecordSuccess closes the circuit for key.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	c.state = CircuitClosed
	c.failures = 0
	c.probing = false
}

// RecordFailure counts a failure for key, opening the circuit at the threshold.
// A failed half-open probe reopens it immediately.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	c.failures++
	c.lastFailure = cb.now()
	c.probing = false
	if c.state == CircuitHalfOpen || c.failures >= cb.failThreshold {
		c.state = CircuitOpen
	}
}

// State returns the current state for key.
func (cb *CircuitBreaker) State(key string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.get(key).state
}
