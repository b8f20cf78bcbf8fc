package statsclient

import (
	"sync"
	"time"
)

// CircuitBreaker stops calls to the stats service after repeated failures.
// While open, calls fail fast; after the cooldown one call is let through
// and its outcome decides whether the circuit closes again.
type CircuitBreaker struct {
	mu sync.RWMutex

	threshold int           // consecutive failures that open the circuit
	cooldown  time.Duration // how long to stay open
	now       func() time.Time

	failures  int
	openUntil time.Time
	isOpen    bool

	onChange func(open bool)
}

// NewCircuitBreaker creates a circuit breaker. Non-positive arguments fall
// back to 5 failures and a one minute cooldown.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		onChange:  func(bool) {},
	}
}

// Allow reports whether a call may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.RLock()
	if !cb.isOpen {
		cb.mu.RUnlock()
		return true
	}
	expired := cb.now().After(cb.openUntil)
	cb.mu.RUnlock()

	if !expired {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.isOpen && cb.now().After(cb.openUntil) {
		// half-open: the next failure reopens immediately
		cb.isOpen = false
		cb.failures = cb.threshold - 1
		cb.onChange(false)
	}
	return !cb.isOpen
}

// RecordSuccess closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.isOpen {
		cb.isOpen = false
		cb.onChange(false)
	}
}

// RecordFailure counts a failure and opens the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.failures >= cb.threshold {
		cb.openUntil = cb.now().Add(cb.cooldown)
		if !cb.isOpen {
			cb.isOpen = true
			cb.onChange(true)
		}
	}
}

// IsOpen returns true if the circuit is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.isOpen
}
