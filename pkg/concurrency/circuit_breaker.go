// Package concurrency provides guards for operations that reach outside the process.
package concurrency

import (
	"sync"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int32

const (
	// StateClosed indicates the circuit is closed and operations are allowed
	StateClosed CircuitBreakerState = 0

	// StateOpen indicates the circuit is open and operations are blocked
	StateOpen CircuitBreakerState = 1

	// StateHalfOpen indicates the circuit is letting trial operations through
	StateHalfOpen CircuitBreakerState = 2
)

// BreakerConfig holds circuit breaker thresholds
type BreakerConfig struct {
	FailureThreshold int              // Consecutive failures that open the circuit (default: 5)
	SuccessThreshold int              // Consecutive half-open successes that close it (default: 2)
	ResetTimeout     time.Duration    // Time spent open before allowing trials (default: 30s)
	Now              func() time.Time // Clock (default: time.Now)
}

// DefaultBreakerConfig returns the default thresholds
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     30 * time.Second,
		Now:              time.Now,
	}
}

// CircuitBreaker stops calling a failing dependency until it has had time to recover
type CircuitBreaker struct {
	mu                   sync.Mutex
	state                CircuitBreakerState
	consecutiveFailures  int
	consecutiveSuccesses int
	openedAt             time.Time
	config               BreakerConfig
}

// NewCircuitBreaker creates a closed circuit breaker. Zero config fields take their defaults.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	defaults := DefaultBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = defaults.ResetTimeout
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	return &CircuitBreaker{state: StateClosed, config: config}
}

// Allow reports whether an operation may proceed, moving an expired open circuit to half-open
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}
	if cb.config.Now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.transitionTo(StateHalfOpen)
		return true
	}
	return false
}

// RecordSuccess records a successful operation
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
	if cb.state != StateHalfOpen {
		return
	}

	cb.consecutiveSuccesses++
	if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.transitionTo(StateClosed)
	}
}

// RecordFailure records a failed operation
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveSuccesses = 0
	cb.consecutiveFailures++

	switch cb.state {
	case StateClosed:
		if cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		// any failure while trialling reopens
		cb.transitionTo(StateOpen)
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(StateClosed)
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

// transitionTo must be called with mu held
func (cb *CircuitBreaker) transitionTo(newState CircuitBreakerState) {
	if cb.state == newState {
		return
	}
	cb.state = newState

	switch newState {
	case StateClosed:
		cb.consecutiveFailures = 0
		cb.consecutiveSuccesses = 0
		cb.openedAt = time.Time{}
	case StateOpen:
		cb.consecutiveSuccesses = 0
		cb.openedAt = cb.config.Now()
	case StateHalfOpen:
		cb.consecutiveSuccesses = 0
	}
}

// String returns the string representation of the circuit breaker state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}
