// Package circuitbreaker implements the circuit breaker pattern.
// TypeFlow wraps the Redis leaderboard cache with a breaker: when the cache
// backend degrades, reads fall through to PostgreSQL immediately instead of
// waiting out Redis timeouts on every request.
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// StateClosed - normal operation, calls pass through.
	StateClosed State = iota
	// StateOpen - too many failures, calls are rejected immediately.
	StateOpen
	// StateHalfOpen - probing whether the backend has recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker rejects a call without executing it.
var ErrOpen = errors.New("circuitbreaker: circuit is open")

// Config holds circuit breaker configuration.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before allowing a
	// probe call. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenSuccesses is the number of consecutive probe successes
	// required to close the circuit again. Default: 2.
	HalfOpenSuccesses int

	// OnStateChange is called on every state transition.
	OnStateChange func(from, to State)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenSuccesses: 2,
	}
}

// Breaker is a circuit breaker guarding calls to an unreliable backend.
type Breaker struct {
	mu sync.Mutex

	config Config

	state        State
	failures     int
	probeSuccess int
	openedAt     time.Time
}

// New creates a new Breaker with the given configuration.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenSuccesses <= 0 {
		config.HalfOpenSuccesses = 2
	}
	return &Breaker{config: config, state: StateClosed}
}

// State returns the current state, accounting for reset timeout expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

// Execute runs fn through the breaker. When the circuit is open, fn is not
// called and ErrOpen is returned.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	now := time.Now()
	state := b.currentState(now)
	if state == StateOpen {
		b.mu.Unlock()
		return ErrOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure(now)
		return err
	}
	b.onSuccess()
	return nil
}

// currentState resolves the effective state; callers must hold the mutex.
func (b *Breaker) currentState(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.config.ResetTimeout {
		b.transition(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probeSuccess++
		if b.probeSuccess >= b.config.HalfOpenSuccesses {
			b.transition(StateClosed)
		}
	}
}

func (b *Breaker) onFailure(now time.Time) {
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.openedAt = now
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// Probe failed, back to open with a fresh timeout.
		b.openedAt = now
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	switch to {
	case StateClosed:
		b.failures = 0
		b.probeSuccess = 0
	case StateHalfOpen:
		b.probeSuccess = 0
	}
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
