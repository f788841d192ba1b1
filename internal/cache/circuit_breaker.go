package cache

import (
	"sync"
	"time"
)

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "closed"
}

// CircuitBreaker guards the redis claim path. It opens after threshold
// consecutive failures, lets probes through once cooldown has passed, and
// closes again after probes successful probes in a row.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     CircuitState
	failures  int
	probed    int
	openedAt  time.Time
	threshold int
	cooldown  time.Duration
	probes    int
	now       func() time.Time

	// OnTransition, when set, is called with the lock held after every state
	// change.
	OnTransition func(from, to CircuitState)
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		probes:    3,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Allow reports whether a call may go to redis right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) > cb.cooldown {
		cb.probed = 0
		cb.move(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		return cb.probed < cb.probes
	}
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state != StateHalfOpen {
		return
	}

	cb.probed++
	if cb.probed >= cb.probes {
		cb.move(StateClosed)
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.threshold) {
		cb.openedAt = cb.now()
		cb.move(StateOpen)
	}
}

func (cb *CircuitBreaker) move(to CircuitState) {
	from := cb.state
	cb.state = to
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.OnTransition != nil && from != to {
		cb.OnTransition(from, to)
	}
}
