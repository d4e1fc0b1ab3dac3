package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is one of the three circuit breaker states.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half-open"
)

// ErrCircuitOpen is returned by Execute when the circuit is open and the
// open timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitConfig configures a CircuitBreaker.
type CircuitConfig struct {
	// FailureThreshold is the number of consecutive failures in Closed that
	// trips the breaker to Open.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays Open before allowing one
	// trial call in HalfOpen.
	OpenTimeout time.Duration

	// OnStateChange, if set, is invoked asynchronously on every transition.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitConfig returns the baseline circuit breaker configuration.
func DefaultCircuitConfig() CircuitConfig {
	return CircuitConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

func sanitizeCircuitConfig(cfg CircuitConfig) CircuitConfig {
	d := DefaultCircuitConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = d.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = d.OpenTimeout
	}
	return cfg
}

// CircuitBreaker implements closed -> open -> half-open -> {closed, open}.
// Exactly one trial call is admitted while half-open; a concurrent second
// caller during the trial is rejected with ErrCircuitOpen.
type CircuitBreaker struct {
	cfg CircuitConfig

	mu              sync.Mutex
	state           CircuitState
	consecutiveFail int
	lastStateChange time.Time
	trialInFlight   bool
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:             sanitizeCircuitConfig(cfg),
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs fn under the breaker's protection. Returns ErrCircuitOpen
// without calling fn when the circuit is open or a half-open trial is
// already in flight.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	admitted, trial, err := cb.admit()
	if err != nil {
		return err
	}
	_ = admitted

	callErr := fn(ctx)
	cb.recordResult(trial, callErr)
	return callErr
}

func (cb *CircuitBreaker) admit() (admitted bool, trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true, false, nil
	case CircuitOpen:
		if time.Since(cb.lastStateChange) < cb.cfg.OpenTimeout {
			return false, false, ErrCircuitOpen
		}
		cb.transition(CircuitHalfOpen)
		cb.trialInFlight = true
		return true, true, nil
	case CircuitHalfOpen:
		if cb.trialInFlight {
			return false, false, ErrCircuitOpen
		}
		cb.trialInFlight = true
		return true, true, nil
	default:
		return true, false, nil
	}
}

func (cb *CircuitBreaker) recordResult(trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialInFlight = false
	}

	if err != nil {
		cb.consecutiveFail++
		switch cb.state {
		case CircuitClosed:
			if cb.consecutiveFail >= cb.cfg.FailureThreshold {
				cb.transition(CircuitOpen)
			}
		case CircuitHalfOpen:
			cb.transition(CircuitOpen)
		}
		return
	}

	cb.consecutiveFail = 0
	if cb.state == CircuitHalfOpen {
		cb.transition(CircuitClosed)
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	cb.lastStateChange = time.Now()
	if to != CircuitHalfOpen {
		cb.trialInFlight = false
	}
	if cb.cfg.OnStateChange != nil && from != to {
		go cb.cfg.OnStateChange(from, to)
	}
}
