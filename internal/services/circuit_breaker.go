package services

import (
	"errors"
	"sync"
	"time"

	"balwatch/internal/models"
)

// ErrBreakerOpen is returned by the upstream client while the breaker
// is rejecting calls.
var ErrBreakerOpen = errors.New("upstream circuit breaker is open")

// BreakerConfig tunes the upstream guard.
type BreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the breaker.
	MaxFailures int
	// ResetTimeout is how long the breaker stays open before probing.
	ResetTimeout time.Duration
	// HalfOpenSuccesses is how many probes must succeed to close again.
	HalfOpenSuccesses int
}

// DefaultBreakerConfig matches the polling cadence: a few failed ticks
// open the breaker, one quiet window lets a probe through.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:       3,
		ResetTimeout:      2 * time.Minute,
		HalfOpenSuccesses: 1,
	}
}

type circuitBreaker struct {
	mu sync.Mutex

	config            BreakerConfig
	state             models.CircuitBreakerState
	failures          int
	halfOpenSuccesses int
	openedAt          time.Time
	now               func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given config.
func NewCircuitBreaker(config BreakerConfig) CircuitBreakerInterface {
	return &circuitBreaker{config: config, state: models.BreakerClosed, now: time.Now}
}

// Allow reports whether a call may proceed. An open breaker whose
// reset window has elapsed transitions to half-open and lets one
// probe through.
func (b *circuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == models.BreakerOpen {
		if b.now().Sub(b.openedAt) > b.config.ResetTimeout {
			b.state = models.BreakerHalfOpen
			b.halfOpenSuccesses = 0
			return true
		}
		return false
	}
	return true
}

func (b *circuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case models.BreakerHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenSuccesses {
			b.state = models.BreakerClosed
			b.failures = 0
			b.halfOpenSuccesses = 0
		}
	case models.BreakerClosed:
		b.failures = 0
	}
}

func (b *circuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case models.BreakerHalfOpen:
		b.open()
	case models.BreakerClosed:
		b.failures++
		if b.failures >= b.config.MaxFailures {
			b.open()
		}
	}
}

func (b *circuitBreaker) open() {
	b.state = models.BreakerOpen
	b.openedAt = b.now()
	b.halfOpenSuccesses = 0
}

func (b *circuitBreaker) State() models.CircuitBreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *circuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = models.BreakerClosed
	b.failures = 0
	b.halfOpenSuccesses = 0
}
