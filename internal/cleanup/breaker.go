package cleanup

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a provider's breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the operating mode of a Breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling a provider after MaxFailures consecutive failures.
// After ResetTimeout one probe call is let through; success closes the
// breaker, failure re-opens it.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	probeActive bool
}

// NewBreaker builds a closed breaker. Non-positive settings fall back to three
// failures and a 30s reset.
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration, logger *slog.Logger) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	probe := false
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
		b.logger.Info("cleanup breaker half-open", "provider", b.name)
		fallthrough
	case BreakerHalfOpen:
		if b.probeActive {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probeActive = true
		probe = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.probeActive = false
	}
	if err == nil {
		if b.state != BreakerClosed {
			b.logger.Info("cleanup breaker closed", "provider", b.name)
		}
		b.state = BreakerClosed
		b.failures = 0
		return nil
	}

	b.failures++
	if probe || b.failures >= b.maxFailures {
		if b.state != BreakerOpen {
			b.logger.Warn("cleanup breaker opened", "provider", b.name, "consecutive_failures", b.failures)
		}
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
	return err
}

// State reports the current state; an open breaker past its reset timeout
// reads as half-open.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}
