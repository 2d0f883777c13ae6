package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 60 * time.Second
)

// CircuitBreaker guards a downstream dependency. It counts consecutive
// failures and, past the threshold, rejects calls immediately until the
// cool-down elapses. The next call after the cool-down is let through; on
// success the failure count resets to zero.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     int
	open         bool
	lastFailTime time.Time

	threshold int
	cooldown  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewCircuitBreaker(threshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		logger:    logger,
	}
}

// Execute runs fn under breaker protection. While open, calls fail fast
// with ErrCircuitOpen instead of incurring a full downstream timeout.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if err := cb.allow(operation); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(operation, err)
	return err
}

func (cb *CircuitBreaker) allow(operation string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return nil
	}
	if cb.now().Sub(cb.lastFailTime) > cb.cooldown {
		// cool-down elapsed, let one call through as a trial
		cb.logger.Info("circuit breaker cool-down elapsed, allowing trial call",
			zap.String("operation", operation))
		cb.open = false
		return nil
	}
	return ErrCircuitOpen
}

func (cb *CircuitBreaker) record(operation string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		return
	}

	cb.failures++
	cb.lastFailTime = cb.now()
	if cb.failures >= cb.threshold && !cb.open {
		cb.open = true
		cb.logger.Warn("circuit breaker opened",
			zap.String("operation", operation),
			zap.Int("consecutive_failures", cb.failures))
	}
}

// IsOpen reports whether the breaker is currently rejecting calls.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open && cb.now().Sub(cb.lastFailTime) <= cb.cooldown
}

// Reset forces the breaker closed and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.open = false
	cb.failures = 0
}
