package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Circuit breaker settings for the shared tier.
const (
	breakerThreshold = 3
	breakerCooldown  = 30 * time.Second
)

// breaker stops calls to Redis after repeated failures and retries after
// a cooldown.
type breaker struct {
	mu          sync.RWMutex
	failures    int
	lastFailure time.Time
	circuitOpen bool
	now         func() time.Time
}

func newBreaker() *breaker {
	return &breaker{now: time.Now}
}

// isOpen checks if the circuit breaker is open.
func (b *breaker) isOpen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.circuitOpen {
		return false
	}
	// Half-open after the cooldown: let one call through to probe Redis.
	return b.now().Sub(b.lastFailure) <= breakerCooldown
}

// recordFailure records a Redis failure.
func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	if b.failures >= breakerThreshold && !b.circuitOpen {
		slog.Warn("circuit breaker OPEN", slog.String("component", "cache"), slog.Int("failures", b.failures))
		b.circuitOpen = true
	}
}

// recordSuccess resets the circuit breaker.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.circuitOpen {
		slog.Info("circuit breaker CLOSED, Redis recovered", slog.String("component", "cache"))
	}
	b.failures = 0
	b.circuitOpen = false
}
