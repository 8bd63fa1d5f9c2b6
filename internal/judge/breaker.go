package judge

import (
	"context"
	"sync"
	"time"
)

// Breaker defaults. Three straight failures open the circuit; after the
// cooldown one probe request is let through.
const (
	defaultFailureLimit = 3
	defaultCooldown     = 30 * time.Second
)

// Breaker wraps a Judge with a consecutive-failure circuit breaker. While
// open it returns ErrUnavailable immediately, so a down adjudicator costs
// nothing instead of a timeout per message.
type Breaker struct {
	inner Judge

	limit    int
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithFailureLimit sets how many consecutive failures open the circuit.
func WithFailureLimit(n int) BreakerOption {
	return func(b *Breaker) { b.limit = n }
}

// WithCooldown sets how long the circuit stays open.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) { b.cooldown = d }
}

// WithBreakerClock overrides the clock for tests.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// NewBreaker wraps inner with failure tracking.
func NewBreaker(inner Judge, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		inner:    inner,
		limit:    defaultFailureLimit,
		cooldown: defaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Judge forwards to the wrapped judge unless the circuit is open.
// ErrUnavailable from the inner judge counts as a failure like any other.
func (b *Breaker) Judge(ctx context.Context, req Request) (Judgment, error) {
	b.mu.Lock()
	if b.failures >= b.limit {
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return Judgment{}, ErrUnavailable
		}
		// Cooldown elapsed: half-open, let this request probe.
		b.failures = b.limit - 1
	}
	b.mu.Unlock()

	j, err := b.inner.Judge(ctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.failures == b.limit {
			b.openedAt = b.now()
		}
		return Judgment{}, err
	}
	b.failures = 0
	return j, nil
}

// Open reports whether the circuit is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.limit && b.now().Sub(b.openedAt) < b.cooldown
}
