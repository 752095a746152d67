// Package breaker gates calls to the memory service behind a
// consecutive-failure circuit breaker with a probe-free time reset.
package breaker

import (
	"sync/atomic"
	"time"
)

const (
	// MaxFailures is the consecutive-failure count that opens the circuit.
	MaxFailures = 3
	// ResetAfter is the cool-down after which the circuit closes on its own.
	ResetAfter = 30 * time.Second
)

// Breaker tracks consecutive failures against a dependency. All methods are
// safe for concurrent use from many in-flight requests; construct one per
// dependency and inject it, never share through a package global.
type Breaker struct {
	available   atomic.Bool
	failures    atomic.Uint64
	lastFailure atomic.Int64 // unix seconds

	now func() time.Time
}

// New returns a closed (available) breaker.
func New() *Breaker {
	return NewWithClock(time.Now)
}

// NewWithClock returns a breaker using the given clock. Used by tests to
// simulate the cool-down window.
func NewWithClock(now func() time.Time) *Breaker {
	b := &Breaker{now: now}
	b.available.Store(true)
	return b
}

// IsAvailable reports whether the dependency should be called. Once the
// cool-down has elapsed since the last failure the breaker closes itself
// without requiring a probe.
func (b *Breaker) IsAvailable() bool {
	last := b.lastFailure.Load()
	if b.now().Unix()-last > int64(ResetAfter/time.Second) {
		b.available.Store(true)
		b.failures.Store(0)
	}
	return b.available.Load()
}

// RecordFailure notes a failed call and opens the circuit once the
// consecutive-failure threshold is reached.
func (b *Breaker) RecordFailure() {
	count := b.failures.Add(1)
	b.lastFailure.Store(b.now().Unix())
	if count >= MaxFailures {
		b.available.Store(false)
	}
}

// RecordSuccess resets the failure counter and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.failures.Store(0)
	b.available.Store(true)
}
