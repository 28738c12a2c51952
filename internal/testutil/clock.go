package testutil

import (
	"sync"
	"time"
)

// FrozenClock provides a thread-safe fixed wall clock for tests.
//
// Unlike time.Now, FrozenClock only moves when told to. This makes retention
// age computation and trace snapshots reproducible: the same scenario with
// the same frozen time produces byte-identical run records.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FrozenClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFrozenClock creates a clock frozen at t.
func NewFrozenClock(t time.Time) *FrozenClock {
	return &FrozenClock{t: t}
}

// Now returns the frozen time. Matches the signature of time.Now so it can
// be injected wherever a `func() time.Time` is accepted.
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Set resets the clock to t.
func (c *FrozenClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
