// Package clock provides an abstraction for time operations to improve testability.
// Instead of calling time.Now() directly, code can use the Clock interface which
// can be replaced in tests to control time-dependent behavior such as
// statusUpdatedAt and lastSyncedAt.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock in UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// ManualClock is a Clock that only moves when told to. It is safe for
// concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a ManualClock set to t.
func NewManual(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var (
	_ Clock = RealClock{}
	_ Clock = (*ManualClock)(nil)
)
