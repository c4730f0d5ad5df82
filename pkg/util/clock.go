package util

import (
	"sync"
	"time"
)

// Clock supplies the current time for createdAt, updatedAt and similar fields
type Clock interface {
	Now() time.Time
}

// SystemClock is a wall clock, always in UTC
type SystemClock struct{}

// Now returns current UTC time
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a manually driven clock for tests
type FixedClock struct {
	now time.Time
	sync.Mutex
}

// NewFixedClock returns a clock frozen at a given moment
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t.UTC()}
}

// Now returns the frozen time
func (c *FixedClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()

	return c.now
}

// Advance moves the clock forward
func (c *FixedClock) Advance(d time.Duration) {
	c.Lock()
	c.now = c.now.Add(d)
	c.Unlock()
}
