package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// FixedClock is a domain.Clock that only moves when told to.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock starts a clock at t (converted to UTC).
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t.UTC()}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// SequentialIDs is a domain.IDGenerator producing prefix-1, prefix-2, ...
type SequentialIDs struct {
	Prefix string
	n      atomic.Int64
}

func (g *SequentialIDs) New() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}
