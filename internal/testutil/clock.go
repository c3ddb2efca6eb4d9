package testutil

import (
	"sync"
	"time"
)

// FixedClock is a deterministic time source for tests.
//
// Each call to Now returns the previous time plus Step, starting at Start.
// Journals written with the same FixedClock carry byte-identical
// timestamps across runs, which golden files rely on.
//
// Thread-safety: all methods are safe for concurrent use.
type FixedClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// DefaultClockStart is the first time returned by NewFixedClock.
var DefaultClockStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFixedClock creates a clock starting at DefaultClockStart and advancing
// one second per call.
func NewFixedClock() *FixedClock {
	return NewFixedClockAt(DefaultClockStart, time.Second)
}

// NewFixedClockAt creates a clock starting at start and advancing by step.
func NewFixedClockAt(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{next: start, step: step}
}

// Now returns the current time and advances the clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}
