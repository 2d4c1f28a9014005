package testharness

import (
	"sync"
	"time"

	"github.com/acequialabs/acequia-go/pkg/log"
)

// FakeGauge is a memory gauge with a settable free value.
type FakeGauge struct {
	mu   sync.Mutex
	free uint64
}

// NewFakeGauge creates a gauge reporting free bytes.
func NewFakeGauge(free uint64) *FakeGauge {
	return &FakeGauge{free: free}
}

// FreeBytes returns the configured free memory.
func (g *FakeGauge) FreeBytes() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.free
}

// SetFree changes the reported free memory.
func (g *FakeGauge) SetFree(free uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.free = free
}

// FixedClock is a manually advanced clock.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at start.
func NewFixedClock(start time.Time) *FixedClock {
	return &FixedClock{now: start}
}

// Now returns the current fake time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CaptureLogger records every event for assertions.
type CaptureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

// Log appends the event.
func (l *CaptureLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns a copy of the recorded events.
func (l *CaptureLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]log.Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByCategory returns recorded events matching the category.
func (l *CaptureLogger) ByCategory(c log.Category) []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []log.Event
	for _, ev := range l.events {
		if ev.Category == c {
			out = append(out, ev)
		}
	}
	return out
}

// Compile-time interface satisfaction check.
var _ log.Logger = (*CaptureLogger)(nil)
