// Package clock abstracts the current time so "today" and "now" can be fixed in tests.
//
// Production code injects Real(loc); tests inject Fake(t) and move time with Set or
// Advance. Every service that needs the current date or time of day takes a Clock
// instead of calling time.Now directly.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current local time.
type Clock interface {
	// Now returns the current time in the clock's location.
	Now() time.Time
}

// Real returns a Clock backed by the time package, reporting times in loc.
// A nil loc means UTC.
func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return realClock{loc: loc}
}

// RealInZone resolves an IANA zone name and returns a Real clock for it.
func RealInZone(name string) (Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return Real(loc), nil
}

type realClock struct {
	loc *time.Location
}

func (c realClock) Now() time.Time { return time.Now().In(c.loc) }

// Fake returns a FakeClock frozen at initial. Time stands still until Set or
// Advance is called.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}
