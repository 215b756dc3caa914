package simulate

import (
	"sync"
	"time"
)

// Clock abstracts wall time and timer scheduling so components that
// delay work can run deterministically under test.
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// AfterFunc schedules fn to run after d has elapsed
	AfterFunc(d time.Duration, fn func())
}

// System returns a Clock backed by the time package
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// FakeClock is a manually advanced Clock for tests. Scheduled functions
// run synchronously inside Advance, in due-time order; ties fire in
// scheduling order.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	due time.Time
	seq int
	fn  func()
}

// NewFakeClock creates a fake clock starting at the given instant
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run once the clock has advanced past d
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.timers = append(c.timers, &fakeTimer{
		due: c.now.Add(d),
		seq: c.seq,
		fn:  fn,
	})
}

// Advance moves the clock forward by d, firing every timer that becomes
// due. Timers scheduled by fired callbacks also run if they fall inside
// the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		idx := c.nextDue(target)
		if idx < 0 {
			break
		}

		timer := c.timers[idx]
		c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
		if timer.due.After(c.now) {
			c.now = timer.due
		}

		c.mu.Unlock()
		timer.fn()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// nextDue returns the index of the earliest timer due at or before
// target, preferring lower sequence numbers on ties. Caller holds mu.
func (c *FakeClock) nextDue(target time.Time) int {
	best := -1
	for i, timer := range c.timers {
		if timer.due.After(target) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		other := c.timers[best]
		if timer.due.Before(other.due) || (timer.due.Equal(other.due) && timer.seq < other.seq) {
			best = i
		}
	}
	return best
}

// Pending returns the number of timers not yet fired
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
