package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a virtual clock whose timers fire only when Advance moves
// time past their deadline.
//
// It stands in for time.AfterFunc in tests (toast auto-hide) so timing
// behavior is deterministic and instant.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Timer callbacks run on the goroutine that calls Advance, outside the lock.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*ManualTimer
}

// ManualTimer is a pending callback on a ManualClock.
type ManualTimer struct {
	clock    *ManualClock
	id       int
	deadline time.Duration
	fn       func()
}

// NewManualClock creates a clock at virtual time 0.
func NewManualClock() *ManualClock {
	return &ManualClock{timers: make(map[int]*ManualTimer)}
}

// AfterFunc schedules fn to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) *ManualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &ManualTimer{clock: c, id: c.nextID, deadline: c.now + d, fn: fn}
	c.timers[t.id] = t
	return t
}

// Stop cancels the timer. Returns false if it already fired or was stopped.
func (t *ManualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}

// Advance moves virtual time forward by d and fires every timer whose
// deadline is reached, in deadline order.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*ManualTimer
	for id, t := range c.timers {
		if t.deadline <= c.now {
			due = append(due, t)
			delete(c.timers, id)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline == due[j].deadline {
			return due[i].id < due[j].id
		}
		return due[i].deadline < due[j].deadline
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
