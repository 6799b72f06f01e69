package scheduler

import (
	"sync"
	"time"
)

// DefaultInterval is the metrics refresh period used when none is given.
const DefaultInterval = 500 * time.Millisecond

// Throttle admits at most one event per interval. The first call to Allow
// always succeeds. A Throttle is safe for concurrent use.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	last     time.Time
	primed   bool
}

// NewThrottle returns a Throttle with the given interval. Non-positive
// intervals select DefaultInterval. A nil clock selects time.Now.
func NewThrottle(interval time.Duration, now func() time.Time) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{interval: interval, now: now}
}

// Interval returns the configured period.
func (t *Throttle) Interval() time.Duration { return t.interval }

// Allow reports whether an event may run now and, if so, starts a new
// interval.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.primed && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.primed = true
	return true
}

// Remaining returns how long until Allow would succeed. Zero means now.
func (t *Throttle) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.primed {
		return 0
	}
	if d := t.interval - t.now().Sub(t.last); d > 0 {
		return d
	}
	return 0
}

// Reset forgets the last event so the next Allow succeeds.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.primed = false
	t.last = time.Time{}
	t.mu.Unlock()
}
