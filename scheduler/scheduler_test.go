package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestThrottleAllow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	th := NewThrottle(0, clock.Now)
	if th.Interval() != DefaultInterval {
		t.Fatalf("Interval() = %v, want %v", th.Interval(), DefaultInterval)
	}

	steps := []struct {
		advance time.Duration
		want    bool
	}{
		{0, true},
		{0, false},
		{100 * time.Millisecond, false},
		{399 * time.Millisecond, false},
		{1 * time.Millisecond, true},
		{499 * time.Millisecond, false},
		{2 * time.Second, true},
	}
	for i, s := range steps {
		clock.Advance(s.advance)
		if got := th.Allow(); got != s.want {
			t.Errorf("step %d: Allow() = %v, want %v", i, got, s.want)
		}
	}
}

func TestThrottleRemainingAndReset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	th := NewThrottle(time.Second, clock.Now)

	if got := th.Remaining(); got != 0 {
		t.Errorf("Remaining() before first event = %v, want 0", got)
	}
	th.Allow()
	clock.Advance(300 * time.Millisecond)
	if got := th.Remaining(); got != 700*time.Millisecond {
		t.Errorf("Remaining() = %v, want 700ms", got)
	}
	clock.Advance(time.Second)
	if got := th.Remaining(); got != 0 {
		t.Errorf("Remaining() after interval = %v, want 0", got)
	}

	th.Allow()
	th.Reset()
	if !th.Allow() {
		t.Error("Allow() after Reset = false")
	}
}

func TestNewThrottleNilClock(t *testing.T) {
	th := NewThrottle(time.Hour, nil)
	if !th.Allow() || th.Allow() {
		t.Error("real clock throttle admitted the wrong events")
	}
}

func TestRunnerCoalescesTriggers(t *testing.T) {
	const interval = 40 * time.Millisecond

	ran := make(chan time.Time, 10)
	r := NewRunner("test", interval, func(context.Context) error {
		ran <- time.Now()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	r.Trigger()
	first := receive(t, ran)

	for range 5 {
		r.Trigger()
	}
	second := receive(t, ran)
	if gap := second.Sub(first); gap < interval-5*time.Millisecond {
		t.Errorf("second run after %v, want about %v", gap, interval)
	}

	select {
	case <-ran:
		t.Error("coalesced triggers produced an extra run")
	case <-time.After(3 * interval):
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if r.Runs() != 2 {
		t.Errorf("Runs() = %d, want 2", r.Runs())
	}
}

func TestRunnerCountsErrorsAndKeepsRunning(t *testing.T) {
	ran := make(chan time.Time, 10)
	r := NewRunner("failing", time.Millisecond, func(context.Context) error {
		ran <- time.Now()
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	r.Trigger()
	receive(t, ran)
	r.Trigger()
	receive(t, ran)

	if r.Errors() != 2 {
		t.Errorf("Errors() = %d, want 2", r.Errors())
	}
}

func TestRunnerRejectsSecondRun(t *testing.T) {
	ran := make(chan time.Time, 1)
	r := NewRunner("single", 0, func(context.Context) error {
		ran <- time.Now()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	r.Trigger()
	receive(t, ran)

	if err := r.Run(ctx); !errors.Is(err, ErrRunning) {
		t.Errorf("second Run() = %v, want ErrRunning", err)
	}
}

func TestRunnerNilJob(t *testing.T) {
	r := NewRunner("nil", time.Second, nil)
	if err := r.Run(context.Background()); err == nil {
		t.Error("Run() with nil job succeeded")
	}
}

func TestRunnerStopsWithoutTrigger(t *testing.T) {
	r := NewRunner("idle", time.Second, func(context.Context) error { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want DeadlineExceeded", err)
	}
	if r.Runs() != 0 {
		t.Errorf("Runs() = %d, want 0", r.Runs())
	}
}

func receive(t *testing.T, ch <-chan time.Time) time.Time {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
		return time.Time{}
	}
}
