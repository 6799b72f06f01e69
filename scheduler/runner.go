package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrRunning is returned by Run when the Runner is already running.
var ErrRunning = errors.New("scheduler: runner already running")

// Job is the work a Runner performs. Errors are logged and do not stop the
// Runner.
type Job func(ctx context.Context) error

// Runner executes a Job after Trigger, no more than once per interval.
// Triggers that arrive while a run is pending collapse into one run.
type Runner struct {
	job      Job
	interval time.Duration
	name     string

	pending atomic.Bool
	running atomic.Bool
	kick    chan struct{}

	runs   atomic.Uint64
	failed atomic.Uint64
}

// NewRunner returns a Runner for job. Non-positive intervals select
// DefaultInterval. name labels log records.
func NewRunner(name string, interval time.Duration, job Job) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		job:      job,
		interval: interval,
		name:     name,
		kick:     make(chan struct{}, 1),
	}
}

// Trigger marks the job as due. It never blocks.
func (r *Runner) Trigger() {
	r.pending.Store(true)
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Runs returns how many times the job has executed.
func (r *Runner) Runs() uint64 { return r.runs.Load() }

// Errors returns how many runs returned an error.
func (r *Runner) Errors() uint64 { return r.failed.Load() }

// Run services triggers until ctx is canceled and returns ctx.Err(). A
// trigger received less than one interval after the previous run is
// deferred until the interval elapses.
func (r *Runner) Run(ctx context.Context) error {
	if r.job == nil {
		return errors.New("scheduler: nil job")
	}
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer r.running.Store(false)

	slogger().Debug("scheduler: runner started", "name", r.name, "interval", r.interval)
	defer slogger().Debug("scheduler: runner stopped", "name", r.name, "runs", r.runs.Load())

	var (
		last  time.Time
		timer *time.Timer
		wait  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.kick:
		case <-wait:
			wait = nil
		}

		if wait != nil || !r.pending.Load() {
			continue
		}
		if d := r.interval - time.Since(last); !last.IsZero() && d > 0 {
			if timer == nil {
				timer = time.NewTimer(d)
			} else {
				timer.Reset(d)
			}
			wait = timer.C
			continue
		}

		r.pending.Store(false)
		last = time.Now()
		r.execute(ctx)
	}
}

func (r *Runner) execute(ctx context.Context) {
	r.runs.Add(1)
	if err := r.job(ctx); err != nil {
		r.failed.Add(1)
		slogger().Warn("scheduler: job failed", "name", r.name, "error", err)
	}
}
