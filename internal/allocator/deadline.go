package allocator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultTick          = time.Second
	defaultTerminateWait = time.Second
)

// DeadlineOption configures a Deadline.
type DeadlineOption func(*Deadline)

// WithTick overrides the countdown granularity, primarily for tests.
func WithTick(d time.Duration) DeadlineOption {
	return func(dl *Deadline) {
		if d > 0 {
			dl.tick = d
		}
	}
}

// WithTerminateWait bounds how long Terminate waits for the countdown to exit.
func WithTerminateWait(d time.Duration) DeadlineOption {
	return func(dl *Deadline) {
		if d > 0 {
			dl.terminateWait = d
		}
	}
}

// Deadline is a cooperative countdown measured in ticks (one second by
// default). The search polls Active; only the countdown goroutine, Start and
// Terminate change it.
type Deadline struct {
	budget        int
	tick          time.Duration
	terminateWait time.Duration

	remaining atomic.Int64
	active    atomic.Bool

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewDeadline creates an inactive deadline with the given budget in ticks.
func NewDeadline(budgetSeconds int, opts ...DeadlineOption) *Deadline {
	d := &Deadline{
		budget:        budgetSeconds,
		tick:          defaultTick,
		terminateWait: defaultTerminateWait,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins the countdown. A non-positive budget or an already cancelled
// ctx never becomes active.
// Cancelling ctx has the same effect as Terminate. Calling Start more than
// once is a no-op.
func (d *Deadline) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.started = true

	if d.budget <= 0 || ctx.Err() != nil {
		close(d.done)
		return
	}

	d.remaining.Store(int64(d.budget))
	d.active.Store(true)
	go d.run(ctx)
}

func (d *Deadline) run(ctx context.Context) {
	defer close(d.done)
	defer d.active.Store(false)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if d.remaining.Add(-1) <= 0 {
				return
			}
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Active reports whether budget remains and the deadline was not terminated.
func (d *Deadline) Active() bool {
	return d.active.Load()
}

// Remaining returns the whole ticks left in the budget.
func (d *Deadline) Remaining() int {
	if r := d.remaining.Load(); r > 0 {
		return int(r)
	}
	return 0
}

// Budget returns the configured budget in ticks.
func (d *Deadline) Budget() int {
	return d.budget
}

// Terminate makes Active return false and waits, up to the terminate wait,
// for the countdown goroutine to exit. It returns true if the goroutine has
// exited (or never ran).
func (d *Deadline) Terminate() bool {
	d.active.Store(false)

	d.mu.Lock()
	if !d.started {
		d.started = true
		close(d.done)
	}
	d.mu.Unlock()

	d.once.Do(func() { close(d.stop) })

	select {
	case <-d.done:
		return true
	case <-time.After(d.terminateWait):
		return false
	}
}
