// Package schedule provides the clock and timer primitives the
// synchronizer runs on. Real is backed by the runtime timers; Manual is a
// virtual clock that only moves when a test advances it.
package schedule

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Timer is a pending or repeating callback.
type Timer interface {
	// Stop prevents future invocations. It reports whether the timer was
	// still active. A callback already running is not interrupted.
	Stop() bool
}

// Scheduler runs callbacks after a delay or on an interval.
type Scheduler interface {
	Clock
	// AfterFunc calls fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every calls fn every d, starting d from now. Invocations of one
	// timer never overlap.
	Every(d time.Duration, fn func()) Timer
}

// Real is a Scheduler backed by the runtime's timers.
type Real struct{}

// Compile-time check that Real implements Scheduler.
var _ Scheduler = Real{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func (Real) Every(d time.Duration, fn func()) Timer {
	t := &ticker{done: make(chan struct{})}
	go t.run(d, fn)
	return t
}

type ticker struct {
	once sync.Once
	done chan struct{}
}

func (t *ticker) run(d time.Duration, fn func()) {
	tk := time.NewTicker(d)
	defer tk.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-tk.C:
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.done)
		stopped = true
	})
	return stopped
}

// Debouncer coalesces bursts of triggers into one call that fires once
// the triggers have been quiet for the configured delay.
type Debouncer struct {
	sched Scheduler
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	pending Timer
	stopped bool
}

// NewDebouncer returns a Debouncer that calls fn on sched.
func NewDebouncer(sched Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{sched: sched, delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.sched.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels a pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
