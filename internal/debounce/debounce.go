// Package debounce delays an action until its trigger has been quiet for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. time.AfterFunc satisfies it once
// adapted by StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc schedules with the runtime timer.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs the most recently triggered action once the interval has
// elapsed without another trigger. Actions superseded by a later Trigger or
// by Cancel never run, even if their timer already fired.
type Debouncer struct {
	mu        sync.Mutex
	interval  time.Duration
	afterFunc AfterFunc
	timer     Timer
	gen       uint64
}

// New creates a Debouncer using the runtime timer.
func New(interval time.Duration) *Debouncer {
	return NewWithAfterFunc(interval, StdAfterFunc)
}

// NewWithAfterFunc creates a Debouncer with a custom scheduler.
func NewWithAfterFunc(interval time.Duration, afterFunc AfterFunc) *Debouncer {
	return &Debouncer{
		interval:  interval,
		afterFunc: afterFunc,
	}
}

// Interval returns the quiet interval.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Trigger cancels any pending action and schedules fn.
// A non-positive interval runs fn synchronously.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.stopLocked()
	d.gen++
	gen := d.gen

	if d.interval <= 0 {
		d.mu.Unlock()
		fn()
		return
	}

	d.timer = d.afterFunc(d.interval, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.mu.Unlock()
}

// Cancel discards any pending action.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.stopLocked()
	d.gen++
	d.mu.Unlock()
}

// Pending reports whether an action is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
