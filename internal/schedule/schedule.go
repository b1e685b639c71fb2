// Package schedule provides timer-guarded wrappers around an operation:
// Debounce collapses bursts of calls into one, Throttle caps how often an
// operation may run.
package schedule

import (
	"sync"
	"time"
)

// Debouncer delays fn until delay has passed without another Call.
// Only the most recent call in a burst fires, with that call's argument.
// fn runs on the timer's goroutine.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending T
	armed   bool
	gen     uint64
}

// Debounce wraps fn so that it runs delay after the last Call.
func Debounce[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Call records arg and restarts the quiet period, cancelling any earlier
// pending invocation.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	d.pending = arg
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.armed {
		// superseded by a later Call, Cancel or Flush
		d.mu.Unlock()
		return
	}
	d.armed = false
	arg := d.pending
	d.mu.Unlock()

	d.fn(arg)
}

// Cancel drops the pending invocation. It reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	was := d.armed
	d.armed = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	return was
}

// Flush runs the pending invocation now, on the caller's goroutine.
// It reports whether anything was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	d.armed = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	arg := d.pending
	d.mu.Unlock()

	d.fn(arg)
	return true
}

// Pending reports whether an invocation is waiting for its quiet period.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Throttler runs fn at most once per interval. The first call in a window
// runs immediately; the rest of the window's calls are dropped.
type Throttler[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(T)
	until    time.Time
	now      func() time.Time
}

// Throttle wraps fn so that it executes at most once per interval.
func Throttle[T any](interval time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{interval: interval, fn: fn, now: time.Now}
}

// Call runs fn with arg unless the current window is still closed.
// It reports whether fn ran.
func (t *Throttler[T]) Call(arg T) bool {
	t.mu.Lock()
	now := t.now()
	if now.Before(t.until) {
		t.mu.Unlock()
		return false
	}
	t.until = now.Add(t.interval)
	t.mu.Unlock()

	t.fn(arg)
	return true
}
