// Package ui models page interaction as a single-threaded task queue.
// Handlers subscribe to named events; every dispatched event, timer callback
// and async continuation runs to completion on the loop, one at a time.
package ui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Event is a user or system action delivered to subscribed handlers.
type Event struct {
	Name    string
	Target  string // field or control the event originated from
	Value   string
	Key     string
	Shift   bool
	Data    any
	Context context.Context
}

// Ctx returns the event's context, or context.Background when none was set.
func (e Event) Ctx() context.Context {
	if e.Context == nil {
		return context.Background()
	}
	return e.Context
}

// Handler reacts to an event on the loop goroutine.
type Handler func(Event)

type subscription struct {
	id uint64
	h  Handler
}

// Dispatcher owns the task queue and the handler registry.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string][]subscription
	tasks    []func()
	nextID   uint64

	wake        chan struct{}
	outstanding atomic.Int64
	logger      *zap.Logger
}

// NewDispatcher returns an idle dispatcher. A nil logger discards output.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[string][]subscription),
		wake:     make(chan struct{}, 1),
		logger:   logger,
	}
}

// On registers h for events named name. The returned func unsubscribes.
func (d *Dispatcher) On(name string, h Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.handlers[name] = append(d.handlers[name], subscription{id: id, h: h})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		subs := d.handlers[name]
		for i, s := range subs {
			if s.id == id {
				d.handlers[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch queues ev for delivery to every handler registered for ev.Name
// at the time the task runs.
func (d *Dispatcher) Dispatch(ev Event) {
	d.Do(func() {
		d.mu.Lock()
		subs := append([]subscription(nil), d.handlers[ev.Name]...)
		d.mu.Unlock()
		for _, s := range subs {
			s.h(ev)
		}
	})
}

// Do queues fn as a task on the loop.
func (d *Dispatcher) Do(fn func()) {
	d.mu.Lock()
	d.tasks = append(d.tasks, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// After queues fn on the loop once delay has elapsed. The returned func
// cancels it and reports whether it was still pending.
func (d *Dispatcher) After(delay time.Duration, fn func()) func() bool {
	t := time.AfterFunc(delay, func() { d.Do(fn) })
	return t.Stop
}

// Async runs work off the loop. The continuation it returns, if any, is
// queued back onto the loop. RunUntilIdle waits for outstanding work.
func (d *Dispatcher) Async(work func() func()) {
	d.outstanding.Add(1)
	go func() {
		var cont func()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("async task panicked", zap.Any("panic", r))
			}
			if cont != nil {
				d.Do(cont)
			}
			// decrement after queueing so an idle check never misses cont
			d.outstanding.Add(-1)
			select {
			case d.wake <- struct{}{}:
			default:
			}
		}()
		cont = work()
	}()
}

func (d *Dispatcher) next() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) == 0 {
		return nil, false
	}
	fn := d.tasks[0]
	d.tasks[0] = nil
	d.tasks = d.tasks[1:]
	return fn, true
}

func (d *Dispatcher) queued() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// run executes one task. A panicking handler is logged and the loop goes on.
func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

// Run processes tasks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		for fn, ok := d.next(); ok; fn, ok = d.next() {
			d.run(fn)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

// RunUntilIdle processes tasks on the caller's goroutine until the queue is
// empty and no Async work is outstanding. Timers scheduled with After do not
// keep it running.
func (d *Dispatcher) RunUntilIdle(ctx context.Context) error {
	for {
		if fn, ok := d.next(); ok {
			d.run(fn)
			continue
		}
		if d.outstanding.Load() == 0 && d.queued() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}
