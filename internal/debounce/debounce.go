// Package debounce collapses bursts of calls into at most one delayed call.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is used when New is given a non-positive delay.
const DefaultDelay = 300 * time.Millisecond

// Mode selects how a call made while an invocation is pending is treated.
type Mode int

const (
	// ModeToggle cancels the pending invocation and schedules nothing, so
	// every second call within the window silences the first. The call after
	// that schedules again.
	ModeToggle Mode = iota

	// ModeTrailing cancels the pending invocation and reschedules it with the
	// latest argument: the target fires once after the input goes quiet.
	ModeTrailing
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*options)

type options struct {
	mode      Mode
	scheduler Scheduler
}

func WithMode(mode Mode) Option {
	return func(o *options) { o.mode = mode }
}

func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// Dispatcher wraps a target function. Call is safe for concurrent use, but at
// most one invocation of the target is ever outstanding.
type Dispatcher[T any] struct {
	mu    sync.Mutex
	fn    func(T)
	delay time.Duration
	mode  Mode
	slot  timerSlot
}

func New[T any](fn func(T), delay time.Duration, opts ...Option) *Dispatcher[T] {
	o := options{mode: ModeToggle, scheduler: realScheduler{}}
	for _, opt := range opts {
		opt(&o)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Dispatcher[T]{
		fn:    fn,
		delay: delay,
		mode:  o.mode,
		slot:  timerSlot{scheduler: o.scheduler},
	}
}

// Call feeds one input event to the dispatcher.
func (d *Dispatcher[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.slot.pending {
		d.slot.cancelIfPending()
		if d.mode == ModeToggle {
			return
		}
	}
	d.schedule(arg)
}

// Cancel drops the pending invocation, if any.
func (d *Dispatcher[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slot.cancelIfPending()
}

// Pending reports whether an invocation is scheduled and not yet fired.
func (d *Dispatcher[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slot.pending
}

// schedule must be called with d.mu held.
func (d *Dispatcher[T]) schedule(arg T) {
	d.slot.schedule(d.delay, func(gen uint64) {
		d.mu.Lock()
		if !d.slot.fire(gen) {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.fn(arg)
	})
}

// timerSlot owns the single outstanding timer of a dispatcher. It is not
// safe for concurrent use on its own; Dispatcher serializes access.
type timerSlot struct {
	scheduler Scheduler
	timer     Timer
	pending   bool
	gen       uint64
}

func (s *timerSlot) schedule(delay time.Duration, f func(gen uint64)) {
	s.gen++
	gen := s.gen
	s.timer = s.scheduler.AfterFunc(delay, func() { f(gen) })
	s.pending = true
}

// cancelIfPending stops the outstanding timer. A timer whose goroutine has
// already started is neutralized by the generation bump.
func (s *timerSlot) cancelIfPending() {
	if !s.pending {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.pending = false
	s.gen++
}

// fire clears the slot if gen is still current and reports whether the
// firing should proceed.
func (s *timerSlot) fire(gen uint64) bool {
	if !s.pending || gen != s.gen {
		return false
	}
	s.timer = nil
	s.pending = false
	return true
}
