package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/rl1809/invoice-dashboard/internal/debounce"
)

// FakeScheduler is a manually advanced clock implementing debounce.Scheduler.
//
// Callbacks run synchronously inside Advance, in deadline order, so tests
// observe firings deterministically.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s        *FakeScheduler
	deadline time.Duration
	seq      int
	f        func()
	stopped  bool
	fired    bool
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) debounce.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{s: s, deadline: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the elapsed fake time since creation.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AdvanceTo moves the clock to the absolute offset at, firing due timers.
func (s *FakeScheduler) AdvanceTo(at time.Duration) {
	s.mu.Lock()
	d := at - s.now
	s.mu.Unlock()
	if d > 0 {
		s.Advance(d)
	}
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.deadline
		next.fired = true
		s.mu.Unlock()

		next.f()
	}
}

// Outstanding returns the number of timers neither fired nor stopped.
func (s *FakeScheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// nextDue must be called with s.mu held.
func (s *FakeScheduler) nextDue(target time.Duration) *fakeTimer {
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && t.deadline <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline != due[j].deadline {
			return due[i].deadline < due[j].deadline
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
