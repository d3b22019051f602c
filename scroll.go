package vtable

import (
	"sync"
	"time"
)

// ScrollState is the advisory motion state of a scroll container.
type ScrollState uint8

const (
	Idle ScrollState = iota
	Scrolling
)

func (s ScrollState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scrolling:
		return "scrolling"
	default:
		return "unknown"
	}
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. SystemClock is the real implementation; tests
// substitute a manual one.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock schedules with time.AfterFunc.
var SystemClock Clock = systemClock{}

// Tracker follows raw scroll events. Every event updates the scroll offset
// and moves the tracker to Scrolling; once no event has arrived for the
// quiescence interval it settles back to Idle.
//
// The tracker owns at most one pending timer. A new event stops it and
// schedules a fresh one, so a burst of events settles exactly once.
type Tracker struct {
	mu        sync.Mutex
	clock     Clock
	quiet     time.Duration
	onSettle  func()
	state     ScrollState
	scrollTop float64
	timer     Timer
	gen       uint64 // bumped per scheduled timer; stale fires are ignored
	closed    bool
}

// NewTracker creates an Idle tracker at offset 0. onSettle, if non-nil, is
// called after each Scrolling→Idle transition, from the clock's goroutine.
func NewTracker(quiescence time.Duration, clock Clock, onSettle func()) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	if quiescence <= 0 {
		quiescence = DefaultQuiescence
	}
	return &Tracker{
		clock:    clock,
		quiet:    quiescence,
		onSettle: onSettle,
	}
}

// Scroll records a new offset. It is never throttled: the latest value is
// always the one the window is computed from. Returns false once closed.
func (t *Tracker) Scroll(top float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.scrollTop = top
	t.state = Scrolling
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.quiet, func() { t.settle(gen) })
	return true
}

// Set moves the offset without entering Scrolling. Used when the host
// repositions the container itself (clamping after a shrink, initial
// position), which is not user motion.
func (t *Tracker) Set(top float64) {
	t.mu.Lock()
	if !t.closed {
		t.scrollTop = top
	}
	t.mu.Unlock()
}

func (t *Tracker) settle(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen || t.state != Scrolling {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	t.timer = nil
	cb := t.onSettle
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// ScrollTop returns the latest offset.
func (t *Tracker) ScrollTop() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollTop
}

// State returns the current motion state.
func (t *Tracker) State() ScrollState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Scrolling reports whether the tracker is in motion.
func (t *Tracker) Scrolling() bool {
	return t.State() == Scrolling
}

// Close cancels the pending timer and detaches the tracker from further
// events. A settle callback that already started may still finish; no new
// one starts after Close returns. Safe to call twice.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.state = Idle
	t.gen++
}
