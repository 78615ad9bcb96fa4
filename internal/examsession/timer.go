package examsession

import (
	"fmt"
	"sync"
	"time"
)

// Remaining is the time left on a countdown.
type Remaining struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// RemainingFromSeconds splits a second count. Negative input yields zero.
func RemainingFromSeconds(total int) Remaining {
	if total < 0 {
		total = 0
	}
	return Remaining{Minutes: total / 60, Seconds: total % 60}
}

// TotalSeconds returns r as a second count.
func (r Remaining) TotalSeconds() int { return r.Minutes*60 + r.Seconds }

// IsZero reports whether the countdown has run out.
func (r Remaining) IsZero() bool { return r.TotalSeconds() <= 0 }

// String renders r as MM:SS.
func (r Remaining) String() string {
	return fmt.Sprintf("%02d:%02d", r.Minutes, r.Seconds)
}

// Timer counts down in whole seconds and reports every change through the
// tick callback. It knows nothing about exams.
//
// Callbacks run on the timer's goroutine (and synchronously inside Start for
// the initial tick). A callback must not call Start or Stop; hand the value to
// an event loop instead.
type Timer struct {
	interval time.Duration

	mu     sync.Mutex
	onTick func(Remaining)
	left   int
	stop   chan struct{}
	done   chan struct{}
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithInterval changes the tick period. Tests use it to run a minute in
// milliseconds.
func WithInterval(d time.Duration) TimerOption {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// NewTimer returns a stopped timer ticking once per second.
func NewTimer(opts ...TimerOption) *Timer {
	t := &Timer{interval: time.Second}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnTick sets the callback that receives every remaining-time change.
func (t *Timer) OnTick(fn func(Remaining)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// Remaining returns the current countdown value.
func (t *Timer) Remaining() Remaining {
	t.mu.Lock()
	defer t.mu.Unlock()
	return RemainingFromSeconds(t.left)
}

// Start (re)starts the countdown from totalMinutes. Any running countdown is
// discarded. The full duration is emitted before Start returns; a zero
// duration emits 00:00 once and never starts ticking.
func (t *Timer) Start(totalMinutes float64) {
	t.Stop()

	secs := WholeMinutes(totalMinutes) * 60

	t.mu.Lock()
	t.left = secs
	fn := t.onTick
	t.mu.Unlock()

	if fn != nil {
		fn(RemainingFromSeconds(secs))
	}
	if secs == 0 {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	t.mu.Lock()
	t.stop, t.done = stop, done
	t.mu.Unlock()

	go t.run(stop, done)
}

// Stop halts tick production. No callback fires after Stop returns.
func (t *Timer) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Timer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		// Stop may have been requested while the ticker fired.
		select {
		case <-stop:
			return
		default:
		}

		t.mu.Lock()
		if t.left > 0 {
			t.left--
		}
		left := t.left
		fn := t.onTick
		t.mu.Unlock()

		if fn != nil {
			fn(RemainingFromSeconds(left))
		}
		if left == 0 {
			return
		}
	}
}

// TickMailbox hands the latest remaining value from a timer to an event
// loop without ever blocking the timer. Older values are overwritten.
type TickMailbox struct {
	mu     sync.Mutex
	latest Remaining
	full   bool
	notify chan struct{}
}

// NewTickMailbox returns an empty mailbox.
func NewTickMailbox() *TickMailbox {
	return &TickMailbox{notify: make(chan struct{}, 1)}
}

// Put stores r, replacing any value not yet taken. Safe to use as a
// Timer.OnTick callback.
func (m *TickMailbox) Put(r Remaining) {
	m.mu.Lock()
	m.latest = r
	m.full = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// C signals that a value may be waiting.
func (m *TickMailbox) C() <-chan struct{} { return m.notify }

// Take removes and returns the waiting value, if any.
func (m *TickMailbox) Take() (Remaining, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return Remaining{}, false
	}
	m.full = false
	return m.latest, true
}
