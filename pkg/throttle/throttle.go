// Package throttle limits how often a function runs.
package throttle

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Throttle runs fn at most once per interval. A call outside the interval runs
// immediately; calls inside it are collapsed and the latest value is delivered
// when the interval expires.
type Throttle[T any] struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	interval time.Duration
	fn       func(T)
	last     time.Time
	pending  bool
	value    T
	timer    clockwork.Timer
	stopped  bool
}

func New[T any](clock clockwork.Clock, interval time.Duration, fn func(T)) *Throttle[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Throttle[T]{
		clock:    clock,
		interval: interval,
		fn:       fn,
	}
}

func (t *Throttle[T]) Call(value T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	now := t.clock.Now()
	if t.timer == nil && (t.last.IsZero() || now.Sub(t.last) >= t.interval) {
		t.last = now
		t.mu.Unlock()
		t.fn(value)
		return
	}
	t.value = value
	t.pending = true
	if t.timer == nil {
		t.timer = t.clock.AfterFunc(t.interval-now.Sub(t.last), t.flush)
	}
	t.mu.Unlock()
}

func (t *Throttle[T]) flush() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped || !t.pending {
		t.mu.Unlock()
		return
	}
	value := t.value
	t.pending = false
	t.last = t.clock.Now()
	t.mu.Unlock()
	t.fn(value)
}

// Stop drops a pending trailing call. Later calls are ignored.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
