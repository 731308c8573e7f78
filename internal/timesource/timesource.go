// Package timesource drives the timer model with periodic ticks.
package timesource

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dori/pomodoro/internal/model"
)

// DefaultInterval is the delay between two ticks.
const DefaultInterval = 500 * time.Millisecond

// Dispatcher runs fn on the host's serialized queue.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a plain function to Dispatcher.
type DispatchFunc func(fn func())

// Dispatch implements Dispatcher
func (f DispatchFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline runs every task directly on the ticking goroutine.
var Inline Dispatcher = DispatchFunc(func(fn func()) { fn() })

// Option configures a TimeSource.
type Option func(*TimeSource)

// WithInterval sets the delay between ticks. Non-positive values keep the
// default.
func WithInterval(d time.Duration) Option {
	return func(ts *TimeSource) {
		if d > 0 {
			ts.interval = d
		}
	}
}

// WithDispatcher sets where the callback runs.
func WithDispatcher(d Dispatcher) Option {
	return func(ts *TimeSource) {
		if d != nil {
			ts.dispatcher = d
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() model.Time) Option {
	return func(ts *TimeSource) {
		if now != nil {
			ts.now = now
		}
	}
}

// TimeSource calls a callback with the current time, forever, with a fixed
// delay between the end of one dispatch and the next.
//
// The callback runs through the dispatcher and reads the clock when it
// actually runs. Once Stop returns no new callback starts, although one that
// was already running may still finish.
type TimeSource struct {
	callback   func(model.Time)
	interval   time.Duration
	dispatcher Dispatcher
	now        func() model.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   atomic.Bool
	stopCh    chan struct{}
	done      chan struct{}
}

// New creates a stopped time source.
func New(callback func(model.Time), opts ...Option) *TimeSource {
	ts := &TimeSource{
		callback:   callback,
		interval:   DefaultInterval,
		dispatcher: Inline,
		now:        model.Now,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Start launches the ticking goroutine. Calling it again, or after Stop, does
// nothing. It returns the receiver so construction and start can be chained.
func (ts *TimeSource) Start() *TimeSource {
	ts.startOnce.Do(func() {
		if ts.stopped.Load() {
			return
		}
		go ts.run()
	})
	return ts
}

// Stop ends the loop. It does not wait for the ticking goroutine, so it is
// safe to call from inside the callback or from the dispatcher's own queue.
// Ticks already handed to the dispatcher become no-ops.
func (ts *TimeSource) Stop() {
	ts.stopOnce.Do(func() {
		ts.stopped.Store(true)
		close(ts.stopCh)
	})
	// Keep a later Start from launching anything.
	ts.startOnce.Do(func() {})
}

func (ts *TimeSource) run() {
	defer close(ts.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ts.stopCh:
			return
		case <-timer.C:
			ts.dispatcher.Dispatch(ts.tick)
			if ts.stopped.Load() {
				return
			}
			timer.Reset(ts.interval)
		}
	}
}

func (ts *TimeSource) tick() {
	if ts.stopped.Load() {
		return
	}
	ts.callback(ts.now())
}
