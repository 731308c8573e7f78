package timesource

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/pomodoro/internal/model"
)

func TestTimeSourceTicksWithClock(t *testing.T) {
	var clock atomic.Int64
	ticks := make(chan model.Time, 16)

	ts := New(func(now model.Time) {
		select {
		case ticks <- now:
		default:
		}
	},
		WithInterval(5*time.Millisecond),
		WithClock(func() model.Time { return model.Time(clock.Add(1000)) }),
	).Start()
	defer ts.Stop()

	var got []model.Time
	for len(got) < 3 {
		select {
		case now := <-ticks:
			got = append(got, now)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for ticks")
		}
	}
	assert.Less(t, got[0], got[1])
	assert.Less(t, got[1], got[2])
}

func TestTimeSourceFirstTickIsImmediate(t *testing.T) {
	ticked := make(chan struct{}, 1)
	ts := New(func(model.Time) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	}, WithInterval(time.Hour)).Start()
	defer ts.Stop()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not arrive")
	}
}

func TestTimeSourceNoCallbackAfterStop(t *testing.T) {
	var count atomic.Int32
	ts := New(func(model.Time) { count.Add(1) }, WithInterval(time.Millisecond)).Start()

	require.Eventually(t, func() bool { return count.Load() >= 2 }, 2*time.Second, time.Millisecond)
	ts.Stop()

	// A tick that was already past its check may still land.
	select {
	case <-ts.done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticking goroutine did not exit")
	}
	after := count.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, count.Load())
}

func TestTimeSourceStopDropsQueuedTicks(t *testing.T) {
	// Tasks sit in this slice until the test releases them, like a busy UI
	// queue that has not reached them yet.
	var mu sync.Mutex
	var pending []func()
	dispatcher := DispatchFunc(func(fn func()) {
		mu.Lock()
		pending = append(pending, fn)
		mu.Unlock()
	})

	var count atomic.Int32
	ts := New(func(model.Time) { count.Add(1) },
		WithInterval(time.Millisecond),
		WithDispatcher(dispatcher),
	).Start()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(pending) >= 3
	}, 2*time.Second, time.Millisecond)
	ts.Stop()

	mu.Lock()
	queued := pending
	mu.Unlock()
	for _, fn := range queued {
		fn()
	}
	assert.Zero(t, count.Load())
}

func TestTimeSourceStopFromCallback(t *testing.T) {
	returned := make(chan struct{})
	var count atomic.Int32

	var ts *TimeSource
	ts = New(func(model.Time) {
		if count.Add(1) == 1 {
			ts.Stop()
			close(returned)
		}
	}, WithInterval(time.Millisecond))
	ts.Start()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop called from the callback did not return")
	}
	select {
	case <-ts.done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticking goroutine did not exit")
	}
	assert.Equal(t, int32(1), count.Load())
}

func TestTimeSourceStopFromDispatcherQueue(t *testing.T) {
	// The dispatcher blocks until the queue consumer takes the task, and
	// the consumer itself calls Stop, the way a UI update handler would.
	tasks := make(chan func())
	var count atomic.Int32
	ts := New(func(model.Time) { count.Add(1) },
		WithInterval(time.Millisecond),
		WithDispatcher(DispatchFunc(func(fn func()) { tasks <- fn })),
	).Start()

	(<-tasks)()
	require.Equal(t, int32(1), count.Load())

	returned := make(chan struct{})
	go func() {
		ts.Stop()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked while the dispatcher was busy")
	}

	// Drain whatever the loop still hands over; none of it ticks.
	for {
		select {
		case fn := <-tasks:
			fn()
		case <-ts.done:
			assert.Equal(t, int32(1), count.Load())
			return
		case <-time.After(2 * time.Second):
			t.Fatal("ticking goroutine did not exit")
		}
	}
}

func TestTimeSourceStartStopIdempotent(t *testing.T) {
	var count atomic.Int32
	ts := New(func(model.Time) { count.Add(1) }, WithInterval(time.Millisecond))

	assert.Same(t, ts, ts.Start())
	assert.Same(t, ts, ts.Start())
	require.Eventually(t, func() bool { return count.Load() > 0 }, 2*time.Second, time.Millisecond)

	ts.Stop()
	ts.Stop()
	<-ts.done

	// Start after Stop does not revive the loop.
	ts.Start()
	after := count.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, count.Load())
}

func TestTimeSourceStopBeforeStart(t *testing.T) {
	var count atomic.Int32
	ts := New(func(model.Time) { count.Add(1) }, WithInterval(time.Millisecond))

	done := make(chan struct{})
	go func() {
		ts.Stop()
		ts.Start()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop before Start blocked")
	}
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, count.Load())
}

func TestSerialQueueRunsInOrder(t *testing.T) {
	q := NewSerialQueue(8)
	defer q.Close()

	var got []int
	for i := 0; i < 100; i++ {
		q.Dispatch(func() { got = append(got, i) })
	}
	require.True(t, q.Do(func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSerialQueueDropsAfterClose(t *testing.T) {
	q := NewSerialQueue(0)
	q.Close()

	ran := false
	q.Dispatch(func() { ran = true })
	assert.False(t, q.Do(func() { ran = true }))
	assert.False(t, ran)
}

func TestTimeSourceThroughSerialQueue(t *testing.T) {
	q := NewSerialQueue(4)
	defer q.Close()

	var inFlight, overlap atomic.Int32
	var count atomic.Int32
	ts := New(func(model.Time) {
		if inFlight.Add(1) > 1 {
			overlap.Add(1)
		}
		count.Add(1)
		inFlight.Add(-1)
	}, WithInterval(time.Millisecond), WithDispatcher(q)).Start()

	require.Eventually(t, func() bool { return count.Load() >= 5 }, 2*time.Second, time.Millisecond)
	ts.Stop()
	assert.Zero(t, overlap.Load())
}
