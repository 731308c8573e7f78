package timesource

import "sync"

// SerialQueue is a Dispatcher that runs tasks one at a time, in submission
// order, on its own goroutine. Hosts without an event loop use it as their
// UI queue.
type SerialQueue struct {
	tasks     chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSerialQueue starts the worker goroutine. buffer is the number of tasks
// that can wait before Dispatch blocks.
func NewSerialQueue(buffer int) *SerialQueue {
	if buffer < 0 {
		buffer = 0
	}
	q := &SerialQueue{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

// Dispatch enqueues fn. Tasks submitted after Close are dropped.
func (q *SerialQueue) Dispatch(fn func()) {
	select {
	case <-q.quit:
		return
	default:
	}
	select {
	case q.tasks <- fn:
	case <-q.quit:
	}
}

// Do runs fn on the queue and waits for it to finish. It returns false when
// the queue is closed before fn ran.
func (q *SerialQueue) Do(fn func()) bool {
	ran := make(chan struct{})
	q.Dispatch(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-q.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Close stops the worker after the task in progress and waits for it.
// Queued tasks that have not started are discarded.
func (q *SerialQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.quit)
	})
	<-q.done
}

func (q *SerialQueue) loop() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			return
		case fn := <-q.tasks:
			fn()
		}
	}
}
