// Package queue implements the unbounded FIFO that sits between event
// publishers and their subscribers, so a slow consumer never blocks the
// publisher or its sibling subscribers.
package queue

import "sync"

// Unbounded connects a producer to a single consumer channel through an
// in-memory buffer that grows as needed. Push never blocks, items come out
// of C in push order, and the pump goroutine exits when the queue is
// finished or stopped.
type Unbounded[T any] struct {
	mu      sync.Mutex
	items   []T
	fin     bool
	stopped bool

	wake chan struct{}
	stop chan struct{}
	out  chan T
}

func NewUnbounded[T any]() *Unbounded[T] {
	q := &Unbounded[T]{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		out:  make(chan T),
	}
	go q.pump()
	return q
}

// C is the consumer end. It is closed after Finish (once drained) or Stop.
func (q *Unbounded[T]) C() <-chan T { return q.out }

// Push enqueues v. It reports false if the queue is already finished or
// stopped, in which case v is dropped.
func (q *Unbounded[T]) Push(v T) bool {
	q.mu.Lock()
	if q.fin || q.stopped {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Finish rejects further pushes and closes C once everything already queued
// has been delivered.
func (q *Unbounded[T]) Finish() {
	q.mu.Lock()
	if q.fin || q.stopped {
		q.mu.Unlock()
		return
	}
	q.fin = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Stop drops anything still queued and closes C. It interrupts a delivery
// blocked on a consumer that stopped reading.
func (q *Unbounded[T]) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	close(q.stop)
}

func (q *Unbounded[T]) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			fin := q.fin
			q.mu.Unlock()
			if fin {
				return
			}
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}
		v := q.items[0]
		q.items = q.items[1:]
		if len(q.items) == 0 {
			// release the backing array, append would keep growing it otherwise
			q.items = nil
		}
		q.mu.Unlock()

		select {
		case q.out <- v:
		case <-q.stop:
			return
		}
	}
}
