package models

import (
	"sync"

	"github.com/hzrd149/applesauce-go/internal/queue"
)

// Subscription delivers a model's values to one consumer. Values are
// buffered, so a slow reader never blocks the model or its other
// subscribers; reading always yields values in emission order.
type Subscription[T any] struct {
	entry *entry
	q     *queue.Unbounded[T]
	once  sync.Once
}

func newSubscription[T any]() *Subscription[T] {
	return &Subscription[T]{q: queue.NewUnbounded[T]()}
}

// Values returns the channel values arrive on. It is closed when the
// subscription is closed, the model completes, or the registry shuts down.
func (s *Subscription[T]) Values() <-chan T { return s.q.C() }

// Next blocks for the next value. ok is false once the channel closed.
func (s *Subscription[T]) Next() (v T, ok bool) {
	v, ok = <-s.q.C()
	return v, ok
}

// Close detaches from the model. When this was the model's last
// subscriber, the model is torn down after the registry's grace period.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.entry.detach(s)
		s.q.Stop()
	})
}

func (s *Subscription[T]) accept(v any) { s.q.Push(v.(T)) }
func (s *Subscription[T]) finish()      { s.q.Finish() }
