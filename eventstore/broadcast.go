package eventstore

import (
	"sync"

	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/internal/queue"
)

// Op tags an Update as an insertion into or a removal from the store.
type Op uint8

const (
	OpInsert Op = iota
	OpRemove
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// Update is one entry in the store's change sequence. Every subscriber
// observes the same updates in the same order; when a replaceable event
// supersedes an older version the removal of the old version is delivered
// before the insertion of the new one.
type Update struct {
	Op    Op
	Event applesauce.Event
}

// target is the store-side view of a subscription: filter matching plus a
// non-blocking handoff into the subscriber's queue.
type target interface {
	match(Update) bool
	accept(Update)
	finish()
}

// UpdateStream delivers the store's ordered update sequence to one
// subscriber. Delivery is buffered and never blocks writers; a slow consumer
// accumulates queued updates instead of stalling the store.
type UpdateStream struct {
	store   *EventStore
	filters []applesauce.Filter
	q       *queue.Unbounded[Update]
	once    sync.Once
}

// Updates returns the channel the subscription delivers on. It is closed
// after Close, or once the store shuts down and pending updates have been
// drained.
func (s *UpdateStream) Updates() <-chan Update { return s.q.C() }

// Close detaches the subscription and drops anything still queued.
func (s *UpdateStream) Close() {
	s.once.Do(func() {
		s.store.unsubscribe(s)
		s.q.Stop()
	})
}

func (s *UpdateStream) match(u Update) bool { return matchAny(s.filters, u.Event) }
func (s *UpdateStream) accept(u Update)     { s.q.Push(u) }
func (s *UpdateStream) finish()             { s.q.Finish() }

// EventStream is a single-operation projection of the update sequence:
// just the inserted events, or just the removed ones.
type EventStream struct {
	store   *EventStore
	filters []applesauce.Filter
	op      Op
	q       *queue.Unbounded[applesauce.Event]
	once    sync.Once
}

func (s *EventStream) Events() <-chan applesauce.Event { return s.q.C() }

func (s *EventStream) Close() {
	s.once.Do(func() {
		s.store.unsubscribe(s)
		s.q.Stop()
	})
}

func (s *EventStream) match(u Update) bool { return u.Op == s.op && matchAny(s.filters, u.Event) }
func (s *EventStream) accept(u Update)     { s.q.Push(u.Event) }
func (s *EventStream) finish()             { s.q.Finish() }

func matchAny(filters []applesauce.Filter, evt applesauce.Event) bool {
	if len(filters) == 0 {
		return true
	}
	for _, filter := range filters {
		if filter.Matches(evt) {
			return true
		}
	}
	return false
}

// Follow subscribes to the store's update sequence, restricted to events
// matching any of the filters (no filters means everything). With seed set
// the stream begins with an insert for every event already stored, and no
// concurrent write can slip between the seed and the live tail.
func (s *EventStore) Follow(seed bool, filters ...applesauce.Filter) *UpdateStream {
	sub := &UpdateStream{store: s, filters: filters, q: queue.NewUnbounded[Update]()}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.q.Finish()
		return sub
	}
	if seed {
		for _, evt := range s.timelineLocked(filters) {
			sub.q.Push(Update{Op: OpInsert, Event: evt})
		}
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sub
}

// Inserts subscribes to events as they become visible in the store.
func (s *EventStore) Inserts(filters ...applesauce.Filter) *EventStream {
	return s.eventStream(OpInsert, filters)
}

// Removes subscribes to events as they are dropped from the store, whether
// explicitly removed, superseded or deleted.
func (s *EventStore) Removes(filters ...applesauce.Filter) *EventStream {
	return s.eventStream(OpRemove, filters)
}

func (s *EventStore) eventStream(op Op, filters []applesauce.Filter) *EventStream {
	sub := &EventStream{store: s, filters: filters, op: op, q: queue.NewUnbounded[applesauce.Event]()}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.q.Finish()
		return sub
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sub
}

// broadcast hands an update to every matching subscriber. The caller holds
// s.mu, which is what gives the sequence its total order.
func (s *EventStore) broadcast(u Update) {
	for _, sub := range s.subs {
		if sub.match(u) {
			sub.accept(u)
		}
	}
}

func (s *EventStore) unsubscribe(t target) {
	s.mu.Lock()
	for i, sub := range s.subs {
		if sub == t {
			s.subs = swapDelete(s.subs, i)
			break
		}
	}
	s.mu.Unlock()
}

// swapDelete removes the element at index i without preserving order.
func swapDelete[S ~[]E, E any](slice S, i int) S {
	slice[i] = slice[len(slice)-1]
	return slice[:len(slice)-1]
}
