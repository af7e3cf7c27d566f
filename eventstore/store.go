package eventstore

import (
	"context"
	"errors"
	"iter"

	applesauce "github.com/hzrd149/applesauce-go"
)

var (
	// ErrInvalidEvent wraps any validation failure (missing fields, failed
	// VerifyEvent hook). Events rejected with it were never indexed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrDupEvent signals the index already holds an event with this id.
	ErrDupEvent = errors.New("duplicate: event already in store")

	// ErrDeleted signals the event (or its address) was covered by a prior
	// deletion request from its author and will not be accepted again.
	ErrDeleted = errors.New("event was deleted")

	// ErrNotFound is returned by the fetch helpers when an event is neither
	// stored nor loadable.
	ErrNotFound = errors.New("event not found")

	// ErrClosed is returned by writes against a closed store.
	ErrClosed = errors.New("store is closed")
)

// Store is the interface all event containers implement. *EventStore is the
// in-memory implementation; anything else (a relay-backed cache, a test
// double) can stand in as long as it keeps the same semantics: replaceable
// kinds resolve to a single winner and updates come out in one total order
// per subscriber.
type Store interface {
	// Add ingests an event. It reports whether the event became visible to
	// queries and subscribers; duplicates and stale replaceable versions
	// return (false, nil), malformed or deleted events return an error.
	Add(evt applesauce.Event) (bool, error)

	// Remove drops an event by id and reports whether it was present.
	Remove(id applesauce.ID) bool

	GetEvent(id applesauce.ID) (applesauce.Event, bool)
	HasEvent(id applesauce.ID) bool

	// GetReplaceable returns the winning version for a replaceable or
	// addressable coordinate. identifier is the "d" tag value and is
	// ignored for non-addressable kinds.
	GetReplaceable(kind applesauce.Kind, pk applesauce.PubKey, identifier string) (applesauce.Event, bool)

	// ReplaceableHistory returns every retained version for a coordinate,
	// newest first. Without KeepOldVersions it holds at most one event.
	ReplaceableHistory(kind applesauce.Kind, pk applesauce.PubKey, identifier string) []applesauce.Event

	// QueryEvents returns a snapshot of events matching the filter, newest
	// first. The sequence is safe to range over without holding any lock.
	QueryEvents(filter applesauce.Filter) iter.Seq[applesauce.Event]

	// CountEvents reports how many stored events match, ignoring Limit.
	CountEvents(filter applesauce.Filter) uint32

	// GetTimeline merges the results of all filters into a single
	// newest-first timeline with duplicates collapsed.
	GetTimeline(filters ...applesauce.Filter) []applesauce.Event

	// Follow subscribes to the ordered update sequence. With seed set the
	// stream starts with an insert for every currently matching event,
	// atomically with respect to concurrent writes.
	Follow(seed bool, filters ...applesauce.Filter) *UpdateStream

	// Inserts and Removes are single-operation projections of Follow.
	Inserts(filters ...applesauce.Filter) *EventStream
	Removes(filters ...applesauce.Filter) *EventStream

	// FetchEvent returns the stored event or falls back to the configured
	// EventLoader, storing whatever it brings back.
	FetchEvent(ctx context.Context, pointer applesauce.EventPointer) (applesauce.Event, error)

	// FetchReplaceable is FetchEvent for replaceable coordinates, resolving
	// to the winning version even if the loader returned an older one.
	FetchReplaceable(ctx context.Context, pointer applesauce.EntityPointer) (applesauce.Event, error)

	Claims() *Claims

	// Close stops all subscriptions after flushing queued updates. Writes
	// after Close fail with ErrClosed.
	Close()
}
