package eventstore

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	applesauce "github.com/hzrd149/applesauce-go"
)

var _ Store = (*EventStore)(nil)

// EventStore is an in-memory event container with replaceable-event
// resolution and an ordered broadcast of every change. It never evicts on
// its own: events stay until removed, superseded or deleted.
//
// The exported fields configure behavior and must be set before the store is
// shared across goroutines.
type EventStore struct {
	mu    sync.Mutex
	index *index
	subs  []target

	claims *Claims
	tombs  *tombstones
	closed bool

	flights singleflight.Group

	// KeepOldVersions retains superseded versions of replaceable events
	// instead of dropping them. The winner stays canonical; history is
	// available through ReplaceableHistory and filtered queries.
	KeepOldVersions bool

	// VerifyEvent, when set, runs against every event before it is indexed.
	// A non-nil error rejects the event wrapped in ErrInvalidEvent. Use
	// FullVerification to require a correct id and signature.
	VerifyEvent func(applesauce.Event) error

	// EventLoader and AddressableLoader are fallbacks consulted by
	// FetchEvent and FetchReplaceable when the store misses. Whatever they
	// return is added to the store.
	EventLoader       EventLoader
	AddressableLoader AddressableLoader

	Log *zerolog.Logger
}

// New returns an empty store ready for use. Logging is off until Log is
// pointed somewhere.
func New() *EventStore {
	nop := zerolog.Nop()
	return &EventStore{
		index:  newIndex(),
		claims: newClaims(),
		tombs:  newTombstones(),
		Log:    &nop,
	}
}

// FullVerification checks that an event's id matches its serialization and
// that its signature is valid. Assign it to VerifyEvent on stores fed from
// untrusted sources.
func FullVerification(evt applesauce.Event) error {
	if !evt.CheckID() {
		return fmt.Errorf("id does not match serialization")
	}
	if !evt.VerifySignature() {
		return fmt.Errorf("signature is invalid")
	}
	return nil
}

// Add ingests an event and reports whether it became visible.
//
// Regular events are indexed once; a duplicate id returns (false, nil).
// Replaceable and addressable events are resolved against the stored version
// using the winner rule: a stale version returns (false, nil), a newer one
// supersedes the old, emitting the removal before the insertion. Ephemeral
// events are broadcast to subscribers but never stored. Deletion events are
// applied to their targets and then stored like regular events.
func (s *EventStore) Add(evt applesauce.Event) (bool, error) {
	if evt.ID == applesauce.ZeroID || evt.PubKey == applesauce.ZeroPK {
		return false, fmt.Errorf("%w: missing id or pubkey", ErrInvalidEvent)
	}
	if s.VerifyEvent != nil {
		if err := s.VerifyEvent(evt); err != nil {
			return false, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	if s.tombs.rejects(evt) {
		s.Log.Debug().Stringer("id", evt.ID).Msg("rejected deleted event")
		return false, ErrDeleted
	}

	if evt.Kind == applesauce.KindDeletion {
		s.processDelete(evt)
	}

	if evt.Kind.IsEphemeral() {
		s.broadcast(Update{Op: OpInsert, Event: evt})
		s.Log.Trace().Stringer("id", evt.ID).Uint16("kind", evt.Kind.Num()).Msg("broadcast ephemeral event")
		return true, nil
	}

	if evt.Kind.IsReplaceable() || evt.Kind.IsAddressable() {
		removed, stored := s.index.replace(evt, s.KeepOldVersions)
		if !stored {
			return false, nil
		}
		for _, old := range removed {
			s.broadcast(Update{Op: OpRemove, Event: old})
		}
		s.broadcast(Update{Op: OpInsert, Event: evt})
		s.Log.Trace().Stringer("id", evt.ID).Stringer("address", evt.Address()).
			Int("superseded", len(removed)).Msg("stored replaceable event")
		return true, nil
	}

	if err := s.index.save(evt); err != nil {
		return false, nil
	}
	s.broadcast(Update{Op: OpInsert, Event: evt})
	s.Log.Trace().Stringer("id", evt.ID).Uint16("kind", evt.Kind.Num()).Msg("stored event")
	return true, nil
}

// Remove drops an event by id and reports whether it was present. Removal
// leaves no tombstone: the same event can be added again later.
func (s *EventStore) Remove(id applesauce.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.index.delete(id)
	if !ok {
		return false
	}
	s.broadcast(Update{Op: OpRemove, Event: evt})
	return true
}

func (s *EventStore) GetEvent(id applesauce.ID) (applesauce.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt, ok := s.index.byID[id]
	return evt, ok
}

func (s *EventStore) HasEvent(id applesauce.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index.byID[id]
	return ok
}

func (s *EventStore) GetReplaceable(kind applesauce.Kind, pk applesauce.PubKey, identifier string) (applesauce.Event, bool) {
	if !kind.IsAddressable() {
		identifier = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.replaceable(applesauce.Address{Kind: kind, PubKey: pk, Identifier: identifier})
}

func (s *EventStore) ReplaceableHistory(kind applesauce.Kind, pk applesauce.PubKey, identifier string) []applesauce.Event {
	if !kind.IsAddressable() {
		identifier = ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.history(applesauce.Address{Kind: kind, PubKey: pk, Identifier: identifier})
}

// QueryEvents returns the events matching filter, newest first. The results
// are collected before returning, so the sequence is a stable snapshot and
// concurrent writes won't be reflected in it.
func (s *EventStore) QueryEvents(filter applesauce.Filter) iter.Seq[applesauce.Event] {
	s.mu.Lock()
	results := s.index.query(filter)
	s.mu.Unlock()
	return slices.Values(results)
}

func (s *EventStore) CountEvents(filter applesauce.Filter) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.count(filter)
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index.events)
}

// GetTimeline merges the results of all filters into one newest-first
// timeline. Events matched by more than one filter appear once. With no
// filters it returns everything.
func (s *EventStore) GetTimeline(filters ...applesauce.Filter) []applesauce.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timelineLocked(filters)
}

func (s *EventStore) timelineLocked(filters []applesauce.Filter) []applesauce.Event {
	if len(filters) == 0 {
		return slices.Clone(s.index.events)
	}
	if len(filters) == 1 {
		return s.index.query(filters[0])
	}

	merged := slices.Values(s.index.query(filters[0]))
	for _, filter := range filters[1:] {
		merged = mergeSorted(merged, slices.Values(s.index.query(filter)))
	}

	var timeline []applesauce.Event
	for evt := range merged {
		if n := len(timeline); n > 0 && timeline[n-1].ID == evt.ID {
			continue
		}
		timeline = append(timeline, evt)
	}
	return timeline
}

// Claims exposes the store's claim registry.
func (s *EventStore) Claims() *Claims { return s.claims }

// Close shuts the store down. Every subscription channel is closed after its
// queued updates drain; subsequent writes fail with ErrClosed and new
// subscriptions come back already closed.
func (s *EventStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.finish()
	}
}
