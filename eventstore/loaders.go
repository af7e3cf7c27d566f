package eventstore

import (
	"context"
	"fmt"

	applesauce "github.com/hzrd149/applesauce-go"
)

// EventLoader fetches an event the store doesn't have, typically from
// relays. It must return the event matching pointer.ID or an error.
type EventLoader func(ctx context.Context, pointer applesauce.EventPointer) (applesauce.Event, error)

// AddressableLoader fetches the latest known version of a replaceable event
// the store doesn't have.
type AddressableLoader func(ctx context.Context, pointer applesauce.EntityPointer) (applesauce.Event, error)

// FetchEvent returns the stored event for pointer, falling back to the
// EventLoader on a miss. Concurrent fetches for the same id are collapsed
// into a single loader call; whatever the loader returns is added to the
// store so later reads hit. Without a loader a miss is ErrNotFound.
func (s *EventStore) FetchEvent(ctx context.Context, pointer applesauce.EventPointer) (applesauce.Event, error) {
	if evt, ok := s.GetEvent(pointer.ID); ok {
		return evt, nil
	}
	if s.EventLoader == nil {
		return applesauce.Event{}, ErrNotFound
	}

	v, err, _ := s.flights.Do("e|"+pointer.AsTagReference(), func() (interface{}, error) {
		// a previous flight may have landed it while we waited
		if evt, ok := s.GetEvent(pointer.ID); ok {
			return evt, nil
		}

		evt, err := s.EventLoader(ctx, pointer)
		if err != nil {
			s.Log.Warn().Err(err).Stringer("id", pointer.ID).Msg("event loader failed")
			return nil, err
		}
		if evt.ID != pointer.ID {
			return nil, fmt.Errorf("loader returned event %s, wanted %s", evt.ID, pointer.ID)
		}
		if _, err := s.Add(evt); err != nil {
			return nil, err
		}
		return evt, nil
	})
	if err != nil {
		return applesauce.Event{}, err
	}
	return v.(applesauce.Event), nil
}

// FetchReplaceable returns the winning version for pointer's coordinate,
// falling back to the AddressableLoader on a miss. If the loader returns a
// version older than something added concurrently, the stored winner is
// returned instead.
func (s *EventStore) FetchReplaceable(ctx context.Context, pointer applesauce.EntityPointer) (applesauce.Event, error) {
	if evt, ok := s.GetReplaceable(pointer.Kind, pointer.PublicKey, pointer.Identifier); ok {
		return evt, nil
	}
	if s.AddressableLoader == nil {
		return applesauce.Event{}, ErrNotFound
	}

	v, err, _ := s.flights.Do("a|"+pointer.AsTagReference(), func() (interface{}, error) {
		if evt, ok := s.GetReplaceable(pointer.Kind, pointer.PublicKey, pointer.Identifier); ok {
			return evt, nil
		}

		evt, err := s.AddressableLoader(ctx, pointer)
		if err != nil {
			s.Log.Warn().Err(err).Stringer("address", pointer.Address()).Msg("addressable loader failed")
			return nil, err
		}
		if !pointer.MatchesEvent(evt) {
			return nil, fmt.Errorf("loader returned event for %s, wanted %s", evt.Address(), pointer.Address())
		}
		if _, err := s.Add(evt); err != nil {
			return nil, err
		}
		if current, ok := s.GetReplaceable(pointer.Kind, pointer.PublicKey, pointer.Identifier); ok {
			return current, nil
		}
		return evt, nil
	})
	if err != nil {
		return applesauce.Event{}, err
	}
	return v.(applesauce.Event), nil
}
