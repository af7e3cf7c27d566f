package models

import (
	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/eventstore"
)

// Replaceable tracks the winning version of a replaceable or addressable
// coordinate: the current version while one is stored, nil otherwise.
// identifier is the "d" tag value and is ignored for non-addressable kinds.
//
// Versions arriving out of order are resolved with the same rule the store
// uses, so the model never goes backwards. A miss triggers the store's
// AddressableLoader when one is configured. The winning version is claimed
// while the model holds it.
func Replaceable(kind applesauce.Kind, pk applesauce.PubKey, identifier string) Definition[*applesauce.Event] {
	if !kind.IsAddressable() {
		identifier = ""
	}
	addr := applesauce.Address{Kind: kind, PubKey: pk, Identifier: identifier}

	return Definition[*applesauce.Event]{
		Name: "replaceable",
		Key:  addr.String(),
		Run: func(rt *Runtime, emit func(*applesauce.Event)) func() {
			filter := applesauce.Filter{Kinds: []applesauce.Kind{kind}, Authors: []applesauce.PubKey{pk}}
			if identifier != "" {
				filter.Tags = applesauce.TagMap{"d": []string{identifier}}
			}
			updates := rt.Store.Follow(false, filter)
			claims := rt.Store.Claims()

			var current *applesauce.Event
			if evt, ok := rt.Store.GetReplaceable(kind, pk, identifier); ok {
				claims.Claim(evt.ID)
				current = &evt
				emit(current)
			} else {
				emit(nil)
				go func() {
					pointer := applesauce.EntityPointer{Kind: kind, PublicKey: pk, Identifier: identifier}
					_, _ = rt.Store.FetchReplaceable(rt.Context(), pointer)
				}()
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				for u := range updates.Updates() {
					// the filter is only a coarse pre-selection; events with
					// a different "d" value can slip through when the
					// identifier is empty
					if u.Event.Address() != addr {
						continue
					}

					switch u.Op {
					case eventstore.OpInsert:
						next := u.Event
						if current != nil {
							if current.ID == next.ID || !eventstore.IsOlder(*current, next) {
								continue // duplicate or stale version
							}
							claims.RemoveClaim(current.ID)
						}
						claims.Claim(next.ID)
						current = &next
						emit(current)

					case eventstore.OpRemove:
						if current == nil || u.Event.ID != current.ID {
							continue // an old version fell out, the winner stands
						}
						claims.RemoveClaim(current.ID)
						current = nil
						// with retained history an older version takes over
						if evt, ok := rt.Store.GetReplaceable(kind, pk, identifier); ok {
							claims.Claim(evt.ID)
							current = &evt
						}
						emit(current)
					}
				}
			}()

			return func() {
				updates.Close()
				<-done
				if current != nil {
					claims.RemoveClaim(current.ID)
				}
			}
		},
	}
}
