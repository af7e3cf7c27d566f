package models

import (
	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/eventstore"
)

// Event tracks a single event's lifecycle in the store: the event itself
// while it is present, nil while it is absent or after it is removed. When
// the store has an EventLoader configured, a miss triggers a background
// fetch and the model flips to the event once it lands.
//
// The event is claimed for as long as the model holds it.
func Event(pointer applesauce.EventPointer) Definition[*applesauce.Event] {
	return Definition[*applesauce.Event]{
		Name: "event",
		Key:  pointer.ID.Hex(),
		Run: func(rt *Runtime, emit func(*applesauce.Event)) func() {
			updates := rt.Store.Follow(false, applesauce.Filter{IDs: []applesauce.ID{pointer.ID}})
			claims := rt.Store.Claims()

			// watch first, then read: anything added in between shows up in
			// the stream and is skipped as a duplicate
			claimed := false
			if evt, ok := rt.Store.GetEvent(pointer.ID); ok {
				claims.Claim(pointer.ID)
				claimed = true
				emit(&evt)
			} else {
				emit(nil)
				go func() {
					// failures already logged by the store; the model just
					// stays empty
					_, _ = rt.Store.FetchEvent(rt.Context(), pointer)
				}()
			}

			done := make(chan struct{})
			go func() {
				defer close(done)
				for u := range updates.Updates() {
					switch u.Op {
					case eventstore.OpInsert:
						if claimed {
							continue
						}
						claims.Claim(pointer.ID)
						claimed = true
						evt := u.Event
						emit(&evt)
					case eventstore.OpRemove:
						if !claimed {
							continue
						}
						claims.RemoveClaim(pointer.ID)
						claimed = false
						emit(nil)
					}
				}
			}()

			return func() {
				updates.Close()
				<-done
				if claimed {
					claims.RemoveClaim(pointer.ID)
				}
			}
		},
	}
}
