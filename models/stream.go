package models

import (
	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/eventstore"
)

// EventStream emits matching events one at a time as they enter the store.
// With onlyNew set it starts from the subscription moment; otherwise stored
// events replay first, newest first, before the live tail begins.
//
// Unlike stateful models, a stream has no initial value: a fresh instance
// stays silent until an event arrives. Late subscribers to a running
// instance still replay its most recent event.
func EventStream(onlyNew bool, filters ...applesauce.Filter) Definition[applesauce.Event] {
	flag := "all"
	if onlyNew {
		flag = "new"
	}

	return Definition[applesauce.Event]{
		Name: "event-stream",
		Key:  subKey(flag, filters),
		Run: func(rt *Runtime, emit func(applesauce.Event)) func() {
			if onlyNew {
				inserts := rt.Store.Inserts(filters...)
				done := make(chan struct{})
				go func() {
					defer close(done)
					for evt := range inserts.Events() {
						emit(evt)
					}
				}()
				return func() {
					inserts.Close()
					<-done
				}
			}

			updates := rt.Store.Follow(true, filters...)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for u := range updates.Updates() {
					if u.Op == eventstore.OpInsert {
						emit(u.Event)
					}
				}
			}()
			return func() {
				updates.Close()
				<-done
			}
		},
	}
}
