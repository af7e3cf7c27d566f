package models

import (
	"slices"
	"strings"

	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/eventstore"
)

// Timeline materializes a live, newest-first list of the events matching
// any of the filters. Replaceable events collapse to their winning version.
// Filter limits apply to the initial snapshot only; live events always
// enter the timeline.
//
// Every event currently in the timeline is claimed.
func Timeline(filters ...applesauce.Filter) Definition[[]applesauce.Event] {
	return timelineDefinition("timeline", subKey("", filters), filters, false, nil)
}

// TimelineWithOldVersions is Timeline without the replaceable collapse:
// every retained version of a replaceable event gets its own entry. Only
// useful on stores configured with KeepOldVersions.
func TimelineWithOldVersions(filters ...applesauce.Filter) Definition[[]applesauce.Event] {
	return timelineDefinition("timeline", subKey("old", filters), filters, true, nil)
}

// subKey builds a registry key from a flag and the canonical form of the
// filters, so equal queries land on the same model instance.
func subKey(flag string, filters []applesauce.Filter) string {
	var b strings.Builder
	b.WriteString(flag)
	for _, f := range filters {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(f.String())
	}
	return b.String()
}

// timelineDefinition is the engine behind Timeline, Reactions and Replies.
// keep, when set, post-filters events beyond what the filters can express.
func timelineDefinition(name, key string, filters []applesauce.Filter, includeOld bool, keep func(applesauce.Event) bool) Definition[[]applesauce.Event] {
	return Definition[[]applesauce.Event]{
		Name: name,
		Key:  key,
		Run: func(rt *Runtime, emit func([]applesauce.Event)) func() {
			updates := rt.Store.Follow(false, filters...)

			tl := &timelineState{
				claims:     rt.Store.Claims(),
				includeOld: includeOld,
				keep:       keep,
				present:    make(map[applesauce.ID]struct{}),
			}
			if !includeOld {
				tl.winners = make(map[applesauce.Address]applesauce.Event)
			}

			for _, evt := range rt.Store.GetTimeline(filters...) {
				tl.insert(evt)
			}
			emit(tl.snapshot())

			done := make(chan struct{})
			go func() {
				defer close(done)
				for u := range updates.Updates() {
					var changed bool
					switch u.Op {
					case eventstore.OpInsert:
						changed = tl.insert(u.Event)
					case eventstore.OpRemove:
						changed = tl.remove(u.Event, rt.Store, filters)
					}
					if changed {
						emit(tl.snapshot())
					}
				}
			}()

			return func() {
				updates.Close()
				<-done
				tl.release()
			}
		},
	}
}

// timelineState is the sorted working set behind timeline-shaped models,
// owned by one goroutine at a time.
type timelineState struct {
	claims     *eventstore.Claims
	includeOld bool
	keep       func(applesauce.Event) bool

	events  []applesauce.Event
	present map[applesauce.ID]struct{}

	// winners tracks which version represents each replaceable coordinate
	// when old versions are collapsed.
	winners map[applesauce.Address]applesauce.Event
}

func (tl *timelineState) insert(evt applesauce.Event) bool {
	if _, ok := tl.present[evt.ID]; ok {
		return false
	}
	if tl.keep != nil && !tl.keep(evt) {
		return false
	}

	if !tl.includeOld && (evt.Kind.IsReplaceable() || evt.Kind.IsAddressable()) {
		addr := evt.Address()
		if winner, ok := tl.winners[addr]; ok {
			if !eventstore.IsOlder(winner, evt) {
				return false // an older version of something already shown
			}
			tl.drop(winner)
		}
		tl.winners[addr] = evt
	}

	pos, _ := slices.BinarySearchFunc(tl.events, evt, applesauce.CompareEventReverse)
	tl.events = slices.Insert(tl.events, pos, evt)
	tl.present[evt.ID] = struct{}{}
	tl.claims.Claim(evt.ID)
	return true
}

func (tl *timelineState) remove(evt applesauce.Event, store eventstore.Store, filters []applesauce.Filter) bool {
	if _, ok := tl.present[evt.ID]; !ok {
		return false
	}
	tl.drop(evt)

	if !tl.includeOld && (evt.Kind.IsReplaceable() || evt.Kind.IsAddressable()) {
		addr := evt.Address()
		if winner, ok := tl.winners[addr]; ok && winner.ID == evt.ID {
			delete(tl.winners, addr)
			// the store may retain an older version that takes the
			// winner's place
			if successor, ok := store.GetReplaceable(addr.Kind, addr.PubKey, addr.Identifier); ok && matchesAny(filters, successor) {
				tl.insert(successor)
			}
		}
	}
	return true
}

func (tl *timelineState) drop(evt applesauce.Event) {
	if pos, found := slices.BinarySearchFunc(tl.events, evt, applesauce.CompareEventReverse); found {
		tl.events = slices.Delete(tl.events, pos, pos+1)
	}
	delete(tl.present, evt.ID)
	tl.claims.RemoveClaim(evt.ID)
}

func (tl *timelineState) snapshot() []applesauce.Event {
	return slices.Clone(tl.events)
}

func (tl *timelineState) release() {
	for _, evt := range tl.events {
		tl.claims.RemoveClaim(evt.ID)
	}
	tl.events = nil
	clear(tl.present)
	clear(tl.winners)
}

func matchesAny(filters []applesauce.Filter, evt applesauce.Event) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f.Matches(evt) {
			return true
		}
	}
	return false
}
