package eventstore

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v3"

	applesauce "github.com/hzrd149/applesauce-go"
)

// tombstones remembers what deletion events have covered, so deleted events
// don't resurface when a relay replays them later.
type tombstones struct {
	// ids maps a deleted event id to the pubkey that requested the
	// deletion. The entry only poisons events actually authored by that
	// pubkey, so recording a request for an unseen id is harmless.
	ids *xsync.MapOf[applesauce.ID, applesauce.PubKey]

	// addrs maps a replaceable coordinate to the created_at of the newest
	// deletion request covering it. Versions at or before that moment stay
	// out; a genuinely newer version is allowed back in.
	addrs *xsync.MapOf[applesauce.Address, applesauce.Timestamp]
}

func newTombstones() *tombstones {
	return &tombstones{
		ids:   xsync.NewMapOf[applesauce.ID, applesauce.PubKey](),
		addrs: xsync.NewMapOf[applesauce.Address, applesauce.Timestamp](),
	}
}

func (t *tombstones) rejects(evt applesauce.Event) bool {
	if deleter, ok := t.ids.Load(evt.ID); ok && deleter == evt.PubKey {
		return true
	}
	if evt.Kind.IsReplaceable() || evt.Kind.IsAddressable() {
		if until, ok := t.addrs.Load(evt.Address()); ok && evt.CreatedAt <= until {
			return true
		}
	}
	return false
}

func (t *tombstones) markID(id applesauce.ID, deleter applesauce.PubKey) {
	t.ids.Store(id, deleter)
}

func (t *tombstones) markAddr(addr applesauce.Address, until applesauce.Timestamp) {
	t.addrs.Compute(addr, func(old applesauce.Timestamp, loaded bool) (applesauce.Timestamp, bool) {
		if loaded && old >= until {
			return old, false
		}
		return until, false
	})
}

// processDelete applies a deletion event: "e" tags drop single events, "a"
// tags drop every version of a coordinate up to the deletion's created_at.
// Targets authored by someone else are ignored. Called with s.mu held.
func (s *EventStore) processDelete(evt applesauce.Event) {
	for _, tag := range evt.Tags {
		if len(tag) < 2 {
			continue
		}

		switch tag[0] {
		case "e":
			id, err := applesauce.IDFromHex(tag[1])
			if err != nil {
				continue
			}
			if target, ok := s.index.byID[id]; ok {
				if target.PubKey != evt.PubKey {
					s.Log.Debug().Stringer("id", id).Stringer("requester", evt.PubKey).
						Msg("ignored deletion of someone else's event")
					continue
				}
				s.index.delete(id)
				s.broadcast(Update{Op: OpRemove, Event: target})
			}
			// poison the id even if we never saw the event; the tombstone
			// only bites events signed by the same pubkey
			s.tombs.markID(id, evt.PubKey)

		case "a":
			pointer, err := applesauce.ParseAddrString(tag[1])
			if err != nil {
				continue
			}
			if pointer.PublicKey != evt.PubKey {
				s.Log.Debug().Stringer("address", pointer.Address()).Stringer("requester", evt.PubKey).
					Msg("ignored deletion of someone else's address")
				continue
			}

			addr := pointer.Address()
			for _, version := range slices.Clone(s.index.addrs[addr]) {
				if version.CreatedAt <= evt.CreatedAt {
					s.index.delete(version.ID)
					s.broadcast(Update{Op: OpRemove, Event: version})
				}
			}
			s.tombs.markAddr(addr, evt.CreatedAt)
		}
	}
}
