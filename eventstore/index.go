package eventstore

import (
	"bytes"
	"cmp"
	"math"
	"slices"

	applesauce "github.com/hzrd149/applesauce-go"
)

// IsOlder reports whether previous loses to next under the winner rule used
// for replaceable events: higher created_at wins, and on a timestamp tie the
// byte-wise greater id wins so every replica converges on the same version.
func IsOlder(previous, next applesauce.Event) bool {
	return previous.CreatedAt < next.CreatedAt ||
		(previous.CreatedAt == next.CreatedAt && bytes.Compare(previous.ID[:], next.ID[:]) == 1)
}

// index holds every stored event sorted newest-first plus the lookup tables
// that make point reads and tag queries cheap. It is not safe for concurrent
// use; EventStore serializes access with its own mutex.
type index struct {
	// events is ordered by eventComparator (created_at desc, id desc).
	events []applesauce.Event
	byID   map[applesauce.ID]applesauce.Event

	// tags maps "name:value" keys of single-letter tags to the ids of the
	// events carrying them. tagKeys remembers each event's keys so removal
	// doesn't have to recompute them.
	tags    map[string]map[applesauce.ID]struct{}
	tagKeys map[applesauce.ID][]string

	// addrs holds the retained versions of each replaceable coordinate,
	// newest first; index 0 is the winner.
	addrs map[applesauce.Address][]applesauce.Event
}

func newIndex() *index {
	return &index{
		events:  make([]applesauce.Event, 0, 256),
		byID:    make(map[applesauce.ID]applesauce.Event, 256),
		tags:    make(map[string]map[applesauce.ID]struct{}),
		tagKeys: make(map[applesauce.ID][]string),
		addrs:   make(map[applesauce.Address][]applesauce.Event),
	}
}

func eventComparator(a, b applesauce.Event) int {
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(b.ID[:], a.ID[:])
}

func eventTimestampComparator(e applesauce.Event, t applesauce.Timestamp) int {
	return int(t) - int(e.CreatedAt)
}

// indexableTagKeys returns the "name:value" keys for every single-letter tag
// with a non-empty value, the same subset relays index for "#x" filters.
func indexableTagKeys(evt applesauce.Event) []string {
	var keys []string
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && len(tag[0]) == 1 && tag[1] != "" {
			keys = append(keys, tag[0]+":"+tag[1])
		}
	}
	return keys
}

func (x *index) save(evt applesauce.Event) error {
	if _, ok := x.byID[evt.ID]; ok {
		return ErrDupEvent
	}

	pos, _ := slices.BinarySearchFunc(x.events, evt, eventComparator)
	x.events = append(x.events, applesauce.Event{}) // bogus
	copy(x.events[pos+1:], x.events[pos:])
	x.events[pos] = evt

	x.byID[evt.ID] = evt

	if keys := indexableTagKeys(evt); len(keys) > 0 {
		x.tagKeys[evt.ID] = keys
		for _, key := range keys {
			ids, ok := x.tags[key]
			if !ok {
				ids = make(map[applesauce.ID]struct{})
				x.tags[key] = ids
			}
			ids[evt.ID] = struct{}{}
		}
	}

	if evt.Kind.IsReplaceable() || evt.Kind.IsAddressable() {
		addr := evt.Address()
		versions := x.addrs[addr]
		vpos, _ := slices.BinarySearchFunc(versions, evt, eventComparator)
		x.addrs[addr] = slices.Insert(versions, vpos, evt)
	}

	return nil
}

func (x *index) delete(id applesauce.ID) (applesauce.Event, bool) {
	evt, ok := x.byID[id]
	if !ok {
		return applesauce.Event{}, false
	}

	if pos, found := slices.BinarySearchFunc(x.events, evt, eventComparator); found {
		copy(x.events[pos:], x.events[pos+1:])
		x.events = x.events[:len(x.events)-1]
	}

	delete(x.byID, id)

	for _, key := range x.tagKeys[id] {
		ids := x.tags[key]
		delete(ids, id)
		if len(ids) == 0 {
			delete(x.tags, key)
		}
	}
	delete(x.tagKeys, id)

	if evt.Kind.IsReplaceable() || evt.Kind.IsAddressable() {
		addr := evt.Address()
		versions := x.addrs[addr]
		for i, v := range versions {
			if v.ID == id {
				versions = slices.Delete(versions, i, i+1)
				break
			}
		}
		if len(versions) == 0 {
			delete(x.addrs, addr)
		} else {
			x.addrs[addr] = versions
		}
	}

	return evt, true
}

// replace stores a replaceable event, resolving it against whatever versions
// the coordinate already holds. It returns the versions dropped from the
// index (to be emitted as removals) and whether evt itself was stored.
func (x *index) replace(evt applesauce.Event, keepOld bool) (removed []applesauce.Event, stored bool) {
	if _, ok := x.byID[evt.ID]; ok {
		return nil, false
	}

	versions := x.addrs[evt.Address()]
	if len(versions) == 0 || keepOld {
		x.save(evt)
		return nil, true
	}

	if !IsOlder(versions[0], evt) {
		// stale: loses to the current winner
		return nil, false
	}

	// normally a single version, but a KeepOldVersions store toggled off
	// mid-life may hold more
	removed = slices.Clone(versions)
	for _, old := range removed {
		x.delete(old.ID)
	}
	x.save(evt)
	return removed, true
}

func (x *index) replaceable(addr applesauce.Address) (applesauce.Event, bool) {
	versions := x.addrs[addr]
	if len(versions) == 0 {
		return applesauce.Event{}, false
	}
	return versions[0], true
}

func (x *index) history(addr applesauce.Address) []applesauce.Event {
	return slices.Clone(x.addrs[addr])
}

// query collects the events matching filter, newest first, honoring Limit.
func (x *index) query(filter applesauce.Filter) []applesauce.Event {
	if filter.LimitZero {
		return nil
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = math.MaxInt
	}

	if len(filter.IDs) > 0 {
		results := make([]applesauce.Event, 0, len(filter.IDs))
		for _, id := range filter.IDs {
			if evt, ok := x.byID[id]; ok && filter.Matches(evt) {
				results = append(results, evt)
			}
		}
		slices.SortFunc(results, eventComparator)
		if len(results) > limit {
			results = results[:limit]
		}
		return results
	}

	if candidates, ok := x.tagCandidates(filter); ok {
		var results []applesauce.Event
		for _, evt := range candidates {
			if len(results) >= limit {
				break
			}
			if filter.Matches(evt) {
				results = append(results, evt)
			}
		}
		return results
	}

	start := 0
	end := len(x.events)
	if filter.Until != 0 {
		start, _ = slices.BinarySearchFunc(x.events, filter.Until, eventTimestampComparator)
	}
	if filter.Since != 0 {
		// Since is inclusive, so search one second past it
		end, _ = slices.BinarySearchFunc(x.events, filter.Since-1, eventTimestampComparator)
	}
	if end <= start {
		return nil
	}

	var results []applesauce.Event
	for _, evt := range x.events[start:end] {
		if len(results) >= limit {
			break
		}
		if filter.MatchesIgnoringTimestampConstraints(evt) {
			results = append(results, evt)
		}
	}
	return results
}

func (x *index) count(filter applesauce.Filter) uint32 {
	var total uint32
	for _, evt := range x.events {
		if filter.Matches(evt) {
			total++
		}
	}
	return total
}

// tagCandidates picks the narrowest tag constraint in the filter and returns
// the events carrying it, sorted newest first. The result is a superset of
// the actual matches: with "#x" (OR) semantics any matching event carries at
// least one listed value, with "&x" (AND) semantics it carries all of them,
// so either way one value's id set suffices as a candidate pool.
func (x *index) tagCandidates(filter applesauce.Filter) ([]applesauce.Event, bool) {
	seen := make(map[applesauce.ID]struct{})

	if name, values, ok := chooseNarrowestTag(filter.TagsAll, len(filter.Authors) > 0); ok {
		// all values are required; the rarest one bounds the candidates
		best := -1
		for _, value := range values {
			if n := len(x.tags[name+":"+value]); best == -1 || n < best {
				best = n
				seen = x.idSet(name + ":" + value)
			}
		}
		return x.sortedByID(seen), true
	}

	if name, values, ok := chooseNarrowestTag(filter.Tags, len(filter.Authors) > 0); ok {
		for _, value := range values {
			for id := range x.tags[name+":"+value] {
				seen[id] = struct{}{}
			}
		}
		return x.sortedByID(seen), true
	}

	return nil, false
}

func (x *index) idSet(key string) map[applesauce.ID]struct{} {
	ids := x.tags[key]
	set := make(map[applesauce.ID]struct{}, len(ids))
	for id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (x *index) sortedByID(ids map[applesauce.ID]struct{}) []applesauce.Event {
	events := make([]applesauce.Event, 0, len(ids))
	for id := range ids {
		events = append(events, x.byID[id])
	}
	slices.SortFunc(events, eventComparator)
	return events
}

// chooseNarrowestTag ranks the indexable tag constraints in a tag map and
// returns the one expected to have the most selective id set.
func chooseNarrowestTag(tags applesauce.TagMap, hasAuthors bool) (name string, values []string, ok bool) {
	var goodness int
	for candidate, candidateValues := range tags {
		if len(candidate) != 1 || len(candidateValues) == 0 {
			continue
		}

		var rank int
		switch candidate {
		case "e", "E", "q":
			// very unique tags
			rank = 9
		case "a", "A", "i", "I", "g", "r":
			// reasonably unique tags
			rank = 8
		case "d":
			if hasAuthors {
				rank = 7
			} else {
				rank = 4
			}
		case "h", "t", "l", "k", "K":
			rank = 6
		case "p":
			rank = 2
		default:
			rank = 1
		}

		if rank > goodness {
			goodness = rank
			name = candidate
			values = candidateValues
			ok = true
		}
	}
	return name, values, ok
}
