package eventstore

import (
	"iter"

	applesauce "github.com/hzrd149/applesauce-go"
)

// mergeSorted combines two iterators that each yield events newest-first
// into one newest-first iterator. Ties break on id like everywhere else, so
// an event present in both inputs comes out in adjacent positions and the
// caller can collapse duplicates with a single look-behind.
func mergeSorted(it1, it2 iter.Seq[applesauce.Event]) iter.Seq[applesauce.Event] {
	next1, done1 := iter.Pull(it1)
	next2, done2 := iter.Pull(it2)

	return func(yield func(applesauce.Event) bool) {
		defer done1()
		defer done2()

		evt1, ok1 := next1()
		evt2, ok2 := next2()

	both:
		if ok1 && ok2 {
			if applesauce.CompareEventReverse(evt1, evt2) > 0 {
				if !yield(evt2) {
					return
				}
				evt2, ok2 = next2()
				goto both
			} else {
				if !yield(evt1) {
					return
				}
				evt1, ok1 = next1()
				goto both
			}
		}

		if !ok2 {
		only1:
			if ok1 {
				if !yield(evt1) {
					return
				}
				evt1, ok1 = next1()
				goto only1
			}
		}

		if !ok1 {
		only2:
			if ok2 {
				if !yield(evt2) {
					return
				}
				evt2, ok2 = next2()
				goto only2
			}
		}
	}
}
