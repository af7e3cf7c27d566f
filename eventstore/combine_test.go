package eventstore

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	applesauce "github.com/hzrd149/applesauce-go"
)

func FuzzMergeSorted(f *testing.F) {
	f.Add(uint(4), uint(4), uint(3), uint(7), uint8(2), uint8(1))
	f.Add(uint(0), uint(4), uint(3), uint(7), uint8(2), uint8(1))
	f.Add(uint(9), uint(9), uint(5), uint(5), uint8(0), uint8(0))
	f.Fuzz(func(t *testing.T, len1, len2 uint, start1, start2 uint, diff1, diff2 uint8) {
		len1 %= 2048
		len2 %= 2048
		maxxx := max(len1*uint(diff1), len2*uint(diff2))
		start1 += maxxx
		start2 += maxxx

		descending := func(start uint, n uint, diff uint8) []applesauce.Event {
			events := make([]applesauce.Event, 0, n)
			for range n {
				events = append(events, applesauce.Event{CreatedAt: applesauce.Timestamp(start)})
				start -= uint(diff)
			}
			return events
		}
		side1 := descending(start1, len1, diff1)
		side2 := descending(start2, len2, diff2)

		merged := slices.Collect(mergeSorted(slices.Values(side1), slices.Values(side2)))

		// merging must behave exactly like concatenating and resorting
		want := slices.Concat(side1, side2)
		slices.SortFunc(want, eventComparator)

		require.Equal(t, len(want), len(merged))
		require.True(t, slices.IsSortedFunc(merged, eventComparator), "merge output not sorted newest-first")
		require.Equal(t, want, merged)
	})
}

func TestMergeSortedTiesAreAdjacent(t *testing.T) {
	shared := applesauce.Event{CreatedAt: 50, ID: applesauce.ID{9}}
	side1 := []applesauce.Event{
		{CreatedAt: 70, ID: applesauce.ID{1}},
		shared,
		{CreatedAt: 10, ID: applesauce.ID{2}},
	}
	side2 := []applesauce.Event{
		{CreatedAt: 60, ID: applesauce.ID{3}},
		shared,
		{CreatedAt: 50, ID: applesauce.ID{4}},
	}

	merged := slices.Collect(mergeSorted(slices.Values(side1), slices.Values(side2)))

	// the event present in both inputs comes out twice in a row, so a
	// single look-behind is enough to deduplicate
	for i, evt := range merged {
		if evt.ID == shared.ID {
			require.Equal(t, shared.ID, merged[i+1].ID)
			break
		}
	}
	require.True(t, slices.IsSortedFunc(merged, eventComparator))
}
