package models

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/eventstore"
)

func newTestRegistry(t *testing.T) (*eventstore.EventStore, *Registry) {
	t.Helper()
	store := eventstore.New()
	reg := NewRegistry(store)
	t.Cleanup(func() {
		reg.Close()
		store.Close()
	})
	return store, reg
}

func testEvent(t *testing.T, sk [32]byte, kind applesauce.Kind, createdAt applesauce.Timestamp, content string, tags ...applesauce.Tag) applesauce.Event {
	t.Helper()
	evt := applesauce.Event{
		Kind:      kind,
		CreatedAt: createdAt,
		Content:   content,
		Tags:      applesauce.Tags(tags),
	}
	require.NoError(t, evt.Sign(sk))
	return evt
}

func countingDef(name, key string, starts, stops *atomic.Int32, values ...int) Definition[int] {
	return Definition[int]{
		Name: name,
		Key:  key,
		Run: func(rt *Runtime, emit func(int)) func() {
			starts.Add(1)
			for _, v := range values {
				emit(v)
			}
			return func() { stops.Add(1) }
		},
	}
}

func TestSubscribeSharesComputation(t *testing.T) {
	_, reg := newTestRegistry(t)
	var starts, stops atomic.Int32
	def := countingDef("counting", "a", &starts, &stops, 42)

	sub1 := Subscribe(reg, def)
	defer sub1.Close()
	sub2 := Subscribe(reg, def)
	defer sub2.Close()

	require.Equal(t, int32(1), starts.Load(), "equal keys share one computation")
	require.Equal(t, 1, reg.Running())

	v, ok := sub1.Next()
	require.True(t, ok)
	require.Equal(t, 42, v)

	v, ok = sub2.Next()
	require.True(t, ok)
	require.Equal(t, 42, v)

	{ // a different key starts its own instance
		other := Subscribe(reg, countingDef("counting", "b", &starts, &stops, 1))
		defer other.Close()
		require.Equal(t, int32(2), starts.Load())
		require.Equal(t, 2, reg.Running())
	}
}

func TestLatestValueReplay(t *testing.T) {
	_, reg := newTestRegistry(t)
	var starts, stops atomic.Int32
	def := countingDef("replay", "x", &starts, &stops, 1, 2, 3)

	sub1 := Subscribe(reg, def)
	defer sub1.Close()
	for _, want := range []int{1, 2, 3} {
		v, _ := sub1.Next()
		require.Equal(t, want, v)
	}

	{ // late subscribers start from the latest value only
		sub2 := Subscribe(reg, def)
		defer sub2.Close()
		v, _ := sub2.Next()
		require.Equal(t, 3, v)
	}
}

func TestGracePeriodKeepsModelWarm(t *testing.T) {
	_, reg := newTestRegistry(t)
	reg.GracePeriod = 150 * time.Millisecond

	var starts, stops atomic.Int32
	def := countingDef("warm", "x", &starts, &stops, 7)

	sub := Subscribe(reg, def)
	v, _ := sub.Next()
	require.Equal(t, 7, v)
	sub.Close()

	{ // resubscribing within the grace period reuses the instance
		again := Subscribe(reg, def)
		require.Equal(t, int32(1), starts.Load())
		v, _ := again.Next()
		require.Equal(t, 7, v)
		again.Close()
	}

	{ // once the grace passes with no subscribers, the model stops
		require.Eventually(t, func() bool { return stops.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
		require.Equal(t, 0, reg.Running())
	}

	{ // the next subscription starts fresh
		fresh := Subscribe(reg, def)
		defer fresh.Close()
		require.Equal(t, int32(2), starts.Load())
	}
}

func TestNegativeGraceTearsDownImmediately(t *testing.T) {
	_, reg := newTestRegistry(t)
	reg.GracePeriod = -1

	var starts, stops atomic.Int32
	def := countingDef("impatient", "x", &starts, &stops, 7)

	sub := Subscribe(reg, def)
	sub.Close()

	// teardown happened synchronously inside Close
	require.Equal(t, int32(1), stops.Load())
	require.Equal(t, 0, reg.Running())
}

func TestComplete(t *testing.T) {
	_, reg := newTestRegistry(t)
	var stops atomic.Int32

	def := Definition[int]{
		Name: "finite",
		Key:  "x",
		Run: func(rt *Runtime, emit func(int)) func() {
			emit(1)
			emit(2)
			rt.Complete()
			return func() { stops.Add(1) }
		},
	}

	sub := Subscribe(reg, def)
	defer sub.Close()

	v, _ := sub.Next()
	require.Equal(t, 1, v)
	v, _ = sub.Next()
	require.Equal(t, 2, v)

	_, open := sub.Next()
	require.False(t, open, "channels close once the model completes")
	require.Equal(t, int32(1), stops.Load(), "completion stops the computation")

	{ // late subscribers replay the final value, then close
		late := Subscribe(reg, def)
		defer late.Close()
		v, open := late.Next()
		require.True(t, open)
		require.Equal(t, 2, v)
		_, open = late.Next()
		require.False(t, open)
	}
}

func TestRegistryClose(t *testing.T) {
	store := eventstore.New()
	defer store.Close()
	reg := NewRegistry(store)

	var starts, stops atomic.Int32
	sub := Subscribe(reg, countingDef("doomed", "x", &starts, &stops, 1))
	v, _ := sub.Next()
	require.Equal(t, 1, v)

	reg.Close()

	require.Equal(t, int32(1), stops.Load())
	require.Equal(t, 0, reg.Running())
	_, open := sub.Next()
	require.False(t, open)

	sub.Close() // harmless afterwards
}

func TestSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	_, reg := newTestRegistry(t)

	values := make([]int, 500)
	for i := range values {
		values[i] = i
	}
	var starts, stops atomic.Int32
	sub := Subscribe(reg, countingDef("firehose", "x", &starts, &stops, values...))
	defer sub.Close()

	// Run pushed 500 values before anything was read; they come out in order
	for i := 0; i < 500; i++ {
		v, ok := sub.Next()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}
