package models

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapModel(t *testing.T) {
	_, reg := newTestRegistry(t)

	var starts, stops atomic.Int32
	source := countingDef("numbers", "x", &starts, &stops, 1, 2, 3)
	doubled := Map(source, "doubled", func(v int) int { return v * 2 })

	sub := Subscribe(reg, doubled)
	defer sub.Close()

	for _, want := range []int{2, 4, 6} {
		v, ok := sub.Next()
		require.True(t, ok)
		require.Equal(t, want, v)
	}

	require.Equal(t, 2, reg.Running(), "the derived model and its source")

	{ // the source the derived model started is the shared instance
		direct := Subscribe(reg, source)
		defer direct.Close()
		require.Equal(t, int32(1), starts.Load())

		v, _ := direct.Next()
		require.Equal(t, 3, v)
	}
}

func TestChainModel(t *testing.T) {
	_, reg := newTestRegistry(t)

	letters := make(chan string, 1)
	source := Definition[string]{
		Name: "letters",
		Key:  "x",
		Run: func(rt *Runtime, emit func(string)) func() {
			emit("a")
			stop := make(chan struct{})
			go func() {
				for {
					select {
					case v := <-letters:
						emit(v)
					case <-stop:
						return
					}
				}
			}()
			return func() { close(stop) }
		},
	}

	inner := func(letter string) Definition[string] {
		return Definition[string]{
			Name: "letter-value",
			Key:  letter,
			Run: func(rt *Runtime, emit func(string)) func() {
				emit("value-" + letter)
				rt.Complete()
				return func() {}
			},
		}
	}

	sub := Subscribe(reg, Chain(source, "chained", inner))
	defer sub.Close()

	v, _ := sub.Next()
	require.Equal(t, "value-a", v)

	{ // each source value switches to a fresh inner model
		letters <- "b"
		v, _ = sub.Next()
		require.Equal(t, "value-b", v)

		letters <- "c"
		v, _ = sub.Next()
		require.Equal(t, "value-c", v)
	}
}

func TestChainClosesInnerOnSwitch(t *testing.T) {
	_, reg := newTestRegistry(t)
	reg.GracePeriod = -1

	letters := make(chan string, 1)
	source := Definition[string]{
		Name: "letters",
		Key:  "x",
		Run: func(rt *Runtime, emit func(string)) func() {
			emit("a")
			stop := make(chan struct{})
			go func() {
				for {
					select {
					case v := <-letters:
						emit(v)
					case <-stop:
						return
					}
				}
			}()
			return func() { close(stop) }
		},
	}

	var stopped atomic.Int32
	inner := func(letter string) Definition[string] {
		return Definition[string]{
			Name: "letter-value",
			Key:  letter,
			Run: func(rt *Runtime, emit func(string)) func() {
				emit(letter)
				return func() { stopped.Add(1) }
			},
		}
	}

	sub := Subscribe(reg, Chain(source, "chained", inner))
	defer sub.Close()

	v, _ := sub.Next()
	require.Equal(t, "a", v)

	letters <- "b"
	v, _ = sub.Next()
	require.Equal(t, "b", v)

	require.Equal(t, int32(1), stopped.Load(), "switching tears the previous inner model down")
}
