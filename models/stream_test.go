package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	applesauce "github.com/hzrd149/applesauce-go"
)

func TestEventStreamOnlyNew(t *testing.T) {
	store, reg := newTestRegistry(t)
	sk := applesauce.GeneratePrivateKey()

	old := testEvent(t, sk, applesauce.KindTextNote, 100, "already here")
	_, err := store.Add(old)
	require.NoError(t, err)

	sub := Subscribe(reg, EventStream(true, applesauce.Filter{Kinds: []applesauce.Kind{applesauce.KindTextNote}}))
	defer sub.Close()

	reaction := testEvent(t, sk, applesauce.KindReaction, 150, "+")
	_, err = store.Add(reaction)
	require.NoError(t, err)

	fresh := testEvent(t, sk, applesauce.KindTextNote, 200, "fresh")
	_, err = store.Add(fresh)
	require.NoError(t, err)

	// neither the stored event nor the filtered-out reaction show up
	v, ok := sub.Next()
	require.True(t, ok)
	require.Equal(t, fresh.ID, v.ID)
}

func TestEventStreamReplay(t *testing.T) {
	store, reg := newTestRegistry(t)
	sk := applesauce.GeneratePrivateKey()

	e1 := testEvent(t, sk, applesauce.KindTextNote, 100, "one")
	e2 := testEvent(t, sk, applesauce.KindTextNote, 200, "two")
	for _, evt := range []applesauce.Event{e1, e2} {
		_, err := store.Add(evt)
		require.NoError(t, err)
	}

	sub := Subscribe(reg, EventStream(false, applesauce.Filter{Kinds: []applesauce.Kind{applesauce.KindTextNote}}))
	defer sub.Close()

	{ // stored events replay newest first
		v, _ := sub.Next()
		require.Equal(t, e2.ID, v.ID)
		v, _ = sub.Next()
		require.Equal(t, e1.ID, v.ID)
	}

	{ // then the live tail continues seamlessly
		e3 := testEvent(t, sk, applesauce.KindTextNote, 300, "three")
		_, err := store.Add(e3)
		require.NoError(t, err)

		v, _ := sub.Next()
		require.Equal(t, e3.ID, v.ID)
	}
}

func TestEventStreamSkipsRemovals(t *testing.T) {
	store, reg := newTestRegistry(t)
	sk := applesauce.GeneratePrivateKey()

	sub := Subscribe(reg, EventStream(false))
	defer sub.Close()

	evt := testEvent(t, sk, applesauce.KindTextNote, 100, "here and gone")
	_, err := store.Add(evt)
	require.NoError(t, err)

	v, _ := sub.Next()
	require.Equal(t, evt.ID, v.ID)

	store.Remove(evt.ID)

	probe := testEvent(t, sk, applesauce.KindTextNote, 200, "probe")
	_, err = store.Add(probe)
	require.NoError(t, err)

	v, _ = sub.Next()
	require.Equal(t, probe.ID, v.ID, "removals never surface as stream values")
}
