package eventstore

import (
	"bytes"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	applesauce "github.com/hzrd149/applesauce-go"
)

func signedEvent(t *testing.T, sk [32]byte, kind applesauce.Kind, createdAt applesauce.Timestamp, content string, tags ...applesauce.Tag) applesauce.Event {
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

func TestAddBasics(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	store := New()
	defer store.Close()

	evt := signedEvent(t, sk, applesauce.KindTextNote, 100, "hello world")

	added, err := store.Add(evt)
	require.NoError(t, err)
	require.True(t, added)

	{ // duplicates are skipped silently
		added, err := store.Add(evt)
		require.NoError(t, err)
		require.False(t, added)
	}

	{ // point reads
		got, ok := store.GetEvent(evt.ID)
		require.True(t, ok)
		require.Equal(t, evt, got)
		require.True(t, store.HasEvent(evt.ID))
		require.False(t, store.HasEvent(applesauce.ID{0x01}))
	}

	{ // events without id or pubkey are invalid
		_, err := store.Add(applesauce.Event{Kind: applesauce.KindTextNote, Content: "broken"})
		require.ErrorIs(t, err, ErrInvalidEvent)
	}

	require.Equal(t, 1, store.Len())
}

func TestVerifyEventHook(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	store := New()
	defer store.Close()
	store.VerifyEvent = FullVerification

	evt := signedEvent(t, sk, applesauce.KindTextNote, 100, "legit")
	added, err := store.Add(evt)
	require.NoError(t, err)
	require.True(t, added)

	{ // tampered content no longer matches the id
		tampered := evt
		tampered.Content = "tampered"
		_, err := store.Add(tampered)
		require.ErrorIs(t, err, ErrInvalidEvent)

		got, _ := store.GetEvent(evt.ID)
		require.Equal(t, "legit", got.Content)
	}

	{ // forged signature is rejected
		forged := signedEvent(t, sk, applesauce.KindTextNote, 101, "forged")
		forged.Sig[0] ^= 0xff
		_, err := store.Add(forged)
		require.ErrorIs(t, err, ErrInvalidEvent)
	}
}

func TestQueryEvents(t *testing.T) {
	sk1 := applesauce.GeneratePrivateKey()
	sk2 := applesauce.GeneratePrivateKey()
	pk1 := applesauce.GetPublicKey(sk1)

	store := New()
	defer store.Close()

	events := make([]applesauce.Event, 0, 10)
	for i := 0; i < 10; i++ {
		sk := sk1
		if i%2 == 1 {
			sk = sk2
		}
		evt := signedEvent(t, sk, applesauce.KindTextNote, applesauce.Timestamp(100*(i+1)), fmt.Sprintf("note %d", i))
		added, err := store.Add(evt)
		require.NoError(t, err)
		require.True(t, added)
		events = append(events, evt)
	}

	{ // everything, newest first
		results := slices.Collect(store.QueryEvents(applesauce.Filter{Kinds: []applesauce.Kind{applesauce.KindTextNote}}))
		require.Len(t, results, 10)
		require.True(t, slices.IsSortedFunc(results, applesauce.CompareEventReverse))
	}

	{ // by author
		results := slices.Collect(store.QueryEvents(applesauce.Filter{Authors: []applesauce.PubKey{pk1}}))
		require.Len(t, results, 5)
		for _, evt := range results {
			require.Equal(t, pk1, evt.PubKey)
		}
	}

	{ // since and until are both inclusive
		results := slices.Collect(store.QueryEvents(applesauce.Filter{Since: 300, Until: 500}))
		require.Len(t, results, 3)
		require.Equal(t, applesauce.Timestamp(500), results[0].CreatedAt)
		require.Equal(t, applesauce.Timestamp(300), results[2].CreatedAt)
	}

	{ // limit keeps the newest
		results := slices.Collect(store.QueryEvents(applesauce.Filter{Limit: 3}))
		require.Len(t, results, 3)
		require.Equal(t, applesauce.Timestamp(1000), results[0].CreatedAt)
	}

	{ // by id
		results := slices.Collect(store.QueryEvents(applesauce.Filter{IDs: []applesauce.ID{events[0].ID, events[3].ID}}))
		require.Len(t, results, 2)
	}

	{ // count ignores limit
		require.Equal(t, uint32(10), store.CountEvents(applesauce.Filter{Limit: 2}))
		require.Equal(t, uint32(5), store.CountEvents(applesauce.Filter{Authors: []applesauce.PubKey{pk1}}))
	}
}

func TestTagQueries(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	store := New()
	defer store.Close()

	e1 := signedEvent(t, sk, applesauce.KindTextNote, 100, "one", applesauce.Tag{"t", "go"})
	e2 := signedEvent(t, sk, applesauce.KindTextNote, 200, "two", applesauce.Tag{"t", "go"}, applesauce.Tag{"t", "nostr"})
	e3 := signedEvent(t, sk, applesauce.KindTextNote, 300, "three", applesauce.Tag{"t", "nostr"})
	for _, evt := range []applesauce.Event{e1, e2, e3} {
		_, err := store.Add(evt)
		require.NoError(t, err)
	}

	{ // "#t": any of the values
		results := slices.Collect(store.QueryEvents(applesauce.Filter{Tags: applesauce.TagMap{"t": {"go"}}}))
		require.Len(t, results, 2)

		results = slices.Collect(store.QueryEvents(applesauce.Filter{Tags: applesauce.TagMap{"t": {"go", "nostr"}}}))
		require.Len(t, results, 3)
	}

	{ // "&t": all of the values
		results := slices.Collect(store.QueryEvents(applesauce.Filter{TagsAll: applesauce.TagMap{"t": {"go", "nostr"}}}))
		require.Len(t, results, 1)
		require.Equal(t, e2.ID, results[0].ID)
	}

	{ // no matches
		results := slices.Collect(store.QueryEvents(applesauce.Filter{Tags: applesauce.TagMap{"t": {"bitcoin"}}}))
		require.Len(t, results, 0)
	}
}

func TestReplaceableResolution(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	pk := applesauce.GetPublicKey(sk)

	older := signedEvent(t, sk, applesauce.KindProfileMetadata, 100, `{"name":"old"}`)
	newer := signedEvent(t, sk, applesauce.KindProfileMetadata, 200, `{"name":"new"}`)

	{ // chronological order: newer supersedes
		store := New()
		defer store.Close()

		added, err := store.Add(older)
		require.NoError(t, err)
		require.True(t, added)

		added, err = store.Add(newer)
		require.NoError(t, err)
		require.True(t, added)

		got, ok := store.GetReplaceable(applesauce.KindProfileMetadata, pk, "")
		require.True(t, ok)
		require.Equal(t, newer.ID, got.ID)
		require.False(t, store.HasEvent(older.ID))
		require.Len(t, store.ReplaceableHistory(applesauce.KindProfileMetadata, pk, ""), 1)
	}

	{ // reverse order: stale version is not stored
		store := New()
		defer store.Close()

		added, err := store.Add(newer)
		require.NoError(t, err)
		require.True(t, added)

		added, err = store.Add(older)
		require.NoError(t, err)
		require.False(t, added)

		got, ok := store.GetReplaceable(applesauce.KindProfileMetadata, pk, "")
		require.True(t, ok)
		require.Equal(t, newer.ID, got.ID)
		require.False(t, store.HasEvent(older.ID))
	}
}

func TestReplaceableTieBreak(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	pk := applesauce.GetPublicKey(sk)

	a := signedEvent(t, sk, applesauce.KindProfileMetadata, 100, `{"name":"a"}`)
	b := signedEvent(t, sk, applesauce.KindProfileMetadata, 100, `{"name":"b"}`)

	winner, loser := a, b
	if bytes.Compare(b.ID[:], a.ID[:]) == 1 {
		winner, loser = b, a
	}

	{ // loser first
		store := New()
		defer store.Close()
		_, err := store.Add(loser)
		require.NoError(t, err)
		added, err := store.Add(winner)
		require.NoError(t, err)
		require.True(t, added)

		got, _ := store.GetReplaceable(applesauce.KindProfileMetadata, pk, "")
		require.Equal(t, winner.ID, got.ID)
	}

	{ // winner first: loser is rejected as stale
		store := New()
		defer store.Close()
		_, err := store.Add(winner)
		require.NoError(t, err)
		added, err := store.Add(loser)
		require.NoError(t, err)
		require.False(t, added)

		got, _ := store.GetReplaceable(applesauce.KindProfileMetadata, pk, "")
		require.Equal(t, winner.ID, got.ID)
	}
}

func TestAddressableIdentity(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	pk := applesauce.GetPublicKey(sk)
	store := New()
	defer store.Close()

	post1 := signedEvent(t, sk, applesauce.KindArticle, 100, "v1", applesauce.Tag{"d", "post"})
	post2 := signedEvent(t, sk, applesauce.KindArticle, 200, "v2", applesauce.Tag{"d", "post"})
	other := signedEvent(t, sk, applesauce.KindArticle, 150, "other", applesauce.Tag{"d", "other"})

	for _, evt := range []applesauce.Event{post1, post2, other} {
		_, err := store.Add(evt)
		require.NoError(t, err)
	}

	{ // different "d" values are independent identities
		got, ok := store.GetReplaceable(applesauce.KindArticle, pk, "post")
		require.True(t, ok)
		require.Equal(t, post2.ID, got.ID)

		got, ok = store.GetReplaceable(applesauce.KindArticle, pk, "other")
		require.True(t, ok)
		require.Equal(t, other.ID, got.ID)
	}

	{ // superseded version is gone, the other identity is untouched
		require.False(t, store.HasEvent(post1.ID))
		require.True(t, store.HasEvent(other.ID))
	}
}

func TestKeepOldVersions(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	pk := applesauce.GetPublicKey(sk)

	store := New()
	defer store.Close()
	store.KeepOldVersions = true

	v1 := signedEvent(t, sk, applesauce.KindArticle, 100, "v1", applesauce.Tag{"d", "post"})
	v2 := signedEvent(t, sk, applesauce.KindArticle, 200, "v2", applesauce.Tag{"d", "post"})
	v3 := signedEvent(t, sk, applesauce.KindArticle, 150, "v3", applesauce.Tag{"d", "post"})

	for _, evt := range []applesauce.Event{v1, v2, v3} {
		added, err := store.Add(evt)
		require.NoError(t, err)
		require.True(t, added, "every version is retained, even stale ones")
	}

	{ // the winner is still resolved by the usual rule
		got, ok := store.GetReplaceable(applesauce.KindArticle, pk, "post")
		require.True(t, ok)
		require.Equal(t, v2.ID, got.ID)
	}

	{ // history is newest first
		history := store.ReplaceableHistory(applesauce.KindArticle, pk, "post")
		require.Len(t, history, 3)
		require.Equal(t, v2.ID, history[0].ID)
		require.Equal(t, v3.ID, history[1].ID)
		require.Equal(t, v1.ID, history[2].ID)
	}

	{ // superseding with history retained emits no removal
		sub := store.Follow(false)
		defer sub.Close()

		v4 := signedEvent(t, sk, applesauce.KindArticle, 300, "v4", applesauce.Tag{"d", "post"})
		_, err := store.Add(v4)
		require.NoError(t, err)

		u := <-sub.Updates()
		require.Equal(t, OpInsert, u.Op)
		require.Equal(t, v4.ID, u.Event.ID)
	}
}

func TestEphemeralEvents(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	store := New()
	defer store.Close()

	sub := store.Follow(false)
	defer sub.Close()

	eph := signedEvent(t, sk, applesauce.Kind(20001), 100, "now you see me")
	added, err := store.Add(eph)
	require.NoError(t, err)
	require.True(t, added)

	{ // broadcast but never stored
		u := <-sub.Updates()
		require.Equal(t, OpInsert, u.Op)
		require.Equal(t, eph.ID, u.Event.ID)

		require.False(t, store.HasEvent(eph.ID))
		require.Equal(t, uint32(0), store.CountEvents(applesauce.Filter{}))
	}
}

func TestRemove(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	store := New()
	defer store.Close()

	evt := signedEvent(t, sk, applesauce.KindTextNote, 100, "temporary")
	_, err := store.Add(evt)
	require.NoError(t, err)

	require.True(t, store.Remove(evt.ID))
	require.False(t, store.HasEvent(evt.ID))
	require.False(t, store.Remove(evt.ID))

	{ // removal leaves no tombstone, unlike deletion
		added, err := store.Add(evt)
		require.NoError(t, err)
		require.True(t, added)
	}
}

func TestGetTimeline(t *testing.T) {
	sk1 := applesauce.GeneratePrivateKey()
	sk2 := applesauce.GeneratePrivateKey()
	pk1 := applesauce.GetPublicKey(sk1)

	store := New()
	defer store.Close()

	note1 := signedEvent(t, sk1, applesauce.KindTextNote, 100, "first")
	reaction := signedEvent(t, sk2, applesauce.KindReaction, 200, "+", applesauce.Tag{"e", note1.ID.Hex()})
	note2 := signedEvent(t, sk1, applesauce.KindTextNote, 300, "second")

	for _, evt := range []applesauce.Event{note1, reaction, note2} {
		_, err := store.Add(evt)
		require.NoError(t, err)
	}

	{ // merged across filters, newest first
		timeline := store.GetTimeline(
			applesauce.Filter{Kinds: []applesauce.Kind{applesauce.KindTextNote}},
			applesauce.Filter{Kinds: []applesauce.Kind{applesauce.KindReaction}},
		)
		require.Len(t, timeline, 3)
		require.Equal(t, note2.ID, timeline[0].ID)
		require.Equal(t, reaction.ID, timeline[1].ID)
		require.Equal(t, note1.ID, timeline[2].ID)
	}

	{ // overlapping filters don't duplicate
		timeline := store.GetTimeline(
			applesauce.Filter{Kinds: []applesauce.Kind{applesauce.KindTextNote}},
			applesauce.Filter{Authors: []applesauce.PubKey{pk1}},
		)
		require.Len(t, timeline, 2)
	}

	{ // no filters means everything
		require.Len(t, store.GetTimeline(), 3)
	}
}

func TestClose(t *testing.T) {
	sk := applesauce.GeneratePrivateKey()
	store := New()

	evt := signedEvent(t, sk, applesauce.KindTextNote, 100, "before close")
	_, err := store.Add(evt)
	require.NoError(t, err)

	sub := store.Follow(false)
	store.Close()

	{ // writes fail after close
		_, err := store.Add(signedEvent(t, sk, applesauce.KindTextNote, 200, "after close"))
		require.ErrorIs(t, err, ErrClosed)
	}

	{ // existing subscriptions drain and close
		_, open := <-sub.Updates()
		require.False(t, open)
	}

	{ // new subscriptions come back already closed
		late := store.Follow(true)
		_, open := <-late.Updates()
		require.False(t, open)
	}

	store.Close() // idempotent
}
