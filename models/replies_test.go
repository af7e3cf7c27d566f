package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	applesauce "github.com/hzrd149/applesauce-go"
)

func TestRepliesModel(t *testing.T) {
	store, reg := newTestRegistry(t)
	sk := applesauce.GeneratePrivateKey()

	note := testEvent(t, sk, applesauce.KindTextNote, 100, "the note")
	_, err := store.Add(note)
	require.NoError(t, err)

	sub := Subscribe(reg, Replies(note))
	defer sub.Close()

	tl, _ := sub.Next()
	require.Empty(t, tl)

	reply1 := testEvent(t, sk, applesauce.KindTextNote, 200, "first reply",
		applesauce.Tag{"e", note.ID.Hex(), "", "root"})
	_, err = store.Add(reply1)
	require.NoError(t, err)

	tl, _ = sub.Next()
	require.Equal(t, []applesauce.ID{reply1.ID}, ids(tl))

	{ // replies deeper in the thread reference the note but are not direct
		nested := testEvent(t, sk, applesauce.KindTextNote, 300, "reply to the reply",
			applesauce.Tag{"e", note.ID.Hex(), "", "root"},
			applesauce.Tag{"e", reply1.ID.Hex(), "", "reply"})
		_, err := store.Add(nested)
		require.NoError(t, err)

		mention := testEvent(t, sk, applesauce.KindTextNote, 400, "look at this note",
			applesauce.Tag{"e", note.ID.Hex(), "", "mention"})
		_, err = store.Add(mention)
		require.NoError(t, err)

		// neither produced an update; the next one visible is the
		// old-style positional reply
		positional := testEvent(t, sk, applesauce.KindTextNote, 500, "old client reply",
			applesauce.Tag{"e", note.ID.Hex()})
		_, err = store.Add(positional)
		require.NoError(t, err)

		tl, _ = sub.Next()
		require.Equal(t, []applesauce.ID{positional.ID, reply1.ID}, ids(tl))
	}
}

func TestRepliesFromOtherAuthors(t *testing.T) {
	store, reg := newTestRegistry(t)
	sk1 := applesauce.GeneratePrivateKey()
	sk2 := applesauce.GeneratePrivateKey()

	note := testEvent(t, sk1, applesauce.KindTextNote, 100, "anyone agree?")
	_, err := store.Add(note)
	require.NoError(t, err)

	reply := testEvent(t, sk2, applesauce.KindTextNote, 200, "I do",
		applesauce.Tag{"e", note.ID.Hex(), "", "reply"})
	_, err = store.Add(reply)
	require.NoError(t, err)

	sub := Subscribe(reg, Replies(note))
	defer sub.Close()

	tl, _ := sub.Next()
	require.Equal(t, []applesauce.ID{reply.ID}, ids(tl))
}
