package models

import (
	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/helpers"
)

// Replies materializes the direct replies to a note, newest first. An event
// counts as a direct reply when its thread coordinates resolve to the note:
// a marked "reply" tag pointing at it, or a marked "root" tag when the note
// is the whole thread, or the positional fallback for old-style notes.
// Events that merely mention the note are left out.
func Replies(evt applesauce.Event) Definition[[]applesauce.Event] {
	filter := applesauce.Filter{
		Kinds: []applesauce.Kind{applesauce.KindTextNote},
		Tags:  applesauce.TagMap{"e": []string{evt.ID.Hex()}},
	}
	target := evt.ID

	return timelineDefinition("replies", evt.ID.Hex(), []applesauce.Filter{filter}, false,
		func(reply applesauce.Event) bool {
			pointer := helpers.ReplyTarget(reply)
			return pointer != nil && pointer.ID == target
		})
}
