package models

import (
	applesauce "github.com/hzrd149/applesauce-go"
)

// Reactions materializes the reactions (kind 7) to an event, newest first.
// Reactions to addressable events may reference the id or the address, so
// both are watched. The result is a plain timeline and shares its cache:
// subscribing to Reactions(evt) and to the equivalent Timeline lands on the
// same running model.
func Reactions(evt applesauce.Event) Definition[[]applesauce.Event] {
	filters := []applesauce.Filter{{
		Kinds: []applesauce.Kind{applesauce.KindReaction},
		Tags:  applesauce.TagMap{"e": []string{evt.ID.Hex()}},
	}}
	if evt.Kind.IsAddressable() {
		filters = append(filters, applesauce.Filter{
			Kinds: []applesauce.Kind{applesauce.KindReaction},
			Tags:  applesauce.TagMap{"a": []string{evt.Address().String()}},
		})
	}
	return Timeline(filters...)
}
