package helpers

import (
	applesauce "github.com/hzrd149/applesauce-go"
)

// ThreadRefs are a note's thread coordinates, extracted from its "e" tags.
type ThreadRefs struct {
	// Root points at the event that started the thread.
	Root *applesauce.EventPointer

	// Reply points at the event this note directly responds to. For a
	// direct reply to the root it equals Root.
	Reply *applesauce.EventPointer

	// Mentions are other events referenced without being part of the
	// thread structure.
	Mentions []applesauce.EventPointer
}

// ThreadReferences reads a note's thread coordinates. Marked tags ("root",
// "reply", "mention" in the fourth position) take precedence; without them
// the deprecated positional scheme applies: first "e" tag is the root, last
// is the parent, anything between is a mention.
func ThreadReferences(evt applesauce.Event) ThreadRefs {
	var refs ThreadRefs
	var positional []applesauce.EventPointer

	for _, tag := range evt.Tags {
		if len(tag) < 2 || tag[0] != "e" {
			continue
		}
		pointer, err := applesauce.EventPointerFromTag(tag)
		if err != nil {
			continue
		}

		marker := ""
		if len(tag) >= 4 {
			marker = tag[3]
		}
		switch marker {
		case "root":
			refs.Root = &pointer
		case "reply":
			refs.Reply = &pointer
		case "mention":
			refs.Mentions = append(refs.Mentions, pointer)
		default:
			positional = append(positional, pointer)
		}
	}

	if refs.Root != nil || refs.Reply != nil {
		return refs
	}

	switch len(positional) {
	case 0:
	case 1:
		refs.Root = &positional[0]
	default:
		refs.Root = &positional[0]
		refs.Reply = &positional[len(positional)-1]
		refs.Mentions = append(refs.Mentions, positional[1:len(positional)-1]...)
	}
	return refs
}

// ReplyTarget resolves which event a note directly replies to: the marked
// reply when present, otherwise the root (a direct reply to the thread
// start). Nil for top-level notes.
func ReplyTarget(evt applesauce.Event) *applesauce.EventPointer {
	refs := ThreadReferences(evt)
	if refs.Reply != nil {
		return refs.Reply
	}
	return refs.Root
}

// IsReply reports whether the note responds to another event.
func IsReply(evt applesauce.Event) bool {
	return ReplyTarget(evt) != nil
}
