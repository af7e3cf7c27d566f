package applesauce

import (
	"crypto/sha256"
)

// Event represents a Nostr event. Events are immutable once signed: anything
// computed from one lives in side tables, never on the struct itself.
type Event struct {
	ID        ID
	PubKey    PubKey
	CreatedAt Timestamp
	Kind      Kind
	Tags      Tags
	Content   string
	Sig       [64]byte
}

// GetID serializes the event and returns the sha256 hash of that, which is the canonical event id.
func (evt Event) GetID() ID {
	return sha256.Sum256(evt.Serialize())
}

// CheckID checks if the event ID matches the hash of the serialized event body.
func (evt Event) CheckID() bool {
	return evt.GetID() == evt.ID
}
