package applesauce

import "context"

// Signer is the external contract for everything that can sign events on
// behalf of a pubkey. Key management itself (hardware, remote, encrypted
// bunkers) lives outside this module.
type Signer interface {
	// GetPublicKey returns the public key associated with this signer.
	GetPublicKey(ctx context.Context) (PubKey, error)

	// SignEvent signs the provided event, setting its ID, PubKey, and Sig fields.
	SignEvent(ctx context.Context, evt *Event) error
}

var _ Signer = (*KeySigner)(nil)

// KeySigner is a Signer that holds the private key in memory.
type KeySigner struct {
	sk [32]byte
	pk PubKey
}

// NewKeySigner creates a KeySigner from a private key.
func NewKeySigner(sec [32]byte) KeySigner {
	return KeySigner{sec, GetPublicKey(sec)}
}

func (ks KeySigner) SignEvent(ctx context.Context, evt *Event) error { return evt.Sign(ks.sk) }

func (ks KeySigner) GetPublicKey(ctx context.Context) (PubKey, error) { return ks.pk, nil }
