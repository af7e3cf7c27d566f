package applesauce

import (
	"encoding/hex"
	"fmt"
	"unsafe"
)

// PubKey is a 32-byte schnorr x-only public key.
type PubKey [32]byte

var ZeroPK = PubKey{}

func (pk PubKey) String() string { return hex.EncodeToString(pk[:]) }
func (pk PubKey) Hex() string    { return hex.EncodeToString(pk[:]) }

func (pk PubKey) MarshalJSON() ([]byte, error) {
	out := make([]byte, 66)
	out[0] = '"'
	hex.Encode(out[1:65], pk[:])
	out[65] = '"'
	return out, nil
}

func (pk *PubKey) UnmarshalJSON(buf []byte) error {
	if len(buf) != 66 || buf[0] != '"' || buf[65] != '"' {
		return fmt.Errorf("pubkey must be a 64-char hex string, got %s", buf)
	}
	if _, err := hex.Decode(pk[:], buf[1:65]); err != nil {
		return fmt.Errorf("'%s' is not valid hex: %w", buf[1:65], err)
	}
	return nil
}

func PubKeyFromHex(pkh string) (PubKey, error) {
	pk := PubKey{}
	if len(pkh) != 64 {
		return pk, fmt.Errorf("pubkey should be 64-char hex, got '%s'", pkh)
	}
	if _, err := hex.Decode(pk[:], unsafe.Slice(unsafe.StringData(pkh), 64)); err != nil {
		return pk, fmt.Errorf("'%s' is not valid hex: %w", pkh, err)
	}

	if !IsValidPublicKey(pk) {
		return pk, fmt.Errorf("'%s' is not a valid pubkey", pkh)
	}

	return pk, nil
}

// PubKeyFromHexCheap is like PubKeyFromHex, but skips the curve point check.
func PubKeyFromHexCheap(pkh string) (PubKey, error) {
	pk := PubKey{}
	if len(pkh) != 64 {
		return pk, fmt.Errorf("pubkey should be 64-char hex, got '%s'", pkh)
	}
	if _, err := hex.Decode(pk[:], unsafe.Slice(unsafe.StringData(pkh), 64)); err != nil {
		return pk, fmt.Errorf("'%s' is not valid hex: %w", pkh, err)
	}

	return pk, nil
}

func MustPubKeyFromHex(pkh string) PubKey {
	pk := PubKey{}
	hex.Decode(pk[:], unsafe.Slice(unsafe.StringData(pkh), 64))
	return pk
}

// ID is the 32-byte sha256 hash of the serialized event.
type ID [32]byte

var ZeroID = ID{}

func (id ID) String() string { return hex.EncodeToString(id[:]) }
func (id ID) Hex() string    { return hex.EncodeToString(id[:]) }

func (id ID) MarshalJSON() ([]byte, error) {
	out := make([]byte, 66)
	out[0] = '"'
	hex.Encode(out[1:65], id[:])
	out[65] = '"'
	return out, nil
}

func (id *ID) UnmarshalJSON(buf []byte) error {
	if len(buf) != 66 || buf[0] != '"' || buf[65] != '"' {
		return fmt.Errorf("id must be a 64-char hex string, got %s", buf)
	}
	if _, err := hex.Decode(id[:], buf[1:65]); err != nil {
		return fmt.Errorf("'%s' is not valid hex: %w", buf[1:65], err)
	}
	return nil
}

func IDFromHex(idh string) (ID, error) {
	id := ID{}

	if len(idh) != 64 {
		return id, fmt.Errorf("id should be 64-char hex, got '%s'", idh)
	}
	if _, err := hex.Decode(id[:], unsafe.Slice(unsafe.StringData(idh), 64)); err != nil {
		return id, fmt.Errorf("'%s' is not valid hex: %w", idh, err)
	}

	return id, nil
}

func MustIDFromHex(idh string) ID {
	id := ID{}
	hex.Decode(id[:], unsafe.Slice(unsafe.StringData(idh), 64))
	return id
}
