// Package types provides the chain primitives shared by every service:
// content hashes, account addresses, hex-string payload fields and the
// unsigned 128-bit amounts the ledger settles in.
package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/hackathon-cross/muta-cross/errkind"
)

// HashLen is the byte length of a content hash.
const HashLen = 32

// AddressLen is the byte length of an account address.
const AddressLen = 20

// Hash is a blake2b-256 content id.
type Hash [HashLen]byte

// Digest hashes data with blake2b-256.
func Digest(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// HashFromHex parses a hash from a hex string, with or without the 0x prefix.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hexBytes(s, HashLen)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// HashFromBytes copies a 32-byte slice into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLen {
		return h, errkind.Wrapf(errkind.Validation, "types: hash must be %d bytes, got %d", HashLen, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns the raw hash bytes.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex form.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return h.Hex() }

// MarshalJSON encodes the hash as a 0x-prefixed hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON decodes a 0x-prefixed hex string.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errkind.Wrap(errkind.Validation, err)
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Address is an account identity.
type Address [AddressLen]byte

// AddressFromHex parses an address from a hex string, with or without 0x.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := hexBytes(s, AddressLen)
	if err != nil {
		return a, err
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromBytes copies a 20-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, errkind.Wrapf(errkind.Validation, "types: address must be %d bytes, got %d", AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed hex form.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// Less orders addresses bytewise, the order allowance lists serialize in.
func (a Address) Less(b Address) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// MarshalJSON encodes the address as a 0x-prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON decodes a 0x-prefixed hex string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errkind.Wrap(errkind.Validation, err)
	}
	parsed, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func hexBytes(s string, want int) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errkind.Wrapf(errkind.Validation, "types: invalid hex %q: %v", s, err)
	}
	if len(b) != want {
		return nil, errkind.Wrapf(errkind.Validation, "types: expected %d hex bytes, got %d", want, len(b))
	}
	return b, nil
}
