package types

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/hackathon-cross/muta-cross/errkind"
)

// Hex is a 0x-prefixed hex string field as carried in foreign-chain
// payloads. Parsing is deferred until a service validates the payload.
type Hex string

// NewHex encodes raw bytes as a 0x-prefixed hex field.
func NewHex(b []byte) Hex {
	return Hex("0x" + hex.EncodeToString(b))
}

func (h Hex) String() string { return string(h) }

// Trim0x strips the 0x prefix if present.
func (h Hex) Trim0x() string {
	return strings.TrimPrefix(string(h), "0x")
}

// Bytes decodes the hex field into raw bytes.
func (h Hex) Bytes() ([]byte, error) {
	b, err := hex.DecodeString(h.Trim0x())
	if err != nil {
		return nil, errkind.Wrapf(errkind.Validation, "types: invalid hex field %q: %v", h, err)
	}
	return b, nil
}

// Uint32 parses the field as a base-16 uint32.
func (h Hex) Uint32() (uint32, error) {
	v, err := strconv.ParseUint(h.Trim0x(), 16, 32)
	if err != nil {
		return 0, errkind.Wrapf(errkind.Validation, "types: invalid hex uint32 %q: %v", h, err)
	}
	return uint32(v), nil
}

// Uint64 parses the field as a base-16 uint64.
func (h Hex) Uint64() (uint64, error) {
	v, err := strconv.ParseUint(h.Trim0x(), 16, 64)
	if err != nil {
		return 0, errkind.Wrapf(errkind.Validation, "types: invalid hex uint64 %q: %v", h, err)
	}
	return v, nil
}

// Uint128 parses the field as a base-16 unsigned 128-bit value.
func (h Hex) Uint128() (Uint128, error) {
	return Uint128FromHex(h.Trim0x())
}
