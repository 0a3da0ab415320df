package types

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hackathon-cross/muta-cross/errkind"
)

// Uint128Len is the byte length of a serialized amount.
const Uint128Len = 16

// Arithmetic failures. Every detected overflow or underflow aborts the
// surrounding call with no persisted effect.
var (
	ErrOverflow  = errors.New("types: u128 overflow")
	ErrUnderflow = errors.New("types: u128 underflow")
)

// Uint128 is an unsigned 128-bit amount. All arithmetic is explicit and
// checked; there is no wraparound path.
type Uint128 struct {
	n uint256.Int
}

// U128 builds an amount from a uint64.
func U128(v uint64) Uint128 {
	var u Uint128
	u.n.SetUint64(v)
	return u
}

// Uint128FromHex parses a base-16 amount, with or without the 0x prefix.
func Uint128FromHex(s string) (Uint128, error) {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		s = "0x" + s
	}
	n, err := uint256.FromHex(s)
	if err != nil {
		return Uint128{}, errkind.Wrapf(errkind.Validation, "types: invalid hex u128 %q: %v", s, err)
	}
	if n.BitLen() > 128 {
		return Uint128{}, errkind.Wrap(errkind.Arithmetic, ErrOverflow)
	}
	return Uint128{n: *n}, nil
}

// Uint128FromLE decodes a 16-byte little-endian amount, the layout foreign
// deposit cells and all persisted records carry.
func Uint128FromLE(b []byte) (Uint128, error) {
	if len(b) != Uint128Len {
		return Uint128{}, errkind.Wrapf(errkind.Validation, "types: u128 must be %d bytes, got %d", Uint128Len, len(b))
	}
	be := make([]byte, Uint128Len)
	for i := 0; i < Uint128Len; i++ {
		be[i] = b[Uint128Len-1-i]
	}
	var u Uint128
	u.n.SetBytes(be)
	return u, nil
}

// LE returns the 16-byte little-endian form.
func (u Uint128) LE() []byte {
	be := u.n.Bytes32()
	le := make([]byte, Uint128Len)
	for i := 0; i < Uint128Len; i++ {
		le[i] = be[31-i]
	}
	return le
}

// Add returns u+v, failing on overflow past 2^128-1.
func (u Uint128) Add(v Uint128) (Uint128, error) {
	var sum uint256.Int
	sum.Add(&u.n, &v.n)
	if sum.BitLen() > 128 {
		return Uint128{}, errkind.Wrap(errkind.Arithmetic, ErrOverflow)
	}
	return Uint128{n: sum}, nil
}

// Sub returns u-v, failing on underflow.
func (u Uint128) Sub(v Uint128) (Uint128, error) {
	if u.n.Lt(&v.n) {
		return Uint128{}, errkind.Wrap(errkind.Arithmetic, ErrUnderflow)
	}
	var d uint256.Int
	d.Sub(&u.n, &v.n)
	return Uint128{n: d}, nil
}

// Div returns the integer quotient u/d. Division by zero yields zero,
// matching uint256 semantics; callers validate the divisor.
func (u Uint128) Div(d uint64) Uint128 {
	var q uint256.Int
	q.Div(&u.n, uint256.NewInt(d))
	return Uint128{n: q}
}

// Cmp returns -1, 0 or 1 comparing u against v.
func (u Uint128) Cmp(v Uint128) int { return u.n.Cmp(&v.n) }

// Lt reports u < v.
func (u Uint128) Lt(v Uint128) bool { return u.n.Lt(&v.n) }

// IsZero reports whether the amount is zero.
func (u Uint128) IsZero() bool { return u.n.IsZero() }

// Eq reports u == v.
func (u Uint128) Eq(v Uint128) bool { return u.n.Eq(&v.n) }

// Uint64 returns the low 64 bits. Only safe for test fixtures and display.
func (u Uint128) Uint64() uint64 { return u.n.Uint64() }

// String renders the amount in decimal.
func (u Uint128) String() string { return u.n.Dec() }

// MarshalJSON renders the amount as a bare decimal number, the encoding the
// external call surface has always carried for u128 values.
func (u Uint128) MarshalJSON() ([]byte, error) {
	return []byte(u.n.Dec()), nil
}

// UnmarshalJSON accepts a decimal number or a quoted decimal string.
func (u *Uint128) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var n uint256.Int
	if err := n.SetFromDecimal(s); err != nil {
		return errkind.Wrap(errkind.Validation, fmt.Errorf("types: invalid u128 %q: %w", s, err))
	}
	if n.BitLen() > 128 {
		return errkind.Wrap(errkind.Arithmetic, ErrOverflow)
	}
	u.n = n
	return nil
}

// MaxUint128 returns the largest representable amount.
func MaxUint128() Uint128 {
	var n uint256.Int
	n.SetAllOne()
	n.Rsh(&n, 128)
	return Uint128{n: n}
}
