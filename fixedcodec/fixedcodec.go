// Package fixedcodec implements the deterministic binary layout persisted
// records use: fixed-size integers at fixed offsets (little-endian),
// length-prefixed variable fields, and collections in sorted order. The
// host may hash or diff these encodings, so re-serializing a decoded
// record must be byte-identical.
package fixedcodec

import (
	"encoding/binary"
	"errors"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/types"
)

// ErrTruncated reports a record shorter than its declared layout.
var ErrTruncated = errors.New("fixedcodec: truncated record")

// ErrTrailing reports unconsumed bytes after a complete decode.
var ErrTrailing = errors.New("fixedcodec: trailing bytes")

// Writer appends fixed-layout fields to a buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded record.
func (w *Writer) Bytes() []byte { return w.buf }

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Uint64 appends a little-endian uint64.
func (w *Writer) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Uint128 appends a 16-byte little-endian amount.
func (w *Writer) Uint128(v types.Uint128) {
	w.buf = append(w.buf, v.LE()...)
}

// Hash appends 32 raw hash bytes.
func (w *Writer) Hash(h types.Hash) {
	w.buf = append(w.buf, h[:]...)
}

// Address appends 20 raw address bytes.
func (w *Writer) Address(a types.Address) {
	w.buf = append(w.buf, a[:]...)
}

// String appends a uint32 length prefix followed by the raw bytes.
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Reader consumes fixed-layout fields from a buffer. The first layout
// violation latches into err; callers check Err once after decoding.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader wraps an encoded record.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Broken reports whether a layout violation has latched. Unlike Err it
// does not treat remaining bytes as a violation, so decoders of
// variable-length collections check it between entries and call Err
// exactly once after the last field.
func (r *Reader) Broken() bool { return r.err != nil }

// Err returns the first layout violation, including trailing bytes when
// the record is longer than its declared layout.
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return errkind.Wrap(errkind.Validation, ErrTrailing)
	}
	return nil
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = errkind.Wrap(errkind.Validation, ErrTruncated)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Uint128 reads a 16-byte little-endian amount.
func (r *Reader) Uint128() types.Uint128 {
	b := r.take(types.Uint128Len)
	if b == nil {
		return types.Uint128{}
	}
	v, err := types.Uint128FromLE(b)
	if err != nil {
		r.err = err
		return types.Uint128{}
	}
	return v
}

// Hash reads 32 raw hash bytes.
func (r *Reader) Hash() types.Hash {
	var h types.Hash
	b := r.take(types.HashLen)
	if b != nil {
		copy(h[:], b)
	}
	return h
}

// Address reads 20 raw address bytes.
func (r *Reader) Address() types.Address {
	var a types.Address
	b := r.take(types.AddressLen)
	if b != nil {
		copy(a[:], b)
	}
	return a
}

// String reads a uint32 length prefix and the following bytes.
func (r *Reader) String() string {
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}
