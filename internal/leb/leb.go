// Package leb implements unsigned LEB128 varint encoding, the integer
// representation used throughout the wasm-interface-types binary format.
//
// The functions here are deliberately stateless: they know nothing about
// absolute file offsets. Position tracking and error-offset reporting are
// the responsibility of the stateful cursor in package wit, which calls
// into this package for the raw varint mechanics.
package leb

import (
	"bytes"
	"errors"
	"io"
)

// ErrOverflow is returned when a ULEB128 value would exceed 32 bits, which
// spec.md caps every index and count at (2^32 - 1).
var ErrOverflow = errors.New("leb128: value exceeds 32 bits")

// ErrTooManyBytes is returned when a ULEB128 sequence is still carrying
// the continuation bit after the maximum number of groups a 32-bit value
// can need, i.e. the encoding never terminates within a sane length.
var ErrTooManyBytes = errors.New("leb128: too many continuation bytes")

// maxULEBBytes is the number of continuation groups needed to cover 32
// bits of payload (ceil(32/7) == 5).
const maxULEBBytes = 5

// ReadUint32 decodes an unsigned LEB128 value from r, reading one byte at
// a time until the continuation bit (0x80) is clear.
func ReadUint32(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; ; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == maxULEBBytes {
			return 0, ErrTooManyBytes
		}
		chunk := uint32(b & 0x7f)
		if i == maxULEBBytes-1 && chunk > 0x0f {
			// Fifth byte may only contribute the top 4 bits of a 32-bit value.
			return 0, ErrOverflow
		}
		result |= chunk << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// WriteUint32 encodes v as unsigned LEB128 into w.
func WriteUint32(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// EncodeUint32 returns the ULEB128 encoding of v as a standalone slice.
func EncodeUint32(v uint32) []byte {
	var buf bytes.Buffer
	WriteUint32(&buf, v)
	return buf.Bytes()
}

// ReadBytes reads exactly n bytes from r one at a time, matching the
// byte-at-a-time contract of the position-tracked cursor that wraps it.
func ReadBytes(r io.ByteReader, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}
