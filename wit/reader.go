package wit

import (
	"unicode/utf8"

	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/internal/leb"
)

// Reader is a stateful cursor over a custom-section payload (or a
// length-prefixed slice of one). It borrows the byte slice it is
// constructed with; callers must not mutate that slice while the Reader
// (or any cursor carved from it with sub) is still in use.
//
// Every position it reports is an absolute offset within the containing
// wasm file, computed from the base offset supplied at construction.
type Reader struct {
	data []byte
	off  int
	base int
}

// NewReader wraps data, a slice that begins at absolute file offset
// baseOffset, for positional cursor reads.
func NewReader(data []byte, baseOffset int) *Reader {
	return &Reader{data: data, base: baseOffset}
}

// Pos returns the absolute byte offset of the cursor.
func (r *Reader) Pos() int { return r.base + r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// AtEnd reports whether the cursor has consumed the entire slice.
func (r *Reader) AtEnd() bool { return r.off >= len(r.data) }

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, decodeErr(witerr.KindUnexpectedEOF, r.Pos(), "unexpected end of section")
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	start := r.Pos()
	buf, err := leb.ReadBytes(r, n)
	if err != nil {
		return nil, decodeErr(witerr.KindUnexpectedEOF, start, "need %d bytes, have %d", n, r.Pos()-start+r.Remaining())
	}
	return buf, nil
}

// ReadU32 reads a ULEB128-encoded uint32, mapping the leb package's two
// failure modes onto the spec's UlebInvalid / UlebTooBig error kinds.
func (r *Reader) ReadU32() (uint32, error) {
	start := r.Pos()
	v, err := leb.ReadUint32(r)
	if err == nil {
		return v, nil
	}
	switch err {
	case leb.ErrTooManyBytes:
		return 0, decodeErr(witerr.KindUlebInvalid, start, "leb128 sequence too long")
	case leb.ErrOverflow:
		return 0, decodeErr(witerr.KindUlebTooBig, start, "leb128 value exceeds 2^32-1")
	default:
		return 0, err // already a positional error from ReadByte (EOF)
	}
}

// ReadString reads a length-prefixed UTF-8 string. On invalid UTF-8 the
// cursor rewinds to the position at which the string began, so the
// reported error offset identifies the start of the string as spec.md
// §4.1 requires.
func (r *Reader) ReadString() (string, error) {
	stringStart := r.off
	length, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		absStart := r.base + stringStart
		r.off = stringStart
		return "", decodeErr(witerr.KindInvalidUTF8, absStart, "invalid utf-8 in length-prefixed string")
	}
	return string(data), nil
}

// sub carves out exactly n bytes as a fresh Reader whose base offset is
// this cursor's current absolute position, so that errors raised while
// parsing the sub-slice still report absolute file offsets.
func (r *Reader) sub(n int) (*Reader, error) {
	data, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return NewReader(data, r.Pos()-n), nil
}

// expectExhausted returns TrailingBytes if the cursor has not consumed
// its entire slice.
func (r *Reader) expectExhausted() error {
	if !r.AtEnd() {
		return decodeErr(witerr.KindTrailingBytes, r.Pos(), "%d trailing byte(s)", r.Remaining())
	}
	return nil
}
