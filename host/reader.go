package host

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

// errOverflow is returned when a ULEB128 value runs past 32 bits.
var errOverflow = errors.New("leb128: overflow")

// reader is a position-tracked cursor over a core module byte slice,
// trimmed to the subset of WASM's LEB128/name primitives this package
// needs.
type reader struct {
	r   *bytes.Reader
	pos int
}

func newReader(data []byte) *reader {
	return &reader{r: bytes.NewReader(data)}
}

func (r *reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

func (r *reader) ReadBytes(n int) ([]byte, error) {
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

func (r *reader) Skip(n int) error {
	_, err := r.ReadBytes(n)
	return err
}

func (r *reader) ReadU32() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift == 28 && b&0x70 != 0 {
			// Fifth byte may only contribute the top 4 bits of a 32-bit value.
			return 0, r.wrapErr(errOverflow)
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, r.wrapErr(errOverflow)
		}
	}
}

func (r *reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

func (r *reader) ReadName() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", r.wrapErr(fmt.Errorf("invalid utf-8 in name"))
	}
	return string(data), nil
}

func (r *reader) AtEnd() bool {
	return r.r.Len() == 0
}

func (r *reader) wrapErr(err error) error {
	return fmt.Errorf("host module: at byte %d: %w", r.pos, err)
}
