package wit

import (
	"bytes"
	"sync"

	"github.com/wippyai/wasm-interface-types/internal/leb"
)

// writerPool recycles the scratch buffers used to build subsection bodies
// before their length prefix is known, per spec.md §5.
var writerPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getScratch() *bytes.Buffer {
	buf := writerPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putScratch(buf *bytes.Buffer) {
	writerPool.Put(buf)
}

// Writer accumulates the binary encoding of a custom-section payload.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{buf: new(bytes.Buffer)} }

// Bytes returns the accumulated byte sequence.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// WriteByte appends a single raw byte.
func (w *Writer) WriteByte(b byte) { w.buf.WriteByte(b) }

// WriteRaw appends raw bytes verbatim.
func (w *Writer) WriteRaw(b []byte) { w.buf.Write(b) }

// WriteU32 appends v as ULEB128.
func (w *Writer) WriteU32(v uint32) { leb.WriteUint32(w.buf, v) }

// WriteString appends a length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf.WriteString(s)
}

// writeSized writes fn's output into a pooled scratch buffer, then appends
// its length prefix and content to w. This is how every subsection and
// function body gets its length-delimited framing without two passes over
// the same data.
func writeSized(w *Writer, fn func(w *Writer)) {
	scratch := getScratch()
	defer putScratch(scratch)

	inner := &Writer{buf: scratch}
	fn(inner)
	body := inner.Bytes()

	w.WriteU32(uint32(len(body)))
	w.WriteRaw(body)
}
