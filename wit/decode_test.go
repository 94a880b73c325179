package wit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleModule() *Module {
	return &Module{
		Types: []AdapterType{
			{Params: []Param{{Name: "s", Type: String}}, Results: []ValType{String}},
			{Results: []ValType{S32}},
		},
		Imports: []Import{
			{Module: "host", Name: "log", TypeIdx: 1},
		},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
					{Op: OpMemoryToString, Imm: Imm{A: 0}},
					{Op: OpCallCore, Imm: Imm{A: 0}},
				},
			},
		},
		Exports: []Export{
			{Name: "greet", FuncIdx: 1},
		},
		Implements: []Implement{
			{CoreFuncIdx: 0, AdapterFuncIdx: 0},
		},
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	want := sampleModule()
	payload := Encode(want)

	got, err := Decode(payload, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{SubsecType, SubsecImport, SubsecFunc, SubsecExport, SubsecImplement}, got.subsecOrder)
	got.subsecOrder = nil
	require.Equal(t, want, got)

	again := Encode(got)
	require.Equal(t, payload, again, "encode must be deterministic on a decoded module")
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	w := NewWriter()
	w.WriteString("9.9.9")
	_, err := Decode(w.Bytes(), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_version")
}

func TestDecodeRejectsUnknownSubsection(t *testing.T) {
	w := NewWriter()
	w.WriteString(SchemaVersion)
	w.WriteByte(0x09)
	w.WriteU32(0)
	_, err := Decode(w.Bytes(), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_section")
}

func TestDecodeRejectsTrailingBytesInSubsection(t *testing.T) {
	w := NewWriter()
	w.WriteString(SchemaVersion)
	w.WriteByte(SubsecType)
	// length covers 2 bytes: a zero type count plus one stray byte that
	// trips expectExhausted.
	w.WriteU32(2)
	w.WriteByte(0x00) // count = 0
	w.WriteByte(0xff) // trailing byte
	_, err := Decode(w.Bytes(), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trailing_bytes")
}

func TestDecodeRejectsInvalidValType(t *testing.T) {
	w := NewWriter()
	w.WriteString(SchemaVersion)
	w.WriteByte(SubsecType)
	writeSized(w, func(w *Writer) {
		w.WriteU32(1)    // one type
		w.WriteU32(1)    // one param
		w.WriteByte(0xee) // invalid valtype byte
		w.WriteU32(0)    // zero results
	})
	_, err := Decode(w.Bytes(), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_valtype")
}

func TestDecodeRejectsInvalidInstruction(t *testing.T) {
	w := NewWriter()
	w.WriteString(SchemaVersion)
	w.WriteByte(SubsecFunc)
	writeSized(w, func(w *Writer) {
		w.WriteU32(1) // one function
		writeSized(w, func(w *Writer) {
			w.WriteU32(0)    // type idx
			w.WriteByte(0x7f) // not a valid opcode
		})
	})
	_, err := Decode(w.Bytes(), 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_instruction")
}
