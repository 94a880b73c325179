package wit

// ValType is an interface value type: the closed set of types that can
// appear on an adapter function's symbolic stack. The byte values match
// the binary encoding in spec.md §3/§4.2 exactly and must not be
// reordered.
type ValType byte

const (
	S8        ValType = 0x00
	S16       ValType = 0x01
	S32       ValType = 0x02
	S64       ValType = 0x03
	U8        ValType = 0x04
	U16       ValType = 0x05
	U32       ValType = 0x06
	U64       ValType = 0x07
	F32       ValType = 0x08
	F64       ValType = 0x09
	String    ValType = 0x0a
	Externref ValType = 0x0b
	I32       ValType = 0x0c
	I64       ValType = 0x0d
)

// maxValType is the highest valid ValType byte, used for range checks.
const maxValType = byte(I64)

var valTypeNames = map[ValType]string{
	S8: "s8", S16: "s16", S32: "s32", S64: "s64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
	String: "string", Externref: "externref",
	I32: "i32", I64: "i64",
}

func (v ValType) String() string {
	if s, ok := valTypeNames[v]; ok {
		return s
	}
	return "invalid"
}

// IsHostType reports whether v has a one-to-one counterpart on the host
// wasm side (i32, i64, f32, f64, externref).
func (v ValType) IsHostType() bool {
	switch v {
	case I32, I64, F32, F64, Externref:
		return true
	default:
		return false
	}
}

// AdapterType is an ordered sequence of parameter and result value types.
// Parameter names exist only for the textual surface and never
// participate in equality (see Key).
type AdapterType struct {
	Params  []Param
	Results []ValType
}

// Param is one parameter of an AdapterType, with an optional surface name.
type Param struct {
	Name string // empty when unnamed or when decoded from binary
	Type ValType
}

// ParamTypes returns just the value types of the parameter list, in order.
func (t AdapterType) ParamTypes() []ValType {
	out := make([]ValType, len(t.Params))
	for i, p := range t.Params {
		out[i] = p.Type
	}
	return out
}

// TypeKey is the canonical, name-erased form of an AdapterType used to
// deduplicate synthesized types during type-use expansion (spec.md §4.4,
// §9: "the canonical key intentionally ignores parameter names").
type TypeKey struct {
	Params  string
	Results string
}

// Key computes t's canonical deduplication key.
func (t AdapterType) Key() TypeKey {
	pb := make([]byte, len(t.Params))
	for i, p := range t.Params {
		pb[i] = byte(p.Type)
	}
	rb := make([]byte, len(t.Results))
	for i, r := range t.Results {
		rb[i] = byte(r)
	}
	return TypeKey{Params: string(pb), Results: string(rb)}
}

// Equal reports whether two AdapterTypes have identical, ordered
// parameter and result value types. Parameter names are ignored.
func (t AdapterType) Equal(other AdapterType) bool {
	return t.Key() == other.Key()
}

// Import is a triple (module name, field name, adapter-type index).
// Imports are functions only.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Export is a pair (export name, adapter-function index).
type Export struct {
	Name   string
	FuncIdx uint32
}

// Function is an (adapter-type index, instruction list) pair. The
// instruction list excludes the terminating End opcode, which the reader
// consumes and the writer re-synthesizes.
type Function struct {
	TypeIdx      uint32
	Instructions []Instruction
}

// Implement binds a core (host) imported function to the adapter function
// that provides its implementation.
type Implement struct {
	CoreFuncIdx    uint32
	AdapterFuncIdx uint32
}

// Instruction is a single adapter-function opcode plus its immediate
// operand(s), if any. The zero value of Imm is used by the conversion
// opcodes, which carry no operand.
type Instruction struct {
	Op  Opcode
	Imm Imm
}

// Imm holds the operand(s) of an instruction. Only the fields relevant to
// Op are populated; see the Opcode table in instructions.go.
type Imm struct {
	A uint32 // arg index / host-func index / host-memory index / malloc host-func index / adapter-func index
	B uint32 // second operand (string-to-memory's memory index)
}

// Module is the in-memory model of an interface module decoded from, or
// lowered into, the binary form described by spec.md §6.
type Module struct {
	Types      []AdapterType
	Imports    []Import
	Funcs      []Function
	Exports    []Export
	Implements []Implement

	// subsecOrder records the subsection ids in the order they were
	// physically encountered during Decode, so the validator (not the
	// decoder) can enforce the strictly-ascending ordering rule without
	// re-parsing the payload. A Module built by the surface lowerer
	// instead of Decode leaves this nil; Validate treats a nil order as
	// the canonical one (no violation possible).
	subsecOrder []byte
}

// NumAdapterFuncs returns the total size of the adapter-function
// namespace: imports first, then locally defined functions.
func (m *Module) NumAdapterFuncs() int {
	return len(m.Imports) + len(m.Funcs)
}

// FuncType returns the AdapterType of the i'th entry in the combined
// adapter-function namespace (imports first, then local functions).
func (m *Module) FuncType(i uint32) (AdapterType, bool) {
	ni := uint32(len(m.Imports))
	switch {
	case i < ni:
		return m.typeAt(m.Imports[i].TypeIdx)
	case i < ni+uint32(len(m.Funcs)):
		return m.typeAt(m.Funcs[i-ni].TypeIdx)
	default:
		return AdapterType{}, false
	}
}

func (m *Module) typeAt(idx uint32) (AdapterType, bool) {
	if idx >= uint32(len(m.Types)) {
		return AdapterType{}, false
	}
	return m.Types[idx], true
}

// SchemaVersion is the hard-matched version string embedded in the
// header of every wasm-interface-types custom section.
const SchemaVersion = "0.1.0"

// SectionName is the custom section name carrying the payload.
const SectionName = "wasm-interface-types"

// Subsection ids, in their required strictly-ascending order.
const (
	SubsecType byte = iota
	SubsecImport
	SubsecFunc
	SubsecExport
	SubsecImplement
)
