package host

import (
	"errors"
	"fmt"
)

const (
	magic   uint32 = 0x6d736100 // "\0asm"
	version uint32 = 0x01
)

// Core section ids, as defined by the WebAssembly binary format.
const (
	secCustom   byte = 0
	secType     byte = 1
	secImport   byte = 2
	secFunction byte = 3
	secTable    byte = 4
	secMemory   byte = 5
	secGlobal   byte = 6
	secExport   byte = 7
	secStart    byte = 8
	secElement  byte = 9
	secCode     byte = 10
	secData     byte = 11
	secDataCnt  byte = 12
	secTag      byte = 13
)

// HostValKind is a core value type as it appears in a function type's
// parameter and result lists. HostI32/I64/F32/F64/Externref are the only
// kinds the interface-types validator maps to interface types.
type HostValKind byte

const (
	HostI32 HostValKind = iota
	HostI64
	HostF32
	HostF64
	HostV128
	HostFuncref
	HostExternref
)

// HostType is the core signature of a function, by index in the module's
// combined type space.
type HostType struct {
	Params  []HostValKind
	Results []HostValKind
}

// ImportOrigin distinguishes a host-visible function by how it entered
// the module's function index space.
type ImportOrigin int

const (
	OriginImported ImportOrigin = iota
	OriginLocal
)

// HostFunc is one entry in the module's function index space (imports
// first, then locally defined functions, matching WASM's indexing rule).
type HostFunc struct {
	TypeIdx uint32
	Origin  ImportOrigin
	Module  string // set only when Origin == OriginImported
	Name    string // import field name, or empty for locally defined funcs
}

// CustomSection is a named, opaque blob carried by the module.
type CustomSection struct {
	Name string
	Data []byte
}

// Module is the trimmed view of a core WebAssembly module that the wit
// package's validator and printer consult.
type Module struct {
	Types          []HostType
	Funcs          []HostFunc
	MemoryCount    int
	CustomSections []CustomSection
}

// errInvalidMagic/errInvalidVersion are returned by Parse on a malformed
// module header.
var (
	errInvalidMagic   = errors.New("host module: invalid magic number")
	errInvalidVersion = errors.New("host module: unsupported binary version")
)

// Parse decodes the sections of a core WebAssembly module that the wit
// validator and printer need, skipping every other section by length.
func Parse(data []byte) (*Module, error) {
	r := newReader(data)

	got, err := r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("host module: read magic: %w", err)
	}
	if got != magic {
		return nil, errInvalidMagic
	}
	got, err = r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("host module: read version: %w", err)
	}
	if got != version {
		return nil, errInvalidVersion
	}

	m := &Module{}
	var pendingFuncTypes []uint32

	for !r.AtEnd() {
		id, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("host module: read section id: %w", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("host module: read section size: %w", err)
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("host module: read section body: %w", err)
		}
		sr := newReader(body)

		switch id {
		case secCustom:
			cs, err := parseCustomSection(sr)
			if err != nil {
				return nil, fmt.Errorf("host module: custom section: %w", err)
			}
			m.CustomSections = append(m.CustomSections, cs)
		case secType:
			types, err := parseTypeSection(sr)
			if err != nil {
				return nil, fmt.Errorf("host module: type section: %w", err)
			}
			m.Types = types
		case secImport:
			funcs, memCount, err := parseImportSection(sr)
			if err != nil {
				return nil, fmt.Errorf("host module: import section: %w", err)
			}
			m.Funcs = append(m.Funcs, funcs...)
			m.MemoryCount += memCount
		case secFunction:
			typeIdxs, err := parseFunctionSection(sr)
			if err != nil {
				return nil, fmt.Errorf("host module: function section: %w", err)
			}
			pendingFuncTypes = typeIdxs
		case secMemory:
			count, err := parseMemorySection(sr)
			if err != nil {
				return nil, fmt.Errorf("host module: memory section: %w", err)
			}
			m.MemoryCount += count
		default:
			// table, global, export, start, element, code, data, datacount,
			// tag: irrelevant to interface-types validation; already
			// consumed whole by the length-prefixed read above.
		}
	}

	for _, idx := range pendingFuncTypes {
		m.Funcs = append(m.Funcs, HostFunc{TypeIdx: idx, Origin: OriginLocal})
	}

	return m, nil
}

func parseCustomSection(r *reader) (CustomSection, error) {
	name, err := r.ReadName()
	if err != nil {
		return CustomSection{}, err
	}
	data, err := r.ReadBytes(r.r.Len())
	if err != nil {
		return CustomSection{}, err
	}
	return CustomSection{Name: name, Data: data}, nil
}

func parseTypeSection(r *reader) ([]HostType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	types := make([]HostType, count)
	for i := range types {
		form, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if form != 0x60 {
			return nil, fmt.Errorf("host module: unsupported type form 0x%02x", form)
		}
		params, err := readValKinds(r)
		if err != nil {
			return nil, err
		}
		results, err := readValKinds(r)
		if err != nil {
			return nil, err
		}
		types[i] = HostType{Params: params, Results: results}
	}
	return types, nil
}

func readValKinds(r *reader) ([]HostValKind, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]HostValKind, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		k, err := valKindFromByte(b)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

func valKindFromByte(b byte) (HostValKind, error) {
	switch b {
	case 0x7f:
		return HostI32, nil
	case 0x7e:
		return HostI64, nil
	case 0x7d:
		return HostF32, nil
	case 0x7c:
		return HostF64, nil
	case 0x7b:
		return HostV128, nil
	case 0x70:
		return HostFuncref, nil
	case 0x6f:
		return HostExternref, nil
	default:
		return 0, fmt.Errorf("host module: unrecognized value type byte 0x%02x", b)
	}
}

// importDescKind mirrors the WASM import-section entry tag.
const (
	descFunc   byte = 0x00
	descTable  byte = 0x01
	descMemory byte = 0x02
	descGlobal byte = 0x03
)

func parseImportSection(r *reader) ([]HostFunc, int, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, 0, err
	}
	var funcs []HostFunc
	memCount := 0
	for i := uint32(0); i < count; i++ {
		mod, err := r.ReadName()
		if err != nil {
			return nil, 0, err
		}
		name, err := r.ReadName()
		if err != nil {
			return nil, 0, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, 0, err
		}
		switch kind {
		case descFunc:
			typeIdx, err := r.ReadU32()
			if err != nil {
				return nil, 0, err
			}
			funcs = append(funcs, HostFunc{TypeIdx: typeIdx, Origin: OriginImported, Module: mod, Name: name})
		case descTable:
			if err := skipTableType(r); err != nil {
				return nil, 0, err
			}
		case descMemory:
			if _, err := readLimits(r); err != nil {
				return nil, 0, err
			}
			memCount++
		case descGlobal:
			if err := skipGlobalType(r); err != nil {
				return nil, 0, err
			}
		default:
			return nil, 0, fmt.Errorf("host module: unknown import kind 0x%02x", kind)
		}
	}
	return funcs, memCount, nil
}

func parseFunctionSection(r *reader) ([]uint32, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

func parseMemorySection(r *reader) (int, error) {
	count, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	for i := uint32(0); i < count; i++ {
		if _, err := readLimits(r); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}

func readLimits(r *reader) (struct{ Min, Max uint32 }, error) {
	var lim struct{ Min, Max uint32 }
	flags, err := r.ReadByte()
	if err != nil {
		return lim, err
	}
	lim.Min, err = r.ReadU32()
	if err != nil {
		return lim, err
	}
	if flags&0x01 != 0 {
		lim.Max, err = r.ReadU32()
		if err != nil {
			return lim, err
		}
	}
	return lim, nil
}

func skipTableType(r *reader) error {
	if _, err := r.ReadByte(); err != nil { // reftype
		return err
	}
	_, err := readLimits(r)
	return err
}

func skipGlobalType(r *reader) error {
	if _, err := r.ReadByte(); err != nil { // valtype
		return err
	}
	_, err := r.ReadByte() // mutability
	return err
}
