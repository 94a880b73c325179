package host

import "fmt"

// nameSectionName is the reserved custom section carrying the debug name
// subsections (function names, in particular) that the printer uses to
// recover symbolic identifiers for host-side indices.
const nameSectionName = "name"

const nameSubsecFunction byte = 1

// FuncNames returns the function-index -> name map carried by the core
// module's "name" custom section, if present. A module with none (or an
// unparseable one) yields a nil map, never an error: symbolic names are
// a printing convenience, not a correctness requirement.
func (m *Module) FuncNames() map[uint32]string {
	for _, cs := range m.CustomSections {
		if cs.Name != nameSectionName {
			continue
		}
		names, ok := parseFunctionNameSubsection(cs.Data)
		if ok {
			return names
		}
	}
	return nil
}

func parseFunctionNameSubsection(data []byte) (map[uint32]string, bool) {
	r := newReader(data)
	for !r.AtEnd() {
		id, err := r.ReadByte()
		if err != nil {
			return nil, false
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, false
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, false
		}
		if id != nameSubsecFunction {
			continue
		}
		sr := newReader(body)
		count, err := sr.ReadU32()
		if err != nil {
			return nil, false
		}
		names := make(map[uint32]string, count)
		for i := uint32(0); i < count; i++ {
			idx, err := sr.ReadU32()
			if err != nil {
				return nil, false
			}
			name, err := sr.ReadName()
			if err != nil {
				return nil, false
			}
			names[idx] = name
		}
		return names, true
	}
	return nil, false
}

// Section returns the raw payload of the first custom section named
// name, and whether one was found.
func (m *Module) Section(name string) ([]byte, bool) {
	for _, cs := range m.CustomSections {
		if cs.Name == name {
			return cs.Data, true
		}
	}
	return nil, false
}

// FuncType returns the core signature of the i'th function in the
// module's combined function index space (imports first).
func (m *Module) FuncType(i uint32) (HostType, bool) {
	if int(i) >= len(m.Funcs) {
		return HostType{}, false
	}
	return m.TypeAt(m.Funcs[i].TypeIdx)
}

// TypeAt returns the idx'th entry of the module's type section.
func (m *Module) TypeAt(idx uint32) (HostType, bool) {
	if int(idx) >= len(m.Types) {
		return HostType{}, false
	}
	return m.Types[idx], true
}

// FuncName renders a symbolic name for function index i, falling back to
// a positional placeholder when no name-section entry exists.
func (m *Module) FuncName(i uint32) string {
	if names := m.FuncNames(); names != nil {
		if n, ok := names[i]; ok {
			return n
		}
	}
	return fmt.Sprintf("func-%d", i)
}

// IsImported reports whether function index i originates from the
// import section (as opposed to being locally defined).
func (m *Module) IsImported(i uint32) bool {
	return int(i) < len(m.Funcs) && m.Funcs[i].Origin == OriginImported
}

// ResolveFunc, ResolveMemory, and ResolveType satisfy the printer's
// name-resolution capability interface. Only function names are backed
// by a real name subsection today; memory and type names have no core
// "name" subsection entries defined by the WASM spec, so they always
// report "no name known" and the printer falls back to numeric indices.
func (m *Module) ResolveFunc(idx uint32) (string, bool) {
	names := m.FuncNames()
	if names == nil {
		return "", false
	}
	name, ok := names[idx]
	return name, ok
}

func (m *Module) ResolveMemory(uint32) (string, bool) { return "", false }
func (m *Module) ResolveType(uint32) (string, bool)   { return "", false }
