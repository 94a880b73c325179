package wit

import (
	witerr "github.com/wippyai/wasm-interface-types/errors"
)

// Decode parses a wasm-interface-types custom section payload (the bytes
// immediately following the section name, not including the "custom
// section" wrapper itself). baseOffset is the absolute byte offset of
// data[0] within the containing wasm file and is folded into every
// reported error position.
func Decode(data []byte, baseOffset int) (*Module, error) {
	r := NewReader(data, baseOffset)

	version, err := r.ReadString()
	if err != nil {
		return nil, witerr.Wrap(witerr.PhaseDecode, "read version header", err)
	}
	if version != SchemaVersion {
		return nil, invalidVersionErr(baseOffset, version)
	}

	m := &Module{}
	for !r.AtEnd() {
		idPos := r.Pos()
		id, err := r.ReadByte()
		if err != nil {
			return nil, witerr.Wrap(witerr.PhaseDecode, "read subsection id", err)
		}
		length, err := r.ReadU32()
		if err != nil {
			return nil, witerr.Wrap(witerr.PhaseDecode, "read subsection length", err)
		}
		sub, err := r.sub(int(length))
		if err != nil {
			return nil, witerr.Wrap(witerr.PhaseDecode, "read subsection body", err)
		}
		m.subsecOrder = append(m.subsecOrder, id)

		switch id {
		case SubsecType:
			err = decodeTypeSubsection(sub, m)
		case SubsecImport:
			err = decodeImportSubsection(sub, m)
		case SubsecFunc:
			err = decodeFuncSubsection(sub, m)
		case SubsecExport:
			err = decodeExportSubsection(sub, m)
		case SubsecImplement:
			err = decodeImplementSubsection(sub, m)
		default:
			err = decodeErr(witerr.KindInvalidSection, idPos, "unknown subsection id %d", id)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeTypeSubsection(r *Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return witerr.Wrap(witerr.PhaseDecode, "read type count", err)
	}
	for i := uint32(0); i < count; i++ {
		t, err := decodeAdapterType(r)
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse type", err)
		}
		m.Types = append(m.Types, t)
	}
	return r.expectExhausted()
}

func decodeAdapterType(r *Reader) (AdapterType, error) {
	var t AdapterType
	nparams, err := r.ReadU32()
	if err != nil {
		return t, err
	}
	t.Params = make([]Param, nparams)
	for i := range t.Params {
		vt, err := decodeValType(r)
		if err != nil {
			return t, err
		}
		t.Params[i] = Param{Type: vt}
	}
	nresults, err := r.ReadU32()
	if err != nil {
		return t, err
	}
	t.Results = make([]ValType, nresults)
	for i := range t.Results {
		vt, err := decodeValType(r)
		if err != nil {
			return t, err
		}
		t.Results[i] = vt
	}
	return t, nil
}

func decodeValType(r *Reader) (ValType, error) {
	pos := r.Pos()
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b > maxValType {
		return 0, decodeErr(witerr.KindInvalidValType, pos, "byte 0x%02x", b)
	}
	return ValType(b), nil
}

func decodeImportSubsection(r *Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return witerr.Wrap(witerr.PhaseDecode, "read import count", err)
	}
	for i := uint32(0); i < count; i++ {
		mod, err := r.ReadString()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse import module", err)
		}
		name, err := r.ReadString()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse import name", err)
		}
		typeIdx, err := r.ReadU32()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse import type index", err)
		}
		m.Imports = append(m.Imports, Import{Module: mod, Name: name, TypeIdx: typeIdx})
	}
	return r.expectExhausted()
}

func decodeFuncSubsection(r *Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return witerr.Wrap(witerr.PhaseDecode, "read function count", err)
	}
	for i := uint32(0); i < count; i++ {
		bodyLen, err := r.ReadU32()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "read function body length", err)
		}
		body, err := r.sub(int(bodyLen))
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "read function body", err)
		}
		fn, err := decodeFunction(body)
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse function body", err)
		}
		m.Funcs = append(m.Funcs, fn)
	}
	return r.expectExhausted()
}

func decodeFunction(r *Reader) (Function, error) {
	var fn Function
	typeIdx, err := r.ReadU32()
	if err != nil {
		return fn, err
	}
	fn.TypeIdx = typeIdx

	for {
		pos := r.Pos()
		opByte, err := r.ReadByte()
		if err != nil {
			return fn, err
		}
		op := Opcode(opByte)
		if op == OpEnd {
			// The terminator must be the very last byte of the body.
			return fn, r.expectExhausted()
		}
		info, ok := LookupOpcode(op)
		if !ok {
			return fn, decodeErr(witerr.KindInvalidInstr, pos, "byte 0x%02x", opByte)
		}
		instr := Instruction{Op: op}
		switch info.Args {
		case Args1:
			instr.Imm.A, err = r.ReadU32()
			if err != nil {
				return fn, err
			}
		case Args2:
			instr.Imm.A, err = r.ReadU32()
			if err != nil {
				return fn, err
			}
			instr.Imm.B, err = r.ReadU32()
			if err != nil {
				return fn, err
			}
		}
		fn.Instructions = append(fn.Instructions, instr)
	}
}

func decodeExportSubsection(r *Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return witerr.Wrap(witerr.PhaseDecode, "read export count", err)
	}
	for i := uint32(0); i < count; i++ {
		funcIdx, err := r.ReadU32()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse export function index", err)
		}
		name, err := r.ReadString()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse export name", err)
		}
		m.Exports = append(m.Exports, Export{Name: name, FuncIdx: funcIdx})
	}
	return r.expectExhausted()
}

func decodeImplementSubsection(r *Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return witerr.Wrap(witerr.PhaseDecode, "read implement count", err)
	}
	for i := uint32(0); i < count; i++ {
		coreFn, err := r.ReadU32()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse implement core function", err)
		}
		adapterFn, err := r.ReadU32()
		if err != nil {
			return witerr.Wrap(witerr.PhaseDecode, "parse implement adapter function", err)
		}
		m.Implements = append(m.Implements, Implement{CoreFuncIdx: coreFn, AdapterFuncIdx: adapterFn})
	}
	return r.expectExhausted()
}
