package wit

// Encode serializes m into the wasm-interface-types custom-section
// payload: the version header followed by each non-empty subsection, in
// the strictly ascending id order the format requires. Subsections with
// zero entries are omitted entirely rather than written with a zero
// count, matching the writer's behavior in the original implementation.
func Encode(m *Module) []byte {
	w := NewWriter()
	w.WriteString(SchemaVersion)

	if len(m.Types) > 0 {
		w.WriteByte(SubsecType)
		writeSized(w, func(w *Writer) { encodeTypeSubsection(w, m) })
	}
	if len(m.Imports) > 0 {
		w.WriteByte(SubsecImport)
		writeSized(w, func(w *Writer) { encodeImportSubsection(w, m) })
	}
	if len(m.Funcs) > 0 {
		w.WriteByte(SubsecFunc)
		writeSized(w, func(w *Writer) { encodeFuncSubsection(w, m) })
	}
	if len(m.Exports) > 0 {
		w.WriteByte(SubsecExport)
		writeSized(w, func(w *Writer) { encodeExportSubsection(w, m) })
	}
	if len(m.Implements) > 0 {
		w.WriteByte(SubsecImplement)
		writeSized(w, func(w *Writer) { encodeImplementSubsection(w, m) })
	}

	return w.Bytes()
}

// EncodeCustomSection wraps Encode's payload in a standard wasm custom
// section: the 0x00 section id, a ULEB128 length, the section-name
// string, then the payload itself.
func EncodeCustomSection(m *Module) []byte {
	payload := Encode(m)

	w := NewWriter()
	w.WriteByte(0x00)
	writeSized(w, func(w *Writer) {
		w.WriteString(SectionName)
		w.WriteRaw(payload)
	})
	return w.Bytes()
}

func encodeTypeSubsection(w *Writer, m *Module) {
	w.WriteU32(uint32(len(m.Types)))
	for _, t := range m.Types {
		encodeAdapterType(w, t)
	}
}

func encodeAdapterType(w *Writer, t AdapterType) {
	w.WriteU32(uint32(len(t.Params)))
	for _, p := range t.Params {
		w.WriteByte(byte(p.Type))
	}
	w.WriteU32(uint32(len(t.Results)))
	for _, r := range t.Results {
		w.WriteByte(byte(r))
	}
}

func encodeImportSubsection(w *Writer, m *Module) {
	w.WriteU32(uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		w.WriteString(imp.Module)
		w.WriteString(imp.Name)
		w.WriteU32(imp.TypeIdx)
	}
}

func encodeFuncSubsection(w *Writer, m *Module) {
	w.WriteU32(uint32(len(m.Funcs)))
	for _, fn := range m.Funcs {
		writeSized(w, func(w *Writer) { encodeFunction(w, fn) })
	}
}

func encodeFunction(w *Writer, fn Function) {
	w.WriteU32(fn.TypeIdx)
	for _, instr := range fn.Instructions {
		w.WriteByte(byte(instr.Op))
		info, ok := LookupOpcode(instr.Op)
		if !ok {
			continue // unreachable for a Module built via Decode or the surface lowerer
		}
		switch info.Args {
		case Args1:
			w.WriteU32(instr.Imm.A)
		case Args2:
			w.WriteU32(instr.Imm.A)
			w.WriteU32(instr.Imm.B)
		}
	}
	w.WriteByte(byte(OpEnd))
}

func encodeExportSubsection(w *Writer, m *Module) {
	w.WriteU32(uint32(len(m.Exports)))
	for _, exp := range m.Exports {
		w.WriteU32(exp.FuncIdx)
		w.WriteString(exp.Name)
	}
}

func encodeImplementSubsection(w *Writer, m *Module) {
	w.WriteU32(uint32(len(m.Implements)))
	for _, impl := range m.Implements {
		w.WriteU32(impl.CoreFuncIdx)
		w.WriteU32(impl.AdapterFuncIdx)
	}
}
