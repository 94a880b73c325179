package wit

import witerr "github.com/wippyai/wasm-interface-types/errors"

// decodeErr builds a *errors.Error for the decode phase at the given
// absolute byte offset, matching the taxonomy in spec.md §4.2.
func decodeErr(kind witerr.Kind, offset int, detail string, args ...any) error {
	b := witerr.New(witerr.PhaseDecode, kind).Offset(offset)
	if detail != "" {
		b.Detail(detail, args...)
	}
	return b.Build()
}

// validateErr builds a *errors.Error for the validate phase, scoped to a
// dotted path (e.g. "func.2.instr.5").
func validateErr(kind witerr.Kind, path []string, detail string, args ...any) error {
	b := witerr.New(witerr.PhaseValidate, kind).Path(path...)
	if detail != "" {
		b.Detail(detail, args...)
	}
	return b.Build()
}

// typeMismatch is a validateErr convenience for a stack slot holding the
// wrong type; its message reads
// "[validate] type_mismatch at func.0: expected i64, found i32".
func typeMismatch(path []string, found, expected ValType) error {
	return witerr.TypeMismatch(witerr.PhaseValidate, path, found.String(), expected.String())
}

// invalidVersionErr reports a version mismatch at the start of the
// section, per spec.md §4.2 ("reporting position zero of the section").
func invalidVersionErr(sectionStart int, found string) error {
	return witerr.New(witerr.PhaseDecode, witerr.KindInvalidVersion).
		Offset(sectionStart).
		Detail("found version %q, want %q", found, SchemaVersion).
		Build()
}
