package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pipeline stage produced the error.
type Phase string

const (
	PhaseDecode   Phase = "decode"   // binary custom-section reader
	PhaseEncode   Phase = "encode"   // binary custom-section writer
	PhaseParse    Phase = "parse"    // surface text tokenizer/s-expr parser
	PhaseLower    Phase = "lower"    // de-inlining and type-use expansion
	PhaseResolve  Phase = "resolve"  // symbolic name resolution
	PhaseValidate Phase = "validate" // type-directed stack validation
	PhasePrint    Phase = "print"    // pretty-printer
)

// Kind categorizes the error.
type Kind string

const (
	KindInvalidVersion   Kind = "invalid_version"
	KindUlebTooBig       Kind = "uleb_too_big"
	KindUlebInvalid      Kind = "uleb_invalid"
	KindUnexpectedEOF    Kind = "unexpected_eof"
	KindInvalidUTF8      Kind = "invalid_utf8"
	KindInvalidSection   Kind = "invalid_section"
	KindInvalidValType   Kind = "invalid_valtype"
	KindInvalidInstr     Kind = "invalid_instruction"
	KindExpected         Kind = "expected"
	KindTrailingBytes    Kind = "trailing_bytes"
	KindOutOfRange       Kind = "out_of_range"
	KindAmbiguousImport  Kind = "ambiguous_import"
	KindImportNotFound   Kind = "import_not_found"
	KindUnresolvedName   Kind = "unresolved_name"
	KindTypeUseMismatch  Kind = "type_use_mismatch"
	KindOutOfOrder       Kind = "out_of_order"
	KindDuplicateExport  Kind = "duplicate_export"
	KindTypeMismatch     Kind = "type_mismatch"
	KindNotImported      Kind = "not_imported"
	KindStackNotEmpty    Kind = "stack_not_empty"
	KindBadSignature     Kind = "bad_signature"
	KindInvalidData      Kind = "invalid_data"
)

// Error is the structured error type used throughout the toolchain.
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	WitType string
	Detail  string
	Path    []string
	Offset  int
	HasPos  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.HasPos {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WitType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.WitType != "" {
			b.WriteString("expected ")
			b.WriteString(e.WitType)
			b.WriteString(", found ")
			b.WriteString(e.GoType)
		} else if e.GoType != "" {
			b.WriteString("found ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("expected ")
			b.WriteString(e.WitType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WitType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path for the error.
func (b *Builder) Path(parts ...string) *Builder {
	b.err.Path = parts
	return b
}

// Offset sets the absolute byte offset at which the error was detected.
func (b *Builder) Offset(pos int) *Builder {
	b.err.Offset = pos
	b.err.HasPos = true
	return b
}

// GoType sets the observed type name (the "found" side of a mismatch).
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WitType sets the expected type name (the "expected" side of a mismatch).
func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
	return b
}

// Value sets the offending value.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns.

// InvalidVersion creates an error for a version-string mismatch. It records
// no byte offset; use the Builder's Offset to attach the section start.
func InvalidVersion(found string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidVersion,
		Detail: fmt.Sprintf("found version %q", found),
	}
}

// TypeMismatch creates a type mismatch error, e.g. for the validator's
// stack-simulation check; Error renders it as "expected i32, found string".
func TypeMismatch(phase Phase, path []string, found, expected string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  found,
		WitType: expected,
	}
}

// OutOfRange creates an index-out-of-range error.
func OutOfRange(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of range (have %d)", index, length),
		Value:  index,
	}
}

// Unresolved creates an error for a symbolic identifier with no binding.
func Unresolved(namespace, name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnresolvedName,
		Detail: fmt.Sprintf("failed to find %s named `%s`", namespace, name),
	}
}

// Wrap wraps an existing error with additional pipeline-step context,
// producing the short call-chain-style message described for the CLI.
func Wrap(phase Phase, step string, cause error) error {
	return fmt.Errorf("failed to %s: %w", step, cause)
}
