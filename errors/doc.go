// Package errors provides structured error types for the wit toolchain.
//
// Errors are categorized by Phase (which pipeline stage produced the error)
// and Kind (the specific failure). The Error type carries whichever
// position information is available for that phase: a byte Offset for
// decode errors, or a Path of dotted identifiers for lowering/validation
// errors.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTrailingBytes).
//		Offset(42).
//		Detail("export subsection").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidVersion(found)
//	err := errors.TypeMismatch(errors.PhaseValidate, path, "i32", "String")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
