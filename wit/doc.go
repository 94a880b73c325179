// Package wit decodes, encodes, validates, and pretty-prints the
// WebAssembly Interface Types (WIT) custom section.
//
// The custom section declares adapter functions that bridge high-level
// interface values (strings, signed/unsigned integer widths, external
// references) to and from the core value types a host WebAssembly module
// exposes.
//
// # Decoding
//
//	m, err := wit.Decode(sectionPayload, baseOffset)
//
// baseOffset is the absolute byte offset of the custom section's payload
// within the containing wasm file; it is folded into every reported error
// position but otherwise has no effect on decoding.
//
// # Encoding
//
//	payload := wit.Encode(m)
//	section := wit.EncodeCustomSection(m) // with the "wasm-interface-types" name header
//
// Round-trip parsing and encoding preserves the payload byte-for-byte:
//
//	original, _ := wit.Decode(payload, 0)
//	roundtrip, _ := wit.Decode(wit.Encode(original), 0)
//	bytes.Equal(wit.Encode(original), wit.Encode(roundtrip)) // true
//
// # Validation
//
//	err := wit.Validate(m, host)
//
// host is the *host.Module parse of the wasm module that contains the
// section (types, function origins, memory count).
//
// # Printing
//
//	text := wit.Print(m, nil) // nil host omits symbolic host-side names
package wit
