// Package host parses just enough of a core WebAssembly module's binary
// format to give the wit package the facts it needs about the host side
// of an interface-types adapter: the signatures of core function types,
// which functions are imported versus locally defined, how many linear
// memories the module declares, and the raw bytes of any named custom
// section (including "wasm-interface-types" itself and the "name"
// section used for symbolic printing).
//
// It is not a general-purpose module parser: sections with no bearing on
// adapter validation (tables, globals, start, elements, code bodies,
// data) are skipped by length rather than decoded.
package host
