// Package ast is the in-memory syntax tree a surface text front-end
// produces: liberal, name-based, and not yet index-resolved. It is the
// handoff point between the external tokenizer/s-expression parser and
// this module's lowering pipeline.
package ast

// ValType is a surface-level value type keyword. Unlike wit.ValType it
// is a string so the parser can accept aliases (anyref) without the
// lowering pipeline needing to know about them until resolution.
type ValType string

const (
	S8        ValType = "s8"
	S16       ValType = "s16"
	S32       ValType = "s32"
	S64       ValType = "s64"
	U8        ValType = "u8"
	U16       ValType = "u16"
	U32       ValType = "u32"
	U64       ValType = "u64"
	F32       ValType = "f32"
	F64       ValType = "f64"
	String    ValType = "string"
	Externref ValType = "externref"
	Anyref    ValType = "anyref" // accepted as a synonym of Externref
	I32       ValType = "i32"
	I64       ValType = "i64"
)

// Param is a parameter in a surface-level type-use: an optional name
// plus its value type.
type Param struct {
	Name string
	Type ValType
}

// TypeUse is a position that may name a type by index, by inline
// signature, or both (in which case the two must agree once resolved).
type TypeUse struct {
	Index      *Idx // nil when given only inline
	HasInline  bool
	InlineParams  []Param
	InlineResults []ValType
}

// Idx is a surface-level reference to an item: either a symbolic name
// ($foo) or a raw numeric index.
type Idx struct {
	Name string // non-empty when this is a symbolic reference
	Num  uint32 // meaningful only when Name == ""
}

func (i Idx) IsName() bool { return i.Name != "" }

// Instruction is one adapter instruction as parsed from text: a
// mnemonic plus up to two operands, which may themselves be symbolic.
type Instruction struct {
	Mnemonic string
	Operands []Idx
}

// ImportSpec is an inline `(import "module" "name")` attached to a func.
type ImportSpec struct {
	Module string
	Field  string
}

// FuncKind distinguishes an imported function declaration from one with
// a body.
type FuncKind int

const (
	FuncInline FuncKind = iota
	FuncImport
)

// Func is a surface-level `(@interface func ...)` declaration. Exactly
// one of Import or Body is meaningful, selected by Kind.
type Func struct {
	Name   string // optional $name
	Kind   FuncKind
	Type   TypeUse
	Import ImportSpec // valid when Kind == FuncImport
	Body   []Instruction // valid when Kind == FuncInline

	// ExportName is set when the func carries an inline export name
	// sugar, e.g. (func $f (export "e") ...); de-inlining synthesizes a
	// standalone Export from it.
	ExportName string
	HasExport  bool
}

// Type is a standalone `(@interface type ...)` declaration.
type Type struct {
	Name    string
	Params  []Param
	Results []ValType
}

// Export is a standalone `(@interface export "name" (func ...))`.
type Export struct {
	Name string
	Func Idx
}

// ImplementedTarget is the core-module side of an implement directive,
// named either by (module, field) lookup or directly by index.
type ImplementedTarget struct {
	ByName    bool
	Module    string
	Field     string
	ByIndex   Idx
}

// ImplementationTarget is the adapter side of an implement directive:
// either a reference to an existing adapter function, or an inline body
// that de-inlining will push out as a fresh top-level function.
type ImplementationTarget struct {
	Inline     bool
	InlineFunc Func // meaningful when Inline is true
	ByIndex    Idx  // meaningful when Inline is false
}

// Implement is a standalone `(@interface implement ...)` directive.
type Implement struct {
	Implemented    ImplementedTarget
	Implementation ImplementationTarget
}

// Module is the parsed surface tree for one `(module ...)` form,
// restricted to the `@interface` directives this toolchain cares about.
// The surrounding core-module text (core funcs, tables, etc.) is opaque
// to this package beyond the host import/func list it needs for
// implement-by-name resolution, which the external front-end supplies
// separately via HostImports.
type Module struct {
	Types      []Type
	Funcs      []Func
	Exports    []Export
	Implements []Implement

	// HostImports lists the containing core module's function imports,
	// in declaration order, so that an implement directive naming its
	// target by (module, field) can be resolved without this package
	// reaching into the host parser's internals.
	HostImports []HostImport
}

// HostImport is a (module, field) pair identifying one core-module
// function import, plus its position in the core function index space.
type HostImport struct {
	Module string
	Field  string
	Index  uint32
}
