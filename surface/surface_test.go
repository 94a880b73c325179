package surface

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-interface-types/host"
	"github.com/wippyai/wasm-interface-types/surface/internal/parser"
	"github.com/wippyai/wasm-interface-types/surface/internal/token"
	"github.com/wippyai/wasm-interface-types/wit"
)

// buildHostModule assembles a minimal core module byte stream: one func
// type (i32) -> (i32), one imported function "host"."greet" of that
// type, one memory, and a name section naming function 0 "greet".
func buildHostModule(t *testing.T) *host.Module {
	t.Helper()
	var buf []byte
	put := func(b ...byte) { buf = append(buf, b...) }
	withLen := func(body []byte) { put(byte(len(body))); buf = append(buf, body...) }
	putName := func(s string) []byte { return append([]byte{byte(len(s))}, s...) }

	put(0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)

	typeBody := []byte{0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f}
	put(1)
	withLen(typeBody)

	var importBody []byte
	importBody = append(importBody, 0x01)
	importBody = append(importBody, putName("host")...)
	importBody = append(importBody, putName("greet")...)
	importBody = append(importBody, 0x00, 0x00) // func desc, type idx 0
	put(2)
	withLen(importBody)

	memBody := []byte{0x01, 0x00, 0x01} // one memory, flags 0, min 1
	put(5)
	withLen(memBody)

	var funcNameSub []byte
	funcNameSub = append(funcNameSub, 0x01) // 1 entry
	funcNameSub = append(funcNameSub, 0x00) // idx 0
	funcNameSub = append(funcNameSub, putName("greet")...)
	var nameBody []byte
	nameBody = append(nameBody, putName("name")...)
	nameBody = append(nameBody, 0x01, byte(len(funcNameSub)))
	nameBody = append(nameBody, funcNameSub...)
	put(0)
	withLen(nameBody)

	m, err := host.Parse(buf)
	require.NoError(t, err)
	return m
}

func TestEndToEndLowerIdentityAdapter(t *testing.T) {
	hostMod := buildHostModule(t)

	src := `(module
		(@interface func $id (export "identity") (param $x i32) (result i32)
			arg.get $x
			call-core $greet
			end)
	)`
	tokens := token.Tokenize(src)
	astMod, err := parser.Parse(tokens)
	require.NoError(t, err)

	m, err := Resolve(astMod, hostMod)
	require.NoError(t, err)

	require.Len(t, m.Funcs, 1)
	require.Equal(t, wit.AdapterType{Params: []wit.Param{{Name: "$x", Type: wit.I32}}, Results: []wit.ValType{wit.I32}}, m.Types[m.Funcs[0].TypeIdx])
	require.Equal(t, []wit.Instruction{
		{Op: wit.OpArgGet, Imm: wit.Imm{A: 0}},
		{Op: wit.OpCallCore, Imm: wit.Imm{A: 0}},
	}, m.Funcs[0].Instructions)
	require.Len(t, m.Exports, 1)
	require.Equal(t, "identity", m.Exports[0].Name)
	require.Equal(t, uint32(0), m.Exports[0].FuncIdx)

	require.NoError(t, wit.Validate(m, hostMod))
}

func TestEndToEndImportAndImplement(t *testing.T) {
	hostMod := buildHostModule(t)

	src := `(module
		(func $host_greet (import "host" "greet") (param i32) (result i32))
		(@interface func $greet_adapter (import "host" "greet") (param i32) (result i32))
		(@interface func $impl (param $x i32) (result i32)
			arg.get $x
			call-core $greet
			end)
		(@interface implement (import "host" "greet") (func $impl))
	)`
	astMod, err := parser.Parse(token.Tokenize(src))
	require.NoError(t, err)

	m, err := Resolve(astMod, hostMod)
	require.NoError(t, err)

	require.Len(t, m.Imports, 1)
	require.Equal(t, "host", m.Imports[0].Module)
	require.Equal(t, "greet", m.Imports[0].Name)

	require.Len(t, m.Implements, 1)
	require.Equal(t, uint32(0), m.Implements[0].CoreFuncIdx)
	require.NoError(t, wit.Validate(m, hostMod))
}

func TestEndToEndAmbiguousImportIsRejected(t *testing.T) {
	astMod, err := parser.Parse(token.Tokenize(`(module
		(func $a (import "host" "greet") (param i32) (result i32))
		(func $b (import "host" "greet") (param i32) (result i32))
		(@interface func $impl (param $x i32) (result i32) end)
		(@interface implement (import "host" "greet") (func $impl))
	)`))
	require.NoError(t, err)

	_, err = Resolve(astMod, buildHostModule(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ambiguous_import")
}

func TestEndToEndNamedTypeIndexShiftsAfterSynthesis(t *testing.T) {
	// $named is declared first in the source and so has pre-shift index 0,
	// but $a's inline signature is interned first during expansion and
	// claims synthetic slot 0, so $named must end up at final index 1 -
	// exactly the reordering spec.md's "prepended" rule requires.
	astMod, err := parser.Parse(token.Tokenize(`(module
		(@interface type $named (func (param i64) (result i64)))
		(@interface func $a (param i32) (result i32) end)
		(@interface func $b (type $named) (param $v i64) (result i64) end)
	)`))
	require.NoError(t, err)

	m, err := Resolve(astMod, nil)
	require.NoError(t, err)
	require.Len(t, m.Types, 2)
	require.Equal(t, wit.AdapterType{Params: []wit.Param{{Type: wit.I32}}, Results: []wit.ValType{wit.I32}}, m.Types[m.Funcs[0].TypeIdx])
	require.Equal(t, uint32(1), m.Funcs[1].TypeIdx)
	require.Equal(t, wit.AdapterType{Params: []wit.Param{{Type: wit.I64}}, Results: []wit.ValType{wit.I64}}, m.Types[1])
}

func TestEndToEndDedupesSynthesizedTypes(t *testing.T) {
	astMod, err := parser.Parse(token.Tokenize(`(module
		(@interface func $a (param i32) (result i32) end)
		(@interface func $b (param i32) (result i32) end)
	)`))
	require.NoError(t, err)

	m, err := Resolve(astMod, nil)
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	require.Equal(t, m.Funcs[0].TypeIdx, m.Funcs[1].TypeIdx)
}
