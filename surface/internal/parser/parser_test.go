package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-interface-types/surface/ast"
	"github.com/wippyai/wasm-interface-types/surface/internal/token"
)

func parseSrc(t *testing.T, src string) *ast.Module {
	t.Helper()
	m, err := Parse(token.Tokenize(src))
	require.NoError(t, err)
	return m
}

func TestParseTypeDecl(t *testing.T) {
	m := parseSrc(t, `(module
		(@interface type $pair (func (param $a i32) (param $b i32) (result i64)))
	)`)
	require.Len(t, m.Types, 1)
	ty := m.Types[0]
	require.Equal(t, "$pair", ty.Name)
	require.Equal(t, []ast.Param{{Name: "$a", Type: ast.I32}, {Name: "$b", Type: ast.I32}}, ty.Params)
	require.Equal(t, []ast.ValType{ast.I64}, ty.Results)
}

func TestParseImportFunc(t *testing.T) {
	m := parseSrc(t, `(module
		(@interface func $greet (import "host" "greet") (param i32) (result i32))
	)`)
	require.Len(t, m.Funcs, 1)
	f := m.Funcs[0]
	require.Equal(t, ast.FuncImport, f.Kind)
	require.Equal(t, "host", f.Import.Module)
	require.Equal(t, "greet", f.Import.Field)
	require.True(t, f.Type.HasInline)
	require.Equal(t, []ast.ValType{ast.I32}, f.Type.InlineResults)
}

func TestParseInlineFuncWithBodyAndExport(t *testing.T) {
	m := parseSrc(t, `(module
		(@interface func $id (export "identity") (param $x i32) (result i32)
			arg.get $x
			end)
	)`)
	require.Len(t, m.Funcs, 1)
	f := m.Funcs[0]
	require.Equal(t, ast.FuncInline, f.Kind)
	require.True(t, f.HasExport)
	require.Equal(t, "identity", f.ExportName)
	require.Len(t, f.Body, 1)
	require.Equal(t, "arg.get", f.Body[0].Mnemonic)
	require.Equal(t, []ast.Idx{{Name: "$x"}}, f.Body[0].Operands)
}

func TestParseStandaloneExportAndImplement(t *testing.T) {
	m := parseSrc(t, `(module
		(@interface export "e" (func $id))
		(@interface implement (import "host" "greet") (func $id))
	)`)
	require.Len(t, m.Exports, 1)
	require.Equal(t, "e", m.Exports[0].Name)
	require.Equal(t, ast.Idx{Name: "$id"}, m.Exports[0].Func)

	require.Len(t, m.Implements, 1)
	impl := m.Implements[0]
	require.True(t, impl.Implemented.ByName)
	require.Equal(t, "host", impl.Implemented.Module)
	require.Equal(t, "greet", impl.Implemented.Field)
	require.False(t, impl.Implementation.Inline)
	require.Equal(t, ast.Idx{Name: "$id"}, impl.Implementation.ByIndex)
}

func TestParseHostImportCollectedFromCoreFunc(t *testing.T) {
	m := parseSrc(t, `(module
		(func $host_greet (import "host" "greet") (param i32) (result i32))
		(@interface implement (import "host" "greet") (func $id))
	)`)
	require.Len(t, m.HostImports, 1)
	require.Equal(t, ast.HostImport{Module: "host", Field: "greet", Index: 0}, m.HostImports[0])
}
