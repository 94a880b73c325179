package wit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintIdentityAdapter(t *testing.T) {
	m := &Module{
		Types: []AdapterType{
			{Params: []Param{{Type: I32}}, Results: []ValType{I32}},
		},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
					{Op: OpCallCore, Imm: Imm{A: 0}},
				},
			},
		},
		Exports: []Export{{Name: "g", FuncIdx: 0}},
	}
	out := Print(m, nil)
	require.True(t, strings.HasPrefix(out, "(module\n"))
	require.Contains(t, out, "(@interface type (;0;) (func (param i32) (result i32)))")
	require.Contains(t, out, "arg.get 0")
	require.Contains(t, out, "call-core 0")
	require.Contains(t, out, `(@interface export "g" (func 0))`)
}

func TestPrintElidesZeroMemoryOperand(t *testing.T) {
	m := &Module{
		Types: []AdapterType{{Params: []Param{{Type: I32}, {Type: I32}}, Results: []ValType{String}}},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
					{Op: OpArgGet, Imm: Imm{A: 1}},
					{Op: OpMemoryToString, Imm: Imm{A: 0}},
				},
			},
		},
	}
	out := Print(m, nil)
	require.Contains(t, out, "memory-to-string\n")
	require.NotContains(t, out, "memory-to-string 0")
}
