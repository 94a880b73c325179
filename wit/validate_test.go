package wit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-interface-types/host"
)

// testHost builds a minimal host.Module with one imported function
// "a"."b" of type (i32) -> (i32), used as the call-core / implement
// target across these tests.
func testHost() *host.Module {
	hm := &host.Module{
		Types: []host.HostType{
			{Params: []host.HostValKind{host.HostI32}, Results: []host.HostValKind{host.HostI32}},
		},
		Funcs: []host.HostFunc{
			{TypeIdx: 0, Origin: host.OriginImported, Module: "a", Name: "b"},
		},
		MemoryCount: 1,
	}
	return hm
}

func TestValidateIdentityAdapter(t *testing.T) {
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
		Exports:     []Export{{Name: "g", FuncIdx: 0}},
		subsecOrder: []byte{SubsecType, SubsecFunc, SubsecExport},
	}
	require.NoError(t, Validate(m, testHost()))
}

func TestValidateSignedNarrowingRoundTrip(t *testing.T) {
	m := &Module{
		Types: []AdapterType{
			{Params: []Param{{Type: I32}}, Results: []ValType{I32}},
		},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
					{Op: OpI32ToS8x},
					{Op: OpS8ToI32},
				},
			},
		},
		subsecOrder: []byte{SubsecType, SubsecFunc},
	}
	require.NoError(t, Validate(m, testHost()))
}

func TestValidateTypeMismatch(t *testing.T) {
	m := &Module{
		Types: []AdapterType{
			{Params: []Param{{Type: I32}}, Results: []ValType{I64}},
		},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
				},
			},
		},
		subsecOrder: []byte{SubsecType, SubsecFunc},
	}
	err := Validate(m, testHost())
	require.Error(t, err)
	require.Contains(t, err.Error(), "type_mismatch")
}

func TestValidateDuplicateExport(t *testing.T) {
	m := &Module{
		Types: []AdapterType{
			{Results: []ValType{}},
		},
		Funcs: []Function{
			{TypeIdx: 0},
			{TypeIdx: 0},
		},
		Exports: []Export{
			{Name: "x", FuncIdx: 0},
			{Name: "x", FuncIdx: 1},
		},
		subsecOrder: []byte{SubsecType, SubsecFunc, SubsecExport},
	}
	err := Validate(m, testHost())
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate_export")
}

func TestValidateImplementRequiresImportedCoreFunc(t *testing.T) {
	hm := testHost()
	hm.Funcs = append(hm.Funcs, host.HostFunc{TypeIdx: 0, Origin: host.OriginLocal})

	m := &Module{
		Types: []AdapterType{
			{Params: []Param{{Type: I32}}, Results: []ValType{I32}},
		},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
				},
			},
		},
		Implements:  []Implement{{CoreFuncIdx: 1, AdapterFuncIdx: 0}},
		subsecOrder: []byte{SubsecType, SubsecFunc, SubsecImplement},
	}
	err := Validate(m, hm)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not_imported")
}

func TestValidateBadMallocSignature(t *testing.T) {
	hm := &host.Module{
		Types: []host.HostType{
			{Params: []host.HostValKind{host.HostI64}, Results: []host.HostValKind{host.HostI32}},
		},
		Funcs: []host.HostFunc{
			{TypeIdx: 0, Origin: host.OriginImported, Module: "a", Name: "malloc"},
		},
		MemoryCount: 1,
	}
	m := &Module{
		Types: []AdapterType{
			{Params: []Param{{Type: String}}, Results: []ValType{I32, I32}},
		},
		Funcs: []Function{
			{
				TypeIdx: 0,
				Instructions: []Instruction{
					{Op: OpArgGet, Imm: Imm{A: 0}},
					{Op: OpStringToMemory, Imm: Imm{A: 0, B: 0}},
				},
			},
		},
		subsecOrder: []byte{SubsecType, SubsecFunc},
	}
	err := Validate(m, hm)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad_signature")
}

func TestValidateOutOfOrderSubsections(t *testing.T) {
	m := &Module{
		Types:       []AdapterType{{}},
		subsecOrder: []byte{SubsecFunc, SubsecType},
	}
	err := Validate(m, testHost())
	require.Error(t, err)
	require.Contains(t, err.Error(), "out_of_order")
}

func TestValidateEndInsideBodyFails(t *testing.T) {
	m := &Module{
		Types: []AdapterType{{}},
		Funcs: []Function{
			{TypeIdx: 0, Instructions: []Instruction{{Op: OpEnd}}},
		},
		subsecOrder: []byte{SubsecType, SubsecFunc},
	}
	err := Validate(m, testHost())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_instruction")
}
