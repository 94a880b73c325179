package surface

import (
	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/surface/ast"
	"github.com/wippyai/wasm-interface-types/wit"
)

// valTypeNames maps every surface keyword, including the anyref alias, to
// its binary value type. The alias is preserved rather than rejected at
// the token/parser level per the decision to keep accepting it until the
// upstream project settles its intent (spec.md leaves this open).
var valTypeNames = map[ast.ValType]wit.ValType{
	ast.S8: wit.S8, ast.S16: wit.S16, ast.S32: wit.S32, ast.S64: wit.S64,
	ast.U8: wit.U8, ast.U16: wit.U16, ast.U32: wit.U32, ast.U64: wit.U64,
	ast.F32: wit.F32, ast.F64: wit.F64,
	ast.String: wit.String, ast.Externref: wit.Externref, ast.Anyref: wit.Externref,
	ast.I32: wit.I32, ast.I64: wit.I64,
}

func toWitValType(v ast.ValType) (wit.ValType, error) {
	wv, ok := valTypeNames[v]
	if !ok {
		return 0, witerr.New(witerr.PhaseLower, witerr.KindInvalidValType).
			Detail("unknown value type keyword %q", string(v)).Build()
	}
	return wv, nil
}

func toWitParams(params []ast.Param) ([]wit.Param, error) {
	out := make([]wit.Param, len(params))
	for i, p := range params {
		wv, err := toWitValType(p.Type)
		if err != nil {
			return nil, err
		}
		out[i] = wit.Param{Name: p.Name, Type: wv}
	}
	return out, nil
}

func toWitResults(results []ast.ValType) ([]wit.ValType, error) {
	out := make([]wit.ValType, len(results))
	for i, r := range results {
		wv, err := toWitValType(r)
		if err != nil {
			return nil, err
		}
		out[i] = wv
	}
	return out, nil
}

// inlineAdapterType converts a type-use's inline params/results into an
// AdapterType, ignoring whatever explicit Index it also carries.
func inlineAdapterType(tu ast.TypeUse) (wit.AdapterType, error) {
	params, err := toWitParams(tu.InlineParams)
	if err != nil {
		return wit.AdapterType{}, err
	}
	results, err := toWitResults(tu.InlineResults)
	if err != nil {
		return wit.AdapterType{}, err
	}
	return wit.AdapterType{Params: params, Results: results}, nil
}
