// Package surface implements the textual front-end's lowering pipeline:
// de-inlining, type-use expansion, and name resolution, turning a liberal
// ast.Module into the rigid index-based wit.Module the binary encoder and
// validator consume.
package surface

import (
	"fmt"

	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/host"
	"github.com/wippyai/wasm-interface-types/surface/ast"
	"github.com/wippyai/wasm-interface-types/wit"
)

// Resolve runs the full text-lowering pipeline (de-inlining, type-use
// expansion, name resolution) over mod and produces the final binary-form
// module. hostMod supplies the host-side namespaces that call-core,
// defer-call-core, memory-to-string, and string-to-memory operands
// resolve against.
func Resolve(mod *ast.Module, hostMod *host.Module) (*wit.Module, error) {
	deinlined, err := Deinline(mod)
	if err != nil {
		return nil, err
	}

	tt, err := newTypeTable(deinlined.Types)
	if err != nil {
		return nil, err
	}

	r := &resolver{
		mod:      deinlined,
		types:    tt,
		host:     hostMod,
		funcName: make(map[string]uint32),
		hostFunc: make(map[string]uint32),
	}
	r.registerHostFuncNames()
	r.registerFuncNames()

	return r.run()
}

type resolver struct {
	mod  *ast.Module
	types *typeTable
	host *host.Module

	funcName map[string]uint32 // adapter func namespace: $name -> index
	hostFunc map[string]uint32 // host func namespace: $name -> index
}

func (r *resolver) registerHostFuncNames() {
	if r.host == nil {
		return
	}
	for idx, name := range r.host.FuncNames() {
		r.hostFunc["$"+name] = idx
	}
}

func (r *resolver) registerFuncNames() {
	for i, f := range r.mod.Funcs {
		if f.Name != "" {
			r.funcName[f.Name] = uint32(i)
		}
	}
}

// pendingFunc holds one function's expansion result before type-table
// finalization has assigned real numeric type indices.
type pendingFunc struct {
	isImport bool
	imp      wit.Import // TypeIdx left zero, patched after finalize
	fn       wit.Function
	typeRef  expandedTypeUse
}

func (r *resolver) run() (*wit.Module, error) {
	out := &wit.Module{}

	pending := make([]pendingFunc, len(r.mod.Funcs))
	for i, f := range r.mod.Funcs {
		path := []string{"func", fmt.Sprintf("%d", i)}
		etu, err := expandTypeUse(r.types, f.Type, path)
		if err != nil {
			return nil, err
		}

		p := pendingFunc{typeRef: etu}
		if f.Kind == ast.FuncImport {
			p.isImport = true
			p.imp = wit.Import{Module: f.Import.Module, Name: f.Import.Field}
			pending[i] = p
			continue
		}
		body, err := r.resolveFuncBody(f, etu.adapter, path)
		if err != nil {
			return nil, err
		}
		p.fn = wit.Function{Instructions: body}
		pending[i] = p
	}

	// Finalization: every inline type-use across the module has now been
	// interned, so synthetic-type count is fixed and named indices can be
	// shifted once and for all.
	var imports []wit.Import
	var funcs []wit.Function
	for i, p := range pending {
		typeIdx, err := r.finalizeTypeRef(p.typeRef, []string{"func", fmt.Sprintf("%d", i)})
		if err != nil {
			return nil, err
		}
		if p.isImport {
			p.imp.TypeIdx = typeIdx
			imports = append(imports, p.imp)
			continue
		}
		p.fn.TypeIdx = typeIdx
		funcs = append(funcs, p.fn)
	}
	out.Imports = imports
	out.Funcs = funcs
	out.Types = r.types.types()

	for i, e := range r.mod.Exports {
		idx, err := r.resolveFuncIdx(e.Func, []string{"export", fmt.Sprintf("%d", i)})
		if err != nil {
			return nil, err
		}
		out.Exports = append(out.Exports, wit.Export{Name: e.Name, FuncIdx: idx})
	}

	for i, impl := range r.mod.Implements {
		path := []string{"implement", fmt.Sprintf("%d", i)}
		coreIdx, err := r.resolveIdxNumeric(impl.Implemented.ByIndex, path)
		if err != nil {
			return nil, err
		}
		adapterIdx, err := r.resolveIdxNumeric(impl.Implementation.ByIndex, path)
		if err != nil {
			return nil, err
		}
		out.Implements = append(out.Implements, wit.Implement{CoreFuncIdx: coreIdx, AdapterFuncIdx: adapterIdx})
	}

	return out, nil
}

// resolveIdxNumeric resolves an Idx that de-inlining already reduced to a
// plain numeric reference (implement directives reference funcs purely
// by index after Deinline runs).
func (r *resolver) resolveIdxNumeric(idx ast.Idx, path []string) (uint32, error) {
	if idx.IsName() {
		return r.resolveFuncIdx(idx, path)
	}
	return idx.Num, nil
}

func (r *resolver) resolveFuncIdx(idx ast.Idx, path []string) (uint32, error) {
	if !idx.IsName() {
		return idx.Num, nil
	}
	n, ok := r.funcName[idx.Name]
	if !ok {
		return 0, witerr.Unresolved("adapter function", idx.Name)
	}
	return n, nil
}

func (r *resolver) resolveHostFuncIdx(idx ast.Idx, path []string) (uint32, error) {
	if !idx.IsName() {
		return idx.Num, nil
	}
	n, ok := r.hostFunc[idx.Name]
	if !ok {
		return 0, witerr.Unresolved("host function", idx.Name)
	}
	return n, nil
}

// finalizeTypeRef converts an expanded type-use into its final numeric
// type index, resolving a by-name reference and, if the type-use also
// carried an inline signature, checking the two agree.
func (r *resolver) finalizeTypeRef(etu expandedTypeUse, path []string) (uint32, error) {
	if etu.byName == "" {
		return etu.ref.finalize(r.types), nil
	}

	namedIdx, ok := r.types.namedIdxByName(etu.byName)
	if !ok {
		return 0, witerr.Unresolved("adapter type", etu.byName)
	}
	idx := r.types.finalIndex(namedIdx)
	if etu.inline != nil {
		declared := r.types.types()[idx]
		if !declared.Equal(*etu.inline) {
			return 0, typeUseMismatchErr(path)
		}
	}
	return idx, nil
}

// resolveFuncBody resolves a function's instruction stream. arg.get
// resolves against a local scope seeded from the adapter type's
// parameter names; call-core/defer-call-core/memory-to-string/
// string-to-memory operands resolve against the host namespaces;
// call-adapter resolves against the adapter function namespace.
func (r *resolver) resolveFuncBody(f ast.Func, adapterType wit.AdapterType, path []string) ([]wit.Instruction, error) {
	locals := make(map[string]uint32, len(adapterType.Params))
	for i, p := range adapterType.Params {
		if p.Name != "" {
			locals[p.Name] = uint32(i)
		}
	}

	out := make([]wit.Instruction, 0, len(f.Body))
	for i, instr := range f.Body {
		instrPath := append(append([]string(nil), path...), "instr", fmt.Sprintf("%d", i))
		info, ok := wit.LookupMnemonic(instr.Mnemonic)
		if !ok {
			return nil, witerr.New(witerr.PhaseResolve, witerr.KindInvalidInstr).
				Path(instrPath...).Detail("unknown instruction mnemonic %q", instr.Mnemonic).Build()
		}

		wi := wit.Instruction{Op: info.Op}
		switch info.Op {
		case wit.OpArgGet:
			n, err := r.resolveLocal(locals, operand(instr, 0), instrPath)
			if err != nil {
				return nil, err
			}
			wi.Imm.A = n
		case wit.OpCallCore, wit.OpDeferCallCore:
			n, err := r.resolveHostFuncIdx(operand(instr, 0), instrPath)
			if err != nil {
				return nil, err
			}
			wi.Imm.A = n
		case wit.OpMemoryToString:
			n, err := r.resolveHostMemoryIdx(operand(instr, 0), instrPath)
			if err != nil {
				return nil, err
			}
			wi.Imm.A = n
		case wit.OpStringToMemory:
			mallocIdx, err := r.resolveHostFuncIdx(operand(instr, 0), instrPath)
			if err != nil {
				return nil, err
			}
			memIdx, err := r.resolveHostMemoryIdx(operand(instr, 1), instrPath)
			if err != nil {
				return nil, err
			}
			wi.Imm.A, wi.Imm.B = mallocIdx, memIdx
		case wit.OpCallAdapter:
			n, err := r.resolveFuncIdx(operand(instr, 0), instrPath)
			if err != nil {
				return nil, err
			}
			wi.Imm.A = n
		}
		out = append(out, wi)
	}
	return out, nil
}

func operand(instr ast.Instruction, i int) ast.Idx {
	if i >= len(instr.Operands) {
		return ast.Idx{}
	}
	return instr.Operands[i]
}

// resolveHostMemoryIdx resolves a memory operand. The core wasm "name"
// section defines no memory-name subsection, so a symbolic reference can
// never bind here; in practice the surface grammar only ever supplies a
// bare number (or omits the operand, meaning memory 0) for this operand.
func (r *resolver) resolveHostMemoryIdx(idx ast.Idx, path []string) (uint32, error) {
	if !idx.IsName() {
		return idx.Num, nil
	}
	return 0, witerr.Unresolved("host memory", idx.Name)
}

func (r *resolver) resolveLocal(locals map[string]uint32, idx ast.Idx, path []string) (uint32, error) {
	if !idx.IsName() {
		return idx.Num, nil
	}
	n, ok := locals[idx.Name]
	if !ok {
		return 0, witerr.Unresolved("parameter", idx.Name)
	}
	return n, nil
}
