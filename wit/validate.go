package wit

import (
	"fmt"

	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/host"
)

// hostEquiv is the interface-to-host type equivalence table: the only
// five interface types with a one-to-one host counterpart.
var hostEquiv = map[ValType]host.HostValKind{
	I32:       host.HostI32,
	I64:       host.HostI64,
	F32:       host.HostF32,
	F64:       host.HostF64,
	Externref: host.HostExternref,
}

func equivalent(it ValType, hk host.HostValKind) bool {
	want, ok := hostEquiv[it]
	return ok && want == hk
}

func interfaceEquivalent(hk host.HostValKind) (ValType, bool) {
	for it, k := range hostEquiv {
		if k == hk {
			return it, true
		}
	}
	return 0, false
}

// subsectionOrderIDs is the monotone counter space the validator checks
// subsection ids against; using a disjoint range from the encoded ids
// (0..4) leaves room to insert future optional subsections without
// touching this logic.
var subsectionOrderIDs = map[byte]int{
	SubsecType:      100,
	SubsecImport:    101,
	SubsecFunc:      102,
	SubsecExport:    103,
	SubsecImplement: 104,
}

// validator bundles the interface Module under check with the host
// tables it is checked against, so the per-instruction simulation
// helpers don't need both threaded through every call individually.
type validator struct {
	m    *Module
	host *host.Module
}

// Validate type-checks m against the host wasm module it is embedded in.
// hostMod supplies the host-side type/function/memory tables; it is
// typically produced by host.Parse on the containing wasm binary.
func Validate(m *Module, hostMod *host.Module) error {
	v := &validator{m: m, host: hostMod}
	return v.run()
}

func (v *validator) run() error {
	if err := v.checkSubsectionOrder(); err != nil {
		return err
	}

	m := v.m
	for i, imp := range m.Imports {
		if _, ok := m.typeAt(imp.TypeIdx); !ok {
			return validateErr(witerr.KindOutOfRange, []string{"import", itoa(i)},
				"type index %d out of range (have %d types)", imp.TypeIdx, len(m.Types))
		}
	}

	seenExports := make(map[string]bool, len(m.Exports))
	for i, exp := range m.Exports {
		if exp.FuncIdx >= uint32(m.NumAdapterFuncs()) {
			return validateErr(witerr.KindOutOfRange, []string{"export", itoa(i)},
				"function index %d out of range (have %d adapter functions)", exp.FuncIdx, m.NumAdapterFuncs())
		}
		if seenExports[exp.Name] {
			return validateErr(witerr.KindDuplicateExport, []string{"export", itoa(i)},
				"found duplicate export `%s`", exp.Name)
		}
		seenExports[exp.Name] = true
	}

	for i, fn := range m.Funcs {
		path := []string{"func", itoa(i)}
		ty, ok := m.typeAt(fn.TypeIdx)
		if !ok {
			return validateErr(witerr.KindOutOfRange, path,
				"type index %d out of range (have %d types)", fn.TypeIdx, len(m.Types))
		}
		if err := v.validateFunctionBody(ty, fn, path); err != nil {
			return err
		}
	}

	for i, impl := range m.Implements {
		path := []string{"implement", itoa(i)}
		if impl.AdapterFuncIdx >= uint32(m.NumAdapterFuncs()) {
			return validateErr(witerr.KindOutOfRange, path,
				"adapter function index %d out of range", impl.AdapterFuncIdx)
		}
		coreFn, ok := v.host.FuncType(impl.CoreFuncIdx)
		if !ok {
			return validateErr(witerr.KindOutOfRange, path,
				"core function index %d out of range", impl.CoreFuncIdx)
		}
		if !v.host.IsImported(impl.CoreFuncIdx) {
			return validateErr(witerr.KindNotImported, path,
				"core function %d is not imported", impl.CoreFuncIdx)
		}
		adapterTy, _ := m.FuncType(impl.AdapterFuncIdx)
		if err := checkSignaturesCompatible(adapterTy, coreFn, path); err != nil {
			return err
		}
	}

	return nil
}

func (v *validator) checkSubsectionOrder() error {
	last := -1
	for i, id := range v.m.subsecOrder {
		order, known := subsectionOrderIDs[id]
		if !known {
			return validateErr(witerr.KindInvalidSection, []string{"subsection", itoa(i)},
				"unknown subsection id %d", id)
		}
		if order <= last {
			return validateErr(witerr.KindOutOfOrder, []string{"subsection", itoa(i)},
				"subsection id %d is out of order", id)
		}
		last = order
	}
	return nil
}

func checkSignaturesCompatible(adapter AdapterType, core host.HostType, path []string) error {
	if len(adapter.Params) != len(core.Params) || len(adapter.Results) != len(core.Results) {
		return validateErr(witerr.KindBadSignature, path,
			"core function has a different type signature than its adapter function")
	}
	for i, p := range adapter.Params {
		if !equivalent(p.Type, core.Params[i]) {
			return validateErr(witerr.KindBadSignature, path,
				"core function has a different type signature than its adapter function")
		}
	}
	for i, r := range adapter.Results {
		if !equivalent(r, core.Results[i]) {
			return validateErr(witerr.KindBadSignature, path,
				"core function has a different type signature than its adapter function")
		}
	}
	return nil
}

// stack is the symbolic value stack the instruction simulator maintains
// per adapter function.
type stack []ValType

func (s *stack) push(v ValType) { *s = append(*s, v) }

func (s *stack) pop(path []string, want ValType) error {
	old := *s
	if len(old) == 0 {
		return validateErr(witerr.KindStackNotEmpty, path,
			"expected `%s` on type stack, found empty stack", want)
	}
	top := old[len(old)-1]
	*s = old[:len(old)-1]
	if top != want {
		return typeMismatch(path, top, want)
	}
	return nil
}

// peek checks the stack slot depth entries below the top, without
// consuming it, for defer-call-core's "peek, don't pop" semantics.
func (s *stack) peek(path []string, want ValType, depth int) error {
	old := *s
	idx := len(old) - 1 - depth
	if idx < 0 {
		return validateErr(witerr.KindStackNotEmpty, path,
			"expected `%s` on type stack, found empty stack", want)
	}
	if old[idx] != want {
		return typeMismatch(path, old[idx], want)
	}
	return nil
}

func (v *validator) validateFunctionBody(ty AdapterType, fn Function, path []string) error {
	var st stack

	for i, instr := range fn.Instructions {
		instrPath := append(append([]string{}, path...), "instr", itoa(i))
		info, ok := LookupOpcode(instr.Op)
		if !ok {
			return validateErr(witerr.KindInvalidInstr, instrPath, "unknown opcode 0x%02x", byte(instr.Op))
		}

		switch instr.Op {
		case OpEnd:
			return validateErr(witerr.KindInvalidInstr, instrPath, "`end` may not appear inside an instruction stream")

		case OpArgGet:
			idx := instr.Imm.A
			if int(idx) >= len(ty.Params) {
				return validateErr(witerr.KindOutOfRange, instrPath,
					"param index %d out of range (have %d params)", idx, len(ty.Params))
			}
			st.push(ty.Params[idx].Type)

		case OpCallCore:
			if err := v.simulateCallCore(&st, instr.Imm.A, instrPath); err != nil {
				return err
			}

		case OpMemoryToString:
			if err := v.simulateMemoryToString(&st, instr.Imm.A, instrPath); err != nil {
				return err
			}

		case OpStringToMemory:
			if err := v.simulateStringToMemory(&st, instr.Imm.A, instr.Imm.B, instrPath); err != nil {
				return err
			}

		case OpCallAdapter:
			if err := v.simulateCallAdapter(&st, instr.Imm.A, instrPath); err != nil {
				return err
			}

		case OpDeferCallCore:
			if err := v.simulateDeferCallCore(&st, instr.Imm.A, instrPath); err != nil {
				return err
			}

		default:
			// Pure conversion opcode: pop the declared source, push the
			// declared target, per the single instruction table.
			if err := st.pop(instrPath, info.ConvFrom); err != nil {
				return err
			}
			st.push(info.ConvTo)
		}
	}

	for i := len(ty.Results) - 1; i >= 0; i-- {
		if err := st.pop(path, ty.Results[i]); err != nil {
			return err
		}
	}
	if len(st) != 0 {
		return validateErr(witerr.KindStackNotEmpty, path, "value stack isn't empty on function exit")
	}
	return nil
}

func (v *validator) simulateCallCore(st *stack, fnIdx uint32, path []string) error {
	ft, ok := v.host.FuncType(fnIdx)
	if !ok {
		return validateErr(witerr.KindOutOfRange, path, "host function index %d out of range", fnIdx)
	}
	for i := len(ft.Params) - 1; i >= 0; i-- {
		want, ok := interfaceEquivalent(ft.Params[i])
		if !ok {
			return validateErr(witerr.KindBadSignature, path, "host parameter %d has no interface-type equivalent", i)
		}
		if err := st.pop(path, want); err != nil {
			return err
		}
	}
	for _, r := range ft.Results {
		got, ok := interfaceEquivalent(r)
		if !ok {
			return validateErr(witerr.KindBadSignature, path, "host result has no interface-type equivalent")
		}
		st.push(got)
	}
	return nil
}

func (v *validator) simulateMemoryToString(st *stack, memIdx uint32, path []string) error {
	if int(memIdx) >= v.host.MemoryCount {
		return validateErr(witerr.KindOutOfRange, path, "host memory index %d out of range", memIdx)
	}
	if err := st.pop(path, I32); err != nil { // length
		return err
	}
	if err := st.pop(path, I32); err != nil { // pointer
		return err
	}
	st.push(String)
	return nil
}

func (v *validator) simulateStringToMemory(st *stack, mallocIdx, memIdx uint32, path []string) error {
	if int(memIdx) >= v.host.MemoryCount {
		return validateErr(witerr.KindOutOfRange, path, "host memory index %d out of range", memIdx)
	}
	ft, ok := v.host.FuncType(mallocIdx)
	if !ok {
		return validateErr(witerr.KindOutOfRange, path, "malloc function index %d out of range", mallocIdx)
	}
	if len(ft.Params) != 1 || ft.Params[0] != host.HostI32 || len(ft.Results) != 1 || ft.Results[0] != host.HostI32 {
		return validateErr(witerr.KindBadSignature, path,
			"malloc function %d does not have correct signature", mallocIdx)
	}
	if err := st.pop(path, String); err != nil {
		return err
	}
	st.push(I32) // pointer
	st.push(I32) // length
	return nil
}

func (v *validator) simulateCallAdapter(st *stack, fnIdx uint32, path []string) error {
	ty, ok := v.m.FuncType(fnIdx)
	if !ok {
		return validateErr(witerr.KindOutOfRange, path, "adapter function index %d out of range", fnIdx)
	}
	for i := len(ty.Params) - 1; i >= 0; i-- {
		if err := st.pop(path, ty.Params[i].Type); err != nil {
			return err
		}
	}
	for _, r := range ty.Results {
		st.push(r)
	}
	return nil
}

func (v *validator) simulateDeferCallCore(st *stack, fnIdx uint32, path []string) error {
	ft, ok := v.host.FuncType(fnIdx)
	if !ok {
		return validateErr(witerr.KindOutOfRange, path, "host function index %d out of range", fnIdx)
	}
	if len(ft.Results) != 0 {
		return validateErr(witerr.KindBadSignature, path, "defer-call-core target must not return a value")
	}
	for i, p := range ft.Params {
		want, ok := interfaceEquivalent(p)
		if !ok {
			return validateErr(witerr.KindBadSignature, path, "host parameter %d has no interface-type equivalent", i)
		}
		depth := len(ft.Params) - 1 - i
		if err := st.peek(path, want, depth); err != nil {
			return err
		}
	}
	return nil
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }
