package wit

import (
	"fmt"
	"strings"
)

// HostNames is the capability the printer consults to render host-side
// indices symbolically. It is deliberately narrow — three lookups, each
// allowed to report "no name known" — so the printer never needs to
// reach into a host module parser's internals.
type HostNames interface {
	ResolveFunc(idx uint32) (name string, ok bool)
	ResolveMemory(idx uint32) (name string, ok bool)
	ResolveType(idx uint32) (name string, ok bool)
}

// noNames is the HostNames used when the caller has no host module to
// consult; every lookup reports "unknown" and the printer falls back to
// plain numeric indices.
type noNames struct{}

func (noNames) ResolveFunc(uint32) (string, bool)   { return "", false }
func (noNames) ResolveMemory(uint32) (string, bool) { return "", false }
func (noNames) ResolveType(uint32) (string, bool)   { return "", false }

// Print renders m as canonical s-expression text. names may be nil, in
// which case host-side operands print as bare numeric indices. Printing
// a Module that round-tripped through Decode, then re-parsing the
// output through the surface front-end and lowering it, must reproduce
// the original binary payload exactly.
func Print(m *Module, names HostNames) string {
	if names == nil {
		names = noNames{}
	}
	p := &printer{m: m, names: names}
	p.module()
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	m     *Module
	names HostNames
}

func (p *printer) line(indent int, format string, args ...any) {
	p.b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) module() {
	p.b.WriteString("(module\n")
	for i, t := range p.m.Types {
		p.line(1, "(@interface type (;%d;) %s)", i, p.funcTypeText(t))
	}
	for i, imp := range p.m.Imports {
		p.line(1, "(@interface func (;%d;) (import %q %q) (type %d))", i, imp.Module, imp.Name, imp.TypeIdx)
	}
	for i, fn := range p.m.Funcs {
		p.function(i, fn)
	}
	for _, exp := range p.m.Exports {
		p.line(1, "(@interface export %q (func %d))", exp.Name, exp.FuncIdx)
	}
	for _, impl := range p.m.Implements {
		p.line(1, "(@interface implement (func %d) (func %d))", impl.CoreFuncIdx, impl.AdapterFuncIdx)
	}
	p.b.WriteString(")\n")
}

func (p *printer) funcTypeText(t AdapterType) string {
	var b strings.Builder
	b.WriteString("(func")
	for _, param := range t.Params {
		fmt.Fprintf(&b, " (param %s)", param.Type)
	}
	for _, r := range t.Results {
		fmt.Fprintf(&b, " (result %s)", r)
	}
	b.WriteByte(')')
	return b.String()
}

func (p *printer) function(idx int, fn Function) {
	p.line(1, "(@interface func (;%d;) (type %d)", idx+len(p.m.Imports), fn.TypeIdx)
	for _, instr := range fn.Instructions {
		p.line(2, "%s", p.instrText(instr))
	}
	p.line(1, "end)")
}

func (p *printer) instrText(instr Instruction) string {
	info, ok := LookupOpcode(instr.Op)
	if !ok {
		return fmt.Sprintf("<invalid opcode 0x%02x>", byte(instr.Op))
	}
	switch instr.Op {
	case OpArgGet:
		return fmt.Sprintf("arg.get %d", instr.Imm.A)
	case OpCallCore:
		return fmt.Sprintf("call-core %s", p.funcOperand(instr.Imm.A))
	case OpMemoryToString:
		return fmt.Sprintf("memory-to-string%s", p.memOperand(instr.Imm.A))
	case OpStringToMemory:
		return fmt.Sprintf("string-to-memory %s%s", p.funcOperand(instr.Imm.A), p.memOperand(instr.Imm.B))
	case OpCallAdapter:
		return fmt.Sprintf("call-adapter %d", instr.Imm.A)
	case OpDeferCallCore:
		return fmt.Sprintf("defer-call-core %s", p.funcOperand(instr.Imm.A))
	default:
		return info.Mnemonic
	}
}

// funcOperand renders a host-function index, preferring its symbolic
// name when the capability knows one.
func (p *printer) funcOperand(idx uint32) string {
	if name, ok := p.names.ResolveFunc(idx); ok {
		return "$" + name
	}
	return fmt.Sprintf("%d", idx)
}

// memOperand elides the operand entirely when it is memory zero, per the
// printer's conventions; otherwise renders it, preferring a symbolic
// name when known.
func (p *printer) memOperand(idx uint32) string {
	if idx == 0 {
		return ""
	}
	if name, ok := p.names.ResolveMemory(idx); ok {
		return " $" + name
	}
	return fmt.Sprintf(" %d", idx)
}
