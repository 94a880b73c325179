// Package parser turns a token stream into a surface ast.Module by
// matching the handful of forms this toolchain cares about: the
// `@interface` directives (type, import-as-func, export, implement) and
// the instruction mnemonics inside a function body. Any other
// s-expression content in the source (plain core-module forms) is
// skipped by balanced-paren counting rather than understood structurally
// — a real front-end would hand this package an already-separated
// `@interface` forest, but taking raw text keeps the CLI self-contained.
package parser

import (
	"fmt"

	"github.com/wippyai/wasm-interface-types/surface/ast"
	"github.com/wippyai/wasm-interface-types/surface/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse scans top-level forms of the outer (module ...) looking for
// `@interface` directives and a limited set of func-import forms needed
// to populate ast.Module.HostImports.
func Parse(tokens []token.Token) (*ast.Module, error) {
	p := New(tokens)
	return p.parseModule()
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) next() *token.Token {
	t := p.peek()
	if t != nil {
		p.pos++
	}
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, want %v", typ)
	}
	if t.Type != typ {
		return nil, fmt.Errorf("line %d: expected %v, got %q", t.Line, typ, t.Value)
	}
	return t, nil
}

func (p *Parser) expectIdentValue(v string) error {
	t, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if t.Value != v {
		return fmt.Errorf("line %d: expected %q, got %q", t.Line, v, t.Value)
	}
	return nil
}

func (p *Parser) parseModule() (*ast.Module, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if err := p.expectIdentValue("module"); err != nil {
		return nil, err
	}

	m := &ast.Module{}
	depth := 1
	for depth > 0 {
		t := p.peek()
		if t == nil {
			return nil, fmt.Errorf("unexpected end of input inside module")
		}
		switch t.Type {
		case token.LParen:
			if p.atInterfaceForm() {
				if err := p.parseInterfaceForm(m); err != nil {
					return nil, err
				}
				continue
			}
			if p.atFuncImportForm() {
				if err := p.parseHostImportForm(m); err != nil {
					return nil, err
				}
				continue
			}
			depth++
			p.next()
		case token.RParen:
			depth--
			p.next()
		default:
			p.next()
		}
	}
	return m, nil
}

// atInterfaceForm reports whether the parser is positioned at "(@interface".
func (p *Parser) atInterfaceForm() bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.pos].Type == token.LParen &&
		p.tokens[p.pos+1].Type == token.Ident &&
		p.tokens[p.pos+1].Value == "@interface"
}

// atFuncImportForm reports whether the parser is positioned at a plain
// core-module "(func ... (import "m" "n") ...)" form, which this package
// reads just far enough to populate HostImports.
func (p *Parser) atFuncImportForm() bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.pos].Type == token.LParen &&
		p.tokens[p.pos+1].Type == token.Ident &&
		p.tokens[p.pos+1].Value == "func"
}

func (p *Parser) parseInterfaceForm(m *ast.Module) error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	if err := p.expectIdentValue("@interface"); err != nil {
		return err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	switch kw.Value {
	case "type":
		t, err := p.parseTypeForm()
		if err != nil {
			return err
		}
		m.Types = append(m.Types, t)
	case "func":
		f, err := p.parseFuncForm()
		if err != nil {
			return err
		}
		m.Funcs = append(m.Funcs, f)
	case "export":
		e, err := p.parseExportForm()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, e)
	case "implement":
		impl, err := p.parseImplementForm()
		if err != nil {
			return err
		}
		m.Implements = append(m.Implements, impl)
	default:
		return fmt.Errorf("line %d: unknown @interface form %q", kw.Line, kw.Value)
	}
	_, err = p.expect(token.RParen)
	return err
}

func (p *Parser) maybeName() string {
	t := p.peek()
	if t != nil && t.Type == token.Ident && len(t.Value) > 0 && t.Value[0] == '$' {
		p.next()
		return t.Value
	}
	return ""
}

func (p *Parser) parseTypeForm() (ast.Type, error) {
	var ty ast.Type
	ty.Name = p.maybeName()
	if _, err := p.expect(token.LParen); err != nil {
		return ty, err
	}
	if err := p.expectIdentValue("func"); err != nil {
		return ty, err
	}
	params, results, err := p.parseParamsResults()
	if err != nil {
		return ty, err
	}
	ty.Params, ty.Results = params, results
	_, err = p.expect(token.RParen)
	return ty, err
}

func (p *Parser) parseParamsResults() ([]ast.Param, []ast.ValType, error) {
	var params []ast.Param
	var results []ast.ValType
	for p.peek() != nil && p.peek().Type == token.LParen {
		save := p.pos
		p.next()
		kw, err := p.expect(token.Ident)
		if err != nil {
			p.pos = save
			break
		}
		switch kw.Value {
		case "param":
			name := p.maybeName()
			vt, err := p.expect(token.Ident)
			if err != nil {
				return nil, nil, err
			}
			params = append(params, ast.Param{Name: name, Type: ast.ValType(vt.Value)})
		case "result":
			vt, err := p.expect(token.Ident)
			if err != nil {
				return nil, nil, err
			}
			results = append(results, ast.ValType(vt.Value))
		default:
			p.pos = save
			return params, results, nil
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, nil, err
		}
	}
	return params, results, nil
}

func (p *Parser) parseTypeUse() (ast.TypeUse, error) {
	var tu ast.TypeUse
	if p.peek() != nil && p.peek().Type == token.LParen {
		save := p.pos
		p.next()
		if kw := p.peek(); kw != nil && kw.Type == token.Ident && kw.Value == "type" {
			p.next()
			idx, err := p.parseIdx()
			if err != nil {
				return tu, err
			}
			tu.Index = &idx
			if _, err := p.expect(token.RParen); err != nil {
				return tu, err
			}
		} else {
			p.pos = save
		}
	}
	params, results, err := p.parseParamsResults()
	if err != nil {
		return tu, err
	}
	if len(params) > 0 || len(results) > 0 {
		tu.HasInline = true
		tu.InlineParams = params
		tu.InlineResults = results
	}
	return tu, nil
}

func (p *Parser) parseIdx() (ast.Idx, error) {
	t := p.peek()
	if t == nil {
		return ast.Idx{}, fmt.Errorf("expected index")
	}
	if t.Type == token.Ident && len(t.Value) > 0 && t.Value[0] == '$' {
		p.next()
		return ast.Idx{Name: t.Value}, nil
	}
	if t.Type == token.Number {
		p.next()
		var n uint32
		if _, err := fmt.Sscanf(t.Value, "%d", &n); err != nil {
			return ast.Idx{}, fmt.Errorf("line %d: invalid index %q", t.Line, t.Value)
		}
		return ast.Idx{Num: n}, nil
	}
	return ast.Idx{}, fmt.Errorf("line %d: expected index, got %q", t.Line, t.Value)
}

func (p *Parser) parseFuncForm() (ast.Func, error) {
	var f ast.Func
	f.Name = p.maybeName()

	for p.peek() != nil && p.peek().Type == token.LParen {
		save := p.pos
		p.next()
		kw, err := p.expect(token.Ident)
		if err != nil {
			p.pos = save
			break
		}
		switch kw.Value {
		case "import":
			mod, err := p.expect(token.String)
			if err != nil {
				return f, err
			}
			field, err := p.expect(token.String)
			if err != nil {
				return f, err
			}
			f.Kind = ast.FuncImport
			f.Import = ast.ImportSpec{Module: mod.Value, Field: field.Value}
			if _, err := p.expect(token.RParen); err != nil {
				return f, err
			}
		case "export":
			name, err := p.expect(token.String)
			if err != nil {
				return f, err
			}
			f.HasExport = true
			f.ExportName = name.Value
			if _, err := p.expect(token.RParen); err != nil {
				return f, err
			}
		case "type":
			idx, err := p.parseIdx()
			if err != nil {
				return f, err
			}
			f.Type.Index = &idx
			if _, err := p.expect(token.RParen); err != nil {
				return f, err
			}
		case "param", "result":
			p.pos = save
			params, results, err := p.parseParamsResults()
			if err != nil {
				return f, err
			}
			if len(params) > 0 || len(results) > 0 {
				f.Type.HasInline = true
				f.Type.InlineParams = append(f.Type.InlineParams, params...)
				f.Type.InlineResults = append(f.Type.InlineResults, results...)
			}
		default:
			p.pos = save
			goto instructions
		}
	}

instructions:
	for p.peek() != nil && p.peek().Type == token.Ident && p.peek().Value != ")" {
		t := p.peek()
		if t.Value == "end" {
			p.next()
			break
		}
		instr, err := p.parseInstruction()
		if err != nil {
			return f, err
		}
		f.Body = append(f.Body, instr)
	}
	return f, nil
}

func (p *Parser) parseInstruction() (ast.Instruction, error) {
	mnem, err := p.expect(token.Ident)
	if err != nil {
		return ast.Instruction{}, err
	}
	instr := ast.Instruction{Mnemonic: mnem.Value}
	for {
		t := p.peek()
		if t == nil || t.Type != token.Ident && t.Type != token.Number {
			break
		}
		if t.Type == token.Ident && isMnemonicLike(t.Value) {
			break
		}
		idx, err := p.parseIdx()
		if err != nil {
			break
		}
		instr.Operands = append(instr.Operands, idx)
	}
	return instr, nil
}

// isMnemonicLike distinguishes the start of the next instruction from a
// trailing identifier-shaped operand of the current one: every mnemonic
// in this grammar contains a '-' or '.', while operand identifiers are
// always $names.
func isMnemonicLike(v string) bool {
	if len(v) == 0 || v[0] == '$' {
		return false
	}
	return v == "end" || containsAny(v, "-.")
}

func containsAny(s, chars string) bool {
	for _, c := range s {
		for _, want := range chars {
			if c == want {
				return true
			}
		}
	}
	return false
}

func (p *Parser) parseExportForm() (ast.Export, error) {
	name, err := p.expect(token.String)
	if err != nil {
		return ast.Export{}, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return ast.Export{}, err
	}
	if err := p.expectIdentValue("func"); err != nil {
		return ast.Export{}, err
	}
	idx, err := p.parseIdx()
	if err != nil {
		return ast.Export{}, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.Export{}, err
	}
	return ast.Export{Name: name.Value, Func: idx}, nil
}

func (p *Parser) parseImplementForm() (ast.Implement, error) {
	var impl ast.Implement
	if _, err := p.expect(token.LParen); err != nil {
		return impl, err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return impl, err
	}
	switch kw.Value {
	case "func":
		idx, err := p.parseIdx()
		if err != nil {
			return impl, err
		}
		impl.Implemented = ast.ImplementedTarget{ByIndex: idx}
	case "import":
		mod, err := p.expect(token.String)
		if err != nil {
			return impl, err
		}
		field, err := p.expect(token.String)
		if err != nil {
			return impl, err
		}
		impl.Implemented = ast.ImplementedTarget{ByName: true, Module: mod.Value, Field: field.Value}
	default:
		return impl, fmt.Errorf("line %d: expected func or import, got %q", kw.Line, kw.Value)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return impl, err
	}

	if _, err := p.expect(token.LParen); err != nil {
		return impl, err
	}
	if err := p.expectIdentValue("func"); err != nil {
		return impl, err
	}
	if p.peek() != nil && p.peek().Type == token.LParen {
		// inline implementation: (func (type ...) (param ...) instr* end)
		f, err := p.parseFuncForm()
		if err != nil {
			return impl, err
		}
		impl.Implementation = ast.ImplementationTarget{Inline: true, InlineFunc: f}
	} else {
		idx, err := p.parseIdx()
		if err != nil {
			return impl, err
		}
		impl.Implementation = ast.ImplementationTarget{ByIndex: idx}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return impl, err
	}
	return impl, nil
}

// parseHostImportForm reads a plain core-module `(func [$name] (import
// "m" "n") ...)` form far enough to record (module, field) -> index, then
// skips the rest of the form by balanced parens.
func (p *Parser) parseHostImportForm(m *ast.Module) error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	if err := p.expectIdentValue("func"); err != nil {
		return err
	}
	p.maybeName()

	if p.peek() == nil || p.peek().Type != token.LParen {
		return p.skipToMatchingRParen(1)
	}
	save := p.pos
	p.next()
	kw := p.peek()
	if kw == nil || kw.Type != token.Ident || kw.Value != "import" {
		p.pos = save
		return p.skipToMatchingRParen(1)
	}
	p.next()
	mod, err := p.expect(token.String)
	if err != nil {
		return err
	}
	field, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	m.HostImports = append(m.HostImports, ast.HostImport{
		Module: mod.Value,
		Field:  field.Value,
		Index:  uint32(len(m.HostImports)),
	})
	return p.skipToMatchingRParen(1)
}

// skipToMatchingRParen advances past the rest of the current form, given
// depth already-open parens (not counting the one already consumed for
// the form's own opening token).
func (p *Parser) skipToMatchingRParen(depth int) error {
	for depth > 0 {
		t := p.next()
		if t == nil {
			return fmt.Errorf("unexpected end of input")
		}
		switch t.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		}
	}
	return nil
}
