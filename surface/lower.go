package surface

import (
	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/surface/ast"
)

// Deinline converts surface sugar into the normalized, fully itemized
// form: inline imports become standalone entries ahead of non-import
// functions, inline export sugar becomes standalone @interface export
// directives, inline implement bodies are materialized as fresh
// top-level functions, and implement-by-(module,field) directives are
// resolved against the host import list. The adapter function index
// space is assigned here, imports first, matching the discipline name
// resolution later depends on.
func Deinline(mod *ast.Module) (*ast.Module, error) {
	out := &ast.Module{
		Types:       mod.Types,
		HostImports: mod.HostImports,
		Exports:     append([]ast.Export(nil), mod.Exports...),
	}

	var funcs []ast.Func
	var counter uint32

	for _, f := range mod.Funcs {
		if f.Kind != ast.FuncImport {
			continue
		}
		idx := counter
		counter++
		funcs = append(funcs, f)
		if f.HasExport {
			out.Exports = append(out.Exports, ast.Export{Name: f.ExportName, Func: ast.Idx{Num: idx}})
		}
	}
	for _, f := range mod.Funcs {
		if f.Kind == ast.FuncImport {
			continue
		}
		idx := counter
		counter++
		funcs = append(funcs, f)
		if f.HasExport {
			out.Exports = append(out.Exports, ast.Export{Name: f.ExportName, Func: ast.Idx{Num: idx}})
		}
	}

	for _, impl := range mod.Implements {
		lowered, err := deinlineImplement(impl, mod.HostImports, &funcs, &counter)
		if err != nil {
			return nil, err
		}
		out.Implements = append(out.Implements, lowered)
	}

	out.Funcs = funcs
	return out, nil
}

func deinlineImplement(impl ast.Implement, hostImports []ast.HostImport, funcs *[]ast.Func, counter *uint32) (ast.Implement, error) {
	if impl.Implementation.Inline {
		idx := *counter
		*counter++
		*funcs = append(*funcs, impl.Implementation.InlineFunc)
		impl.Implementation = ast.ImplementationTarget{ByIndex: ast.Idx{Num: idx}}
	}

	if impl.Implemented.ByName {
		idx, err := resolveHostImportByName(hostImports, impl.Implemented.Module, impl.Implemented.Field)
		if err != nil {
			return ast.Implement{}, err
		}
		impl.Implemented = ast.ImplementedTarget{ByIndex: ast.Idx{Num: idx}}
	}
	return impl, nil
}

func resolveHostImportByName(hostImports []ast.HostImport, module, field string) (uint32, error) {
	var found []uint32
	for _, hi := range hostImports {
		if hi.Module == module && hi.Field == field {
			found = append(found, hi.Index)
		}
	}
	switch len(found) {
	case 0:
		return 0, witerr.New(witerr.PhaseLower, witerr.KindImportNotFound).
			Detail("no host import named %q.%q", module, field).Build()
	case 1:
		return found[0], nil
	default:
		return 0, witerr.New(witerr.PhaseLower, witerr.KindAmbiguousImport).
			Detail("multiple host imports named %q.%q", module, field).Build()
	}
}
