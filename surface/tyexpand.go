package surface

import (
	witerr "github.com/wippyai/wasm-interface-types/errors"
	"github.com/wippyai/wasm-interface-types/surface/ast"
	"github.com/wippyai/wasm-interface-types/wit"
)

func typeUseMismatchErr(path []string) error {
	return witerr.New(witerr.PhaseResolve, witerr.KindTypeUseMismatch).
		Path(path...).
		Detail("type-use index and inline signature disagree").Build()
}

// typeTable accumulates the module's final type list across expansion.
// Synthetic types discovered from inline type-uses are prepended ahead
// of the explicitly declared ones, per the ordering rule in spec.md
// §4.4 ("a fresh synthetic type is prepended to the adapter list").
// Because synthesis can happen while later items are still being
// expanded, a declared type's FINAL index (len(synthetic)+namedIdx)
// isn't stable until every item has been expanded once — finalIndex
// must only be called after that full pass completes.
type typeTable struct {
	named     []wit.AdapterType
	names     []string // parallel to named; "" for anonymous
	synthetic []wit.AdapterType
	synKey    map[wit.TypeKey]uint32 // key -> index within synthetic (final, stable as soon as assigned)
	namedKey  map[wit.TypeKey]uint32 // key -> index within named (pre-shift)
}

func newTypeTable(declared []ast.Type) (*typeTable, error) {
	tt := &typeTable{
		synKey:   make(map[wit.TypeKey]uint32),
		namedKey: make(map[wit.TypeKey]uint32),
	}
	for _, t := range declared {
		params, err := toWitParams(t.Params)
		if err != nil {
			return nil, err
		}
		results, err := toWitResults(t.Results)
		if err != nil {
			return nil, err
		}
		at := wit.AdapterType{Params: params, Results: results}
		idx := uint32(len(tt.named))
		tt.named = append(tt.named, at)
		tt.names = append(tt.names, t.Name)
		if _, exists := tt.namedKey[at.Key()]; !exists {
			tt.namedKey[at.Key()] = idx
		}
	}
	return tt, nil
}

// finalIndex converts a pre-expansion named-type index (the declaration
// position before any synthetic types are counted) into the module's
// final type index. Valid only after all type-uses have been expanded.
func (tt *typeTable) finalIndex(namedIdx uint32) uint32 {
	return uint32(len(tt.synthetic)) + namedIdx
}

func (tt *typeTable) namedIdxByName(name string) (uint32, bool) {
	for i, n := range tt.names {
		if n == name {
			return uint32(i), true
		}
	}
	return 0, false
}

func (tt *typeTable) namedByIdx(namedIdx uint32) (wit.AdapterType, bool) {
	if int(namedIdx) >= len(tt.named) {
		return wit.AdapterType{}, false
	}
	return tt.named[namedIdx], true
}

// internOrSynthesize interns at against the table: an existing named or
// synthetic entry with the same canonical key is reused, otherwise a new
// synthetic entry is appended. The synthetic index returned is final and
// stable immediately; a reused named index is pre-shift and must be
// passed through finalIndex once expansion completes.
func (tt *typeTable) internOrSynthesize(at wit.AdapterType) (ref typeRef) {
	key := at.Key()
	if namedIdx, ok := tt.namedKey[key]; ok {
		return typeRef{named: true, idx: namedIdx}
	}
	if synIdx, ok := tt.synKey[key]; ok {
		return typeRef{synthetic: true, idx: synIdx}
	}
	idx := uint32(len(tt.synthetic))
	tt.synthetic = append(tt.synthetic, at)
	tt.synKey[key] = idx
	return typeRef{synthetic: true, idx: idx}
}

// types returns the final, combined type list: synthetic entries first,
// then the originally declared ones in their original order. Valid only
// after all type-uses have been expanded.
func (tt *typeTable) types() []wit.AdapterType {
	out := make([]wit.AdapterType, 0, len(tt.synthetic)+len(tt.named))
	out = append(out, tt.synthetic...)
	out = append(out, tt.named...)
	return out
}

// typeRef is a not-yet-finalized reference into the type table: either a
// synthetic index (already final) or a named index (pre-shift, needs
// tt.finalIndex once expansion completes).
type typeRef struct {
	synthetic bool
	named     bool
	idx       uint32
}

func (r typeRef) finalize(tt *typeTable) uint32 {
	if r.synthetic {
		return r.idx
	}
	return tt.finalIndex(r.idx)
}

// expandedTypeUse is a type-use with its signature fully determined but
// not yet resolved to a final numeric index.
type expandedTypeUse struct {
	ref      typeRef
	byName   string // set when the index side names a declared type by $name
	declared wit.AdapterType // the index-resolved signature (named or synthesized), names erased
	adapter  wit.AdapterType // the signature to use for local-name resolution: declared, or inline when given
	inline   *wit.AdapterType // set when the type-use also carried an inline signature, for a deferred agreement check
}

// expandTypeUse resolves one type-use against the type table: an inline
// signature is interned (synthesizing a type on a miss); an index-only
// use is passed through for later name resolution. A type-use carrying
// both a numeric index and an inline signature is checked for agreement
// immediately; one naming its type by $name is checked later, in
// finalizeTypeRef.
func expandTypeUse(tt *typeTable, tu ast.TypeUse, path []string) (expandedTypeUse, error) {
	var out expandedTypeUse

	var inline *wit.AdapterType
	if tu.HasInline {
		at, err := inlineAdapterType(tu)
		if err != nil {
			return out, err
		}
		inline = &at
	}

	switch {
	case tu.Index != nil && tu.Index.IsName():
		out.byName = tu.Index.Name
		out.inline = inline
		// The type table's declared-type list (unlike its final index
		// numbering) is fixed from the start, so the named signature can
		// be fetched now for local-name purposes even though the index
		// itself isn't final until synthesis across the module finishes.
		if namedIdx, ok := tt.namedIdxByName(tu.Index.Name); ok {
			if at, ok := tt.namedByIdx(namedIdx); ok {
				out.declared = at
			}
		}
	case tu.Index != nil:
		out.ref = typeRef{named: true, idx: tu.Index.Num}
		if at, ok := tt.namedByIdx(tu.Index.Num); ok {
			out.declared = at
		}
	case inline != nil:
		out.ref = tt.internOrSynthesize(*inline)
		out.declared = *inline
	}

	if inline != nil && out.byName == "" && tu.Index != nil {
		if !out.declared.Equal(*inline) {
			return out, typeUseMismatchErr(path)
		}
	}

	// Inline parameter names, when given, take precedence for local-name
	// resolution over the declared type's own (possibly absent) names -
	// mirroring how a core func can attach `(type $t)` together with its
	// own `(param $x ...)` clauses purely to name the locals.
	out.adapter = out.declared
	if inline != nil {
		out.adapter = *inline
	}
	return out, nil
}
