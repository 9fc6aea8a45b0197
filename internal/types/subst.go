package types

import (
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
)

// Subst maps a generic parameter name to the TypeId it should be replaced
// with during monomorphization (spec.md §4.B: "builds a substitution map
// from the declaration's type parameters to the provided arguments").
type Subst map[string]ids.TypeId

// Substitute clones term with every UnknownGeneric/Custom name found in
// subst replaced by the corresponding TypeId, inserting any newly built
// composite terms into the engine under sourceID. This is the primitive
// the decl package's monomorphizer drives field-by-field/param-by-param;
// the type engine itself only knows how to substitute within a single
// term, not how to walk a whole declaration (that stays in decl, per
// spec.md §9's "tagged sum plus projection helpers" design note — the
// engine must not reach into DeclTerm internals).
func (e *Engine) Substitute(id ids.TypeId, subst Subst, sourceID source.Id) ids.TypeId {
	t := e.Get(id)
	switch v := t.(type) {
	case UnknownGenericTerm:
		if repl, ok := subst[v.Name]; ok {
			return repl
		}
		return id
	case CustomTerm:
		if repl, ok := subst[v.Name]; ok && len(v.TypeArgs) == 0 {
			return repl
		}
		newArgs := make([]ids.TypeId, len(v.TypeArgs))
		changed := false
		for i, a := range v.TypeArgs {
			newArgs[i] = e.Substitute(a, subst, sourceID)
			if newArgs[i] != a {
				changed = true
			}
		}
		if !changed {
			return id
		}
		return e.Insert(CustomTerm{Name: v.Name, TypeArgs: newArgs}, sourceID)
	case TupleTerm:
		newElems := make([]ids.TypeId, len(v.Elems))
		changed := false
		for i, el := range v.Elems {
			newElems[i] = e.Substitute(el, subst, sourceID)
			if newElems[i] != el {
				changed = true
			}
		}
		if !changed {
			return id
		}
		return e.Insert(TupleTerm{Elems: newElems}, sourceID)
	case ArrayTerm:
		newElem := e.Substitute(v.Elem, subst, sourceID)
		if newElem == v.Elem {
			return id
		}
		return e.Insert(ArrayTerm{Elem: newElem, Length: v.Length}, sourceID)
	case PtrTerm:
		newInner := e.Substitute(v.Inner, subst, sourceID)
		if newInner == v.Inner {
			return id
		}
		return e.Insert(PtrTerm{Inner: newInner}, sourceID)
	case SliceTerm:
		newInner := e.Substitute(v.Inner, subst, sourceID)
		if newInner == v.Inner {
			return id
		}
		return e.Insert(SliceTerm{Inner: newInner}, sourceID)
	case RefTerm:
		return e.Substitute(v.Target, subst, sourceID)
	default:
		return id
	}
}
