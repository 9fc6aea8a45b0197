package decl

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/types"
)

// Monomorphize implements spec.md §4.B: "builds a substitution map from
// the declaration's type parameters to the provided arguments (or fresh
// unknown generics when arguments are omitted and enforcement is off) and
// substitutes throughout the declaration." It clones the declaration
// (never mutates the original, per spec.md §3: "monomorphization produces
// new ids by cloning and substituting") and returns the new DeclId.
func Monomorphize(
	store *Store,
	engine *types.Engine,
	declID ids.DeclId,
	typeArguments []ids.TypeId,
	enforceTypeArgs bool,
	callSiteSpan source.Span,
	selfType *ids.TypeId,
) (ids.DeclId, error) {
	orig := store.Get(declID)

	if len(orig.Generics) == 0 && selfType == nil {
		// Nothing to substitute; callers may still want a distinguishable
		// clone for the call-site's own bookkeeping, but per spec.md the
		// un-generic case is simply the same declaration.
		return declID, nil
	}

	if enforceTypeArgs && len(typeArguments) != len(orig.Generics) && len(typeArguments) != 0 {
		return ids.InvalidDecl, fmt.Errorf("%s", diagnostics.NewError(
			diagnostics.ErrIncorrectNumberOfTypeArguments, callSiteSpan,
			fmt.Sprintf("expected %d type arguments, got %d", len(orig.Generics), len(typeArguments)),
		).Error())
	}

	subst := types.Subst{}
	for i, g := range orig.Generics {
		if i < len(typeArguments) {
			subst[g.DisplayName] = typeArguments[i]
		} else if !enforceTypeArgs {
			fresh := types.UnknownGenericTerm{Name: g.DisplayName, Constraints: g.Constraints}
			subst[g.DisplayName] = engine.Insert(fresh, source.Generated)
		} else {
			return ids.InvalidDecl, fmt.Errorf("%s", diagnostics.NewError(
				diagnostics.ErrNeedsTypeArguments, callSiteSpan,
				fmt.Sprintf("declaration %q needs type arguments", orig.Name),
			).Error())
		}
	}
	if selfType != nil {
		subst["Self"] = *selfType
	}

	clone := orig
	clone.CheckState = StateMonomorphizedClone

	switch orig.Kind {
	case KindFunction:
		fn := *orig.Function
		newParams := make([]Param, len(fn.Params))
		for i, p := range fn.Params {
			newParams[i] = Param{Name: p.Name, Type: engine.Substitute(p.Type, subst, source.Generated), Span: p.Span}
		}
		fn.Params = newParams
		fn.ReturnType = engine.Substitute(fn.ReturnType, subst, source.Generated)
		clone.Function = &fn
	case KindStruct, KindEnum:
		agg := orig.Struct
		if orig.Kind == KindEnum {
			agg = orig.Enum
		}
		a := *agg
		newFields := make([]Field, len(a.Fields))
		for i, f := range a.Fields {
			newFields[i] = Field{Name: f.Name, Type: engine.Substitute(f.Type, subst, source.Generated), Span: f.Span}
		}
		a.Fields = newFields
		if orig.Kind == KindEnum {
			clone.Enum = &a
		} else {
			clone.Struct = &a
		}
	case KindTraitFn:
		tf := *orig.TraitFn
		newParams := make([]Param, len(tf.Params))
		for i, p := range tf.Params {
			newParams[i] = Param{Name: p.Name, Type: engine.Substitute(p.Type, subst, source.Generated), Span: p.Span}
		}
		tf.Params = newParams
		tf.ReturnType = engine.Substitute(tf.ReturnType, subst, source.Generated)
		clone.TraitFn = &tf
	}

	clone.Generics = nil // the clone is fully concrete w.r.t. the substitution applied
	return store.Insert(clone, source.Generated), nil
}
