package types

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
)

// Mode selects one of the three unify variants named in spec.md §4.B; they
// differ only in step 5 (how `self_type` / generics are treated).
type Mode int

const (
	Default Mode = iota
	WithSelf
	WithGeneric
)

// Unify implements the semantic contract of spec.md §4.B. On success it
// mutates the engine so the two ids become equivalent and returns no
// error. On failure it appends a MismatchedType diagnostic to sink and
// returns that error. helpText is attached as the diagnostic's help
// footer; errOverride, if non-nil, replaces the default mismatch message.
func (e *Engine) Unify(sink *diagnostics.Sink, received, expected ids.TypeId, span source.Span, helpText string, errOverride error, mode Mode) error {
	return e.unify(sink, received, expected, span, helpText, errOverride, mode, map[[2]ids.TypeId]bool{})
}

func (e *Engine) unify(sink *diagnostics.Sink, a, b ids.TypeId, span source.Span, help string, errOverride error, mode Mode, seen map[[2]ids.TypeId]bool) error {
	// Step 1: identical ids.
	if a == b {
		return nil
	}

	// Step 2: follow ref chains to representatives.
	a = e.Lookup(a)
	b = e.Lookup(b)
	if a == b {
		return nil
	}

	pairKey := [2]ids.TypeId{a, b}
	if seen[pairKey] {
		// Co-inductive: already unifying this exact pair further up the
		// recursion (recursive struct/enum field), assume success.
		return nil
	}
	seen[pairKey] = true

	ta := e.Get(a)
	tb := e.Get(b)

	// Step 3: unknown rewrites to ref(other).
	if _, ok := ta.(UnknownTerm); ok {
		e.Replace(a, RefTerm{Target: b})
		return nil
	}
	if _, ok := tb.(UnknownTerm); ok {
		e.Replace(b, RefTerm{Target: a})
		return nil
	}

	// Step 4: placeholder matches anything (pattern-level any-type).
	if _, ok := ta.(PlaceholderTerm); ok {
		return nil
	}
	if _, ok := tb.(PlaceholderTerm); ok {
		return nil
	}

	// Step 11: error_recovery always succeeds.
	if _, ok := ta.(ErrorRecoveryTerm); ok {
		return nil
	}
	if _, ok := tb.(ErrorRecoveryTerm); ok {
		return nil
	}

	// Step 5: unknown_generic handling, mode-dependent.
	ga, aIsGeneric := ta.(UnknownGenericTerm)
	gb, bIsGeneric := tb.(UnknownGenericTerm)
	if aIsGeneric && bIsGeneric {
		if ga.Name == gb.Name && constraintsCompatible(ga.Constraints, gb.Constraints) {
			return nil
		}
		return e.mismatch(sink, a, b, span, help, errOverride)
	}
	if aIsGeneric != bIsGeneric {
		concreteSide, genericSide, genericIsA := b, a, true
		if aIsGeneric {
			concreteSide, genericSide, genericIsA = b, a, true
		} else {
			concreteSide, genericSide, genericIsA = a, b, false
		}
		_ = genericIsA
		if mode == WithGeneric {
			// concrete -> generic coercion: the generic is a superset of
			// any concrete type.
			if e.occurs(genericSide, concreteSide) {
				return e.mismatch(sink, a, b, span, help, errOverride)
			}
			e.Replace(genericSide, RefTerm{Target: concreteSide})
			return nil
		}
		if e.occurs(genericSide, concreteSide) {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		e.Replace(genericSide, RefTerm{Target: concreteSide})
		return nil
	}

	// Step 9: alias is transparent.
	if alias, ok := ta.(AliasTerm); ok {
		return e.unify(sink, alias.Inner, b, span, help, errOverride, mode, seen)
	}
	if alias, ok := tb.(AliasTerm); ok {
		return e.unify(sink, a, alias.Inner, span, help, errOverride, mode, seen)
	}

	// self_type handling for WithSelf mode.
	if mode == WithSelf {
		if _, ok := ta.(SelfTypeTerm); ok {
			e.Replace(a, RefTerm{Target: b})
			return nil
		}
		if _, ok := tb.(SelfTypeTerm); ok {
			e.Replace(b, RefTerm{Target: a})
			return nil
		}
	}

	// Step 6: numeric handling.
	pa, aPrim := ta.(PrimitiveTerm)
	pb, bPrim := tb.(PrimitiveTerm)
	if aPrim && bPrim {
		if pa.Kind == Numeric && pb.Kind == Numeric {
			return nil
		}
		if pa.Kind == Numeric && pb.Kind.IntWidth() > 0 {
			e.Replace(a, RefTerm{Target: b})
			return nil
		}
		if pb.Kind == Numeric && pa.Kind.IntWidth() > 0 {
			e.Replace(b, RefTerm{Target: a})
			return nil
		}
		// Step 8: integer widths coerce upward silently; downcast warns.
		if pa.Kind.IntWidth() > 0 && pb.Kind.IntWidth() > 0 {
			if pa.Kind.IntWidth() == pb.Kind.IntWidth() {
				return nil
			}
			if pa.Kind.IntWidth() > pb.Kind.IntWidth() {
				sink.Warning(diagnostics.NewWarning(diagnostics.WarnLossOfPrecision, span,
					fmt.Sprintf("losing precision casting %s to %s", pa.Kind, pb.Kind)))
			}
			e.Replace(a, RefTerm{Target: b})
			return nil
		}
		if pa.Kind == StrFixed && pb.Kind == StrFixed && pa.Length == pb.Length {
			return nil
		}
		if pa.Kind == pb.Kind {
			return nil
		}
		return e.mismatch(sink, a, b, span, help, errOverride)
	}

	// Step 10: contract_caller unifies on matching abi name, or if either
	// address is unbound, or the abi name is "Deferred".
	ca, aCaller := ta.(ContractCallerTerm)
	cb, bCaller := tb.(ContractCallerTerm)
	if aCaller && bCaller {
		if ca.ABIName == cb.ABIName || ca.ABIName == "Deferred" || cb.ABIName == "Deferred" ||
			ca.Address == nil || cb.Address == nil {
			return nil
		}
		return e.mismatch(sink, a, b, span, help, errOverride)
	}

	// Step 7: structural recursion.
	switch va := ta.(type) {
	case TupleTerm:
		vb, ok := tb.(TupleTerm)
		if !ok || len(va.Elems) != len(vb.Elems) {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		for i := range va.Elems {
			if err := e.unify(sink, va.Elems[i], vb.Elems[i], span, help, errOverride, mode, seen); err != nil {
				return err
			}
		}
		return nil
	case ArrayTerm:
		vb, ok := tb.(ArrayTerm)
		if !ok || va.Length != vb.Length {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		return e.unify(sink, va.Elem, vb.Elem, span, help, errOverride, mode, seen)
	case StructTerm:
		vb, ok := tb.(StructTerm)
		if !ok || va.Decl != vb.Decl {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		return nil
	case EnumTerm:
		vb, ok := tb.(EnumTerm)
		if !ok || va.Decl != vb.Decl {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		return nil
	case PtrTerm:
		vb, ok := tb.(PtrTerm)
		if !ok {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		return e.unify(sink, va.Inner, vb.Inner, span, help, errOverride, mode, seen)
	case SliceTerm:
		vb, ok := tb.(SliceTerm)
		if !ok {
			return e.mismatch(sink, a, b, span, help, errOverride)
		}
		return e.unify(sink, va.Inner, vb.Inner, span, help, errOverride, mode, seen)
	}

	// Empty-enum-as-Never coercion: an enum decl with zero variants
	// unifies with anything (spec.md §4.B step 7). Variant count is not
	// tracked on EnumTerm itself (it's a property of the DeclTerm it
	// references), so this is handled one layer up, in the check package,
	// before falling back here.

	return e.mismatch(sink, a, b, span, help, errOverride)
}

func (e *Engine) mismatch(sink *diagnostics.Sink, a, b ids.TypeId, span source.Span, help string, errOverride error) error {
	msg := fmt.Sprintf("mismatched types: expected %s, received %s", e.Display(b), e.Display(a))
	if errOverride != nil {
		msg = errOverride.Error()
	}
	d := diagnostics.NewError(diagnostics.ErrMismatchedType, span, msg)
	if help != "" {
		d.Help = help
	}
	sink.Error(d)
	return fmt.Errorf("%s", d.Error())
}

// occurs implements the occurs check: unknown_generic{name=G} may not be
// unified with a term that transitively contains G (spec.md §4.B).
func (e *Engine) occurs(genericID, inID ids.TypeId) bool {
	g, ok := e.Get(genericID).(UnknownGenericTerm)
	if !ok {
		return false
	}
	return e.containsGeneric(inID, g.Name, map[ids.TypeId]bool{})
}

func (e *Engine) containsGeneric(id ids.TypeId, name string, visited map[ids.TypeId]bool) bool {
	rep := e.Lookup(id)
	if visited[rep] {
		return false
	}
	visited[rep] = true
	switch t := e.Get(rep).(type) {
	case UnknownGenericTerm:
		return t.Name == name
	case TupleTerm:
		for _, el := range t.Elems {
			if e.containsGeneric(el, name, visited) {
				return true
			}
		}
	case ArrayTerm:
		return e.containsGeneric(t.Elem, name, visited)
	case PtrTerm:
		return e.containsGeneric(t.Inner, name, visited)
	case SliceTerm:
		return e.containsGeneric(t.Inner, name, visited)
	case CustomTerm:
		for _, a := range t.TypeArgs {
			if e.containsGeneric(a, name, visited) {
				return true
			}
		}
	}
	return false
}

func constraintsCompatible(a, b []string) bool {
	set := map[string]bool{}
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		if !set[c] {
			return false
		}
	}
	return true
}
