package namespace

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/types"
)

// MethodsForType aggregates across all trait impls in the current module
// whose implementing type unifies with typeID (spec.md §4.C).
func (ns *Namespace) MethodsForType(engine *types.Engine, typeID ids.TypeId) []ids.DeclId {
	var out []ids.DeclId
	rep := engine.Lookup(typeID)
	for _, entry := range ns.current.TraitImpls() {
		if engine.Equivalent(entry.ImplementingType, rep) {
			out = append(out, entry.Methods...)
		}
	}
	return out
}

// FindMethod narrows MethodsForType by name and argument count (the
// argument types themselves are not compared),
// disambiguating multiple impls by the most-specific-type rule: an exact
// (non-generic) implementing-type match wins over a generic one (spec.md
// §4.C).
func (ns *Namespace) FindMethod(store *decl.Store, engine *types.Engine, typeID ids.TypeId, methodName string, argTypes []ids.TypeId) (ids.DeclId, error) {
	rep := engine.Lookup(typeID)
	var best ids.DeclId = ids.InvalidDecl
	bestIsGeneric := true

	for _, entry := range ns.current.TraitImpls() {
		if !engine.Equivalent(entry.ImplementingType, rep) {
			continue
		}
		for _, methodID := range entry.Methods {
			term := store.Get(methodID)
			if term.Name != methodName || term.Function == nil {
				continue
			}
			if len(term.Function.Params) != len(argTypes) {
				continue
			}
			_, implIsGeneric := engine.Get(engine.Lookup(entry.ImplementingType)).(types.UnknownGenericTerm)
			if best == ids.InvalidDecl || (bestIsGeneric && !implIsGeneric) {
				best = methodID
				bestIsGeneric = implIsGeneric
			}
		}
	}

	if best == ids.InvalidDecl {
		return ids.InvalidDecl, fmt.Errorf("%s", diagnostics.NewError(diagnostics.ErrUnknownVariable, source.Dummy,
			fmt.Sprintf("no method %q found for this type", methodName)).Error())
	}
	return best, nil
}
