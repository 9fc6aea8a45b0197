package namespace

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
)

// StarImport pulls all public symbols from fromPath into the current
// module (spec.md §4.C). Enum variants use the sibling VariantStarImport
// path.
func (ns *Namespace) StarImport(sink *diagnostics.Sink, span source.Span, fromPath CallPath, vis Visibility) {
	mod, _, _, err := ns.resolveModule(CallPath{Prefixes: append(fromPath.Prefixes, fromPath.Suffix), IsAbsolute: fromPath.IsAbsolute})
	if err != nil {
		sink.Error(diagnostics.NewError(diagnostics.ErrModuleNotFound, span, err.Error()))
		return
	}
	for _, sym := range mod.Symbols() {
		if sym.Visibility != Public {
			continue
		}
		ns.InsertSymbol(sink, span, sym.Name, sym.Decl, vis)
	}
	for _, entry := range mod.TraitImpls() {
		ns.current.traitImpls[entry.TraitPath] = append(ns.current.traitImpls[entry.TraitPath], entry)
	}
}

// RegisterVariant implements the sibling "variant_star_import" path
// spec.md §4.C names for enum variants: it records that variantName is a
// constructor of the given enum declaration, reachable unqualified after
// a variant star import.
// enum declaration, reachable unqualified after a variant star import.
func (ns *Namespace) RegisterVariant(variantName string, enumDeclName string) {
	ns.current.variantImports[variantName] = ns.current.symbols[enumDeclName].Decl
}

// LookupVariant resolves an unqualified variant constructor name to the
// enum declaration that owns it, if one was brought into scope by a
// variant star import.
func (ns *Namespace) LookupVariant(variantName string) (ids.DeclId, bool) {
	d, ok := ns.current.variantImports[variantName]
	return d, ok
}

// ItemImport imports one public symbol (spec.md §4.C). aliasOpt renames
// the imported symbol locally. Trait impls on the item's type are not
// imported.
func (ns *Namespace) ItemImport(sink *diagnostics.Sink, span source.Span, fromPath CallPath, itemName string, aliasOpt *string, vis Visibility) {
	mod, _, _, err := ns.resolveModule(CallPath{Prefixes: append(fromPath.Prefixes, fromPath.Suffix), IsAbsolute: fromPath.IsAbsolute})
	if err != nil {
		sink.Error(diagnostics.NewError(diagnostics.ErrModuleNotFound, span, err.Error()))
		return
	}
	sym, ok := mod.symbols[itemName]
	if !ok || sym.Visibility != Public {
		sink.Error(diagnostics.NewError(diagnostics.ErrSymbolNotFound, span,
			fmt.Sprintf("symbol not found: %s", itemName)))
		return
	}
	localName := itemName
	if aliasOpt != nil {
		localName = *aliasOpt
	}
	ns.InsertSymbol(sink, span, localName, sym.Decl, vis)

	// Only the symbol itself is imported. Symbol carries no TypeId, and
	// neither this function nor the checker's use-declaration handling
	// calls InsertTraitImplementation for the item's type.
}
