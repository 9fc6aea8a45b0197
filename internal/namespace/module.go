// Package namespace implements component 4.C: the module tree, per-module
// symbol tables, trait-implementation tables, and the use-statement import
// system (spec.md §4.C). Grounded on the teacher's internal/symbols
// package (scope-chained SymbolTable with an `outer` pointer to a prelude
// singleton) generalized from a single flat scope chain into the
// hierarchical module tree spec.md §3 requires.
package namespace

import (
	"fmt"
	"sort"

	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/types"
)

type Visibility int

const (
	Private Visibility = iota
	Public
)

// Symbol is one entry in a module's symbol table (spec.md §3 Module:
// "symbol table name -> DeclId").
type Symbol struct {
	Name       string
	Decl       ids.DeclId
	Visibility Visibility
}

// TraitImplEntry is one row of the trait-implementation table keyed by
// (CallPath, TypeId) -> [method DeclId] (spec.md §3 Module, §GLOSSARY).
type TraitImplEntry struct {
	TraitPath        string
	ImplementingType ids.TypeId
	Methods          []ids.DeclId
}

// Module is a node in the package module tree (spec.md §3). Submodule
// iteration is insertion-ordered for determinism (spec.md §5).
type Module struct {
	Name           string
	Span           source.Span
	Parent         *Module
	submodules     map[string]*Module
	submoduleOrder []string
	symbols        map[string]Symbol
	symbolOrder    []string
	traitImpls     map[string][]TraitImplEntry // trait path -> entries, insertion-ordered
	variantImports map[string]ids.DeclId       // enum variant name -> owning enum decl, from variant_star_import
}

func newModule(name string, parent *Module, span source.Span) *Module {
	return &Module{
		Name:           name,
		Span:           span,
		Parent:         parent,
		submodules:     make(map[string]*Module),
		symbols:        make(map[string]Symbol),
		traitImpls:     make(map[string][]TraitImplEntry),
		variantImports: make(map[string]ids.DeclId),
	}
}

// Submodules returns submodules in insertion order (spec.md §3: "ordered-
// stable for determinism").
func (m *Module) Submodules() []*Module {
	out := make([]*Module, 0, len(m.submoduleOrder))
	for _, n := range m.submoduleOrder {
		out = append(out, m.submodules[n])
	}
	return out
}

// Symbols returns the module's own symbols in insertion order (spec.md §5:
// "symbol-table iteration order matches insertion").
func (m *Module) Symbols() []Symbol {
	out := make([]Symbol, 0, len(m.symbolOrder))
	for _, n := range m.symbolOrder {
		out = append(out, m.symbols[n])
	}
	return out
}

// TraitImpls returns the trait-impl table in a deterministic order over
// (trait path, implementing type id) as required by spec.md §5.
func (m *Module) TraitImpls() []TraitImplEntry {
	paths := make([]string, 0, len(m.traitImpls))
	for p := range m.traitImpls {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := []TraitImplEntry{}
	for _, p := range paths {
		entries := append([]TraitImplEntry(nil), m.traitImpls[p]...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].ImplementingType < entries[j].ImplementingType })
		out = append(out, entries...)
	}
	return out
}

// Path returns the full module path from the package root to this module.
func (m *Module) Path() []string {
	if m.Parent == nil {
		return []string{m.Name}
	}
	return append(m.Parent.Path(), m.Name)
}

// Root is a package's module tree: the per-package root named by the
// package (spec.md §3).
type Root struct {
	PackageName string
	IsCore      bool // true for the `core` package itself
	HasStd      bool // true when `std` is available to this package
	IsContract  bool // true for contract program kind
	module      *Module
	externals   map[string]*Root // external package roots, keyed by package name
}

func NewRoot(packageName string, isCore, hasStd, isContract bool) *Root {
	return &Root{
		PackageName: packageName,
		IsCore:      isCore,
		HasStd:      hasStd,
		IsContract:  isContract,
		module:      newModule(packageName, nil, source.Dummy),
		externals:   make(map[string]*Root),
	}
}

func (r *Root) Module() *Module { return r.module }

func (r *Root) AddExternal(pkg *Root) { r.externals[pkg.PackageName] = pkg }

func (r *Root) External(name string) (*Root, bool) {
	p, ok := r.externals[name]
	return p, ok
}

// Namespace is a mutable view over one package's module tree used during
// type-check (spec.md §3: "records the current module path and delegates
// lookups to the root").
type Namespace struct {
	root    *Root
	current *Module
}

func New(root *Root) *Namespace {
	return &Namespace{root: root, current: root.module}
}

func (ns *Namespace) Root() *Root           { return ns.root }
func (ns *Namespace) CurrentModule() *Module { return ns.current }

// EnterSubmodule descends into (creating if absent) a named submodule and
// applies the implicit prelude imports (spec.md §4.C "Prelude semantics").
func (ns *Namespace) EnterSubmodule(name string, vis Visibility, span source.Span) *Module {
	if existing, ok := ns.current.submodules[name]; ok {
		ns.current = existing
		return existing
	}
	child := newModule(name, ns.current, span)
	ns.current.submodules[name] = child
	ns.current.submoduleOrder = append(ns.current.submoduleOrder, name)
	ns.current.symbols[name] = Symbol{Name: name, Visibility: vis}
	ns.current = child
	ns.applyPrelude(child)
	return child
}

func (ns *Namespace) PopSubmodule() {
	if ns.current.Parent != nil {
		ns.current = ns.current.Parent
	}
}

// applyPrelude star-imports core::prelude::* into a newly entered non-root
// module and, for non-core packages with std available, std::prelude::*.
// Nothing is imported for contract packages beyond that: no CONTRACT_ID
// symbol is inserted. The root module itself never receives the prelude,
// including the `core` package's own root — this resolves the Open
// Question in spec.md §9 in favor of never self-importing, matching the
// comment ("the source suppresses self-imports at the package name
// level") over the divergent code path; see DESIGN.md.
func (ns *Namespace) applyPrelude(m *Module) {
	if core, ok := ns.root.External("core"); ok && !(ns.root.IsCore && m == ns.root.module) {
		_ = ns.starImportFromRoot(core, []string{"prelude"}, m)
	}
	if ns.root.HasStd && !ns.root.IsCore {
		if std, ok := ns.root.External("std"); ok {
			_ = ns.starImportFromRoot(std, []string{"prelude"}, m)
		}
	}
	if ns.root.IsContract {
		// No symbol is inserted here; contract modules get no CONTRACT_ID.
	}
}

func (ns *Namespace) starImportFromRoot(pkg *Root, path []string, into *Module) error {
	mod, err := findModuleInRoot(pkg, path)
	if err != nil {
		return err
	}
	for _, sym := range mod.Symbols() {
		if sym.Visibility != Public {
			continue
		}
		into.symbols[sym.Name] = sym
		into.symbolOrder = append(into.symbolOrder, sym.Name)
	}
	for _, entry := range mod.TraitImpls() {
		into.traitImpls[entry.TraitPath] = append(into.traitImpls[entry.TraitPath], entry)
	}
	for name, decl := range mod.variantImports {
		into.variantImports[name] = decl
	}
	return nil
}

func findModuleInRoot(root *Root, path []string) (*Module, error) {
	cur := root.module
	for _, seg := range path {
		next, ok := cur.submodules[seg]
		if !ok {
			return nil, fmt.Errorf("%s", diagnostics.NewError(diagnostics.ErrModuleNotFound, source.Dummy,
				"module not found: "+seg).Error())
		}
		cur = next
	}
	return cur, nil
}

// InsertSymbol adds name -> declID to the current module, emitting
// OverridesOtherSymbol on redefinition within the same module (spec.md
// §4.C).
func (ns *Namespace) InsertSymbol(sink *diagnostics.Sink, span source.Span, name string, declID ids.DeclId, vis Visibility) {
	if _, exists := ns.current.symbols[name]; exists {
		sink.Warning(diagnostics.NewWarning(diagnostics.WarnOverridesOtherSymbol, span,
			fmt.Sprintf("symbol %q overrides a previous definition in this module", name)))
	} else {
		ns.current.symbolOrder = append(ns.current.symbolOrder, name)
	}
	ns.current.symbols[name] = Symbol{Name: name, Decl: declID, Visibility: vis}
}

// InsertTraitImplementation records (trait, implementing type) -> methods
// in the current module, always overwriting and warning if the pair
// already had an entry in this module (spec.md §4.C).
func (ns *Namespace) InsertTraitImplementation(sink *diagnostics.Sink, engine *types.Engine, span source.Span, traitPath string, implementingType ids.TypeId, methods []ids.DeclId) {
	rep := engine.Lookup(implementingType)
	existing := ns.current.traitImpls[traitPath]
	for i, e := range existing {
		if engine.Equivalent(e.ImplementingType, rep) {
			sink.Warning(diagnostics.NewWarning(diagnostics.WarnOverridingTraitImplementation, span,
				fmt.Sprintf("impl of %q for this type overrides a previous implementation in this module", traitPath)))
			existing[i] = TraitImplEntry{TraitPath: traitPath, ImplementingType: rep, Methods: methods}
			ns.current.traitImpls[traitPath] = existing
			return
		}
	}
	ns.current.traitImpls[traitPath] = append(existing, TraitImplEntry{TraitPath: traitPath, ImplementingType: rep, Methods: methods})
}
