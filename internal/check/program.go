package check

import (
	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/namespace"
	"github.com/swaylang/swaycore/internal/parsetree"
)

// CheckProgram walks every top-level parsetree.Declaration and dispatches
// it to the matching per-kind checker, mirroring the teacher's
// processor.go top-level driver loop (internal/analyzer) generalized from
// its single expression-statement pass to Sway's declaration forms.
//
// Cancel, when non-nil, is polled once per declaration — the language
// server's cancellation checkpoint granularity named in spec.md §5 ("the
// checker periodically observes the token at well-defined checkpoints:
// start of each declaration, start of each code block"). Declarations
// already checked before a cancellation is observed are returned as-is;
// CheckProgram never rolls back partial work.
func (c *Checker) CheckProgram(prog *parsetree.Program) []ids.DeclId {
	return c.checkDeclarations(prog.Declarations)
}

func (c *Checker) checkDeclarations(decls []parsetree.Declaration) []ids.DeclId {
	ids_ := make([]ids.DeclId, 0, len(decls))
	for _, d := range decls {
		if c.Cancel != nil && c.Cancel() {
			break
		}
		if id, ok := c.checkDeclaration(d); ok {
			ids_ = append(ids_, id)
		}
	}
	return ids_
}

func (c *Checker) checkDeclaration(d parsetree.Declaration) (ids.DeclId, bool) {
	switch v := d.(type) {
	case *parsetree.FunctionDecl:
		return c.checkFunctionDecl(v, false, 0), true
	case *parsetree.ImplTraitDecl:
		return c.CheckImplTrait(v), true
	case *parsetree.TraitDecl:
		return c.checkTraitDecl(v), true
	case *parsetree.StructDecl:
		return c.checkStructDecl(v), true
	case *parsetree.EnumDecl:
		return c.checkEnumDecl(v), true
	case *parsetree.StorageDecl:
		return c.checkStorageDecl(v), true
	case *parsetree.AbiDecl:
		return c.checkAbiDecl(v), true
	case *parsetree.ConstantDecl:
		return c.checkConstantDecl(v), true
	case *parsetree.TypeAliasDecl:
		return c.checkTypeAliasDecl(v), true
	case *parsetree.UseDecl:
		c.checkUseDecl(v)
		return 0, false
	case *parsetree.ModDecl:
		c.NS.EnterSubmodule(v.Name.Name, visibilityOf(v.IsPublic), v.NodeSpan)
		c.checkDeclarations(v.Body)
		c.NS.PopSubmodule()
		return 0, false
	default:
		return 0, false
	}
}

func visibilityOf(isPublic bool) namespace.Visibility {
	if isPublic {
		return namespace.Public
	}
	return namespace.Private
}

// checkStructDecl resolves every field's ascribed type and interns an
// AggregateData term, the KindStruct half of spec.md §3's DeclTerm.
func (c *Checker) checkStructDecl(v *parsetree.StructDecl) ids.DeclId {
	fields := make([]decl.Field, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = decl.Field{Name: f.Name.Name, Type: c.ResolveType(f.Type), Span: f.Name.At}
	}
	declID := c.Store.Insert(decl.Term{
		Kind:   decl.KindStruct,
		Name:   v.Name.Name,
		Span:   v.NodeSpan,
		Struct: &decl.AggregateData{Fields: fields},
	}, v.NodeSpan.Source)
	c.NS.InsertSymbol(c.Sink, v.Name.At, v.Name.Name, declID, namespace.Public)
	return declID
}

// checkEnumDecl resolves each variant's (optional) payload type and
// interns an AggregateData term with VariantNames populated in
// declaration order, matching how codegen and storage both rely on
// variant index == declaration order for tag encoding.
func (c *Checker) checkEnumDecl(v *parsetree.EnumDecl) ids.DeclId {
	fields := make([]decl.Field, len(v.Variants))
	names := make([]string, len(v.Variants))
	for i, variant := range v.Variants {
		names[i] = variant.Name.Name
		fields[i] = decl.Field{Name: variant.Name.Name, Type: c.ResolveType(variant.Payload), Span: variant.Name.At}
	}
	declID := c.Store.Insert(decl.Term{
		Kind: decl.KindEnum,
		Name: v.Name.Name,
		Span: v.NodeSpan,
		Enum: &decl.AggregateData{Fields: fields, VariantNames: names},
	}, v.NodeSpan.Source)
	c.NS.InsertSymbol(c.Sink, v.Name.At, v.Name.Name, declID, namespace.Public)
	return declID
}

// checkStorageDecl resolves every storage field's type and checks its
// initializer as a pure expression (storage initializers run once, at
// deployment, before any storage read is possible — spec.md §4.F). Key
// derivation itself is internal/storage's job once the whole program is
// checked and the contract's namespace prefix is known; this only fixes
// the per-field shape DeriveFieldKey/DeriveSubfieldKey later consume.
func (c *Checker) checkStorageDecl(v *parsetree.StorageDecl) ids.DeclId {
	fields := make([]decl.StorageFieldDecl, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = decl.StorageFieldDecl{
			Namespace:   f.Namespace,
			Name:        f.Name.Name,
			Type:        c.ResolveType(f.Type),
			Initializer: c.CheckExpr(f.Initializer, decl.PurityPure),
			OverrideKey: f.OverrideKey,
		}
	}
	declID := c.Store.Insert(decl.Term{
		Kind:    decl.KindStorage,
		Span:    v.NodeSpan,
		Storage: &decl.StorageData{Fields: fields},
	}, v.NodeSpan.Source)
	c.storageDecl = c.Store.Get(declID).Storage
	return declID
}

// checkAbiDecl interns one KindTraitFn declaration per interface method
// signature and collects their ids into an AbiData term; ImplTraitDecl
// checking (CheckImplTrait) looks these back up via AsAbi to validate an
// ABI impl's surface.
func (c *Checker) checkAbiDecl(v *parsetree.AbiDecl) ids.DeclId {
	methodIDs := make([]ids.DeclId, len(v.Interface))
	for i, sig := range v.Interface {
		params := make([]decl.Param, len(sig.Params))
		for j, p := range sig.Params {
			params[j] = decl.Param{Name: p.Name.Name, Type: c.ResolveType(p.Type), Span: p.Name.At}
		}
		methodIDs[i] = c.Store.Insert(decl.Term{
			Kind:    decl.KindTraitFn,
			Name:    sig.Name.Name,
			Span:    sig.Name.At,
			TraitFn: &decl.TraitFnData{Params: params, ReturnType: c.ResolveType(sig.ReturnType)},
		}, v.NodeSpan.Source)
	}
	declID := c.Store.Insert(decl.Term{
		Kind: decl.KindAbi,
		Name: v.Name.Name,
		Span: v.NodeSpan,
		Abi:  &decl.AbiData{InterfaceMethods: methodIDs},
	}, v.NodeSpan.Source)
	c.NS.InsertSymbol(c.Sink, v.Name.At, v.Name.Name, declID, namespace.Public)
	return declID
}

// checkConstantDecl checks the initializer expression (constants may not
// read storage: they can be evaluated before a contract is deployed) and
// interns a KindConstant term. Value holds the checked typed.Node, not a
// folded literal — spec.md never asks for constant folding, only that the
// declared type and initializer agree.
func (c *Checker) checkConstantDecl(v *parsetree.ConstantDecl) ids.DeclId {
	value := c.CheckExpr(v.Value, decl.PurityPure)
	declType := value.Type
	if v.Type != nil {
		declType = c.ResolveType(v.Type)
		c.Engine.Unify(c.Sink, value.Type, declType, v.NodeSpan, "constant initializer must match its declared type", nil, 0)
	}
	declID := c.Store.Insert(decl.Term{
		Kind:     decl.KindConstant,
		Name:     v.Name.Name,
		Span:     v.NodeSpan,
		Constant: &decl.ConstantData{Type: declType, Value: value},
	}, v.NodeSpan.Source)
	c.NS.InsertSymbol(c.Sink, v.Name.At, v.Name.Name, declID, namespace.Public)
	return declID
}

// checkTypeAliasDecl resolves the aliased type and interns an AliasTerm
// projection (decl.AliasData) under the alias's own name so ResolveType
// can later find it via KindTypeAlias.
func (c *Checker) checkTypeAliasDecl(v *parsetree.TypeAliasDecl) ids.DeclId {
	declID := c.Store.Insert(decl.Term{
		Kind:  decl.KindTypeAlias,
		Name:  v.Name.Name,
		Span:  v.NodeSpan,
		Alias: &decl.AliasData{Inner: c.ResolveType(v.Inner)},
	}, v.NodeSpan.Source)
	c.NS.InsertSymbol(c.Sink, v.Name.At, v.Name.Name, declID, namespace.Public)
	return declID
}

// checkTraitDecl interns one KindTraitFn per interface signature, collected
// into a TraitData term, and checks each default-bodied method as a
// KindFunction. The default methods' DeclIds are not recorded in the
// TraitData. Defaults are checked with no Self binding; an implementing
// type substitutes Self only inside CheckImplTrait.
func (c *Checker) checkTraitDecl(v *parsetree.TraitDecl) ids.DeclId {
	methodIDs := make([]ids.DeclId, len(v.Interface))
	for i, sig := range v.Interface {
		params := make([]decl.Param, len(sig.Params))
		for j, p := range sig.Params {
			params[j] = decl.Param{Name: p.Name.Name, Type: c.ResolveType(p.Type), Span: p.Name.At}
		}
		methodIDs[i] = c.Store.Insert(decl.Term{
			Kind:    decl.KindTraitFn,
			Name:    sig.Name.Name,
			Span:    sig.Name.At,
			TraitFn: &decl.TraitFnData{Params: params, ReturnType: c.ResolveType(sig.ReturnType)},
		}, v.NodeSpan.Source)
	}
	for _, fn := range v.Defaults {
		c.checkFunctionDecl(fn, false, 0)
	}
	declID := c.Store.Insert(decl.Term{
		Kind:  decl.KindTrait,
		Name:  v.Name.Name,
		Span:  v.NodeSpan,
		Trait: &decl.TraitData{InterfaceMethods: methodIDs, SuperTraits: v.SuperTraits},
	}, v.NodeSpan.Source)
	c.NS.InsertSymbol(c.Sink, v.Name.At, v.Name.Name, declID, namespace.Public)
	return declID
}

// checkUseDecl wires one `use` item into the active namespace. Import
// resolution itself (path -> DeclId lookup across packages) is
// namespace.StarImport/ItemImport's job; this only maps the parsed form
// onto those calls.
func (c *Checker) checkUseDecl(v *parsetree.UseDecl) {
	vis := visibilityOf(v.IsPublic)
	fromPath := modulePath(v.Path)
	switch v.Kind {
	case parsetree.UseStar:
		c.NS.StarImport(c.Sink, v.NodeSpan, fromPath, vis)
	default:
		c.NS.ItemImport(c.Sink, v.NodeSpan, fromPath, v.Item, v.Alias, vis)
	}
}

// modulePath turns a use-declaration's dotted path segments into the
// Prefixes/Suffix shape namespace.CallPath's resolver expects.
func modulePath(segments []string) namespace.CallPath {
	if len(segments) == 0 {
		return namespace.CallPath{}
	}
	return namespace.CallPath{Prefixes: segments[:len(segments)-1], Suffix: segments[len(segments)-1]}
}
