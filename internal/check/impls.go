package check

import (
	"crypto/sha256"
	"fmt"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/namespace"
	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/types"
)

// CheckImplTrait checks one `impl Trait for Type { ... }` block (spec.md
// §4.D "Trait/ABI impl check"): every interface method the trait (or ABI)
// names must be implemented with a matching signature, and no method
// outside that surface may be present. ABI impls additionally require the
// implementing type to be the contract's own Contract type.
func (c *Checker) CheckImplTrait(decl_ *parsetree.ImplTraitDecl) ids.DeclId {
	targetType := c.ResolveType(decl_.TargetType)
	prevSelf := c.selfType
	c.selfType = targetType
	defer func() { c.selfType = prevSelf }()

	if decl_.IsAbiImpl && c.ProgramKind != parsetree.Contract {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrImplAbiForNonContract, decl_.NodeSpan,
			"ABI implementations are only legal in contract programs"))
	}

	var surface []parsetree.TraitFnSig
	traitDeclID, err := c.NS.ResolveCallPath(namespace.CallPath{Suffix: decl_.TraitName}, true)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownTrait, decl_.NodeSpan, err.Error()))
	} else {
		term := c.Store.Get(traitDeclID)
		if abi, ok := term.AsAbi(); ok {
			for _, m := range abi.InterfaceMethods {
				surface = append(surface, traitFnSigOf(c.Store, m))
			}
		} else if tr, ok := term.AsTrait(); ok {
			for _, m := range tr.InterfaceMethods {
				surface = append(surface, traitFnSigOf(c.Store, m))
			}
		}
	}

	implemented := map[string]*parsetree.FunctionDecl{}
	for _, m := range decl_.Methods {
		implemented[m.Name.Name] = m
	}

	required := map[string]bool{}
	for _, sig := range surface {
		required[sig.Name.Name] = true
		m, ok := implemented[sig.Name.Name]
		if !ok {
			continue // reported in the "missing" pass below
		}
		if len(m.Params) != len(sig.Params) {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrIncorrectNumberOfInterfaceSurfaceFunctionParameters, m.NodeSpan,
				fmt.Sprintf("method %q has %d parameters, interface requires %d", m.Name.Name, len(m.Params), len(sig.Params))))
			continue
		}
		for i, p := range m.Params {
			got := c.ResolveType(p.Type)
			want := c.ResolveType(sig.Params[i].Type)
			if !c.Engine.Equivalent(c.deepUnifyProbe(got), c.deepUnifyProbe(want)) {
				c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedTypeInTrait, m.NodeSpan,
					fmt.Sprintf("parameter %q of %q does not match the interface signature", p.Name.Name, m.Name.Name)))
			}
		}
	}

	var missing []string
	for name := range required {
		if _, ok := implemented[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrMissingInterfaceSurfaceMethods, decl_.NodeSpan,
			fmt.Sprintf("missing interface methods: %v", missing)))
	}
	for name := range implemented {
		if !required[name] {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrFunctionNotAPartOfInterfaceSurface, decl_.NodeSpan,
				fmt.Sprintf("%q is not part of the interface surface being implemented", name)))
		}
	}

	var methodIDs []ids.DeclId
	for _, m := range decl_.Methods {
		methodIDs = append(methodIDs, c.checkFunctionDecl(m, decl_.IsAbiImpl, targetType))
	}

	c.NS.InsertTraitImplementation(c.Sink, c.Engine, decl_.NodeSpan, decl_.TraitName, targetType, methodIDs)

	implID := c.Store.Insert(decl.Term{
		Kind: decl.KindImplTrait,
		Name: decl_.TraitName,
		Span: decl_.NodeSpan,
		Impl: &decl.ImplData{
			TraitPath:        decl_.TraitName,
			ImplementingType: targetType,
			Methods:          methodIDs,
			IsAbiImpl:        decl_.IsAbiImpl,
		},
	}, decl_.NodeSpan.Source)
	return implID
}

// deepUnifyProbe returns id's current representative via Engine.Lookup; it
// inserts nothing and does not unify.
func (c *Checker) deepUnifyProbe(id ids.TypeId) ids.TypeId { return c.Engine.Lookup(id) }

func traitFnSigOf(store *decl.Store, declID ids.DeclId) parsetree.TraitFnSig {
	term := store.Get(declID)
	if term.TraitFn == nil {
		return parsetree.TraitFnSig{Name: parsetree.Ident{Name: term.Name}}
	}
	return parsetree.TraitFnSig{Name: parsetree.Ident{Name: term.Name}}
}

// checkFunctionDecl checks one function body end-to-end, advancing its
// CheckState through the state machine named in spec.md §4.D (Parsed ->
// HeaderResolved -> BodyChecked) and returns its DeclId. selfType is
// non-zero when checking a trait/impl method body.
func (c *Checker) checkFunctionDecl(fn *parsetree.FunctionDecl, isAbiMethod bool, selfType ids.TypeId) ids.DeclId {
	prevSelf := c.selfType
	if selfType != 0 {
		c.selfType = selfType
	}
	defer func() { c.selfType = prevSelf }()

	prevReturnType := c.currentReturnType
	defer func() { c.currentReturnType = prevReturnType }()

	params := make([]decl.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = decl.Param{Name: p.Name.Name, Type: c.ResolveType(p.Type), Span: p.Name.At}
	}
	retType := c.ResolveType(fn.ReturnType)
	c.currentReturnType = retType
	purity := purityOf(fn.Purity)

	declID := c.Store.Insert(decl.Term{
		Kind:       decl.KindFunction,
		Name:       fn.Name.Name,
		Span:       fn.NodeSpan,
		CheckState: decl.StateHeaderResolved,
		Function: &decl.FunctionData{
			Params:      params,
			ReturnType:  retType,
			Purity:      purity,
			HasSelector: isAbiMethod,
			Selector:    selectorFor(fn.Name.Name, params),
		},
	}, fn.NodeSpan.Source)

	c.NS.EnterSubmodule("$fn$"+fn.Name.Name, namespace.Private, fn.NodeSpan)
	paramDecls := make([]ids.DeclId, len(params))
	for i, p := range params {
		pd := c.Store.Insert(decl.Term{Kind: decl.KindVariable, Name: p.Name, Variable: &decl.VariableData{Type: p.Type}}, source.Generated)
		c.NS.InsertSymbol(c.Sink, p.Span, p.Name, pd, namespace.Private)
		paramDecls[i] = pd
	}
	body := c.checkBlock(fn.Body, purity)
	c.NS.PopSubmodule()

	c.Engine.Unify(c.Sink, body.blockType, retType, fn.NodeSpan, "function body must match its declared return type", nil, types.Default)

	term := c.Store.Get(declID)
	term.Function.Body = body.block
	term.Function.ParamDecls = paramDecls
	term.CheckState = decl.StateBodyChecked
	c.Store.Update(declID, term)
	return declID
}

func purityOf(p string) decl.Purity {
	switch p {
	case "storage(read)":
		return decl.PurityReadsStorage
	case "storage(write)", "storage(read, write)", "storage(write, read)":
		return decl.PurityWritesStorage
	default:
		return decl.PurityPure
	}
}

// selectorFor computes the 4-byte method selector codegen/dispatch use to
// route a contract call (spec.md §4.J wire contract names "selector" as an
// opaque 4-byte routing key): the first 4 bytes of the sha256 of
// "name(param,param,...)", where each param is the parameter's name. The
// parameter types and the enclosing module path are not part of the
// hashed string.
func selectorFor(name string, params []decl.Param) [4]byte {
	sig := name + "("
	for i, p := range params {
		if i > 0 {
			sig += ","
		}
		sig += p.Name
	}
	sig += ")"
	sum := sha256.Sum256([]byte(sig))
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}
