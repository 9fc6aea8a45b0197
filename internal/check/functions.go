package check

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/namespace"
	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/typed"
	"github.com/swaylang/swaycore/internal/types"
)

// CheckApplication resolves and checks a function/method call expression
// (spec.md §4.D "Function application"): resolve the callee by call path
// or method lookup, monomorphize it against explicit or inferred type
// arguments, unify each argument against the (substituted) parameter
// types, compare caller/callee purity, and — for ABI method calls —
// attach the selector/address metadata codegen needs.
func (c *Checker) CheckApplication(callerPurity decl.Purity, e *parsetree.ApplicationExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	if e.Receiver != nil {
		return c.checkMethodCall(callerPurity, e, checkExpr)
	}
	return c.checkFreeCall(callerPurity, e, checkExpr)
}

func (c *Checker) checkFreeCall(callerPurity decl.Purity, e *parsetree.ApplicationExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	path := pathFrom(e.CalleePath)
	calleeID, err := c.NS.ResolveCallPath(path, true)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, e.NodeSpan, err.Error()))
		return c.errorNode(e.NodeSpan)
	}

	args := make([]typed.Node, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = checkExpr(a)
	}

	calleeID, fn, err := c.resolveFunctionAndMonomorphize(calleeID, e, args)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, e.NodeSpan, err.Error()))
		return c.errorNode(e.NodeSpan)
	}

	c.unifyCallArguments(fn, args, e.NodeSpan)
	c.checkPurity(callerPurity, fn.Purity, e.NodeSpan)

	return typed.Node{
		Type: fn.ReturnType,
		Span: e.NodeSpan,
		Expr: typed.FunctionApplication{
			FunctionDecl: calleeID,
			Arguments:    args,
			SelfStateIdx: selfStateIdx(fn.Purity),
		},
	}
}

func (c *Checker) checkMethodCall(callerPurity decl.Purity, e *parsetree.ApplicationExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	recv := checkExpr(e.Receiver)
	args := make([]typed.Node, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = checkExpr(a)
	}

	argTypes := make([]ids.TypeId, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
	}

	methodID, err := c.NS.FindMethod(c.Store, c.Engine, recv.Type, e.MethodName, argTypes)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, e.NodeSpan, err.Error()))
		return c.errorNode(e.NodeSpan)
	}

	methodID, fn, err := c.resolveFunctionAndMonomorphize(methodID, e, args)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, e.NodeSpan, err.Error()))
		return c.errorNode(e.NodeSpan)
	}

	allArgs := append([]typed.Node{recv}, args...)
	c.unifyCallArguments(fn, allArgs, e.NodeSpan)
	c.checkPurity(callerPurity, fn.Purity, e.NodeSpan)

	app := typed.FunctionApplication{
		FunctionDecl: methodID,
		Arguments:    allArgs,
		SelfStateIdx: selfStateIdx(fn.Purity),
	}
	if sel, ok := c.abiSelectorFor(methodID); ok {
		app.ContractCall = c.abiCallMetadata(e, sel)
	}
	return typed.Node{Type: fn.ReturnType, Span: e.NodeSpan, Expr: app}
}

// abiSelectorFor reports whether methodID is a contract-ABI method by
// checking FunctionData.HasSelector, set when the impl-checking pass
// (impls.go) registers an ABI implementation (spec.md §4.D: "ABI method
// calls generate a contract call rather than a direct jump").
func (c *Checker) abiSelectorFor(methodID ids.DeclId) ([4]byte, bool) {
	fn, ok := c.Store.Get(methodID).AsFunction()
	if !ok || !fn.HasSelector {
		return [4]byte{}, false
	}
	return fn.Selector, true
}

func (c *Checker) abiCallMetadata(e *parsetree.ApplicationExpr, selector [4]byte) *typed.ContractCallMetadata {
	meta := &typed.ContractCallMetadata{MethodName: e.MethodName, Selector: selector}
	seen := map[string]bool{}
	for _, p := range e.ContractParams {
		if seen[p.Name] {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrContractCallParamRepeated, e.NodeSpan,
				fmt.Sprintf("call parameter %q repeated", p.Name)))
			continue
		}
		seen[p.Name] = true
		switch p.Name {
		case "gas":
			n := c.checkExprCached(p.Value)
			meta.Gas = &n
		case "coins":
			n := c.checkExprCached(p.Value)
			meta.Coins = &n
		case "asset_id":
			n := c.checkExprCached(p.Value)
			meta.AssetID = &n
		default:
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnrecognizedContractParam, e.NodeSpan,
				fmt.Sprintf("unrecognized contract call parameter %q", p.Name)))
		}
	}
	if e.Receiver != nil {
		n := c.checkExprCached(e.Receiver)
		meta.ContractAddr = n
	}
	return meta
}

// checkExprCached is a narrow seam so functions.go does not need a direct
// dependency on the recursive expression checker in expressions.go; it
// calls CheckExpr with storage-write purity.
func (c *Checker) checkExprCached(e parsetree.Expression) typed.Node {
	return c.CheckExpr(e, decl.PurityWritesStorage)
}

func (c *Checker) resolveFunctionAndMonomorphize(calleeID ids.DeclId, e *parsetree.ApplicationExpr, args []typed.Node) (ids.DeclId, *decl.FunctionData, error) {
	term := c.Store.Get(calleeID)
	fn, ok := term.AsFunction()
	if !ok {
		return ids.InvalidDecl, nil, fmt.Errorf("%q is not a function", term.Name)
	}
	if len(term.Generics) == 0 {
		return calleeID, fn, nil
	}

	typeArgs := make([]ids.TypeId, len(e.TypeArgs))
	for i, t := range e.TypeArgs {
		typeArgs[i] = c.ResolveType(t)
	}
	mono, err := decl.Monomorphize(c.Store, c.Engine, calleeID, typeArgs, false, e.NodeSpan, nil)
	if err != nil {
		return ids.InvalidDecl, nil, err
	}
	monoTerm := c.Store.Get(mono)
	monoFn, _ := monoTerm.AsFunction()
	return mono, monoFn, nil
}

func (c *Checker) unifyCallArguments(fn *decl.FunctionData, args []typed.Node, span source.Span) {
	if len(args) != len(fn.Params) {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrWrongNumberOfArguments, span,
			fmt.Sprintf("expected %d arguments, got %d", len(fn.Params), len(args))))
		return
	}
	for i, arg := range args {
		c.Engine.Unify(c.Sink, arg.Type, fn.Params[i].Type, span, "", nil, types.Default)
	}
}

// checkPurity enforces spec.md §4.D step 5: a pure caller may not call a
// storage-touching callee, and a read-only caller may not call a
// storage-writing callee.
func (c *Checker) checkPurity(callerPurity, calleePurity decl.Purity, span source.Span) {
	if !callerPurity.Allows(calleePurity) {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrPurityViolation, span,
			"this call requires storage access not granted to the calling function"))
	}
}

func pathFrom(segments []string) namespace.CallPath {
	if len(segments) == 0 {
		return namespace.CallPath{}
	}
	return namespace.CallPath{Prefixes: segments[:len(segments)-1], Suffix: segments[len(segments)-1]}
}

// selfStateIdx reports whether this callee touches contract storage, and if
// so at which engine-wide storage-access slot (spec.md §4.D: "functions
// that read or write storage carry a self_state_idx used by codegen to
// thread the storage-base pointer"). Index 0 is the sole slot this
// checker assigns; multiple concurrently-open storage accesses are not a
// feature this language surface exposes.
func selfStateIdx(p decl.Purity) *int {
	if p == decl.PurityPure {
		return nil
	}
	idx := 0
	return &idx
}
