package check

import (
	"fmt"
	"math/big"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/namespace"
	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/typed"
	"github.com/swaylang/swaycore/internal/types"
)

// errorNode produces an ErrorRecoveryTerm-typed placeholder so
// that checking the rest of an expression tree can proceed after a
// diagnosed failure instead of aborting the whole pass (spec.md §4.D /
// §9's "error_recovery absorbs everything in unification").
func (c *Checker) errorNode(span source.Span) typed.Node {
	return typed.Node{
		Type: c.Engine.Insert(types.ErrorRecoveryTerm{}, span.Source),
		Span: span,
		Expr: typed.Literal{Kind: -1},
	}
}

// CheckExpr is the recursive expression checker (spec.md §4.D). purity is
// the purity level in effect for the enclosing function, threaded down so
// nested calls can be checked against it.
func (c *Checker) CheckExpr(e parsetree.Expression, purity decl.Purity) typed.Node {
	checkExpr := func(inner parsetree.Expression) typed.Node { return c.CheckExpr(inner, purity) }

	switch v := e.(type) {
	case *parsetree.LiteralExpr:
		return c.checkLiteral(v)
	case *parsetree.VariableExpr:
		return c.checkVariable(v)
	case *parsetree.ApplicationExpr:
		return c.CheckApplication(purity, v, checkExpr)
	case *parsetree.StructLiteralExpr:
		return c.checkStructLiteral(v, checkExpr)
	case *parsetree.FieldAccessExpr:
		return c.checkFieldAccess(v, checkExpr)
	case *parsetree.TupleIndexExpr:
		return c.checkTupleIndex(v, checkExpr)
	case *parsetree.EnumInstantiationExpr:
		return c.checkEnumInstantiation(v, checkExpr)
	case *parsetree.IfExpr:
		return c.checkIf(v, purity)
	case *parsetree.MatchExpr:
		return c.checkMatch(v, purity)
	case *parsetree.BlockExpr:
		n := c.checkBlock(v.Block, purity)
		return typed.Node{Type: n.blockType, Span: v.NodeSpan, Expr: n.block}
	case *parsetree.ReassignmentExpr:
		return c.checkReassignment(v, checkExpr)
	case *parsetree.ArrayLiteralExpr:
		return c.checkArrayLiteral(v, checkExpr)
	case *parsetree.ArrayIndexExpr:
		return c.checkArrayIndex(v, checkExpr)
	case *parsetree.AsmBlockExpr:
		return c.checkAsmBlock(v, purity)
	default:
		c.Sink.Error(diagnostics.Internal(fmt.Sprintf("unhandled expression node %T", e), e.Span()))
		return c.errorNode(e.Span())
	}
}

func (c *Checker) checkLiteral(v *parsetree.LiteralExpr) typed.Node {
	var ty ids.TypeId
	var expr typed.Literal
	switch v.Kind {
	case parsetree.LitBool:
		ty = c.Engine.Insert(types.PrimitiveTerm{Kind: types.Bool}, v.NodeSpan.Source)
		expr = typed.Literal{Kind: int(v.Kind), Bool: v.Bool}
	case parsetree.LitInt:
		ty = c.Engine.Insert(types.PrimitiveTerm{Kind: types.Numeric}, v.NodeSpan.Source)
		val := v.Int
		if val == nil {
			val = big.NewInt(0)
		}
		expr = typed.Literal{Kind: int(v.Kind), Int: val}
	case parsetree.LitB256:
		ty = c.Engine.Insert(types.PrimitiveTerm{Kind: types.B256}, v.NodeSpan.Source)
		expr = typed.Literal{Kind: int(v.Kind), Bytes: v.Bytes}
	case parsetree.LitString:
		ty = c.Engine.Insert(types.PrimitiveTerm{Kind: types.StringSlice}, v.NodeSpan.Source)
		expr = typed.Literal{Kind: int(v.Kind), Str: v.Str}
	case parsetree.LitByteArray:
		ty = c.Engine.Insert(types.ArrayTerm{
			Elem:   c.Engine.Insert(types.PrimitiveTerm{Kind: types.Uint8}, v.NodeSpan.Source),
			Length: uint64(len(v.Bytes)),
		}, v.NodeSpan.Source)
		expr = typed.Literal{Kind: int(v.Kind), Bytes: v.Bytes}
	}
	return typed.Node{Type: ty, Span: v.NodeSpan, Expr: expr}
}

func (c *Checker) checkVariable(v *parsetree.VariableExpr) typed.Node {
	if enumDecl, ok := c.NS.LookupVariant(v.Name); ok {
		_ = enumDecl
	}
	declID, err := c.NS.ResolveCallPath(namespace.CallPath{Suffix: v.Name}, true)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, v.NodeSpan,
			fmt.Sprintf("unknown variable %q", v.Name)))
		return c.errorNode(v.NodeSpan)
	}
	term := c.Store.Get(declID)
	var ty ids.TypeId
	switch term.Kind {
	case decl.KindVariable:
		ty = term.Variable.Type
	case decl.KindConstant:
		ty = term.Constant.Type
	default:
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, v.NodeSpan,
			fmt.Sprintf("%q does not name a value", v.Name)))
		return c.errorNode(v.NodeSpan)
	}
	return typed.Node{
		Type: ty,
		Span: v.NodeSpan,
		Expr: typed.VariableExpr{Name: v.Name, DeclID: declID, IsMutable: term.Kind == decl.KindVariable && !term.Variable.IsConstant},
	}
}

func (c *Checker) checkStructLiteral(v *parsetree.StructLiteralExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	declID, err := c.NS.ResolveCallPath(namespace.CallPath{Suffix: v.TypeName}, true)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownType, v.NodeSpan, err.Error()))
		return c.errorNode(v.NodeSpan)
	}
	term := c.Store.Get(declID)
	agg, ok := term.AsStruct()
	if !ok {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownType, v.NodeSpan,
			fmt.Sprintf("%q is not a struct", v.TypeName)))
		return c.errorNode(v.NodeSpan)
	}

	typeArgs := make([]ids.TypeId, len(v.TypeArgs))
	for i, t := range v.TypeArgs {
		typeArgs[i] = c.ResolveType(t)
	}
	if len(term.Generics) > 0 {
		mono, err := decl.Monomorphize(c.Store, c.Engine, declID, typeArgs, false, v.NodeSpan, nil)
		if err == nil {
			declID = mono
			term = c.Store.Get(declID)
			agg, _ = term.AsStruct()
		}
	}

	fieldByName := map[string]decl.Field{}
	for _, f := range agg.Fields {
		fieldByName[f.Name] = f
	}

	fields := make([]typed.StructFieldValue, 0, len(v.Fields))
	for _, fv := range v.Fields {
		want, ok := fieldByName[fv.Name]
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan,
				fmt.Sprintf("struct %q has no field %q", v.TypeName, fv.Name)))
			continue
		}
		val := checkExpr(fv.Value)
		c.Engine.Unify(c.Sink, val.Type, want.Type, v.NodeSpan, "", nil, types.Default)
		fields = append(fields, typed.StructFieldValue{Name: fv.Name, Value: val})
	}

	// Store the fields in the struct's declared order, whatever order the
	// literal wrote them in; codegen and storage serialization rely on it.
	ordered := make([]typed.StructFieldValue, 0, len(fields))
	for _, df := range agg.Fields {
		for _, f := range fields {
			if f.Name == df.Name {
				ordered = append(ordered, f)
			}
		}
	}

	ty := c.Engine.Insert(types.StructTerm{Decl: declID}, v.NodeSpan.Source)
	return typed.Node{Type: ty, Span: v.NodeSpan, Expr: typed.StructLiteral{StructDecl: declID, Fields: ordered}}
}

func (c *Checker) checkFieldAccess(v *parsetree.FieldAccessExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	target := checkExpr(v.Target)
	structTerm, ok := c.Engine.GetUnaliased(c.Engine.Lookup(target.Type)).(types.StructTerm)
	if !ok {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan,
			fmt.Sprintf("%q accessed on a non-struct value", v.Field)))
		return c.errorNode(v.NodeSpan)
	}
	agg, _ := c.Store.Get(structTerm.Decl).AsStruct()
	idx := -1
	var fieldType ids.TypeId
	for i, f := range agg.Fields {
		if f.Name == v.Field {
			idx = i
			fieldType = f.Type
			break
		}
	}
	if idx < 0 {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan,
			fmt.Sprintf("no field %q on this struct", v.Field)))
		return c.errorNode(v.NodeSpan)
	}
	return typed.Node{Type: fieldType, Span: v.NodeSpan, Expr: typed.StructFieldAccess{Target: target, FieldName: v.Field, FieldIdx: idx}}
}

func (c *Checker) checkTupleIndex(v *parsetree.TupleIndexExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	target := checkExpr(v.Target)
	tup, ok := c.Engine.GetUnaliased(c.Engine.Lookup(target.Type)).(types.TupleTerm)
	if !ok || v.Index < 0 || v.Index >= len(tup.Elems) {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan, "tuple index out of range"))
		return c.errorNode(v.NodeSpan)
	}
	return typed.Node{Type: tup.Elems[v.Index], Span: v.NodeSpan, Expr: typed.TupleIndex{Target: target, Index: v.Index}}
}

func (c *Checker) checkEnumInstantiation(v *parsetree.EnumInstantiationExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	declID, err := c.NS.ResolveCallPath(namespace.CallPath{Suffix: v.EnumName}, true)
	if err != nil {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownType, v.NodeSpan, err.Error()))
		return c.errorNode(v.NodeSpan)
	}
	term := c.Store.Get(declID)
	agg, ok := term.AsEnum()
	if !ok {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownType, v.NodeSpan,
			fmt.Sprintf("%q is not an enum", v.EnumName)))
		return c.errorNode(v.NodeSpan)
	}
	idx := -1
	var payload ids.TypeId
	for i, f := range agg.Fields {
		if f.Name == v.VariantName {
			idx = i
			payload = f.Type
			break
		}
	}
	if idx < 0 {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan,
			fmt.Sprintf("enum %q has no variant %q", v.EnumName, v.VariantName)))
		return c.errorNode(v.NodeSpan)
	}
	var contents *typed.Node
	if v.Contents != nil {
		n := checkExpr(v.Contents)
		c.Engine.Unify(c.Sink, n.Type, payload, v.NodeSpan, "", nil, types.Default)
		contents = &n
	}
	ty := c.Engine.Insert(types.EnumTerm{Decl: declID}, v.NodeSpan.Source)
	return typed.Node{Type: ty, Span: v.NodeSpan, Expr: typed.EnumInstantiation{EnumDecl: declID, VariantName: v.VariantName, VariantIdx: idx, Contents: contents}}
}

func (c *Checker) checkIf(v *parsetree.IfExpr, purity decl.Purity) typed.Node {
	cond := c.CheckExpr(v.Cond, purity)
	boolTy := c.Engine.Insert(types.PrimitiveTerm{Kind: types.Bool}, v.NodeSpan.Source)
	c.Engine.Unify(c.Sink, cond.Type, boolTy, v.NodeSpan, "if condition must be bool", nil, types.Default)

	thenBlock := c.checkBlock(v.Then, purity)
	var elseExpr typed.Expr
	resultType := thenBlock.blockType
	if v.Else != nil {
		switch e := v.Else.(type) {
		case *parsetree.BlockExpr:
			eb := c.checkBlock(e.Block, purity)
			c.Engine.Unify(c.Sink, eb.blockType, resultType, v.NodeSpan, "if/else arms must agree", nil, types.Default)
			elseExpr = eb.block
		case *parsetree.IfExpr:
			en := c.checkIf(e, purity)
			c.Engine.Unify(c.Sink, en.Type, resultType, v.NodeSpan, "if/else arms must agree", nil, types.Default)
			elseExpr = en.Expr
		}
	}
	return typed.Node{Type: resultType, Span: v.NodeSpan, Expr: typed.If{Cond: cond, Then: thenBlock.block, Else: elseExpr}}
}

type checkedBlock struct {
	block     *typed.CodeBlock
	blockType ids.TypeId
}

func (c *Checker) checkBlock(v *parsetree.CodeBlock, purity decl.Purity) checkedBlock {
	c.NS.EnterSubmodule(fmt.Sprintf("$block%p", v), namespace.Private, v.NodeSpan)
	defer c.NS.PopSubmodule()

	stmts := make([]typed.Statement, 0, len(v.Statements))
	for _, s := range v.Statements {
		stmts = append(stmts, c.checkStatement(s, purity))
	}
	var tail *typed.Node
	blockType := c.Engine.Insert(types.TupleTerm{Elems: nil}, v.NodeSpan.Source)
	if v.TailExpr != nil {
		n := c.CheckExpr(v.TailExpr, purity)
		tail = &n
		blockType = n.Type
	}
	return checkedBlock{
		block:     &typed.CodeBlock{Statements: stmts, Contents: tail},
		blockType: blockType,
	}
}

func (c *Checker) checkStatement(s parsetree.Statement, purity decl.Purity) typed.Statement {
	switch v := s.(type) {
	case *parsetree.LetStatement:
		return c.checkLet(v, purity)
	case *parsetree.ExprStatement:
		return typed.ExprStatement{Expr: c.CheckExpr(v.Expr, purity)}
	case *parsetree.ReturnStatement:
		var n typed.Node
		if v.Value != nil {
			n = c.CheckExpr(v.Value, purity)
		} else {
			n = typed.Node{Type: c.Engine.Insert(types.TupleTerm{}, v.NodeSpan.Source), Span: v.NodeSpan, Expr: typed.Literal{Kind: -1}}
		}
		if c.currentReturnType != 0 {
			c.Engine.Unify(c.Sink, n.Type, c.currentReturnType, v.NodeSpan, "return value must match the function's declared return type", nil, types.Default)
		}
		return typed.ReturnStatement{Value: n}
	default:
		c.Sink.Error(diagnostics.Internal(fmt.Sprintf("unhandled statement %T", s), s.Span()))
		return typed.ExprStatement{Expr: c.errorNode(s.Span())}
	}
}

func (c *Checker) checkLet(v *parsetree.LetStatement, purity decl.Purity) typed.Statement {
	value := c.CheckExpr(v.Value, purity)
	if v.Type != nil {
		declared := c.ResolveType(v.Type)
		c.Engine.Unify(c.Sink, value.Type, declared, v.NodeSpan, "let binding type mismatch", nil, types.Default)
	}
	bindings := c.desugarLetPattern(v.Pattern, value.Type, nil)
	return typed.LetStatement{Bindings: bindings, Value: value}
}

// desugarLetPattern flattens a (possibly destructuring) let pattern into
// one LetBinding per leaf variable name, recording the projection path
// needed to extract it from the bound value (spec.md §4.D pattern
// desugaring, restricted here to the irrefutable subset `let` permits:
// variable, wildcard, tuple, and struct patterns — enum/literal patterns
// are only legal in `match` and are rejected by the parser upstream).
func (c *Checker) desugarLetPattern(p parsetree.Pattern, ty ids.TypeId, prefix []typed.PathProjection) []typed.LetBinding {
	switch pat := p.(type) {
	case *parsetree.VariablePattern:
		declID := c.Store.Insert(decl.Term{Kind: decl.KindVariable, Name: pat.Name, Variable: &decl.VariableData{Type: ty}}, source.Generated)
		c.NS.InsertSymbol(c.Sink, pat.At, pat.Name, declID, namespace.Private)
		return []typed.LetBinding{{Name: pat.Name, DeclID: declID, Path: prefix}}
	case *parsetree.WildcardPattern:
		return nil
	case *parsetree.TuplePattern:
		tup, ok := c.Engine.GetUnaliased(c.Engine.Lookup(ty)).(types.TupleTerm)
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedType, pat.At, "tuple pattern against non-tuple type"))
			return nil
		}
		var out []typed.LetBinding
		for i, elemPat := range pat.Elements {
			if i >= len(tup.Elems) {
				break
			}
			path := append(append([]typed.PathProjection{}, prefix...), typed.PathProjection{Kind: typed.ProjectTupleIndex, TupleIdx: i})
			out = append(out, c.desugarLetPattern(elemPat, tup.Elems[i], path)...)
		}
		return out
	case *parsetree.StructPattern:
		structTerm, ok := c.Engine.GetUnaliased(c.Engine.Lookup(ty)).(types.StructTerm)
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedType, pat.At, "struct pattern against non-struct type"))
			return nil
		}
		agg, _ := c.Store.Get(structTerm.Decl).AsStruct()
		fieldType := map[string]ids.TypeId{}
		for _, f := range agg.Fields {
			fieldType[f.Name] = f.Type
		}
		var out []typed.LetBinding
		for _, fp := range pat.Fields {
			path := append(append([]typed.PathProjection{}, prefix...), typed.PathProjection{Kind: typed.ProjectField, FieldName: fp.Name})
			out = append(out, c.desugarLetPattern(fp.Pattern, fieldType[fp.Name], path)...)
		}
		return out
	default:
		c.Sink.Error(diagnostics.Internal(fmt.Sprintf("pattern %T not valid in a let binding", p), p.Span()))
		return nil
	}
}

func (c *Checker) checkReassignment(v *parsetree.ReassignmentExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	rhs := checkExpr(v.Value)
	path, targetType := c.reassignmentPath(v.Target)
	c.Engine.Unify(c.Sink, rhs.Type, targetType, v.NodeSpan, "reassignment type mismatch", nil, types.Default)
	unitTy := c.Engine.Insert(types.TupleTerm{}, v.NodeSpan.Source)
	return typed.Node{Type: unitTy, Span: v.NodeSpan, Expr: typed.Reassignment{LhsPath: path, Rhs: rhs}}
}

func (c *Checker) reassignmentPath(target parsetree.Expression) ([]typed.ReassignmentPathSegment, ids.TypeId) {
	switch v := target.(type) {
	case *parsetree.VariableExpr:
		n := c.checkVariable(v)
		return []typed.ReassignmentPathSegment{{Name: v.Name}}, n.Type
	case *parsetree.FieldAccessExpr:
		base, baseType := c.reassignmentPath(v.Target)
		structTerm, ok := c.Engine.GetUnaliased(c.Engine.Lookup(baseType)).(types.StructTerm)
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan, "field reassignment on non-struct"))
			return base, c.Engine.Insert(types.ErrorRecoveryTerm{}, v.NodeSpan.Source)
		}
		agg, _ := c.Store.Get(structTerm.Decl).AsStruct()
		for _, f := range agg.Fields {
			if f.Name == v.Field {
				return append(base, typed.ReassignmentPathSegment{Name: v.Field}), f.Type
			}
		}
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, v.NodeSpan, "unknown field in reassignment"))
		return base, c.Engine.Insert(types.ErrorRecoveryTerm{}, v.NodeSpan.Source)
	default:
		c.Sink.Error(diagnostics.Internal("unsupported reassignment lvalue", target.Span()))
		return nil, c.Engine.Insert(types.ErrorRecoveryTerm{}, target.Span().Source)
	}
}

func (c *Checker) checkArrayLiteral(v *parsetree.ArrayLiteralExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	elems := make([]typed.Node, len(v.Elements))
	var elemType ids.TypeId
	for i, e := range v.Elements {
		elems[i] = checkExpr(e)
		if i == 0 {
			elemType = elems[i].Type
		} else {
			c.Engine.Unify(c.Sink, elems[i].Type, elemType, v.NodeSpan, "array elements must share one type", nil, types.Default)
		}
	}
	if len(elems) == 0 {
		elemType = c.Engine.Insert(types.NewUnknown(), v.NodeSpan.Source)
	}
	ty := c.Engine.Insert(types.ArrayTerm{Elem: elemType, Length: uint64(len(elems))}, v.NodeSpan.Source)
	return typed.Node{Type: ty, Span: v.NodeSpan, Expr: typed.ArrayLiteral{Elements: elems}}
}

func (c *Checker) checkArrayIndex(v *parsetree.ArrayIndexExpr, checkExpr func(parsetree.Expression) typed.Node) typed.Node {
	target := checkExpr(v.Target)
	idx := checkExpr(v.Index)
	u64 := c.Engine.Insert(types.PrimitiveTerm{Kind: types.Uint64}, v.NodeSpan.Source)
	c.Engine.Unify(c.Sink, idx.Type, u64, v.NodeSpan, "array index must be u64", nil, types.Default)
	arr, ok := c.Engine.GetUnaliased(c.Engine.Lookup(target.Type)).(types.ArrayTerm)
	if !ok {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedType, v.NodeSpan, "indexing a non-array value"))
		return c.errorNode(v.NodeSpan)
	}
	if lit, ok := v.Index.(*parsetree.LiteralExpr); ok && lit.Kind == parsetree.LitInt && lit.Int != nil {
		if lit.Int.IsUint64() && lit.Int.Uint64() >= arr.Length {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrArrayOutOfBounds, v.NodeSpan, "array index out of bounds"))
		}
	}
	return typed.Node{Type: arr.Elem, Span: v.NodeSpan, Expr: typed.ArrayIndex{Target: target, Index: idx}}
}
