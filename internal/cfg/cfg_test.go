package cfg

import (
	"testing"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/typed"
)

func lit(span source.Span) typed.Node {
	return typed.Node{Span: span, Expr: typed.Literal{Kind: 0, Bool: true}}
}

func spanAt(start, end uint32) source.Span {
	return source.Span{Source: 1, Start: start, End: end}
}

// TestUnreachableAfterReturn checks spec.md §4.E's core case: a statement
// following an unconditional `return` is reported dead.
func TestUnreachableAfterReturn(t *testing.T) {
	body := &typed.CodeBlock{
		Statements: []typed.Statement{
			typed.ReturnStatement{Value: lit(spanAt(0, 5))},
			typed.ExprStatement{Expr: lit(spanAt(10, 15))},
		},
	}
	fnID := ids.DeclId(1)
	funcs := map[ids.DeclId]*decl.FunctionData{fnID: {Body: body}}

	g := BuildProgram(funcs, []ids.DeclId{fnID})
	dead := g.Unreachable()
	if len(dead) != 1 {
		t.Fatalf("expected exactly one dead node, got %d: %+v", len(dead), dead)
	}
	if dead[0].Span != spanAt(10, 15) {
		t.Fatalf("expected the statement after return to be dead, got span %v", dead[0].Span)
	}
}

// TestNoDeadCodeOnFallthrough checks that ordinary sequential statements
// reachable from the entry are never reported.
func TestNoDeadCodeOnFallthrough(t *testing.T) {
	body := &typed.CodeBlock{
		Statements: []typed.Statement{
			typed.ExprStatement{Expr: lit(spanAt(0, 5))},
			typed.ExprStatement{Expr: lit(spanAt(10, 15))},
		},
	}
	fnID := ids.DeclId(1)
	funcs := map[ids.DeclId]*decl.FunctionData{fnID: {Body: body}}

	g := BuildProgram(funcs, []ids.DeclId{fnID})
	if dead := g.Unreachable(); len(dead) != 0 {
		t.Fatalf("expected no dead code, got %+v", dead)
	}
}

// TestNonEntryFunctionReachableViaCall checks that a helper function only
// reachable through a call from an entry point is not itself reported
// dead, even though it is not a declared entry.
func TestNonEntryFunctionReachableViaCall(t *testing.T) {
	helperID := ids.DeclId(2)
	helperBody := &typed.CodeBlock{
		Statements: []typed.Statement{typed.ExprStatement{Expr: lit(spanAt(20, 25))}},
	}
	entryID := ids.DeclId(1)
	entryBody := &typed.CodeBlock{
		Statements: []typed.Statement{
			typed.ExprStatement{Expr: typed.Node{Span: spanAt(0, 5), Expr: typed.FunctionApplication{FunctionDecl: helperID}}},
		},
	}
	funcs := map[ids.DeclId]*decl.FunctionData{
		entryID:  {Body: entryBody},
		helperID: {Body: helperBody},
	}

	g := BuildProgram(funcs, []ids.DeclId{entryID})
	if dead := g.Unreachable(); len(dead) != 0 {
		t.Fatalf("expected the called helper's body to be reachable, got dead: %+v", dead)
	}
}

// TestConvexityDropsNestedDeadNode checks spec.md §4.E's redundancy filter:
// a dead node nested inside another dead node's span is not separately
// reported.
func TestConvexityDropsNestedDeadNode(t *testing.T) {
	inner := typed.ExprStatement{Expr: lit(spanAt(12, 14))}
	outerIf := typed.Node{
		Span: spanAt(10, 20),
		Expr: typed.If{
			Cond: lit(spanAt(10, 11)),
			Then: &typed.CodeBlock{Statements: []typed.Statement{inner}},
		},
	}
	body := &typed.CodeBlock{
		Statements: []typed.Statement{
			typed.ReturnStatement{Value: lit(spanAt(0, 5))},
			typed.ExprStatement{Expr: outerIf},
		},
	}
	fnID := ids.DeclId(1)
	funcs := map[ids.DeclId]*decl.FunctionData{fnID: {Body: body}}

	g := BuildProgram(funcs, []ids.DeclId{fnID})
	dead := g.Unreachable()
	if len(dead) != 1 {
		t.Fatalf("expected convexity to collapse the nested dead if-block into one warning, got %d: %+v", len(dead), dead)
	}
	if dead[0].Span != spanAt(10, 20) {
		t.Fatalf("expected the outer if-statement span to survive, got %v", dead[0].Span)
	}
}

func TestReportDeadCodeEmitsWarning(t *testing.T) {
	body := &typed.CodeBlock{
		Statements: []typed.Statement{
			typed.ReturnStatement{Value: lit(spanAt(0, 5))},
			typed.ExprStatement{Expr: lit(spanAt(10, 15))},
		},
	}
	fnID := ids.DeclId(1)
	funcs := map[ids.DeclId]*decl.FunctionData{fnID: {Body: body}}
	sink := &diagnostics.Sink{}

	ReportDeadCode(sink, funcs, []ids.DeclId{fnID})

	warnings := sink.Warnings()
	if len(warnings) != 1 || warnings[0].Code != string(diagnostics.WarnDeadCode) {
		t.Fatalf("expected one DeadCode warning, got %+v", warnings)
	}
}
