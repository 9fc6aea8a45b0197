package codegen

import (
	"math/big"
	"testing"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/typed"
)

func span(start, end uint32) source.Span {
	return source.Span{Source: 1, Start: start, End: end}
}

func lit(v int64, at source.Span) typed.Node {
	return typed.Node{Span: at, Expr: typed.Literal{Int: big.NewInt(v)}}
}

func TestLowerFunctionReturnJumpsToExitLabel(t *testing.T) {
	store := decl.NewStore()
	g := NewGenerator(store, nil)

	body := &typed.CodeBlock{
		Statements: []typed.Statement{
			typed.ReturnStatement{Value: lit(7, span(0, 1))},
			typed.ExprStatement{Expr: lit(9, span(2, 3))},
		},
	}
	fn := &decl.FunctionData{Body: body}
	g.LowerFunction("f", fn, span(0, 10))

	foundJump := false
	foundExit := false
	for _, op := range g.Ops {
		if op.Form == FormJump && op.Label == "f_exit" {
			foundJump = true
		}
		if op.Form == FormLabel && op.Label == "f_exit" {
			foundExit = true
		}
	}
	if !foundJump {
		t.Fatalf("expected a return statement to emit a jump to the function exit label")
	}
	if !foundExit {
		t.Fatalf("expected the function exit label to be emitted")
	}
}

func TestLiteralInsertedIntoDataSection(t *testing.T) {
	store := decl.NewStore()
	g := NewGenerator(store, nil)

	n := lit(42, span(0, 1))
	g.lowerExpr(n, g.freshReg(), "")

	if len(g.Data.Entries) != 1 {
		t.Fatalf("expected exactly one data entry, got %d", len(g.Data.Entries))
	}
	if g.Data.Entries[0].Kind != DataWord {
		t.Fatalf("expected an integer literal to produce a DataWord entry")
	}
}

func TestDataSectionDeduplicatesIdenticalEntries(t *testing.T) {
	d := NewDataSection()
	a := d.Insert(DataEntry{Kind: DataWord, Bytes: []byte{1, 2, 3}})
	b := d.Insert(DataEntry{Kind: DataWord, Bytes: []byte{1, 2, 3}})
	if a != b {
		t.Fatalf("expected structurally identical entries to dedupe to the same index, got %d and %d", a, b)
	}
	c := d.Insert(DataEntry{Kind: DataWord, Bytes: []byte{1, 2, 3}, Name: "MY_CONST"})
	if c == a {
		t.Fatalf("named configuration constants must never be deduplicated against an anonymous entry")
	}
}

func TestIfLowersBranchAndJoin(t *testing.T) {
	store := decl.NewStore()
	g := NewGenerator(store, nil)

	ifExpr := typed.If{
		Cond: lit(1, span(0, 1)),
		Then: &typed.CodeBlock{Contents: ptr(lit(2, span(1, 2)))},
		Else: &typed.CodeBlock{Contents: ptr(lit(3, span(2, 3)))},
	}
	n := typed.Node{Span: span(0, 3), Expr: ifExpr}
	g.lowerExpr(n, g.freshReg(), "")

	var jumpIfZero, jump, elseLabel int
	for _, op := range g.Ops {
		switch op.Form {
		case FormJumpIfZero:
			jumpIfZero++
		case FormJump:
			jump++
		case FormLabel:
			elseLabel++
		}
	}
	if jumpIfZero != 1 {
		t.Fatalf("expected exactly one branch-on-zero op for the if condition, got %d", jumpIfZero)
	}
	if jump != 1 {
		t.Fatalf("expected exactly one jump past the else branch, got %d", jump)
	}
	if elseLabel != 2 {
		t.Fatalf("expected two labels (else entry, join point), got %d", elseLabel)
	}
}

func TestArrayLiteralSmallCountUsesImmediateOffsets(t *testing.T) {
	store := decl.NewStore()
	g := NewGenerator(store, nil)

	arr := typed.ArrayLiteral{Elements: []typed.Node{lit(1, span(0, 1)), lit(2, span(1, 2))}}
	g.lowerArrayLiteral(arr, g.freshReg(), span(0, 2), "")

	stores := 0
	for _, op := range g.Ops {
		if op.Form == FormReal && op.Real == "SW" {
			stores++
		}
	}
	if stores != 2 {
		t.Fatalf("expected one SW per element for a small array, got %d", stores)
	}
}

func TestFunctionApplicationInlinesCalleeBody(t *testing.T) {
	store := decl.NewStore()

	paramDecl := store.Insert(decl.Term{Kind: decl.KindVariable, Name: "x", Variable: &decl.VariableData{}}, source.Generated)
	calleeBody := &typed.CodeBlock{Contents: ptr(typed.Node{Expr: typed.VariableExpr{Name: "x", DeclID: paramDecl}})}
	calleeID := store.Insert(decl.Term{
		Kind: decl.KindFunction,
		Function: &decl.FunctionData{
			Params:     []decl.Param{{Name: "x"}},
			ParamDecls: []ids.DeclId{paramDecl},
			Body:       calleeBody,
		},
	}, source.Generated)

	g := NewGenerator(store, nil)
	app := typed.FunctionApplication{FunctionDecl: calleeID, Arguments: []typed.Node{lit(5, span(0, 1))}}
	g.lowerExpr(typed.Node{Expr: app, Span: span(0, 1)}, g.freshReg(), "")

	if _, bound := g.varReg[paramDecl]; bound {
		t.Fatalf("parameter binding must be restored after the inlined call returns")
	}

	foundMove := false
	for _, op := range g.Ops {
		if op.Form == FormMove {
			foundMove = true
		}
	}
	if !foundMove {
		t.Fatalf("expected the inlined body's variable reference to lower to a register move")
	}
}

func ptr(n typed.Node) *typed.Node { return &n }
