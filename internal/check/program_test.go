package check

import (
	"math/big"
	"testing"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{Source: 1, Start: start, End: end}
}

func ident(name string) parsetree.Ident {
	return parsetree.Ident{Name: name, At: sp(0, uint32(len(name)))}
}

func u64Type() *parsetree.TypeExpr {
	return &parsetree.TypeExpr{NodeSpan: sp(0, 1), Name: "u64"}
}

func TestCheckProgramDispatchesEveryDeclarationKind(t *testing.T) {
	prog := &parsetree.Program{
		NodeSpan:    sp(0, 1),
		Kind:        parsetree.Library,
		PackageName: "fixture",
		Declarations: []parsetree.Declaration{
			&parsetree.StructDecl{
				NodeSpan: sp(0, 1),
				Name:     ident("Point"),
				Fields: []parsetree.StructFieldExpr{
					{Name: ident("x"), Type: u64Type()},
					{Name: ident("y"), Type: u64Type()},
				},
			},
			&parsetree.EnumDecl{
				NodeSpan: sp(0, 1),
				Name:     ident("Sign"),
				Variants: []parsetree.EnumVariantExpr{
					{Name: ident("Pos")},
					{Name: ident("Neg")},
				},
			},
			&parsetree.TypeAliasDecl{
				NodeSpan: sp(0, 1),
				Name:     ident("Amount"),
				Inner:    u64Type(),
			},
			&parsetree.ConstantDecl{
				NodeSpan: sp(0, 1),
				Name:     ident("ZERO"),
				Type:     u64Type(),
				Value:    &parsetree.LiteralExpr{NodeSpan: sp(0, 1), Kind: parsetree.LitInt, Int: bigZero()},
			},
			&parsetree.FunctionDecl{
				NodeSpan:   sp(0, 1),
				Name:       ident("identity"),
				Params:     []parsetree.ParamExpr{{Name: ident("x"), Type: u64Type()}},
				ReturnType: u64Type(),
				Body: &parsetree.CodeBlock{
					NodeSpan: sp(0, 1),
					TailExpr: &parsetree.VariableExpr{NodeSpan: sp(0, 1), Name: "x"},
				},
			},
		},
	}

	c := New("fixture", parsetree.Library, false, false)
	ids := c.CheckProgram(prog)

	if len(ids) != len(prog.Declarations) {
		t.Fatalf("expected one DeclId per declaration, got %d for %d declarations", len(ids), len(prog.Declarations))
	}

	kinds := map[decl.Kind]bool{}
	for _, id := range ids {
		kinds[c.Store.Get(id).Kind] = true
	}
	for _, want := range []decl.Kind{decl.KindStruct, decl.KindEnum, decl.KindTypeAlias, decl.KindConstant, decl.KindFunction} {
		if !kinds[want] {
			t.Errorf("expected a checked declaration of kind %v", want)
		}
	}
}

func TestCheckProgramStopsEarlyWhenCancelled(t *testing.T) {
	prog := &parsetree.Program{
		NodeSpan:    sp(0, 1),
		Kind:        parsetree.Library,
		PackageName: "fixture",
		Declarations: []parsetree.Declaration{
			&parsetree.StructDecl{NodeSpan: sp(0, 1), Name: ident("A")},
			&parsetree.StructDecl{NodeSpan: sp(0, 1), Name: ident("B")},
			&parsetree.StructDecl{NodeSpan: sp(0, 1), Name: ident("C")},
		},
	}

	c := New("fixture", parsetree.Library, false, false)
	seen := 0
	c.Cancel = func() bool {
		seen++
		return seen > 1
	}
	ids := c.CheckProgram(prog)

	if len(ids) != 1 {
		t.Fatalf("expected cancellation after the first declaration to leave exactly one checked, got %d", len(ids))
	}
}

func TestCheckUseDeclContributesNoDeclId(t *testing.T) {
	prog := &parsetree.Program{
		NodeSpan:    sp(0, 1),
		Kind:        parsetree.Library,
		PackageName: "fixture",
		Declarations: []parsetree.Declaration{
			&parsetree.UseDecl{NodeSpan: sp(0, 1), Kind: parsetree.UseStar, Path: []string{"std", "storage"}},
		},
	}

	c := New("fixture", parsetree.Library, false, false)
	ids := c.CheckProgram(prog)

	if len(ids) != 0 {
		t.Fatalf("a use declaration contributes no DeclId, got %d", len(ids))
	}
}

func bigZero() *big.Int { return big.NewInt(0) }
