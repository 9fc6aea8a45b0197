package compiler

import (
	"context"
	"testing"

	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/service"
	"github.com/swaylang/swaycore/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{Source: 1, Start: start, End: end}
}

func ident(name string) parsetree.Ident {
	return parsetree.Ident{Name: name, At: sp(0, uint32(len(name)))}
}

// identityProgram is a minimal library declaring one public function, just
// enough for Compile to exercise check -> cfg -> codegen end to end without
// any storage declaration (so the YAML manifest path is left to wire_test.go
// and the service-level tests instead).
func identityProgram() *parsetree.Program {
	u64 := &parsetree.TypeExpr{NodeSpan: sp(0, 1), Name: "u64"}
	return &parsetree.Program{
		NodeSpan:    sp(0, 1),
		Kind:        parsetree.Library,
		PackageName: "fixture",
		Declarations: []parsetree.Declaration{
			&parsetree.FunctionDecl{
				NodeSpan:   sp(0, 1),
				Name:       ident("identity"),
				Params:     []parsetree.ParamExpr{{Name: ident("x"), Type: u64}},
				ReturnType: u64,
				Body: &parsetree.CodeBlock{
					NodeSpan: sp(0, 1),
					TailExpr: &parsetree.VariableExpr{NodeSpan: sp(0, 1), Name: "x"},
				},
			},
		},
	}
}

func TestCompileLowersEveryPublicFunctionForALibrary(t *testing.T) {
	res, err := Compile(identityProgram(), Options{PackageName: "fixture", Kind: parsetree.Library})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.HadErrors {
		for _, d := range res.Diagnostics {
			t.Logf("diagnostic: %s: %s", d.Code, d.Message)
		}
		t.Fatalf("expected no errors checking a well-formed library")
	}
	if len(res.Ops) == 0 {
		t.Fatalf("expected lowering identity() to emit at least one op")
	}
	if res.Invalid {
		t.Fatalf("did not expect Invalid when Cancel was never set")
	}
}

func TestCompileCancelledBeforeLoweringReturnsPartialInvalidResult(t *testing.T) {
	calls := 0
	res, err := Compile(identityProgram(), Options{
		PackageName: "fixture",
		Kind:        parsetree.Library,
		Cancel: func() bool {
			calls++
			return true // fire before the first (only) entry is lowered
		},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.Invalid {
		t.Fatalf("expected Invalid once Cancel fired before any function was lowered")
	}
	if len(res.Ops) != 0 {
		t.Fatalf("expected no ops accumulated before the first Cancel check, got %d", len(res.Ops))
	}
}

func TestBackendCompileRoundTripsThroughTheGobWireCodec(t *testing.T) {
	astBytes, err := EncodeProgram(identityProgram())
	if err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}

	backend := Backend{}
	result, err := backend.Compile(context.Background(), service.CompileRequest{
		PackageName: "fixture",
		ProgramKind: "library",
		ParsedAST:   astBytes,
	})
	if err != nil {
		t.Fatalf("Backend.Compile: %v", err)
	}
	if result.HadErrors {
		t.Fatalf("expected no errors from a well-formed library")
	}
	ops, err := DecodeOps(result.Ops)
	if err != nil {
		t.Fatalf("DecodeOps: %v", err)
	}
	if len(ops) == 0 {
		t.Fatalf("expected at least one decoded op")
	}
}

func TestProgramKindOfRejectsUnknownName(t *testing.T) {
	if _, err := ProgramKindOf("bogus"); err == nil {
		t.Fatalf("expected an error for an unrecognized program kind name")
	}
}
