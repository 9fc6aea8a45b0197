package compiler

import (
	"testing"

	"github.com/swaylang/swaycore/internal/parsetree"
)

func TestEncodeDecodeProgramRoundTrip(t *testing.T) {
	prog := identityProgram()
	data, err := EncodeProgram(prog)
	if err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}
	got, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if len(got.Declarations) != len(prog.Declarations) {
		t.Fatalf("expected %d declarations back, got %d", len(prog.Declarations), len(got.Declarations))
	}
	fn, ok := got.Declarations[0].(*parsetree.FunctionDecl)
	if !ok {
		t.Fatalf("expected the decoded declaration to remain a *parsetree.FunctionDecl, got %T", got.Declarations[0])
	}
	if fn.Name.Name != "identity" {
		t.Fatalf("expected function name %q to survive the round trip, got %q", "identity", fn.Name.Name)
	}
}

func TestEncodeDecodeOpsRoundTrip(t *testing.T) {
	res, err := Compile(identityProgram(), Options{PackageName: "fixture", Kind: parsetree.Library})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	encoded := encodeOps(res.Ops)
	decoded, err := DecodeOps(encoded)
	if err != nil {
		t.Fatalf("DecodeOps: %v", err)
	}
	if len(decoded) != len(res.Ops) {
		t.Fatalf("expected %d ops back, got %d", len(res.Ops), len(decoded))
	}
}
