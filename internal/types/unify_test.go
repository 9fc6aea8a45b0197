package types

import (
	"testing"

	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/source"
)

func TestUnifyReflexive(t *testing.T) {
	e := NewEngine()
	a := e.Insert(PrimitiveTerm{Kind: Bool}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, a, a, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("reflexive unify failed: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("reflexive unify should not emit errors, got %v", sink.Errors())
	}
}

func TestUnifyIdempotent(t *testing.T) {
	e := NewEngine()
	a := e.Insert(NewUnknown(), source.Generated)
	b := e.Insert(PrimitiveTerm{Kind: Bool}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, a, b, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("first unify failed: %v", err)
	}
	if err := e.Unify(sink, a, b, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("second unify failed: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("idempotent unify should not emit errors, got %v", sink.Errors())
	}
}

func TestUnifyAliasTransparent(t *testing.T) {
	e := NewEngine()
	inner := e.Insert(PrimitiveTerm{Kind: Uint64}, source.Generated)
	alias := e.Insert(AliasTerm{Name: "Balance", Inner: inner}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, alias, inner, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("alias should unify with its inner type: %v", err)
	}
}

func TestUnifyIntegerDowncastWarns(t *testing.T) {
	e := NewEngine()
	wide := e.Insert(PrimitiveTerm{Kind: Uint32}, source.Generated)
	narrow := e.Insert(PrimitiveTerm{Kind: Uint8}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, wide, narrow, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("downcast should succeed with a warning, got error: %v", err)
	}
	warnings := sink.Warnings()
	if len(warnings) != 1 || warnings[0].Code != string(diagnostics.WarnLossOfPrecision) {
		t.Fatalf("expected one LossOfPrecision warning, got %v", warnings)
	}
}

func TestUnifyNumericDecaysToUint64(t *testing.T) {
	e := NewEngine()
	n := e.Insert(PrimitiveTerm{Kind: Numeric}, source.Generated)
	e.DecayNumeric(n, source.Dummy)
	rep := e.LookupTerm(n).(PrimitiveTerm)
	if rep.Kind != Uint64 {
		t.Fatalf("expected decayed numeric to be uint64, got %v", rep.Kind)
	}
}

func TestUnifyMismatch(t *testing.T) {
	e := NewEngine()
	a := e.Insert(PrimitiveTerm{Kind: Bool}, source.Generated)
	b := e.Insert(PrimitiveTerm{Kind: B256}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, a, b, source.Dummy, "", nil, Default); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if len(sink.Errors()) != 1 || sink.Errors()[0].Code != string(diagnostics.ErrMismatchedType) {
		t.Fatalf("expected one MismatchedType diagnostic, got %v", sink.Errors())
	}
}

func TestUnifyErrorRecoveryAbsorbs(t *testing.T) {
	e := NewEngine()
	a := e.Insert(ErrorRecoveryTerm{}, source.Generated)
	b := e.Insert(PrimitiveTerm{Kind: B256}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, a, b, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("error_recovery should absorb any target: %v", err)
	}
}

func TestUnifySameDeclStructsUnify(t *testing.T) {
	// Struct/enum identity unification: same decl id succeeds regardless
	// of mode.
	e := NewEngine()
	a := e.Insert(StructTerm{Decl: 7}, source.Generated)
	b := e.Insert(StructTerm{Decl: 7}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, a, b, source.Dummy, "", nil, Default); err != nil {
		t.Fatalf("same-decl structs should unify: %v", err)
	}
}

func TestOccursCheckRejectsSelfReferentialGeneric(t *testing.T) {
	e := NewEngine()
	g := e.Insert(UnknownGenericTerm{Name: "T"}, source.Generated)
	arr := e.Insert(ArrayTerm{Elem: g, Length: 3}, source.Generated)
	sink := &diagnostics.Sink{}
	if err := e.Unify(sink, g, arr, source.Dummy, "", nil, WithGeneric); err == nil {
		t.Fatalf("expected occurs-check failure when T unifies with [T; 3]")
	}
}
