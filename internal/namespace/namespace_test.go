package namespace

import (
	"testing"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/types"
)

func TestInsertSymbolWarnsOnRedefinition(t *testing.T) {
	root := NewRoot("my_contract", false, false, false)
	ns := New(root)
	store := decl.NewStore()
	sink := &diagnostics.Sink{}

	d1 := store.Insert(decl.Term{Kind: decl.KindFunction, Name: "foo"}, source.Generated)
	d2 := store.Insert(decl.Term{Kind: decl.KindFunction, Name: "foo"}, source.Generated)

	ns.InsertSymbol(sink, source.Dummy, "foo", d1, Public)
	if sink.HasErrors() || len(sink.Warnings()) != 0 {
		t.Fatalf("first insert should be clean, got %v", sink.Warnings())
	}
	ns.InsertSymbol(sink, source.Dummy, "foo", d2, Public)
	if len(sink.Warnings()) != 1 || sink.Warnings()[0].Code != string(diagnostics.WarnOverridesOtherSymbol) {
		t.Fatalf("expected OverridesOtherSymbol warning, got %v", sink.Warnings())
	}
}

func TestResolveCallPathCurrentRelative(t *testing.T) {
	root := NewRoot("my_contract", false, false, false)
	ns := New(root)
	store := decl.NewStore()
	sink := &diagnostics.Sink{}

	ns.EnterSubmodule("utils", Public, source.Dummy)
	d := store.Insert(decl.Term{Kind: decl.KindFunction, Name: "helper"}, source.Generated)
	ns.InsertSymbol(sink, source.Dummy, "helper", d, Public)
	ns.PopSubmodule()

	got, err := ns.ResolveCallPath(CallPath{Prefixes: []string{"utils"}, Suffix: "helper"}, true)
	if err != nil {
		t.Fatalf("unexpected error resolving utils::helper: %v", err)
	}
	if got != d {
		t.Fatalf("expected to resolve to %v, got %v", d, got)
	}
}

func TestResolveCallPathSymbolNotFound(t *testing.T) {
	root := NewRoot("my_contract", false, false, false)
	ns := New(root)
	if _, err := ns.ResolveCallPath(CallPath{Suffix: "nope"}, true); err == nil {
		t.Fatalf("expected symbol not found error")
	}
}

func TestInsertTraitImplementationOverwritesAndWarns(t *testing.T) {
	root := NewRoot("my_contract", false, false, false)
	ns := New(root)
	engine := types.NewEngine()
	sink := &diagnostics.Sink{}

	tID := engine.Insert(types.PrimitiveTerm{Kind: types.Bool}, source.Generated)
	m1 := ids.DeclId(1)
	m2 := ids.DeclId(2)

	ns.InsertTraitImplementation(sink, engine, source.Dummy, "core::Eq", tID, []ids.DeclId{m1})
	if len(sink.Warnings()) != 0 {
		t.Fatalf("first impl insert should not warn")
	}
	ns.InsertTraitImplementation(sink, engine, source.Dummy, "core::Eq", tID, []ids.DeclId{m2})
	if len(sink.Warnings()) != 1 || sink.Warnings()[0].Code != string(diagnostics.WarnOverridingTraitImplementation) {
		t.Fatalf("expected OverridingTraitImplementation warning, got %v", sink.Warnings())
	}
	methods := ns.MethodsForType(engine, tID)
	if len(methods) != 1 || methods[0] != m2 {
		t.Fatalf("expected overwrite to keep only the newest method list, got %v", methods)
	}
}
