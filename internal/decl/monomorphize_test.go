package decl

import (
	"testing"

	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/types"
)

func TestMonomorphizeFunctionSubstitutesParams(t *testing.T) {
	engine := types.NewEngine()
	store := NewStore()

	generic := engine.Insert(types.UnknownGenericTerm{Name: "T"}, source.Generated)
	fn := Term{
		Kind: KindFunction,
		Name: "identity",
		Generics: []GenericParam{
			{DisplayName: "T", TypeVariable: generic},
		},
		Function: &FunctionData{
			Params:     []Param{{Name: "x", Type: generic}},
			ReturnType: generic,
		},
	}
	declID := store.Insert(fn, source.Generated)

	u64 := engine.Insert(types.PrimitiveTerm{Kind: types.Uint64}, source.Generated)
	cloneID, err := Monomorphize(store, engine, declID, []ids.TypeId{u64}, true, source.Dummy, nil)
	if err != nil {
		t.Fatalf("monomorphize failed: %v", err)
	}
	if cloneID == declID {
		t.Fatalf("expected a distinct clone id for a generic function")
	}

	clone := store.Get(cloneID)
	if clone.Function.Params[0].Type != u64 {
		t.Fatalf("expected param substituted to u64, got %v", clone.Function.Params[0].Type)
	}
	if clone.Function.ReturnType != u64 {
		t.Fatalf("expected return type substituted to u64, got %v", clone.Function.ReturnType)
	}
	if clone.CheckState != StateMonomorphizedClone {
		t.Fatalf("expected clone check state MonomorphizedClone, got %v", clone.CheckState)
	}

	orig := store.Get(declID)
	if orig.Function.Params[0].Type != generic {
		t.Fatalf("original declaration must be untouched by monomorphization")
	}
}

func TestMonomorphizeWrongArgCountErrors(t *testing.T) {
	engine := types.NewEngine()
	store := NewStore()
	generic := engine.Insert(types.UnknownGenericTerm{Name: "T"}, source.Generated)
	fn := Term{
		Kind:     KindFunction,
		Name:     "identity",
		Generics: []GenericParam{{DisplayName: "T", TypeVariable: generic}},
		Function: &FunctionData{Params: []Param{{Name: "x", Type: generic}}, ReturnType: generic},
	}
	declID := store.Insert(fn, source.Generated)
	u64 := engine.Insert(types.PrimitiveTerm{Kind: types.Uint64}, source.Generated)
	b256 := engine.Insert(types.PrimitiveTerm{Kind: types.B256}, source.Generated)

	if _, err := Monomorphize(store, engine, declID, []ids.TypeId{u64, b256}, true, source.Dummy, nil); err == nil {
		t.Fatalf("expected IncorrectNumberOfTypeArguments error")
	}
}
