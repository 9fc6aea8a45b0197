package storage

import (
	"math/big"
	"testing"

	"github.com/swaylang/swaycore/internal/typed"
)

func TestDeriveFieldKeyDeterministic(t *testing.T) {
	a := DeriveFieldKey([]string{"counters"}, "value", nil)
	b := DeriveFieldKey([]string{"counters"}, "value", nil)
	if a != b {
		t.Fatalf("expected deterministic key derivation, got %x vs %x", a, b)
	}
	other := DeriveFieldKey([]string{"counters"}, "other", nil)
	if a == other {
		t.Fatalf("expected distinct fields to derive distinct keys")
	}
}

func TestDeriveFieldKeyOverride(t *testing.T) {
	override := make([]byte, 32)
	override[0] = 0xAB
	got := DeriveFieldKey([]string{"ns"}, "f", override)
	var want Key
	copy(want[:], override)
	if got != want {
		t.Fatalf("override key should pass through unhashed, got %x want %x", got, want)
	}
}

func TestDeriveMapEntryKeyUsesDistinctDomain(t *testing.T) {
	field := DeriveFieldKey([]string{"balances"}, "map", nil)
	entryA := DeriveMapEntryKey(field, []byte{0x01})
	entryB := DeriveMapEntryKey(field, []byte{0x02})
	if entryA == entryB {
		t.Fatalf("distinct map keys must derive distinct entry keys")
	}
	if entryA == field {
		t.Fatalf("map entry key must differ from the bare field key (distinct domain byte)")
	}
}

func TestSlotKeyIsSequential(t *testing.T) {
	base := DeriveFieldKey([]string{}, "x", nil)
	s0 := SlotKey(base, 0)
	s1 := SlotKey(base, 1)
	if s0 != base {
		t.Fatalf("slot 0 should equal the base key")
	}
	if s1 == s0 {
		t.Fatalf("slot 1 must differ from slot 0")
	}
}

func TestSerializeIntLiteralSingleWord(t *testing.T) {
	lit := typed.Node{Expr: typed.Literal{Kind: 0, Int: big.NewInt(42)}}
	layout, err := Serialize(nil, nil, lit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layout.Words) != 1 {
		t.Fatalf("expected a narrow integer to fit in one word, got %d", len(layout.Words))
	}
}

func TestSlotsGroupsFourWordsPerSlot(t *testing.T) {
	layout := Layout{Words: make([]Word, 9)}
	base := DeriveFieldKey([]string{}, "arr", nil)
	slots := layout.Slots(base)
	if len(slots) != 3 {
		t.Fatalf("expected 9 words to span 3 slots (ceil(9/4)), got %d", len(slots))
	}
}
