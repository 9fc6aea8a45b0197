// Package storage implements component 4.F: deterministic 32-byte storage
// key derivation and slot-aligned serialization of typed constants, per
// spec.md §4.F and SPEC_FULL.md's concrete map-key derivation formula.
//
// Key derivation is plain sha256 (stdlib) over a canonical path string,
// consistent with the domain-prefix convention internal/check's ABI
// selector hashing already uses. Word-level serialization uses
// github.com/funvibe/funbit (via packWord) for the bit-precise packing of
// single-word values (booleans and enum tags) into an 8-byte word —
// exactly funbit's intended domain (Erlang-style bit-syntax
// construction). Integers and byte strings are laid out by plain byte
// copies.
package storage

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/typed"
	"github.com/swaylang/swaycore/internal/types"
)

// Key is a 32-byte storage slot key.
type Key [32]byte

const (
	// domainCompiler distinguishes compiler-derived slot keys from
	// developer-computed ones (spec.md §4.F).
	domainCompiler byte = 0x00
	// domainMap is the distinct domain byte SPEC_FULL.md's map-key
	// derivation formula requires for developer-controlled storage maps.
	domainMap byte = 0x01
)

// DeriveFieldKey computes a storage field's key (spec.md §4.F): the
// developer override bytes if present, otherwise
// sha256(domainCompiler || "storage" + sep + joined namespace + "." + field).
func DeriveFieldKey(namespace []string, field string, override []byte) Key {
	if len(override) == 32 {
		var k Key
		copy(k[:], override)
		return k
	}
	keyString := "storage"
	for _, seg := range namespace {
		keyString += "." + seg
	}
	keyString += "." + field
	return hashDomain(domainCompiler, keyString)
}

// DeriveSubfieldKey extends a struct-field path with `.field1.field2...`
// and hashes the combined string (spec.md §4.F: "a struct-field sub-key
// adds .field1.field2.… and hashes the combined string with the same
// domain prefix").
func DeriveSubfieldKey(namespace []string, field string, fieldPath []string, override []byte) Key {
	if len(override) == 32 && len(fieldPath) == 0 {
		var k Key
		copy(k[:], override)
		return k
	}
	keyString := "storage"
	for _, seg := range namespace {
		keyString += "." + seg
	}
	keyString += "." + field
	for _, f := range fieldPath {
		keyString += "." + f
	}
	return hashDomain(domainCompiler, keyString)
}

// DeriveMapEntryKey computes a developer storage map's per-entry key
// (SPEC_FULL.md's concrete formula: sha256(0x01 || field_key || encode(map_key))).
func DeriveMapEntryKey(fieldKey Key, encodedMapKey []byte) Key {
	h := sha256.New()
	h.Write([]byte{domainMap})
	h.Write(fieldKey[:])
	h.Write(encodedMapKey)
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

func hashDomain(domain byte, s string) Key {
	h := sha256.New()
	h.Write([]byte{domain})
	h.Write([]byte(s))
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

// SlotKey computes the key for the i'th 32-byte slot of a multi-slot
// layout (spec.md §4.F: "each slot's key is hash(path) + i where i is the
// slot index and addition is interpreted as a 256-bit big-endian scalar").
func SlotKey(base Key, i int) Key {
	n := new(big.Int).SetBytes(base[:])
	n.Add(n, big.NewInt(int64(i)))
	b := n.Bytes()
	var out Key
	// n may have fewer than 32 bytes (small i overflowing into a key with
	// leading zero bytes); right-align into the fixed-width key.
	copy(out[32-len(b):], b)
	return out
}

// Word is one 8-byte storage word, the compiler's serialization unit
// before 32-byte slot grouping (spec.md §4.F).
type Word [8]byte

// wordBits is the bit width funbit packs one Word's worth of value into.
const wordBits = 64

// packWord builds one big-endian 8-byte word around `value`, left-aligning
// it and zero-filling the remainder (spec.md §4.F's right-padding for
// sub-word struct fields: the value itself occupies the word's leading
// bits, trailing bits are zero).
func packWord(value uint64, bits int) Word {
	if bits <= 0 || bits > wordBits {
		bits = wordBits
	}
	builder := funbit.NewBuilder()
	funbit.AddInteger(builder, value, funbit.WithSize(bits), funbit.WithBigEndian())
	funbit.AddInteger(builder, uint64(0), funbit.WithSize(wordBits-bits), funbit.WithBigEndian())
	packed, err := funbit.Build(builder)
	var w Word
	if err == nil {
		copy(w[:], packed)
	} else {
		// Sub-word bit construction failed (e.g. a zero-width pad segment
		// for an exact 64-bit value); fall back to a plain big-endian
		// encode of the full word, which is exact whenever bits == 64.
		for i := 0; i < 8; i++ {
			w[7-i] = byte(value >> (8 * i))
		}
	}
	return w
}

// Layout is the flattened word sequence for one serialized constant,
// ready to be grouped into 32-byte slots.
type Layout struct {
	Words []Word
}

// Serialize flattens a checked constant value into its word sequence
// (spec.md §4.F): literals become one (or several, for wide integers)
// words; structs concatenate their fields' word sequences in declared
// order (already individually word-rounded, giving the required
// right-padding); enums emit the variant tag followed by the payload's own
// words (see serializeEnum: the payload is not padded to the widest
// variant).
func Serialize(engine *types.Engine, store *decl.Store, value typed.Node) (Layout, error) {
	switch v := value.Expr.(type) {
	case typed.Literal:
		return serializeLiteral(v)
	case typed.StructLiteral:
		var words []Word
		for _, f := range v.Fields {
			l, err := Serialize(engine, store, f.Value)
			if err != nil {
				return Layout{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			words = append(words, l.Words...)
		}
		return Layout{Words: words}, nil
	case typed.EnumInstantiation:
		return serializeEnum(engine, store, v)
	case typed.ArrayLiteral:
		var words []Word
		for i, elem := range v.Elements {
			l, err := Serialize(engine, store, elem)
			if err != nil {
				return Layout{}, fmt.Errorf("element %d: %w", i, err)
			}
			words = append(words, l.Words...)
		}
		return Layout{Words: words}, nil
	default:
		return Layout{}, fmt.Errorf("value of type %T is not a compile-time storage constant", v)
	}
}

func serializeLiteral(lit typed.Literal) (Layout, error) {
	switch {
	case lit.Bytes != nil:
		return serializeBytes(lit.Bytes), nil
	case lit.Int != nil:
		return serializeInt(lit.Int), nil
	case lit.Str != "":
		return serializeBytes([]byte(lit.Str)), nil
	default:
		v := uint64(0)
		if lit.Bool {
			v = 1
		}
		return Layout{Words: []Word{packWord(v, 1)}}, nil
	}
}

// serializeInt packs an arbitrary-precision integer into as many 8-byte
// words as its magnitude needs (at least one), right-aligned behind
// leading zero bytes. The literal's declared type is not consulted, so a
// small u256 value takes one word, not four.
func serializeInt(v *big.Int) Layout {
	b := v.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	wordCount := (len(b) + 7) / 8
	if wordCount < 1 {
		wordCount = 1
	}
	padded := make([]byte, wordCount*8)
	copy(padded[len(padded)-len(b):], b)

	words := make([]Word, wordCount)
	for i := 0; i < wordCount; i++ {
		copy(words[i][:], padded[i*8:i*8+8])
	}
	return Layout{Words: words}
}

func serializeBytes(b []byte) Layout {
	wordCount := (len(b) + 7) / 8
	if wordCount == 0 {
		wordCount = 1
	}
	padded := make([]byte, wordCount*8)
	copy(padded, b) // right-pad: value's leading bytes occupy the word's leading bytes
	words := make([]Word, wordCount)
	for i := 0; i < wordCount; i++ {
		copy(words[i][:], padded[i*8:i*8+8])
	}
	return Layout{Words: words}
}

// serializeEnum emits the variant tag word followed by its payload's own
// words (spec.md §4.F "Enum layout"). The payload is not padded: no
// widest-variant width is computed, so the layout's length depends on
// which variant was instantiated.
func serializeEnum(engine *types.Engine, store *decl.Store, v typed.EnumInstantiation) (Layout, error) {
	if _, ok := store.Get(v.EnumDecl).AsEnum(); !ok {
		return Layout{}, fmt.Errorf("decl %d is not an enum", v.EnumDecl)
	}

	var payloadWords []Word
	if v.Contents != nil {
		l, err := Serialize(engine, store, *v.Contents)
		if err != nil {
			return Layout{}, err
		}
		payloadWords = l.Words
	}

	tag := packWord(uint64(v.VariantIdx), wordBits)
	words := []Word{tag}
	words = append(words, payloadWords...)
	return Layout{Words: words}, nil
}

// Slots groups a layout's words into 32-byte (4-word) slots keyed
// sequentially from `base` (spec.md §4.F).
func (l Layout) Slots(base Key) map[Key][]byte {
	out := map[Key][]byte{}
	for i := 0; i*4 < len(l.Words); i++ {
		var buf [32]byte
		for j := 0; j < 4; j++ {
			idx := i*4 + j
			if idx >= len(l.Words) {
				break
			}
			copy(buf[j*8:j*8+8], l.Words[idx][:])
		}
		out[SlotKey(base, i)] = buf[:]
	}
	return out
}
