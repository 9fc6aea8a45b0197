// Package types implements component 4.B: the type engine. Type terms are
// interned (see internal/interner) and addressed by ids.TypeId; unification
// follows the union-find-with-ref-chains model spec.md §3 requires instead
// of the teacher's substitution-based Hindley-Milner representation
// (internal/typesystem in the original funvibe-funxy tree) — see
// DESIGN.md for the full grounding note on this re-architecture.
package types

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/swaylang/swaycore/internal/ids"
)

// Primitive enumerates the non-aggregate, non-abstract type terms named in
// spec.md §3.
type Primitive int

const (
	Bool Primitive = iota
	B256
	Numeric // unresolved integer literal
	Uint8
	Uint16
	Uint32
	Uint64
	Uint256
	StrFixed // str[N], length carried on the term
	StringSlice
	RawPtr
	RawSlice
	Unit
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case B256:
		return "b256"
	case Numeric:
		return "numeric"
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Uint64:
		return "u64"
	case Uint256:
		return "u256"
	case StrFixed:
		return "str"
	case StringSlice:
		return "str_slice"
	case RawPtr:
		return "raw_ptr"
	case RawSlice:
		return "raw_slice"
	case Unit:
		return "()"
	}
	return "?primitive"
}

// IntWidth returns the bit width of an unsigned integer primitive, or 0 if
// p is not an integer primitive. Used by unification step 8 (integer
// widths coerce upward silently).
func (p Primitive) IntWidth() int {
	switch p {
	case Uint8:
		return 8
	case Uint16:
		return 16
	case Uint32:
		return 32
	case Uint64:
		return 64
	case Uint256:
		return 256
	}
	return 0
}

// Term is the interface implemented by every type-term variant in spec.md
// §3. Key is used by the interner for structural deduplication; variants
// whose identity must never be coalesced (Unknown, Ref) embed a unique
// counter in their key.
type Term interface {
	Key() string
	String(e *Engine) string
}

var uidCounter uint64

func nextUID() uint64 { return atomic.AddUint64(&uidCounter, 1) }

// --- Primitive ---

type PrimitiveTerm struct {
	Kind   Primitive
	Length uint64 // only meaningful for StrFixed
}

func (t PrimitiveTerm) Key() string {
	return fmt.Sprintf("prim:%d:%d", t.Kind, t.Length)
}
func (t PrimitiveTerm) String(*Engine) string {
	if t.Kind == StrFixed {
		return fmt.Sprintf("str[%d]", t.Length)
	}
	return t.Kind.String()
}

// --- Aggregate ---

type TupleTerm struct{ Elems []ids.TypeId }

func (t TupleTerm) Key() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = fmt.Sprintf("%d", e)
	}
	return "tuple:" + strings.Join(parts, ",")
}
func (t TupleTerm) String(e *Engine) string {
	parts := make([]string, len(t.Elems))
	for i, el := range t.Elems {
		parts[i] = e.Display(el)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type ArrayTerm struct {
	Elem   ids.TypeId
	Length uint64
}

func (t ArrayTerm) Key() string { return fmt.Sprintf("array:%d:%d", t.Elem, t.Length) }
func (t ArrayTerm) String(e *Engine) string {
	return fmt.Sprintf("[%s; %d]", e.Display(t.Elem), t.Length)
}

type StructTerm struct{ Decl ids.DeclId }

func (t StructTerm) Key() string           { return fmt.Sprintf("struct:%d", t.Decl) }
func (t StructTerm) String(*Engine) string { return fmt.Sprintf("struct#%d", t.Decl) }

type EnumTerm struct{ Decl ids.DeclId }

func (t EnumTerm) Key() string           { return fmt.Sprintf("enum:%d", t.Decl) }
func (t EnumTerm) String(*Engine) string { return fmt.Sprintf("enum#%d", t.Decl) }

// --- Abstract ---

type UnknownTerm struct{ uid uint64 }

func NewUnknown() UnknownTerm { return UnknownTerm{uid: nextUID()} }
func (t UnknownTerm) Key() string           { return fmt.Sprintf("unknown:%d", t.uid) }
func (t UnknownTerm) String(*Engine) string { return "unknown" }

type PlaceholderTerm struct{}

func (t PlaceholderTerm) Key() string           { return "placeholder" }
func (t PlaceholderTerm) String(*Engine) string { return "_" }

type UnknownGenericTerm struct {
	Name        string
	Constraints []string
}

func (t UnknownGenericTerm) Key() string {
	return fmt.Sprintf("generic:%s:%s", t.Name, strings.Join(t.Constraints, ","))
}
func (t UnknownGenericTerm) String(*Engine) string { return t.Name }

type SelfTypeTerm struct{}

func (t SelfTypeTerm) Key() string           { return "self_type" }
func (t SelfTypeTerm) String(*Engine) string { return "Self" }

type ErrorRecoveryTerm struct{}

func (t ErrorRecoveryTerm) Key() string           { return "error_recovery" }
func (t ErrorRecoveryTerm) String(*Engine) string { return "{unknown due to error}" }

// --- Address-bearing ---

type ContractCallerTerm struct {
	ABIName string
	Address *string // nil = pre-binding state
}

func (t ContractCallerTerm) Key() string {
	addr := ""
	if t.Address != nil {
		addr = *t.Address
	}
	return fmt.Sprintf("caller:%s:%s", t.ABIName, addr)
}
func (t ContractCallerTerm) String(*Engine) string {
	return fmt.Sprintf("ContractCaller<%s>", t.ABIName)
}

type CustomTerm struct {
	Name     string
	TypeArgs []ids.TypeId
}

func (t CustomTerm) Key() string {
	parts := make([]string, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		parts[i] = fmt.Sprintf("%d", a)
	}
	return fmt.Sprintf("custom:%s:%s", t.Name, strings.Join(parts, ","))
}
func (t CustomTerm) String(*Engine) string { return t.Name }

type AliasTerm struct {
	Name  string
	Inner ids.TypeId
}

func (t AliasTerm) Key() string           { return fmt.Sprintf("alias:%s:%d", t.Name, t.Inner) }
func (t AliasTerm) String(*Engine) string { return t.Name }

type PtrTerm struct{ Inner ids.TypeId }

func (t PtrTerm) Key() string           { return fmt.Sprintf("ptr:%d", t.Inner) }
func (t PtrTerm) String(e *Engine) string { return "__ptr_to[" + e.Display(t.Inner) + "]" }

type SliceTerm struct{ Inner ids.TypeId }

func (t SliceTerm) Key() string           { return fmt.Sprintf("slice:%d", t.Inner) }
func (t SliceTerm) String(e *Engine) string { return "__slice_to[" + e.Display(t.Inner) + "]" }

type TraitTypeTerm struct {
	Name  string
	Owner ids.TypeId
}

func (t TraitTypeTerm) Key() string { return fmt.Sprintf("traittype:%s:%d", t.Name, t.Owner) }
func (t TraitTypeTerm) String(e *Engine) string {
	return fmt.Sprintf("%s::%s", e.Display(t.Owner), t.Name)
}

// --- Decoration ---

// RefTerm forms the union-find equivalence chain: rewriting an unknown in
// place to ref(other) is the sole unification primitive (spec.md §3, §4.B
// step 3).
type RefTerm struct{ Target ids.TypeId }

func (t RefTerm) Key() string           { return fmt.Sprintf("ref:%d", t.Target) }
func (t RefTerm) String(e *Engine) string { return e.Display(t.Target) }

// sortedStrings is a small helper used by a few String() implementations
// that need deterministic ordering (struct field display, etc.)
func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
