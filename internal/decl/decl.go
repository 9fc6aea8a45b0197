// Package decl implements the declaration half of component 4.B: DeclTerm,
// the interned unit of named declaration (spec.md §3), plus monomorphization
// (cloning a generic declaration and substituting its type parameters,
// spec.md §4.B). Declarations are a tagged sum with projection helpers per
// the spec.md §9 design note ("Trait-object style declarations... the
// source uses a 'wrapper enum over all declaration kinds' pattern with
// per-kind downcasts. Re-architect as a tagged sum plus a small set of
// projection helpers; do not synthesize a runtime-reflective registry") —
// grounded on the teacher's own `ast` package, which already favors
// concrete struct-per-node-kind over a reflective registry.
package decl

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/interner"
	"github.com/swaylang/swaycore/internal/source"
)

// Kind tags which variant a Term holds.
type Kind int

const (
	KindFunction Kind = iota
	KindTrait
	KindTraitFn
	KindImplTrait
	KindStruct
	KindEnum
	KindStorage
	KindAbi
	KindConstant
	KindVariable
	KindTypeAlias
	KindGenericTypeScope
)

// GenericParam names one generic parameter introduced by a function,
// struct, enum, trait, or impl; each gets a fresh scoped declaration
// (KindGenericTypeScope) per spec.md §3.
type GenericParam struct {
	Name         ids.DeclId // the scoped declaration id standing for this parameter
	DisplayName  string
	Constraints  []string
	TypeVariable ids.TypeId // the UnknownGenericTerm backing this parameter
}

// Param is one function/trait-fn parameter.
type Param struct {
	Name string
	Type ids.TypeId
	Span source.Span
}

// Field is one struct field or enum variant payload slot.
type Field struct {
	Name string
	Type ids.TypeId
	Span source.Span
}

// Term is the tagged-sum declaration payload. Exactly one of the *Data
// fields is populated, selected by Kind; callers use the Kind field and
// the matching projection (AsFunction, AsStruct, ...) rather than a type
// switch over a wrapper interface.
type Term struct {
	Kind Kind
	Name string
	Span source.Span

	Generics []GenericParam

	Function *FunctionData
	Trait    *TraitData
	TraitFn  *TraitFnData
	Impl     *ImplData
	Struct   *AggregateData
	Enum     *AggregateData
	Storage  *StorageData
	Abi      *AbiData
	Constant *ConstantData
	Variable *VariableData
	Alias    *AliasData
	Scope    *ScopeData

	// checkState tracks the function-level state machine of spec.md §4.D:
	// Parsed -> HeaderResolved -> BodyChecked -> MonomorphizedClone*.
	CheckState CheckState
}

type CheckState int

const (
	StateParsed CheckState = iota
	StateHeaderResolved
	StateBodyChecked
	StateMonomorphizedClone
	StateErrorRecovery
)

type FunctionData struct {
	Params     []Param
	// ParamDecls holds, in Params order, the KindVariable DeclId each
	// parameter was bound under when its body's scope was entered — the
	// same DeclId a typed.VariableExpr inside Body references. Needed by
	// the code generator to bind call-site argument registers to the
	// inlined callee body's parameter references.
	ParamDecls []ids.DeclId
	ReturnType ids.TypeId
	// Body is opaque here (internal/check owns TypedNode); stored as
	// `interface{}` so the decl package never imports the checker
	// (avoiding a cycle: check imports decl, not the reverse).
	Body      interface{}
	Purity    Purity
	Selector  [4]byte
	HasSelector bool
}

// Purity mirrors the storage-access purity levels the checker compares
// caller vs callee against (spec.md §4.D step 5).
type Purity int

const (
	PurityPure Purity = iota
	PurityReadsStorage
	PurityWritesStorage // implies read+write
)

func (p Purity) Allows(other Purity) bool { return other <= p }

type TraitData struct {
	InterfaceMethods []ids.DeclId // DeclId of KindTraitFn
	SuperTraits      []string
}

type TraitFnData struct {
	Params     []Param
	ReturnType ids.TypeId
}

type ImplData struct {
	TraitPath         string
	ImplementingType  ids.TypeId
	Methods           []ids.DeclId // DeclId of KindFunction
	IsAbiImpl         bool
}

type AggregateData struct {
	Fields       []Field // struct fields, or enum variant payload (single-field) slots
	VariantNames []string
}

type StorageData struct {
	Fields []StorageFieldDecl
}

// StorageFieldDecl mirrors spec.md §3 StorageField: a path of namespace
// segments plus a leaf name, a declared type, and an initializer
// expression (opaque here, owned by internal/check).
type StorageFieldDecl struct {
	Namespace   []string
	Name        string
	Type        ids.TypeId
	Initializer interface{}
	OverrideKey []byte // developer-supplied override key, nil if absent
}

type AbiData struct {
	InterfaceMethods []ids.DeclId
}

type ConstantData struct {
	Type  ids.TypeId
	Value interface{}
}

type VariableData struct {
	Type       ids.TypeId
	IsConstant bool
}

type AliasData struct {
	Inner ids.TypeId
}

type ScopeData struct {
	Constraints []string
}

// --- projection helpers (spec.md §9's "small set of projection helpers") ---

func (t Term) AsFunction() (*FunctionData, bool) { return t.Function, t.Kind == KindFunction }
func (t Term) AsStruct() (*AggregateData, bool)  { return t.Struct, t.Kind == KindStruct }
func (t Term) AsEnum() (*AggregateData, bool)    { return t.Enum, t.Kind == KindEnum }
func (t Term) AsTrait() (*TraitData, bool)       { return t.Trait, t.Kind == KindTrait }
func (t Term) AsImpl() (*ImplData, bool)         { return t.Impl, t.Kind == KindImplTrait }
func (t Term) AsStorage() (*StorageData, bool)   { return t.Storage, t.Kind == KindStorage }
func (t Term) AsAbi() (*AbiData, bool)           { return t.Abi, t.Kind == KindAbi }

// Key implements interner.Keyed. Declarations are keyed by identity, not
// structure (a function named `foo` and another named `foo` in different
// modules are distinct declarations) — identity is granted by always
// inserting with a fresh unique suffix, never deduplicating.
func (t Term) key(uid uint64) string {
	return fmt.Sprintf("decl:%d:%s:%d", t.Kind, t.Name, uid)
}

type keyedTerm struct {
	Term
	uid uint64
}

func (k keyedTerm) Key() string { return k.Term.key(k.uid) }

// Store owns every declaration created during type-check (spec.md §3:
// "Declarations: created during type-check; mutated only via
// monomorphization which produces new ids").
type Store struct {
	slab    *interner.Slab[keyedTerm]
	uidNext uint64
}

func NewStore() *Store {
	return &Store{slab: interner.New[keyedTerm]()}
}

// Insert always allocates a fresh DeclId; declarations are never
// structurally deduplicated (unlike types).
func (s *Store) Insert(term Term, sourceID source.Id) ids.DeclId {
	s.uidNext++
	return s.slab.Insert(keyedTerm{Term: term, uid: s.uidNext}, uint32(sourceID))
}

func (s *Store) Get(id ids.DeclId) Term {
	return s.slab.Get(id).Term
}

// Update replaces the term at id in place (used to move a function through
// its check-state machine: HeaderResolved -> BodyChecked, etc).
func (s *Store) Update(id ids.DeclId, term Term) {
	old := s.slab.Get(id)
	s.slab.Replace(id, keyedTerm{Term: term, uid: old.uid})
}

// ClearBySource drops entries tagged with sourceID (component 4.A
// contract, reused here for declarations created by a recompiled module).
func (s *Store) ClearBySource(sourceID source.Id) {
	s.slab.ClearBySource(uint32(sourceID))
}
