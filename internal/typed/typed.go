// Package typed defines the checked-AST node shapes that component 4.D
// (internal/check) produces from internal/parsetree input. Every node
// carries a resolved ids.TypeId instead of surface syntax. Grounded on the
// teacher's internal/ast typed-node variants, generalized from the
// teacher's expression-statement language to Sway's expression surface
// (struct/enum/tuple/array literals, ABI method calls, inline ASM, unsafe
// downcast) per spec.md §3.
package typed

import (
	"math/big"

	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
)

// Node pairs a resolved type with the expression variant and source span
// that produced it (spec.md §3 TypedNode).
type Node struct {
	Type Variant
	Expr Expr
	Span source.Span
}

// Variant tags the shape of a typed node's resolved type so callers can
// switch without re-deriving it from the type engine (spec.md §3's
// distinction between "the expression's resolved TypeId" and "what kind of
// term that id denotes" is kept separate: Variant is always ids.TypeId
// here, callers consult the types.Engine to inspect structure).
type Variant = ids.TypeId

// Expr is implemented by every typed expression shape.
type Expr interface {
	exprNode()
}

type Literal struct {
	Kind  int // mirrors parsetree.LiteralKind
	Bool  bool
	Int   *big.Int
	Str   string
	Bytes []byte
}

func (Literal) exprNode() {}

// VariableExpr references a local binding, function parameter, or constant
// resolved during the block-scoped pass (spec.md §3).
type VariableExpr struct {
	Name    string
	DeclID  ids.DeclId
	IsMutable bool
}

func (VariableExpr) exprNode() {}

// FunctionApplication is a resolved, possibly-monomorphized call.
type FunctionApplication struct {
	FunctionDecl ids.DeclId // the (possibly monomorphized clone's) decl id
	Arguments    []Node
	SelfStateIdx *int // non-nil when the callee reads/writes contract storage
	ContractCall *ContractCallMetadata
}

func (FunctionApplication) exprNode() {}

// ContractCallMetadata carries the extra ABI dispatch data an external
// contract call needs at codegen time (spec.md §4.D).
type ContractCallMetadata struct {
	AbiName      string
	MethodName   string
	Selector     [4]byte
	ContractAddr Node
	Gas          *Node // nil => default
	Coins        *Node // nil => zero
	AssetID      *Node // nil => base asset
}

type StructFieldValue struct {
	Name  string
	Value Node
}

type StructLiteral struct {
	StructDecl ids.DeclId
	Fields     []StructFieldValue
}

func (StructLiteral) exprNode() {}

type StructFieldAccess struct {
	Target    Node
	FieldName string
	FieldIdx  int
}

func (StructFieldAccess) exprNode() {}

type TupleIndex struct {
	Target Node
	Index  int
}

func (TupleIndex) exprNode() {}

type EnumInstantiation struct {
	EnumDecl    ids.DeclId
	VariantName string
	VariantIdx  int
	Contents    *Node
}

func (EnumInstantiation) exprNode() {}

type If struct {
	Cond Node
	Then *CodeBlock
	Else Expr // *CodeBlock, *If, or nil
}

func (If) exprNode() {}

type CodeBlock struct {
	Statements  []Statement
	Contents    *Node // final implicit-return expression, nil for unit blocks
	DeclaredAt  ids.DeclId // scope marker decl, for namespace pop bookkeeping
}

func (CodeBlock) exprNode() {}

type AsmRegister struct {
	Name        string
	Initializer *Node
}

type AsmInstruction struct {
	At       source.Span
	Opcode   string
	Operands []string
}

type AsmBlock struct {
	Registers []AsmRegister
	Body      []AsmInstruction
	ReturnReg string
}

func (AsmBlock) exprNode() {}

// Reassignment models both plain variable reassignment and lvalue-path
// reassignment into struct fields / storage (spec.md §3).
type Reassignment struct {
	LhsPath []ReassignmentPathSegment
	Rhs     Node
}

func (Reassignment) exprNode() {}

type ReassignmentPathSegment struct {
	Name       string
	IsStorage  bool
	StorageKey [32]byte // valid when IsStorage
}

type ArrayLiteral struct {
	Elements []Node
}

func (ArrayLiteral) exprNode() {}

type ArrayIndex struct {
	Target Node
	Index  Node
}

func (ArrayIndex) exprNode() {}

// UnsafeDowncast narrows a sum-typed enum value to one variant's payload
// without a match, used internally by match desugaring (spec.md §9 design
// note: "match-arm desugaring ... via an unsafe, internal-only downcast
// node that only the checker itself may construct").
type UnsafeDowncast struct {
	Target      Node
	EnumDecl    ids.DeclId
	VariantName string
	VariantIdx  int
}

func (UnsafeDowncast) exprNode() {}

// --- Statements ---

type Statement interface {
	stmtNode()
}

type LetStatement struct {
	Bindings []LetBinding
	Value    Node
}

func (LetStatement) stmtNode() {}

// LetBinding is one name bound by a (possibly destructuring) let pattern;
// destructuring is desugared into one LetBinding per leaf name plus a
// Path describing how to project it out of Value (spec.md §4.D pattern
// desugaring).
type LetBinding struct {
	Name   string
	DeclID ids.DeclId
	Path   []PathProjection
}

// PathProjection is one step of a destructuring projection: struct field,
// tuple index, or enum-variant downcast.
type PathProjection struct {
	Kind        ProjectionKind
	FieldName   string
	TupleIdx    int
	EnumDecl    ids.DeclId
	VariantName string
	VariantIdx  int
}

type ProjectionKind int

const (
	ProjectField ProjectionKind = iota
	ProjectTupleIndex
	ProjectEnumDowncast
)

type ExprStatement struct {
	Expr Node
}

func (ExprStatement) stmtNode() {}

// ReturnStatement models an explicit mid-block `return`, distinct from
// ExprStatement so the CFG pass (spec.md §4.E: "handling return/implicit
// -return by jumping to the function exit dominator") and codegen (spec.md
// §4.G: "a return statement in the middle jumps directly to the function
// exit label") can recognize it as an unconditional jump rather than a
// plain, fall-through expression evaluation.
type ReturnStatement struct {
	Value Node
}

func (ReturnStatement) stmtNode() {}

// CNFRequirement is one clause of the conjunctive-normal-form condition
// that must hold for a match arm to apply, produced by pattern desugaring
// (spec.md §4.D: "desugars into a CNF requirement map keyed by scrutinee
// sub-path, plus a declaration map").
type CNFRequirement struct {
	Path        []PathProjection
	RequireEnum *struct {
		EnumDecl    ids.DeclId
		VariantName string
		VariantIdx  int
	}
	RequireLiteral *Literal
	RequireConst   ids.DeclId
}

// MatchArmPlan is the checker's desugared form of one match arm: the CNF
// clauses that must all hold, the bindings it introduces, and the
// already-type-checked body.
type MatchArmPlan struct {
	Requirements [][]CNFRequirement // outer slice: OR of AND-clauses (one per pattern alternative in an or-pattern)
	Bindings     []LetBinding
	Guard        *Node
	Body         Node
}
