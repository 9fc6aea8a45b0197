// Package parsetree defines the parsed-AST input contract that component
// 4.D (internal/check) consumes. The lexer/grammar driver that produces
// these nodes from source text is an external collaborator per spec.md §1
// ("DELIBERATELY OUT OF SCOPE: the lexer/grammar driver"); this package
// only fixes the shape of its output so the checker has something concrete
// to walk. Grounded on the teacher's internal/ast package (Visitor-based
// Node/Statement/Expression interfaces) generalized to Sway's expression
// and declaration surface.
package parsetree

import (
	"math/big"

	"github.com/swaylang/swaycore/internal/source"
)

// ProgramKind is one of the four Sway program kinds (spec.md §1).
type ProgramKind int

const (
	Script ProgramKind = iota
	Predicate
	Contract
	Library
)

// Node is the base of every parsed-AST node.
type Node interface {
	Span() source.Span
}

// Ident is a bare identifier with its span.
type Ident struct {
	Name string
	At   source.Span
}

// TypeExpr is an unresolved, surface-syntax type reference; the checker
// resolves it to a TypeId through the namespace (spec.md §4.D "resolves
// ascribed types (recursively resolving custom terms through the
// namespace)").
type TypeExpr struct {
	NodeSpan source.Span
	Name     string   // "" for tuple/array/compound forms below
	Args     []*TypeExpr
	Tuple    []*TypeExpr
	ArrayOf  *TypeExpr
	ArrayLen uint64
	IsArray  bool
	IsTuple  bool
	IsSelf   bool
	IsUnit   bool
}

func (t *TypeExpr) Span() source.Span { return t.NodeSpan }

// Program is the root of a parsed module file.
type Program struct {
	NodeSpan     source.Span
	Kind         ProgramKind
	PackageName  string
	Declarations []Declaration
}

func (p *Program) Span() source.Span { return p.NodeSpan }

// Declaration is implemented by every top-level (or nested) declaration
// form named in spec.md §3 DeclTerm.
type Declaration interface {
	Node
	declNode()
}

type GenericParamExpr struct {
	Name        Ident
	Constraints []string
}

type ParamExpr struct {
	Name Ident
	Type *TypeExpr
}

type FunctionDecl struct {
	NodeSpan   source.Span
	Name       Ident
	Generics   []GenericParamExpr
	Params     []ParamExpr
	ReturnType *TypeExpr // nil => inferred / unit
	Body       *CodeBlock
	Purity     string // "", "storage(read)", "storage(write)", "storage(read, write)"
}

func (d *FunctionDecl) Span() source.Span { return d.NodeSpan }
func (d *FunctionDecl) declNode()         {}

type TraitFnSig struct {
	Name       Ident
	Params     []ParamExpr
	ReturnType *TypeExpr
}

type TraitDecl struct {
	NodeSpan    source.Span
	Name        Ident
	SuperTraits []string
	Interface   []TraitFnSig
	Defaults    []*FunctionDecl // methods with bodies, installed as defaults
}

func (d *TraitDecl) Span() source.Span { return d.NodeSpan }
func (d *TraitDecl) declNode()         {}

type ImplTraitDecl struct {
	NodeSpan    source.Span
	TraitName   string
	Generics    []GenericParamExpr
	TargetType  *TypeExpr
	Methods     []*FunctionDecl
	IsAbiImpl   bool
}

func (d *ImplTraitDecl) Span() source.Span { return d.NodeSpan }
func (d *ImplTraitDecl) declNode()         {}

type StructFieldExpr struct {
	Name Ident
	Type *TypeExpr
}

type StructDecl struct {
	NodeSpan source.Span
	Name     Ident
	Generics []GenericParamExpr
	Fields   []StructFieldExpr
}

func (d *StructDecl) Span() source.Span { return d.NodeSpan }
func (d *StructDecl) declNode()         {}

type EnumVariantExpr struct {
	Name    Ident
	Payload *TypeExpr // nil => unit variant
}

type EnumDecl struct {
	NodeSpan source.Span
	Name     Ident
	Generics []GenericParamExpr
	Variants []EnumVariantExpr
}

func (d *EnumDecl) Span() source.Span { return d.NodeSpan }
func (d *EnumDecl) declNode()         {}

type StorageFieldExpr struct {
	Namespace   []string
	Name        Ident
	Type        *TypeExpr
	Initializer Expression
	OverrideKey []byte
}

type StorageDecl struct {
	NodeSpan source.Span
	Fields   []StorageFieldExpr
}

func (d *StorageDecl) Span() source.Span { return d.NodeSpan }
func (d *StorageDecl) declNode()         {}

type AbiDecl struct {
	NodeSpan  source.Span
	Name      Ident
	Interface []TraitFnSig
}

func (d *AbiDecl) Span() source.Span { return d.NodeSpan }
func (d *AbiDecl) declNode()         {}

type ConstantDecl struct {
	NodeSpan source.Span
	Name     Ident
	Type     *TypeExpr
	Value    Expression
}

func (d *ConstantDecl) Span() source.Span { return d.NodeSpan }
func (d *ConstantDecl) declNode()         {}

type TypeAliasDecl struct {
	NodeSpan source.Span
	Name     Ident
	Inner    *TypeExpr
}

func (d *TypeAliasDecl) Span() source.Span { return d.NodeSpan }
func (d *TypeAliasDecl) declNode()         {}

type UseKind int

const (
	UseSelf UseKind = iota
	UseItem
	UseStar
)

type UseDecl struct {
	NodeSpan source.Span
	Kind     UseKind
	Path     []string
	Item     string
	Alias    *string
	IsPublic bool
}

func (d *UseDecl) Span() source.Span { return d.NodeSpan }
func (d *UseDecl) declNode()         {}

type ModDecl struct {
	NodeSpan source.Span
	Name     Ident
	IsPublic bool
	Body     []Declaration
}

func (d *ModDecl) Span() source.Span { return d.NodeSpan }
func (d *ModDecl) declNode()         {}

// --- Expressions ---

type Expression interface {
	Node
	exprNode()
}

type Statement interface {
	Node
	stmtNode()
}

type CodeBlock struct {
	NodeSpan   source.Span
	Statements []Statement
	// TailExpr, when non-nil, is the block's implicit-return expression.
	TailExpr Expression
}

func (c *CodeBlock) Span() source.Span { return c.NodeSpan }

type LetStatement struct {
	NodeSpan source.Span
	Pattern  Pattern
	Type     *TypeExpr
	Value    Expression
}

func (s *LetStatement) Span() source.Span { return s.NodeSpan }
func (s *LetStatement) stmtNode()         {}

type ExprStatement struct {
	NodeSpan source.Span
	Expr     Expression
}

func (s *ExprStatement) Span() source.Span { return s.NodeSpan }
func (s *ExprStatement) stmtNode()         {}

type ReturnStatement struct {
	NodeSpan source.Span
	Value    Expression // nil => return unit
}

func (s *ReturnStatement) Span() source.Span { return s.NodeSpan }
func (s *ReturnStatement) stmtNode()         {}

type LiteralKind int

const (
	LitBool LiteralKind = iota
	LitInt
	LitB256
	LitString
	LitByteArray
)

type LiteralExpr struct {
	NodeSpan source.Span
	Kind     LiteralKind
	Bool     bool
	Int      *big.Int
	Str      string
	Bytes    []byte
}

func (e *LiteralExpr) Span() source.Span { return e.NodeSpan }
func (e *LiteralExpr) exprNode()         {}

type VariableExpr struct {
	NodeSpan source.Span
	Name     string
}

func (e *VariableExpr) Span() source.Span { return e.NodeSpan }
func (e *VariableExpr) exprNode()         {}

type ContractCallParam struct {
	Name  string
	Value Expression
}

type ApplicationExpr struct {
	NodeSpan    source.Span
	CalleePath  []string
	TypeArgs    []*TypeExpr
	Arguments   []Expression
	Receiver    Expression // non-nil for method-call syntax `recv.method(...)`
	MethodName  string     // set when Receiver != nil
	ContractParams []ContractCallParam // `{gas: ..., coins: ...}` on a contract call
}

func (e *ApplicationExpr) Span() source.Span { return e.NodeSpan }
func (e *ApplicationExpr) exprNode()         {}

type StructFieldInit struct {
	Name  string
	Value Expression
}

type StructLiteralExpr struct {
	NodeSpan source.Span
	TypeName string
	TypeArgs []*TypeExpr
	Fields   []StructFieldInit
}

func (e *StructLiteralExpr) Span() source.Span { return e.NodeSpan }
func (e *StructLiteralExpr) exprNode()         {}

type FieldAccessExpr struct {
	NodeSpan source.Span
	Target   Expression
	Field    string
}

func (e *FieldAccessExpr) Span() source.Span { return e.NodeSpan }
func (e *FieldAccessExpr) exprNode()         {}

type TupleIndexExpr struct {
	NodeSpan source.Span
	Target   Expression
	Index    int
}

func (e *TupleIndexExpr) Span() source.Span { return e.NodeSpan }
func (e *TupleIndexExpr) exprNode()         {}

type EnumInstantiationExpr struct {
	NodeSpan    source.Span
	EnumName    string
	VariantName string
	TypeArgs    []*TypeExpr
	Contents    Expression // nil for unit variants
}

func (e *EnumInstantiationExpr) Span() source.Span { return e.NodeSpan }
func (e *EnumInstantiationExpr) exprNode()         {}

type IfExpr struct {
	NodeSpan source.Span
	Cond     Expression
	Then     *CodeBlock
	Else     Expression // *CodeBlock or *IfExpr, nil for no else
}

func (e *IfExpr) Span() source.Span { return e.NodeSpan }
func (e *IfExpr) exprNode()         {}

type MatchArm struct {
	Pattern Pattern
	Guard   Expression // nil if no guard
	Body    Expression
}

type MatchExpr struct {
	NodeSpan  source.Span
	Scrutinee Expression
	Arms      []MatchArm
}

func (e *MatchExpr) Span() source.Span { return e.NodeSpan }
func (e *MatchExpr) exprNode()         {}

type BlockExpr struct {
	NodeSpan source.Span
	Block    *CodeBlock
}

func (e *BlockExpr) Span() source.Span { return e.NodeSpan }
func (e *BlockExpr) exprNode()         {}

type ReassignmentExpr struct {
	NodeSpan source.Span
	Target   Expression
	Value    Expression
}

func (e *ReassignmentExpr) Span() source.Span { return e.NodeSpan }
func (e *ReassignmentExpr) exprNode()         {}

type ArrayLiteralExpr struct {
	NodeSpan source.Span
	Elements []Expression
}

func (e *ArrayLiteralExpr) Span() source.Span { return e.NodeSpan }
func (e *ArrayLiteralExpr) exprNode()         {}

type ArrayIndexExpr struct {
	NodeSpan source.Span
	Target   Expression
	Index    Expression
}

func (e *ArrayIndexExpr) Span() source.Span { return e.NodeSpan }
func (e *ArrayIndexExpr) exprNode()         {}

// --- Inline ASM ---

type AsmRegisterDecl struct {
	Name        string
	Initializer Expression // nil if uninitialized
}

type AsmInstruction struct {
	At       source.Span
	Opcode   string
	Operands []string // register names or immediates, as surface tokens
}

type AsmBlockExpr struct {
	NodeSpan   source.Span
	Registers  []AsmRegisterDecl
	Body       []AsmInstruction
	ReturnType *TypeExpr
	ReturnReg  string // "" if no return register named
}

func (e *AsmBlockExpr) Span() source.Span { return e.NodeSpan }
func (e *AsmBlockExpr) exprNode()         {}

// --- Patterns ---

type Pattern interface {
	Node
	patternNode()
}

type WildcardPattern struct{ At source.Span }

func (p *WildcardPattern) Span() source.Span { return p.At }
func (p *WildcardPattern) patternNode()      {}

type VariablePattern struct {
	At   source.Span
	Name string
}

func (p *VariablePattern) Span() source.Span { return p.At }
func (p *VariablePattern) patternNode()      {}

type LiteralPattern struct {
	At      source.Span
	Literal *LiteralExpr
}

func (p *LiteralPattern) Span() source.Span { return p.At }
func (p *LiteralPattern) patternNode()      {}

type ConstantPattern struct {
	At   source.Span
	Path []string
}

func (p *ConstantPattern) Span() source.Span { return p.At }
func (p *ConstantPattern) patternNode()      {}

type StructPatternField struct {
	Name    string
	Pattern Pattern
}

type StructPattern struct {
	At       source.Span
	TypeName string
	Fields   []StructPatternField
}

func (p *StructPattern) Span() source.Span { return p.At }
func (p *StructPattern) patternNode()      {}

type EnumPattern struct {
	At          source.Span
	EnumName    string
	VariantName string
	Contents    Pattern // nil for unit variants
}

func (p *EnumPattern) Span() source.Span { return p.At }
func (p *EnumPattern) patternNode()      {}

type TuplePattern struct {
	At       source.Span
	Elements []Pattern
}

func (p *TuplePattern) Span() source.Span { return p.At }
func (p *TuplePattern) patternNode()      {}

type OrPattern struct {
	At          source.Span
	Alternatives []Pattern
}

func (p *OrPattern) Span() source.Span { return p.At }
func (p *OrPattern) patternNode()      {}
