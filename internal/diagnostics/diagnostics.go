// Package diagnostics implements the compiler's structured error/warning
// taxonomy (spec.md §7). Reconstructed from the calling convention observed
// at the teacher's call sites (diagnostics.NewError(code, span, message)) —
// see SPEC_FULL.md §4.H for the grounding note.
package diagnostics

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/source"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Code namespaces diagnostics by the component that raised them, matching
// the teacher's ErrA### style (analyzer codes) — T for the type engine, N
// for namespace/resolution, C for the typed-AST checker, S for storage, G
// for codegen.
type Code string

const (
	// Naming / resolution (spec.md §7).
	ErrSymbolNotFound Code = "N001"
	ErrModuleNotFound Code = "N002"
	ErrUnknownTrait   Code = "N003"
	ErrUnknownType    Code = "T001"
	ErrUnknownVariable Code = "C001"
	ErrUnknownRegister Code = "G001"
	ErrFieldNotFound  Code = "C002"

	// Typing.
	ErrMismatchedType               Code = "T010"
	ErrArgumentParameterTypeMismatch Code = "C010"
	ErrMismatchedTypeInTrait         Code = "C011"
	ErrIncorrectNumberOfTypeArguments Code = "T011"
	ErrNeedsTypeArguments            Code = "T012"
	ErrDoesNotTakeTypeArguments      Code = "T013"

	// Trait coherence.
	ErrFunctionNotAPartOfInterfaceSurface               Code = "C020"
	ErrMissingInterfaceSurfaceMethods                    Code = "C021"
	ErrIncorrectNumberOfInterfaceSurfaceFunctionParameters Code = "C022"
	ErrImplAbiForNonContract                             Code = "C023"
	ErrMatchVariableNotBoundInAllPatterns                Code = "C024"
	ErrMatchArmVariableMismatchedType                     Code = "C025"

	// Storage / purity.
	ErrStorageAccessMismatch        Code = "S001"
	ErrStorageFieldDoesNotExist     Code = "S002"
	ErrCallParamForNonContractCallMethod Code = "C030"
	ErrContractAddressMustBeKnown   Code = "C031"
	ErrContractCallParamRepeated    Code = "C032"
	ErrUnrecognizedContractParam    Code = "C033"
	ErrPurityViolation              Code = "S003"
	ErrWrongNumberOfArguments       Code = "C034"

	// Literals.
	ErrInvalidByteLiteralLength Code = "C040"
	ErrArrayOutOfBounds         Code = "C041"

	// Internal.
	ErrInternal Code = "X000"
)

type WarnCode string

const (
	WarnOverridesOtherSymbol          WarnCode = "W001"
	WarnOverridingTraitImplementation WarnCode = "W002"
	WarnDeadCode                      WarnCode = "W003"
	WarnLossOfPrecision               WarnCode = "W004"
)

// Diagnostic is a single structured error or warning. The core never
// renders source snippets; that remains the external diagnostic renderer's
// job (spec.md §1, §7).
type Diagnostic struct {
	Code     string
	Span     source.Span
	Message  string
	Help     string
	Severity Severity
}

func (d Diagnostic) Error() string {
	if d.Help != "" {
		return fmt.Sprintf("%s: %s (%s) [help: %s]", d.Code, d.Message, d.Span, d.Help)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Code, d.Message, d.Span)
}

type Option func(*Diagnostic)

func WithHelp(help string) Option {
	return func(d *Diagnostic) { d.Help = help }
}

func NewError(code Code, span source.Span, message string, opts ...Option) Diagnostic {
	d := Diagnostic{Code: string(code), Span: span, Message: message, Severity: SeverityError}
	for _, o := range opts {
		o(&d)
	}
	return d
}

func NewWarning(code WarnCode, span source.Span, message string, opts ...Option) Diagnostic {
	d := Diagnostic{Code: string(code), Span: span, Message: message, Severity: SeverityWarning}
	for _, o := range opts {
		o(&d)
	}
	return d
}

func Internal(reason string, span source.Span) Diagnostic {
	return NewError(ErrInternal, span, "internal compiler error: "+reason)
}

// Sink accumulates diagnostics for one phase (spec.md §7 propagation
// policy and §9 "Diagnostic accumulation" design note: an explicit
// (value, warnings, errors) tuple rather than a custom monadic result
// type). Passed by pointer through a phase; callers read Errors/Warnings
// at the phase boundary.
type Sink struct {
	errors   []Diagnostic
	warnings []Diagnostic
}

func (s *Sink) Error(d Diagnostic) {
	d.Severity = SeverityError
	s.errors = append(s.errors, d)
}

func (s *Sink) Warning(d Diagnostic) {
	d.Severity = SeverityWarning
	s.warnings = append(s.warnings, d)
}

func (s *Sink) Errors() []Diagnostic   { return s.errors }
func (s *Sink) Warnings() []Diagnostic { return s.warnings }
func (s *Sink) HasErrors() bool        { return len(s.errors) > 0 }

// Merge folds another sink's diagnostics into this one, preserving order.
func (s *Sink) Merge(other *Sink) {
	if other == nil {
		return
	}
	s.errors = append(s.errors, other.errors...)
	s.warnings = append(s.warnings, other.warnings...)
}
