package diagnostics

import (
	"testing"

	"github.com/swaylang/swaycore/internal/source"
)

func TestSinkHasErrorsOnlyAfterAnError(t *testing.T) {
	s := &Sink{}
	if s.HasErrors() {
		t.Fatalf("expected a fresh sink to have no errors")
	}
	s.Warning(NewWarning(WarnDeadCode, source.Dummy, "dead code"))
	if s.HasErrors() {
		t.Fatalf("a warning must not count as an error")
	}
	s.Error(NewError(ErrUnknownType, source.Dummy, "unknown type"))
	if !s.HasErrors() {
		t.Fatalf("expected HasErrors once an error was recorded")
	}
	if len(s.Errors()) != 1 || len(s.Warnings()) != 1 {
		t.Fatalf("expected exactly one error and one warning, got %d errors, %d warnings", len(s.Errors()), len(s.Warnings()))
	}
}

func TestMergePreservesOrderAndIgnoresNil(t *testing.T) {
	a := &Sink{}
	a.Error(NewError(ErrUnknownType, source.Dummy, "first"))
	b := &Sink{}
	b.Error(NewError(ErrUnknownVariable, source.Dummy, "second"))

	a.Merge(nil)
	a.Merge(b)

	if len(a.Errors()) != 2 {
		t.Fatalf("expected 2 errors after merge, got %d", len(a.Errors()))
	}
	if a.Errors()[0].Message != "first" || a.Errors()[1].Message != "second" {
		t.Fatalf("expected merge to preserve order, got %q then %q", a.Errors()[0].Message, a.Errors()[1].Message)
	}
}

func TestErrorForcesErrorSeverityEvenIfDiagnosticSaysOtherwise(t *testing.T) {
	s := &Sink{}
	d := NewWarning(WarnDeadCode, source.Dummy, "mislabeled")
	s.Error(d)
	if s.Errors()[0].Severity != SeverityError {
		t.Fatalf("expected Sink.Error to force SeverityError regardless of the diagnostic's own tag")
	}
}
