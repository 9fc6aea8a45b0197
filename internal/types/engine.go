package types

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/interner"
	"github.com/swaylang/swaycore/internal/source"
)

// keyedTerm adapts Term to interner.Keyed.
type keyedTerm struct{ Term }

func (k keyedTerm) Key() string { return k.Term.Key() }

// Engine owns every type term created during a compilation (spec.md §3:
// "the type engine owns all type terms"). It is safe for concurrent
// readers; Insert/Replace take a brief writer lock internally via the
// underlying Slab (spec.md §5).
type Engine struct {
	slab *interner.Slab[keyedTerm]
}

func NewEngine() *Engine {
	return &Engine{slab: interner.New[keyedTerm]()}
}

// Insert interns term, returning its TypeId. sourceID scopes structural
// deduplication (source.Generated for compiler-synthesized terms).
func (e *Engine) Insert(term Term, sourceID source.Id) ids.TypeId {
	return e.slab.Insert(keyedTerm{term}, uint32(sourceID))
}

// Get returns the term stored at id, following no indirection (callers
// that need the representative should use Resolve, Lookup or LookupTerm).
func (e *Engine) Get(id ids.TypeId) Term {
	return e.slab.Get(id).Term
}

// Replace overwrites the term at id in place. Unify uses it to rewrite
// unknown, unknown_generic, self_type and numeric/integer terms into
// refs; Lookup uses it for path compression; DecayNumeric uses it for
// numeric -> u64.
func (e *Engine) Replace(id ids.TypeId, term Term) {
	e.slab.Replace(id, keyedTerm{term})
}

// GetUnaliased recursively strips alias{inner} wrappers (spec.md §4.B).
func (e *Engine) GetUnaliased(id ids.TypeId) Term {
	t := e.Get(id)
	for {
		alias, ok := t.(AliasTerm)
		if !ok {
			return t
		}
		t = e.Get(alias.Inner)
	}
}

// Lookup follows ref chains on id to its representative TypeId, applying
// union-find-style path compression by rewriting intermediate refs to
// point directly at the final representative (spec.md §3: "ref(x).lookup()
// recurses through ref chains to a representative; union-find compression
// is permitted but must be stable within a single compilation").
func (e *Engine) Lookup(id ids.TypeId) ids.TypeId {
	chain := []ids.TypeId{id}
	cur := id
	for {
		t := e.Get(cur)
		ref, ok := t.(RefTerm)
		if !ok {
			break
		}
		cur = ref.Target
		chain = append(chain, cur)
	}
	// Path compression: every id visited except the last now points
	// directly at the representative.
	for _, visited := range chain[:len(chain)-1] {
		if visited != cur {
			e.Replace(visited, RefTerm{Target: cur})
		}
	}
	return cur
}

// LookupTerm resolves id to its representative and returns that term.
func (e *Engine) LookupTerm(id ids.TypeId) Term {
	return e.Get(e.Lookup(id))
}

// Display renders id through its representative for readable output; used
// in diagnostics help text and Term.String implementations.
func (e *Engine) Display(id ids.TypeId) string {
	return e.LookupTerm(id).String(e)
}

// Resolve errors with ErrUnknownType if id's representative is still an
// inference hole; otherwise returns the representative term (spec.md
// §4.B).
func (e *Engine) Resolve(id ids.TypeId, span source.Span) (Term, error) {
	t := e.LookupTerm(id)
	if _, ok := t.(UnknownTerm); ok {
		return nil, fmt.Errorf("%s", diagnostics.NewError(diagnostics.ErrUnknownType, span, "unknown type").Error())
	}
	return t, nil
}

// ContainsNumeric reports whether id's representative is a transient
// `numeric` term.
func (e *Engine) ContainsNumeric(id ids.TypeId) bool {
	_, ok := e.LookupTerm(id).(PrimitiveTerm)
	if !ok {
		return false
	}
	p := e.LookupTerm(id).(PrimitiveTerm)
	return p.Kind == Numeric
}

// DecayNumeric unifies any surviving `numeric` representative with uint64,
// as required at the end of inference (spec.md §3, §4.B).
func (e *Engine) DecayNumeric(id ids.TypeId, span source.Span) {
	rep := e.Lookup(id)
	if e.ContainsNumeric(rep) {
		e.Replace(rep, PrimitiveTerm{Kind: Uint64})
	}
}

// Equivalent reports whether a and b have unified to the same
// representative (used by trait-impl matching and tests; does not mutate
// the engine or emit diagnostics, unlike Unify).
func (e *Engine) Equivalent(a, b ids.TypeId) bool {
	return e.Lookup(a) == e.Lookup(b)
}
