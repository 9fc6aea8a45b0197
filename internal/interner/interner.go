// Package interner implements component 4.A: a generic content-addressed
// slab that hands out stable integer handles ("Id") to immutable values,
// guarded by a reader/writer lock per the concurrency model in spec.md §5
// ("a read-mostly slab plus an id_map (hash index) guarded by a
// reader/writer lock").
//
// Grounded on the teacher's interning style (funvibe-funxy keeps types as
// plain Go values compared with reflect.DeepEqual rather than interned —
// spec.md §9 calls this out as a pattern requiring re-architecture: "the
// implementation should use a slab plus a content hash map guarded by a
// reader/writer lock"). This package is the re-architected replacement.
package interner

import (
	"strconv"
	"sync"
)

// Id is an opaque handle into a Slab. Ids are monotonic and never reused
// within a compilation session (spec.md §4.A invariant).
type Id uint32

// Keyed is implemented by values that know their own content-equality key.
// The source id (for clear_by_source) is passed to Insert separately; two
// values with equal Key() inserted under the same source id are
// deduplicated to the same Id.
type Keyed interface {
	Key() string
}

// Slab is a generic content-addressed interner.
type Slab[T Keyed] struct {
	mu      sync.RWMutex
	entries []T
	byKey   map[string]Id     // content key -> Id, scoped by sourceTag below
	source  map[Id]uint32     // Id -> source id tag (0 = none/generated)
}

func New[T Keyed]() *Slab[T] {
	return &Slab[T]{
		byKey:  make(map[string]Id),
		source: make(map[Id]uint32),
	}
}

// Insert returns the existing Id for value if one was already inserted with
// the same content key and source tag; otherwise it allocates a new Id.
// sourceID of 0 means "no source scoping" (always matched against other
// zero-sourceID entries only).
func (s *Slab[T]) Insert(value T, sourceID uint32) Id {
	key := scopedKey(value.Key(), sourceID)

	s.mu.RLock()
	if id, ok := s.byKey[key]; ok {
		s.mu.RUnlock()
		return id
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock in case of a race.
	if id, ok := s.byKey[key]; ok {
		return id
	}
	s.entries = append(s.entries, value)
	id := Id(len(s.entries) - 1)
	s.byKey[key] = id
	s.source[id] = sourceID
	return id
}

// Get returns a shared, immutable reference to the value at id.
func (s *Slab[T]) Get(id Id) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

// Replace overwrites the entry at id in place. Used by the type engine's
// in-place term rewrites (spec.md §4.A) and by the declaration store's
// Update; general callers should prefer Insert.
func (s *Slab[T]) Replace(id Id, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.entries[id]
	delete(s.byKey, scopedKey(old.Key(), s.source[id]))
	s.entries[id] = value
	s.byKey[scopedKey(value.Key(), s.source[id])] = id
}

// ClearBySource drops every entry tagged with sourceID from the dedup index
// (the slab slots themselves are left in place so existing Ids a caller
// still holds keep resolving, per spec.md §5: "concurrent readers must see
// a consistent snapshot of any id they already hold"; only future Insert
// calls will no longer coalesce against the cleared entries).
func (s *Slab[T]) ClearBySource(sourceID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, tag := range s.source {
		if tag == sourceID {
			delete(s.byKey, scopedKey(s.entries[id].Key(), tag))
			delete(s.source, id)
		}
	}
}

// Len returns the number of entries ever allocated (including cleared
// ones, since their Ids remain valid).
func (s *Slab[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func scopedKey(key string, sourceID uint32) string {
	return strconv.FormatUint(uint64(sourceID), 10) + "\x00" + key
}
