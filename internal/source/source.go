// Package source implements the compiler's source-id and span interner (component A).
package source

import "fmt"

// Id identifies a (module path, file path) pair. Id 0 is reserved for
// compiler-generated terms (spec.md §6, "Source spans").
type Id uint32

// Generated is the reserved source id used for compiler-synthesized
// declarations and types (prelude symbols, monomorphization clones before
// they are re-spanned).
const Generated Id = 0

// Span is a byte range within a single source file.
type Span struct {
	Source Id
	Start  uint32
	End    uint32
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.Source, s.Start, s.End)
}

// Contains reports whether s fully contains other (used by dead-code
// convexity filtering, spec.md §8 property 8, and by span-preservation
// checks, property 5).
func (s Span) Contains(other Span) bool {
	return s.Source == other.Source && s.Start <= other.Start && other.End <= s.End
}

// Dummy is used for compiler-synthesized nodes that have no real source
// location (e.g. prelude declarations).
var Dummy = Span{Source: Generated}

// File describes one entry in the module/file registry.
type File struct {
	ModulePath string
	Path       string
	Text       string
}

// Map is the interner for source files; it hands out stable Ids.
//
// Contract matches 4.A: insert is idempotent per (modulePath, path) pair,
// get returns a shared immutable reference, and clear_by_source removes the
// module's entry (and the caller is responsible for also clearing any
// type/decl interner entries tagged with that id).
type Map struct {
	files []File
	index map[string]Id // modulePath + "\x00" + path -> Id
}

func NewMap() *Map {
	return &Map{index: make(map[string]Id)}
}

func (m *Map) Insert(modulePath, path, text string) Id {
	key := modulePath + "\x00" + path
	if id, ok := m.index[key]; ok {
		return id
	}
	id := Id(len(m.files) + 1) // keep 0 reserved for Generated
	m.files = append(m.files, File{ModulePath: modulePath, Path: path, Text: text})
	m.index[key] = id
	return id
}

func (m *Map) Get(id Id) (File, bool) {
	if id == Generated || int(id) > len(m.files) {
		return File{}, false
	}
	return m.files[id-1], true
}

// ClearBySource drops the registry entry for id so a later recompile of the
// same path receives a fresh id, and any interner/engine tagging entries
// with this id can evict them (spec.md §4.A clear_by_source).
func (m *Map) ClearBySource(id Id) {
	if id == Generated || int(id) > len(m.files) {
		return
	}
	f := m.files[id-1]
	delete(m.index, f.ModulePath+"\x00"+f.Path)
	m.files[id-1] = File{}
}
