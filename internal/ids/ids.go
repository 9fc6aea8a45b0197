// Package ids holds the opaque handle types shared across the type engine,
// declaration store, and namespace so that those packages can reference
// each other's ids without an import cycle (the type engine's struct/enum
// terms name a DeclId; declarations name TypeIds for their signatures).
package ids

import "github.com/swaylang/swaycore/internal/interner"

// TypeId is an opaque handle into the type engine's interner (component
// 4.B). Equality of two TypeIds is reference equality, per spec.md §3:
// "TypeId equality is reference equality; structural equality is an
// explicit check using the engine."
type TypeId = interner.Id

// DeclId is an opaque handle into the declaration store (component 4.B/C).
// Declaration ids are immutable after creation; monomorphization produces
// new ids by cloning and substituting (spec.md §3).
type DeclId = interner.Id

// InvalidType is the all-ones sentinel (^0). Ids are allocated upward from
// 0, so an id the engine hands out only reaches this value after 2^32-1
// insertions.
const InvalidType TypeId = ^TypeId(0)

// InvalidDecl is the analogous sentinel for DeclId.
const InvalidDecl DeclId = ^DeclId(0)
