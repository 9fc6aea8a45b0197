// Package cache implements component 4.I: a persisted compile-session
// cache keyed by (package name, source id, kind), with each entry's
// content hash stored beside it and compared on read, backed by
// modernc.org/sqlite so incremental recompilation survives process
// restarts, not just a single in-memory run (spec.md §4.A's
// `clear_by_source` operation).
//
// Grounded on the teacher's go.mod dependency on modernc.org/sqlite,
// present but unused in the retrieved pack slice — wired here because it
// is a pure-Go embeddable store, the same role sccache/ccache-style tools
// play for other toolchains' incremental builds. No teacher call site
// exists to imitate the query shapes from, so the schema and access
// pattern follow database/sql's standard prepared-statement idiom
// directly.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Kind distinguishes the payload stored under one cache entry.
type Kind string

const (
	KindTypeSnapshot Kind = "types"
	KindDeclSnapshot Kind = "decls"
)

// Store wraps one sqlite-backed cache database.
type Store struct {
	db *sql.DB
}

// schema is the single cache_entries table SPEC_FULL.md §4.I names.
const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	pkg       TEXT    NOT NULL,
	source_id INTEGER NOT NULL,
	kind      TEXT    NOT NULL,
	hash      TEXT    NOT NULL,
	payload   BLOB    NOT NULL,
	PRIMARY KEY (pkg, source_id, kind)
);
`

// Open creates (or reuses) the sqlite database at path, applying the
// cache_entries schema idempotently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session cache %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying session cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put stores (or replaces) the payload for one (pkg, sourceID, kind),
// alongside the content hash it was computed from so a later Get can
// detect staleness.
func (s *Store) Put(pkg string, sourceID uint32, kind Kind, hash string, payload []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO cache_entries (pkg, source_id, kind, hash, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(pkg, source_id, kind) DO UPDATE SET hash = excluded.hash, payload = excluded.payload`,
		pkg, sourceID, string(kind), hash, payload,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry (pkg=%s source=%d kind=%s): %w", pkg, sourceID, kind, err)
	}
	return nil
}

// Get returns the cached payload for (pkg, sourceID, kind) if its stored
// hash matches wantHash, and whether a (fresh) entry was found at all.
func (s *Store) Get(pkg string, sourceID uint32, kind Kind, wantHash string) ([]byte, bool, error) {
	var hash string
	var payload []byte
	row := s.db.QueryRow(
		`SELECT hash, payload FROM cache_entries WHERE pkg = ? AND source_id = ? AND kind = ?`,
		pkg, sourceID, string(kind),
	)
	if err := row.Scan(&hash, &payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache entry (pkg=%s source=%d kind=%s): %w", pkg, sourceID, kind, err)
	}
	if hash != wantHash {
		return nil, false, nil
	}
	return payload, true, nil
}

// ClearBySource deletes every cache entry for one source id across all
// kinds, the persisted half of spec.md §4.A's clear_by_source operation
// (the in-memory interner side is the engine/store's own job; this only
// drops the durable mirror so a later process doesn't resurrect stale
// entries for a source that has since been edited or removed).
func (s *Store) ClearBySource(pkg string, sourceID uint32) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE pkg = ? AND source_id = ?`, pkg, sourceID)
	if err != nil {
		return fmt.Errorf("clearing cache entries for source %d: %w", sourceID, err)
	}
	return nil
}
