// Package exportstore persists the exported surface of converted libraries
// in a SQLite database, so repeated runs can list a dependency's exports
// without re-walking its sources.
package exportstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one exported declaration of a library: its exported name, the
// declaration kind, and its qualified path inside the library.
type Entry struct {
	Name string
	Kind string
	Path string
}

// Store is the SQLite cache of library export surfaces.
type Store struct {
	db *sql.DB
}

// Open opens the cache database at dbPath with WAL mode enabled.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the cache tables. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate cache: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS libraries (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL UNIQUE,
  source_hash     TEXT NOT NULL,
  converted_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS exports (
  id              INTEGER PRIMARY KEY,
  library_id      INTEGER NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  path            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exports_library ON exports(library_id);
CREATE INDEX IF NOT EXISTS idx_exports_name ON exports(name);
`

// Put replaces the stored export surface of a library. The source hash
// identifies the inputs the surface was derived from.
func (s *Store) Put(library, sourceHash string, entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM libraries WHERE name = ?", library); err != nil {
		return fmt.Errorf("evict library %q: %w", library, err)
	}
	res, err := tx.Exec("INSERT INTO libraries (name, source_hash) VALUES (?, ?)", library, sourceHash)
	if err != nil {
		return fmt.Errorf("insert library %q: %w", library, err)
	}
	libID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("library id: %w", err)
	}
	for i, e := range entries {
		if _, err := tx.Exec(
			"INSERT INTO exports (library_id, ordinal, name, kind, path) VALUES (?, ?, ?, ?, ?)",
			libID, i, e.Name, e.Kind, e.Path,
		); err != nil {
			return fmt.Errorf("insert export %q of %q: %w", e.Name, library, err)
		}
	}
	return tx.Commit()
}

// Get returns the stored export surface of a library in insertion order,
// plus the source hash it was derived from. The second return is false when
// the library has never been stored.
func (s *Store) Get(library string) ([]Entry, string, bool, error) {
	var libID int64
	var hash string
	err := s.db.QueryRow("SELECT id, source_hash FROM libraries WHERE name = ?", library).Scan(&libID, &hash)
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("query library %q: %w", library, err)
	}

	rows, err := s.db.Query("SELECT name, kind, path FROM exports WHERE library_id = ? ORDER BY ordinal", libID)
	if err != nil {
		return nil, "", false, fmt.Errorf("query exports of %q: %w", library, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Kind, &e.Path); err != nil {
			return nil, "", false, fmt.Errorf("scan export of %q: %w", library, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", false, fmt.Errorf("iterate exports of %q: %w", library, err)
	}
	return entries, hash, true, nil
}

// Fresh reports whether a stored surface exists for the library and was
// derived from inputs with the given hash.
func (s *Store) Fresh(library, sourceHash string) (bool, error) {
	var stored string
	err := s.db.QueryRow("SELECT source_hash FROM libraries WHERE name = ?", library).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query library %q: %w", library, err)
	}
	return stored == sourceHash, nil
}

// Evict removes a library's stored surface.
func (s *Store) Evict(library string) error {
	if _, err := s.db.Exec("DELETE FROM libraries WHERE name = ?", library); err != nil {
		return fmt.Errorf("evict library %q: %w", library, err)
	}
	return nil
}
