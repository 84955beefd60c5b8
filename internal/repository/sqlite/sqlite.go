// Package sqlite implements the assignment store on an embedded SQLite
// database.
//
// WHY SQLITE?
// The matches table is the one piece of state that must survive a restart and
// must arbitrate races (two spins landing at once). SQLite gives us durable
// writes and real uniqueness constraints in a single file, with nothing to
// install. We use modernc.org/sqlite, a pure-Go translation of SQLite, so
// the binary cross-compiles without a C toolchain.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the match and event
// repository methods. The server owns its lifecycle: New opens it, Close
// (deferred in Start) flushes the WAL and releases the file lock.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first spin of the evening.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets concurrent status reads proceed while a spin is committing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start.
//
// SCHEMA NOTES:
// matches carries BOTH uniqueness rules of the raffle:
//   - spinner_id PRIMARY KEY  → a participant draws at most once
//   - receiver_id UNIQUE      → nobody is gifted twice
//
// With both constraints in the table, a single INSERT is an atomic
// "claim this receiver for this spinner if neither side is taken", and every
// race between concurrent spins collapses into a constraint violation that
// the engine recovers from. No advisory locks, no transactions spanning
// reads.
//
// draw_events is the append-only audit trail. It intentionally has no foreign
// keys into matches: events outlive resets.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			spinner_id  TEXT PRIMARY KEY,
			receiver_id TEXT NOT NULL UNIQUE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating matches table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS draw_events (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			spinner_id  TEXT NOT NULL DEFAULT '',
			receiver_id TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating draw_events table: %w", err)
	}

	return nil
}
