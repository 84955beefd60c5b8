package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/herwingx/secret-santa/internal/apperror"
	"github.com/herwingx/secret-santa/internal/model"
	"github.com/herwingx/secret-santa/internal/repository"
)

// Compile-time interface checks: if *DB stops satisfying either contract,
// the build breaks here instead of at a call site three packages away.
var (
	_ repository.MatchRepository = (*DB)(nil)
	_ repository.EventRepository = (*DB)(nil)
)

// isConstraintViolation reports whether err is a SQLite uniqueness failure,
// either the spinner primary key or the receiver unique index. The driver
// surfaces these as *sqlite.Error with the extended result code.
func isConstraintViolation(err error) bool {
	var serr *sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// GetBySpinner returns the spinner's stored match, or ErrNotFound if they
// have not drawn yet. Not having drawn is the normal pre-spin state, so the
// caller decides whether that is an error.
func (db *DB) GetBySpinner(ctx context.Context, spinnerID string) (*model.Match, error) {
	var m model.Match
	err := db.conn.QueryRowContext(ctx,
		`SELECT spinner_id, receiver_id, created_at
		 FROM matches
		 WHERE spinner_id = ?`,
		spinnerID,
	).Scan(&m.SpinnerID, &m.ReceiverID, &m.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("match", spinnerID)
		}
		return nil, fmt.Errorf("sqlite: getting match for spinner %s: %w", spinnerID, err)
	}
	return &m, nil
}

// AllReceivers returns the set of receiver IDs already claimed by a match.
func (db *DB) AllReceivers(ctx context.Context) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT receiver_id FROM matches`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing receivers: %w", err)
	}
	defer rows.Close()

	receivers := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning receiver row: %w", err)
		}
		receivers[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating receivers: %w", err)
	}
	return receivers, nil
}

// Insert atomically claims receiverID for spinnerID.
//
// This is the raffle's only write-side synchronisation point. The table
// constraints make the INSERT a compare-and-swap on both columns at once:
//   - spinner already has a row  → primary key violation
//   - receiver already claimed   → unique index violation
//
// Both surface as apperror.ErrConflict; the matching engine tells the two
// cases apart by re-reading the spinner row afterwards.
func (db *DB) Insert(ctx context.Context, spinnerID, receiverID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO matches (spinner_id, receiver_id, created_at) VALUES (?, ?, ?)`,
		spinnerID, receiverID, time.Now().UTC(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict(fmt.Sprintf("spinner %s or receiver %s already matched", spinnerID, receiverID))
		}
		return fmt.Errorf("sqlite: inserting match %s -> %s: %w", spinnerID, receiverID, err)
	}
	return nil
}

// AllMatches returns every stored match. Ordered by creation for stable
// output, though callers treat the result as a set.
func (db *DB) AllMatches(ctx context.Context) ([]model.Match, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT spinner_id, receiver_id, created_at
		 FROM matches
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.SpinnerID, &m.ReceiverID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating matches: %w", err)
	}
	return matches, nil
}

// Clear deletes all matches. The audit trail is untouched.
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("sqlite: clearing matches: %w", err)
	}
	return nil
}

// AppendEvent writes one audit record. The xid primary key is generated here
// (same pattern as any other row ID in this layer) and written back to the
// caller's struct; xids sort by creation time, so ORDER BY id is
// chronological.
func (db *DB) AppendEvent(ctx context.Context, event *model.DrawEvent) error {
	event.ID = xid.New().String()
	event.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO draw_events (id, kind, spinner_id, receiver_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.Kind, event.SpinnerID, event.ReceiverID, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending draw event: %w", err)
	}
	return nil
}

// ListEvents returns the full audit trail, oldest first.
func (db *DB) ListEvents(ctx context.Context) ([]model.DrawEvent, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, kind, spinner_id, receiver_id, created_at
		 FROM draw_events
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing draw events: %w", err)
	}
	defer rows.Close()

	var events []model.DrawEvent
	for rows.Next() {
		var e model.DrawEvent
		if err := rows.Scan(&e.ID, &e.Kind, &e.SpinnerID, &e.ReceiverID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning draw event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating draw events: %w", err)
	}
	return events, nil
}
