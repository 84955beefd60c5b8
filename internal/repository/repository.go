// Package repository declares the storage contracts the service layer
// programs against. Concrete implementations live in subpackages (jsonfile
// for the participant roster, sqlite for the matches); the services only ever
// see these interfaces, which is what lets the tests swap in mocks.
package repository

import (
	"context"

	"github.com/herwingx/secret-santa/internal/model"
)

// ParticipantDirectory is the single source of truth for who can take part.
//
// List and FindByID must reflect the backing storage at call time; callers
// never cache the roster beyond one request, and the directory must pick up
// out-of-band edits (an operator hand-editing the file) without a restart.
type ParticipantDirectory interface {
	// List returns the full roster in seating order.
	List(ctx context.Context) ([]model.Participant, error)

	// FindByID returns apperror.ErrNotFound when no such participant exists.
	FindByID(ctx context.Context, id string) (*model.Participant, error)

	// Add appends a participant with the next sequential ID, normalizing the
	// name to upper case. Returns apperror.ErrConflict when a participant
	// with the same name (case-insensitive, trimmed) already exists. The
	// write is durable before Add returns.
	Add(ctx context.Context, name string) (*model.Participant, error)
}

// MatchRepository is the durable spinner → receiver mapping.
type MatchRepository interface {
	// GetBySpinner returns apperror.ErrNotFound when the spinner has not
	// drawn yet. "Not found" is the normal state before a spin, not a fault.
	GetBySpinner(ctx context.Context, spinnerID string) (*model.Match, error)

	// AllReceivers returns the set of already-claimed receiver IDs, used to
	// compute the exclusion set for new draws.
	AllReceivers(ctx context.Context) (map[string]bool, error)

	// Insert atomically stores a match. It returns apperror.ErrConflict when
	// the spinner already has a row OR the receiver is already claimed;
	// this single check-and-write is the only concurrency control the raffle
	// needs.
	Insert(ctx context.Context, spinnerID, receiverID string) error

	// AllMatches returns every stored match. Order carries no meaning.
	AllMatches(ctx context.Context) ([]model.Match, error)

	// Clear removes all matches. Irreversible.
	Clear(ctx context.Context) error
}

// EventRepository is the append-only draw audit trail. It is deliberately
// separate from MatchRepository: matches are state (and get cleared), events
// are history (and never do).
type EventRepository interface {
	AppendEvent(ctx context.Context, event *model.DrawEvent) error
	ListEvents(ctx context.Context) ([]model.DrawEvent, error)
}
