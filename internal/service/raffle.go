// Package service contains the business logic: the matching engine that runs
// the raffle and the admin operations layered on top of it.
//
// The layering follows the usual three-tier shape: handlers parse HTTP and
// map errors to status codes, services enforce the raffle's rules, and
// repositories read and write storage. The services receive repository
// interfaces, never concrete stores; the tests swap in mocks, and nothing in
// this package knows SQL or filenames exist.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/herwingx/secret-santa/internal/apperror"
	"github.com/herwingx/secret-santa/internal/metrics"
	"github.com/herwingx/secret-santa/internal/model"
	"github.com/herwingx/secret-santa/internal/repository"
)

// maxDrawAttempts bounds the conflict-retry loop in Assign. Every retry means
// some other spinner claimed a receiver between our read and our insert, and
// receivers are only ever claimed (never released), so the loop provably
// terminates within one pass per participant. The constant is a backstop for
// "provably", nothing more.
const maxDrawAttempts = 128

// unknownName is what we render when a match references a participant that
// has since vanished from the roster file. The match stays valid; the
// directory is hot-editable and a deleted row must not break the raffle.
const unknownName = "Unknown"

// AssignmentResult is the outcome of a successful draw.
type AssignmentResult struct {
	ReceiverID      string `json:"receiverId"`
	ReceiverName    string `json:"receiverName"`
	AlreadyAssigned bool   `json:"alreadyAssigned"`
}

// StatusResult reports whether a spinner has drawn, and for whom.
type StatusResult struct {
	HasPlayed    bool   `json:"hasPlayed"`
	ReceiverID   string `json:"receiverId,omitempty"`
	ReceiverName string `json:"receiverName,omitempty"`
}

// RaffleService is the matching engine. It holds no raffle state of its own:
// the directory owns identities, the match repository owns assignments, and
// every call recomputes what it needs from those two.
type RaffleService struct {
	directory repository.ParticipantDirectory
	matches   repository.MatchRepository
	events    repository.EventRepository
	recorder  metrics.Recorder
	logger    *slog.Logger

	// pick chooses an index in [0, n). Injectable so tests can force a
	// specific winner; production uses a time-seeded source behind a mutex
	// (rand.Rand is not safe for concurrent use).
	mu   sync.Mutex
	pick func(n int) int
}

// NewRaffleService wires the engine.
func NewRaffleService(
	directory repository.ParticipantDirectory,
	matches repository.MatchRepository,
	events repository.EventRepository,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *RaffleService {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &RaffleService{
		directory: directory,
		matches:   matches,
		events:    events,
		recorder:  recorder,
		logger:    logger,
		pick:      rng.Intn,
	}
}

// Participants returns the roster, read fresh from the directory.
func (s *RaffleService) Participants(ctx context.Context) ([]model.Participant, error) {
	participants, err := s.directory.List(ctx)
	if err != nil {
		s.logger.Error("failed to list participants", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return participants, nil
}

// Status reports whether spinnerID has already drawn. "Hasn't drawn yet" is a
// normal answer, not an error.
func (s *RaffleService) Status(ctx context.Context, spinnerID string) (*StatusResult, error) {
	spinnerID = strings.TrimSpace(spinnerID)
	if spinnerID == "" {
		return nil, apperror.ValidationFailed("spinnerId", "spinner ID is required")
	}

	match, err := s.matches.GetBySpinner(ctx, spinnerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &StatusResult{HasPlayed: false}, nil
		}
		return nil, fmt.Errorf("checking status for spinner %s: %w", spinnerID, err)
	}

	name, err := s.receiverName(ctx, match.ReceiverID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		HasPlayed:    true,
		ReceiverID:   match.ReceiverID,
		ReceiverName: name,
	}, nil
}

// Assign draws a receiver for spinnerID. This is the core of the raffle.
//
// The algorithm is greedy and idempotent:
//  1. If the spinner already has a match, return it unchanged. A refresh or
//     retry never re-rolls.
//  2. Compute the eligible set: everyone except the spinner and every
//     already-claimed receiver.
//  3. Empty eligible set → ChainStuck. Terminal; nothing is written.
//  4. Pick uniformly at random and try to insert.
//  5. On insert conflict, loop back to 1. The conflict means either this
//     same spinner won a concurrent race (step 1 now returns the stored row,
//     both callers converge on one answer) or a different spinner claimed
//     our candidate receiver first (the next pass recomputes eligibility
//     without them).
//
// The store's dual uniqueness constraints make step 4 an atomic
// claim-if-free, so this loop is the entire concurrency story. No locks.
func (s *RaffleService) Assign(ctx context.Context, spinnerID string) (*AssignmentResult, error) {
	spinnerID = strings.TrimSpace(spinnerID)
	if spinnerID == "" {
		return nil, apperror.ValidationFailed("spinnerId", "spinner ID is required")
	}

	// An ID outside the roster can only be a client bug; letting it through
	// would burn a receiver on a ghost.
	if _, err := s.directory.FindByID(ctx, spinnerID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		match, err := s.matches.GetBySpinner(ctx, spinnerID)
		if err == nil {
			name, nameErr := s.receiverName(ctx, match.ReceiverID)
			if nameErr != nil {
				return nil, nameErr
			}
			s.recorder.RecordSpin(metrics.OutcomeReplay)
			return &AssignmentResult{
				ReceiverID:      match.ReceiverID,
				ReceiverName:    name,
				AlreadyAssigned: true,
			}, nil
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("reading existing match for spinner %s: %w", spinnerID, err)
		}

		claimed, err := s.matches.AllReceivers(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading claimed receivers: %w", err)
		}
		roster, err := s.directory.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading roster: %w", err)
		}

		eligible := make([]model.Participant, 0, len(roster))
		for _, p := range roster {
			if p.ID != spinnerID && !claimed[p.ID] {
				eligible = append(eligible, p)
			}
		}

		if len(eligible) == 0 {
			s.recorder.RecordSpin(metrics.OutcomeChainStuck)
			s.logger.Warn("chain stuck: no eligible receiver",
				slog.String("spinner_id", spinnerID),
				slog.Int("roster_size", len(roster)),
				slog.Int("claimed", len(claimed)),
			)
			return nil, apperror.ChainStuck()
		}

		s.mu.Lock()
		winner := eligible[s.pick(len(eligible))]
		s.mu.Unlock()

		err = s.matches.Insert(ctx, spinnerID, winner.ID)
		if err == nil {
			s.recordEvent(ctx, model.EventAssigned, spinnerID, winner.ID)
			s.recorder.RecordSpin(metrics.OutcomeAssigned)
			s.logger.Info("match assigned",
				slog.String("spinner_id", spinnerID),
				slog.String("receiver_id", winner.ID),
			)
			return &AssignmentResult{
				ReceiverID:   winner.ID,
				ReceiverName: winner.Name,
			}, nil
		}
		if errors.Is(err, apperror.ErrConflict) {
			// Lost a race. The next pass sorts out which kind.
			continue
		}
		return nil, fmt.Errorf("inserting match for spinner %s: %w", spinnerID, err)
	}

	return nil, fmt.Errorf("assigning spinner %s: retry budget exhausted", spinnerID)
}

// Reset wipes every assignment. The audit trail keeps a record that it
// happened, because "someone reset the raffle at 21:40" is exactly the kind
// of fact that gets disputed later.
func (s *RaffleService) Reset(ctx context.Context) error {
	if err := s.matches.Clear(ctx); err != nil {
		s.logger.Error("failed to reset matches", slog.String("error", err.Error()))
		return fmt.Errorf("resetting matches: %w", err)
	}
	s.recordEvent(ctx, model.EventReset, "", "")
	s.recorder.RecordReset()
	s.logger.Info("all matches cleared")
	return nil
}

// receiverName resolves a receiver ID to a display name, tolerating roster
// edits that removed the row.
func (s *RaffleService) receiverName(ctx context.Context, receiverID string) (string, error) {
	p, err := s.directory.FindByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return unknownName, nil
		}
		return "", fmt.Errorf("resolving receiver %s: %w", receiverID, err)
	}
	return p.Name, nil
}

// recordEvent appends to the audit trail. Best effort: the match is already
// committed by the time we get here, and failing the caller's draw over a
// lost audit row would be worse than the lost row.
func (s *RaffleService) recordEvent(ctx context.Context, kind, spinnerID, receiverID string) {
	event := &model.DrawEvent{Kind: kind, SpinnerID: spinnerID, ReceiverID: receiverID}
	if err := s.events.AppendEvent(ctx, event); err != nil {
		s.logger.Warn("failed to append draw event",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}
