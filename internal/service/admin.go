package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/herwingx/secret-santa/internal/metrics"
	"github.com/herwingx/secret-santa/internal/model"
	"github.com/herwingx/secret-santa/internal/repository"
)

// Authorizer gates admin operations. The concrete implementation
// (auth.Guard) accepts either the shared password or a session token; the
// service only cares that *something* vouched for the caller.
type Authorizer interface {
	Authorize(password, token string) error
}

// MatchView is one row of the admin report, resolved to display names.
type MatchView struct {
	Spinner    string `json:"spinner"`
	SpinnerID  string `json:"spinnerId"`
	Receiver   string `json:"receiver"`
	ReceiverID string `json:"receiverId"`
}

// Report is the full admin picture: who drew whom, and who hasn't drawn.
type Report struct {
	Matches   []MatchView         `json:"matches"`
	Pending   []model.Participant `json:"pending"`
	Total     int                 `json:"total"`
	Completed int                 `json:"completed"`
}

// AddResult is returned when a participant is appended.
type AddResult struct {
	Participant *model.Participant `json:"participant"`
	Total       int                `json:"total"`
}

// AdminService implements the credential-gated operations. It performs no
// mutation except the explicit participant append; the report is pure reads
// and safe to call in a refresh loop.
type AdminService struct {
	directory repository.ParticipantDirectory
	matches   repository.MatchRepository
	events    repository.EventRepository
	auth      Authorizer
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewAdminService wires the admin operations.
func NewAdminService(
	directory repository.ParticipantDirectory,
	matches repository.MatchRepository,
	events repository.EventRepository,
	auth Authorizer,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		directory: directory,
		matches:   matches,
		events:    events,
		auth:      auth,
		recorder:  recorder,
		logger:    logger,
	}
}

// Report aggregates matches and pending participants. The roster is read
// live, so a participant added seconds ago already shows up as pending.
func (s *AdminService) Report(ctx context.Context, password, token string) (*Report, error) {
	if err := s.auth.Authorize(password, token); err != nil {
		return nil, err
	}

	matches, err := s.matches.AllMatches(ctx)
	if err != nil {
		s.logger.Error("failed to read matches for report", slog.String("error", err.Error()))
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	roster, err := s.directory.List(ctx)
	if err != nil {
		s.logger.Error("failed to read roster for report", slog.String("error", err.Error()))
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.ID] = p.Name
	}
	displayName := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return unknownName
	}

	views := make([]MatchView, 0, len(matches))
	drawn := make(map[string]bool, len(matches))
	for _, m := range matches {
		drawn[m.SpinnerID] = true
		views = append(views, MatchView{
			Spinner:    displayName(m.SpinnerID),
			SpinnerID:  m.SpinnerID,
			Receiver:   displayName(m.ReceiverID),
			ReceiverID: m.ReceiverID,
		})
	}

	pending := make([]model.Participant, 0, len(roster)-len(matches))
	for _, p := range roster {
		if !drawn[p.ID] {
			pending = append(pending, p)
		}
	}

	return &Report{
		Matches:   views,
		Pending:   pending,
		Total:     len(roster),
		Completed: len(matches),
	}, nil
}

// AddParticipant appends a new name to the roster. Duplicate names (case-
// insensitive) and empty names are rejected by the directory; the new seat
// number is max(existing)+1 and is durable before this returns.
func (s *AdminService) AddParticipant(ctx context.Context, password, token, name string) (*AddResult, error) {
	if err := s.auth.Authorize(password, token); err != nil {
		return nil, err
	}

	participant, err := s.directory.Add(ctx, name)
	if err != nil {
		return nil, err
	}

	roster, err := s.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading roster after add: %w", err)
	}

	s.recorder.RecordParticipantAdded()
	s.logger.Info("participant added",
		slog.String("id", participant.ID),
		slog.String("name", participant.Name),
	)
	return &AddResult{Participant: participant, Total: len(roster)}, nil
}

// History returns the append-only draw audit trail, oldest first.
func (s *AdminService) History(ctx context.Context, password, token string) ([]model.DrawEvent, error) {
	if err := s.auth.Authorize(password, token); err != nil {
		return nil, err
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		s.logger.Error("failed to read draw events", slog.String("error", err.Error()))
		return nil, fmt.Errorf("reading draw events: %w", err)
	}
	return events, nil
}
