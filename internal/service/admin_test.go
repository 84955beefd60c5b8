package service

import (
	"context"
	"errors"
	"testing"

	"github.com/herwingx/secret-santa/internal/apperror"
	"github.com/herwingx/secret-santa/internal/metrics"
	"github.com/herwingx/secret-santa/internal/model"
)

// stubAuthorizer accepts exactly one password and one token.
type stubAuthorizer struct {
	password string
	token    string
}

func (a *stubAuthorizer) Authorize(password, token string) error {
	if token != "" && token == a.token {
		return nil
	}
	if password == a.password {
		return nil
	}
	return apperror.Unauthorized("incorrect password")
}

func newTestAdmin(dir *mockDirectory, matches *mockMatches, events *mockEvents) *AdminService {
	return NewAdminService(dir, matches, events,
		&stubAuthorizer{password: "letmein", token: "session-token"},
		metrics.Nop{}, testLogger())
}

func namedRoster(pairs ...string) *mockDirectory {
	// pairs alternate id, name
	d := &mockDirectory{}
	for i := 0; i+1 < len(pairs); i += 2 {
		d.participants = append(d.participants, model.Participant{ID: pairs[i], Name: pairs[i+1]})
	}
	return d
}

func TestReport(t *testing.T) {
	// Matches {A→B, C→D} over participants {A,B,C,D,E}: completed 2,
	// pending = everyone who has not spun (B, D, E).
	dir := namedRoster("A", "ALICE", "B", "BOB", "C", "CAROL", "D", "DAVE", "E", "EVE")
	matches := newMockMatches()
	matches.rows["A"] = "B"
	matches.rows["C"] = "D"
	svc := newTestAdmin(dir, matches, &mockEvents{})

	report, err := svc.Report(context.Background(), "letmein", "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if report.Total != 5 {
		t.Errorf("Total = %d, want 5", report.Total)
	}
	if report.Completed != 2 {
		t.Errorf("Completed = %d, want 2", report.Completed)
	}

	byID := make(map[string]MatchView)
	for _, v := range report.Matches {
		byID[v.SpinnerID] = v
	}
	if v := byID["A"]; v.Spinner != "ALICE" || v.Receiver != "BOB" {
		t.Errorf("match A = %+v, want ALICE → BOB", v)
	}
	if v := byID["C"]; v.Spinner != "CAROL" || v.Receiver != "DAVE" {
		t.Errorf("match C = %+v, want CAROL → DAVE", v)
	}

	pending := make(map[string]bool)
	for _, p := range report.Pending {
		pending[p.ID] = true
	}
	if len(pending) != 3 || !pending["B"] || !pending["D"] || !pending["E"] {
		t.Errorf("Pending = %v, want B, D, E", report.Pending)
	}
}

func TestReport_Unauthorized(t *testing.T) {
	svc := newTestAdmin(namedRoster("A", "ALICE"), newMockMatches(), &mockEvents{})

	_, err := svc.Report(context.Background(), "wrong", "")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Report(bad password) error = %v, want ErrUnauthorized", err)
	}
}

func TestReport_BearerToken(t *testing.T) {
	svc := newTestAdmin(namedRoster("A", "ALICE"), newMockMatches(), &mockEvents{})

	if _, err := svc.Report(context.Background(), "", "session-token"); err != nil {
		t.Errorf("Report(valid token) error = %v", err)
	}
	if _, err := svc.Report(context.Background(), "", "forged"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Report(forged token) error = %v, want ErrUnauthorized", err)
	}
}

// A report must see a participant added moments before; no caching between
// the two admin operations.
func TestReport_SeesFreshAdd(t *testing.T) {
	dir := namedRoster("1", "ANA")
	svc := newTestAdmin(dir, newMockMatches(), &mockEvents{})
	ctx := context.Background()

	if _, err := svc.AddParticipant(ctx, "letmein", "", "BETO"); err != nil {
		t.Fatalf("AddParticipant() error = %v", err)
	}

	report, err := svc.Report(ctx, "letmein", "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Total != 2 || len(report.Pending) != 2 {
		t.Errorf("report after add: total=%d pending=%d, want 2/2", report.Total, len(report.Pending))
	}
}

func TestAddParticipant(t *testing.T) {
	dir := namedRoster("1", "ANA")
	svc := newTestAdmin(dir, newMockMatches(), &mockEvents{})

	result, err := svc.AddParticipant(context.Background(), "letmein", "", "BETO")
	if err != nil {
		t.Fatalf("AddParticipant() error = %v", err)
	}
	if result.Participant.Name != "BETO" {
		t.Errorf("Participant.Name = %q", result.Participant.Name)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
}

func TestAddParticipant_Unauthorized(t *testing.T) {
	dir := namedRoster("1", "ANA")
	svc := newTestAdmin(dir, newMockMatches(), &mockEvents{})

	_, err := svc.AddParticipant(context.Background(), "nope", "", "BETO")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("AddParticipant(bad password) error = %v, want ErrUnauthorized", err)
	}

	// Rejected call must not have mutated the roster.
	if len(dir.participants) != 1 {
		t.Errorf("roster grew to %d after unauthorized add", len(dir.participants))
	}
}

func TestHistory(t *testing.T) {
	events := &mockEvents{}
	events.events = []model.DrawEvent{
		{ID: "evt-1", Kind: model.EventAssigned, SpinnerID: "1", ReceiverID: "2"},
		{ID: "evt-2", Kind: model.EventReset},
	}
	svc := newTestAdmin(namedRoster("1", "ANA"), newMockMatches(), events)

	got, err := svc.History(context.Background(), "letmein", "")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 2 || got[0].Kind != model.EventAssigned || got[1].Kind != model.EventReset {
		t.Errorf("History() = %v", got)
	}
}

func TestHistory_Unauthorized(t *testing.T) {
	svc := newTestAdmin(namedRoster("1", "ANA"), newMockMatches(), &mockEvents{})

	_, err := svc.History(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("History(no credential) error = %v, want ErrUnauthorized", err)
	}
}
