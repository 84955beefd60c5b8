package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/herwingx/secret-santa/internal/apperror"
	"github.com/herwingx/secret-santa/internal/metrics"
	"github.com/herwingx/secret-santa/internal/model"
)

// =========================================================================
// MOCKS
//
// The services only see the repository interfaces, so the unit tests run on
// in-memory fakes. The sqlite-backed behavior (real constraint arbitration)
// is covered separately in concurrency_test.go.
// =========================================================================

type mockDirectory struct {
	participants []model.Participant
}

func (m *mockDirectory) List(_ context.Context) ([]model.Participant, error) {
	out := make([]model.Participant, len(m.participants))
	copy(out, m.participants)
	return out, nil
}

func (m *mockDirectory) FindByID(_ context.Context, id string) (*model.Participant, error) {
	for i := range m.participants {
		if m.participants[i].ID == id {
			p := m.participants[i]
			return &p, nil
		}
	}
	return nil, apperror.NotFound("participant", id)
}

func (m *mockDirectory) Add(_ context.Context, name string) (*model.Participant, error) {
	p := model.Participant{ID: fmt.Sprintf("%d", len(m.participants)+1), Name: name}
	m.participants = append(m.participants, p)
	return &p, nil
}

// mockMatches mirrors the store's dual uniqueness rules: one row per spinner,
// one row per receiver. onInsert, when set, runs before the normal insert
// logic; tests use it to stage races.
type mockMatches struct {
	mu       sync.Mutex
	rows     map[string]string // spinner → receiver
	onInsert func(spinnerID, receiverID string) error
}

func newMockMatches() *mockMatches {
	return &mockMatches{rows: make(map[string]string)}
}

func (m *mockMatches) GetBySpinner(_ context.Context, spinnerID string) (*model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receiver, ok := m.rows[spinnerID]
	if !ok {
		return nil, apperror.NotFound("match", spinnerID)
	}
	return &model.Match{SpinnerID: spinnerID, ReceiverID: receiver}, nil
}

func (m *mockMatches) AllReceivers(_ context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receivers := make(map[string]bool, len(m.rows))
	for _, r := range m.rows {
		receivers[r] = true
	}
	return receivers, nil
}

func (m *mockMatches) Insert(_ context.Context, spinnerID, receiverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.onInsert != nil {
		hook := m.onInsert
		m.onInsert = nil // one-shot
		if err := hook(spinnerID, receiverID); err != nil {
			return err
		}
	}

	if _, exists := m.rows[spinnerID]; exists {
		return apperror.Conflict("spinner already matched")
	}
	for _, r := range m.rows {
		if r == receiverID {
			return apperror.Conflict("receiver already matched")
		}
	}
	m.rows[spinnerID] = receiverID
	return nil
}

func (m *mockMatches) AllMatches(_ context.Context) ([]model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := make([]model.Match, 0, len(m.rows))
	for s, r := range m.rows {
		matches = append(matches, model.Match{SpinnerID: s, ReceiverID: r})
	}
	return matches, nil
}

func (m *mockMatches) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string]string)
	return nil
}

type mockEvents struct {
	mu     sync.Mutex
	events []model.DrawEvent
}

func (m *mockEvents) AppendEvent(_ context.Context, event *model.DrawEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = fmt.Sprintf("evt-%d", len(m.events)+1)
	m.events = append(m.events, *event)
	return nil
}

func (m *mockEvents) ListEvents(_ context.Context) ([]model.DrawEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.DrawEvent, len(m.events))
	copy(out, m.events)
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func roster(ids ...string) *mockDirectory {
	d := &mockDirectory{}
	for _, id := range ids {
		d.participants = append(d.participants, model.Participant{
			ID:   id,
			Name: "PLAYER " + id,
		})
	}
	return d
}

func newTestRaffle(dir *mockDirectory, matches *mockMatches, events *mockEvents) *RaffleService {
	return NewRaffleService(dir, matches, events, metrics.Nop{}, testLogger())
}

// =========================================================================
// ASSIGN
// =========================================================================

func TestAssign_NeverSelfNeverDuplicate(t *testing.T) {
	dir := roster("1", "2", "3", "4", "5")
	matches := newMockMatches()
	svc := newTestRaffle(dir, matches, &mockEvents{})
	ctx := context.Background()

	seen := make(map[string]string)
	for _, spinner := range []string{"1", "2", "3", "4"} {
		result, err := svc.Assign(ctx, spinner)
		if err != nil {
			t.Fatalf("Assign(%s) error = %v", spinner, err)
		}
		if result.ReceiverID == spinner {
			t.Errorf("spinner %s drew themselves", spinner)
		}
		if prev, taken := seen[result.ReceiverID]; taken {
			t.Errorf("receiver %s drawn by both %s and %s", result.ReceiverID, prev, spinner)
		}
		seen[result.ReceiverID] = spinner
		if result.AlreadyAssigned {
			t.Errorf("fresh draw for %s flagged alreadyAssigned", spinner)
		}
	}
}

func TestAssign_Idempotent(t *testing.T) {
	dir := roster("1", "2", "3")
	matches := newMockMatches()
	svc := newTestRaffle(dir, matches, &mockEvents{})
	ctx := context.Background()

	first, err := svc.Assign(ctx, "1")
	if err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}
	second, err := svc.Assign(ctx, "1")
	if err != nil {
		t.Fatalf("second Assign() error = %v", err)
	}

	if second.ReceiverID != first.ReceiverID {
		t.Errorf("re-draw changed receiver: %s then %s", first.ReceiverID, second.ReceiverID)
	}
	if !second.AlreadyAssigned {
		t.Error("second Assign() should report alreadyAssigned")
	}
	if len(matches.rows) != 1 {
		t.Errorf("store has %d rows for one spinner, want 1", len(matches.rows))
	}
}

func TestAssign_UnknownSpinner(t *testing.T) {
	svc := newTestRaffle(roster("1", "2"), newMockMatches(), &mockEvents{})

	_, err := svc.Assign(context.Background(), "99")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Assign(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestAssign_EmptySpinnerID(t *testing.T) {
	svc := newTestRaffle(roster("1"), newMockMatches(), &mockEvents{})

	_, err := svc.Assign(context.Background(), "  ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Assign(blank) error = %v, want ErrValidation", err)
	}
}

func TestAssign_ChainStuck(t *testing.T) {
	// 1 and 2 drew each other; every receiver except 3 themselves is
	// claimed, so 3 is painted into a corner.
	dir := roster("1", "2", "3")
	matches := newMockMatches()
	matches.rows["1"] = "2"
	matches.rows["2"] = "1"
	events := &mockEvents{}
	svc := newTestRaffle(dir, matches, events)

	_, err := svc.Assign(context.Background(), "3")
	if !errors.Is(err, apperror.ErrChainStuck) {
		t.Fatalf("Assign(cornered) error = %v, want ErrChainStuck", err)
	}

	// Terminal failure writes nothing: no row, no audit event.
	if len(matches.rows) != 2 {
		t.Errorf("store has %d rows after ChainStuck, want 2", len(matches.rows))
	}
	if len(events.events) != 0 {
		t.Errorf("%d events appended by a failed draw, want 0", len(events.events))
	}

	// And it is stable: retrying changes nothing.
	_, err = svc.Assign(context.Background(), "3")
	if !errors.Is(err, apperror.ErrChainStuck) {
		t.Errorf("retry error = %v, want ErrChainStuck again", err)
	}
}

// A same-spinner race: our insert loses because a concurrent request for the
// same spinner committed first. Assign must fall back to the stored winner
// rather than erroring: both callers converge on one answer.
func TestAssign_SameSpinnerRaceConverges(t *testing.T) {
	dir := roster("1", "2", "3")
	matches := newMockMatches()
	matches.onInsert = func(spinnerID, _ string) error {
		// The "other" request lands just before ours.
		matches.rows[spinnerID] = "3"
		return apperror.Conflict("spinner already matched")
	}
	svc := newTestRaffle(dir, matches, &mockEvents{})

	result, err := svc.Assign(context.Background(), "1")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if result.ReceiverID != "3" {
		t.Errorf("ReceiverID = %q, want the race winner's %q", result.ReceiverID, "3")
	}
	if !result.AlreadyAssigned {
		t.Error("converged result should report alreadyAssigned")
	}
	if len(matches.rows) != 1 {
		t.Errorf("store has %d rows, want 1", len(matches.rows))
	}
}

// A different-spinner race: another spinner steals our candidate receiver
// between read and insert. Assign must re-roll against the fresh exclusion
// set and land on someone else.
func TestAssign_ReceiverStolenReRolls(t *testing.T) {
	dir := roster("1", "2", "3")
	matches := newMockMatches()
	svc := newTestRaffle(dir, matches, &mockEvents{})
	svc.pick = func(int) int { return 0 } // deterministic: always the first eligible

	// First eligible for spinner 1 is 2; steal them for spinner 3 at the
	// moment of our insert.
	matches.onInsert = func(_, receiverID string) error {
		matches.rows["3"] = receiverID
		return apperror.Conflict("receiver already matched")
	}

	result, err := svc.Assign(context.Background(), "1")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if result.ReceiverID == matches.rows["3"] {
		t.Errorf("receiver %s double-booked after re-roll", result.ReceiverID)
	}
	if result.ReceiverID == "1" {
		t.Error("re-roll assigned the spinner to themselves")
	}
	if matches.rows["1"] != result.ReceiverID {
		t.Errorf("stored row %q does not match returned receiver %q", matches.rows["1"], result.ReceiverID)
	}
}

func TestAssign_AppendsAuditEvent(t *testing.T) {
	events := &mockEvents{}
	svc := newTestRaffle(roster("1", "2"), newMockMatches(), events)

	result, err := svc.Assign(context.Background(), "1")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if len(events.events) != 1 {
		t.Fatalf("%d events after one draw, want 1", len(events.events))
	}
	e := events.events[0]
	if e.Kind != model.EventAssigned || e.SpinnerID != "1" || e.ReceiverID != result.ReceiverID {
		t.Errorf("event = %+v", e)
	}
}

// =========================================================================
// STATUS / RESET / PARTICIPANTS
// =========================================================================

func TestStatus(t *testing.T) {
	dir := roster("1", "2", "3")
	matches := newMockMatches()
	svc := newTestRaffle(dir, matches, &mockEvents{})
	ctx := context.Background()

	status, err := svc.Status(ctx, "1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.HasPlayed {
		t.Error("HasPlayed = true before any draw")
	}

	matches.rows["1"] = "3"

	status, err = svc.Status(ctx, "1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.HasPlayed || status.ReceiverID != "3" || status.ReceiverName != "PLAYER 3" {
		t.Errorf("Status() = %+v", status)
	}
}

// A match whose receiver was removed from the roster file must still render,
// with a placeholder name.
func TestStatus_ReceiverGoneFromRoster(t *testing.T) {
	dir := roster("1", "2")
	matches := newMockMatches()
	matches.rows["1"] = "42" // no longer in the directory
	svc := newTestRaffle(dir, matches, &mockEvents{})

	status, err := svc.Status(context.Background(), "1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.ReceiverName != "Unknown" {
		t.Errorf("ReceiverName = %q, want %q", status.ReceiverName, "Unknown")
	}
}

func TestReset(t *testing.T) {
	matches := newMockMatches()
	matches.rows["1"] = "2"
	events := &mockEvents{}
	svc := newTestRaffle(roster("1", "2"), matches, events)

	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(matches.rows) != 0 {
		t.Errorf("%d rows remain after Reset", len(matches.rows))
	}
	if len(events.events) != 1 || events.events[0].Kind != model.EventReset {
		t.Errorf("reset not recorded in audit trail: %v", events.events)
	}
}

func TestParticipants(t *testing.T) {
	svc := newTestRaffle(roster("1", "2", "3"), newMockMatches(), &mockEvents{})

	participants, err := svc.Participants(context.Background())
	if err != nil {
		t.Fatalf("Participants() error = %v", err)
	}
	if len(participants) != 3 {
		t.Errorf("Participants() = %d, want 3", len(participants))
	}
}
