package model

import "time"

// Match records that a spinner drew a receiver.
//
// Invariants (enforced by the matches table, see repository/sqlite):
//   - one row per SpinnerID (primary key): a participant draws at most once
//   - one row per ReceiverID (unique index): no one is gifted twice
//   - SpinnerID != ReceiverID, enforced by construction: the matching engine
//     never puts the spinner in its own candidate set
//
// Rows are never updated. They disappear only through a full reset.
type Match struct {
	SpinnerID  string    `json:"spinnerId"`
	ReceiverID string    `json:"receiverId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Draw event kinds for the audit trail.
const (
	EventAssigned = "assigned"
	EventReset    = "reset"
)

// DrawEvent is one append-only audit record. Unlike matches, events survive a
// reset; they are the forensic record of how the raffle unfolded, which is
// what you reach for when the greedy chain gets stuck and someone asks "who
// drew when".
//
// The ID is an xid: 20 chars, URL-safe, and sortable by creation time, so
// ordering by ID is ordering by occurrence.
type DrawEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // EventAssigned or EventReset
	SpinnerID  string    `json:"spinnerId,omitempty"`
	ReceiverID string    `json:"receiverId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
