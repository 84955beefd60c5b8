// Package model defines the data structures shared across the application.
package model

// Participant is one seat in the raffle.
//
// WHY ID string (not int)?
// The ID is the "seat number" shown on the wheel: "1", "2", "3"... assigned
// once by the seeded shuffle (or by admin append) and stable forever after.
// It travels through URLs, JSON bodies and the database, all of which treat it
// as an opaque string; keeping it a string end-to-end avoids a pile of
// strconv calls at every boundary. The only place the numeric value matters
// is computing the next ID on append, and that's one parse in the directory.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"` // stored upper-cased, see directory.Add
}
