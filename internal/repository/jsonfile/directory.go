// Package jsonfile implements the participant directory on a flat JSON file.
//
// WHY A FILE AND NOT A TABLE?
// The roster is tiny (tens of names), changes rarely, and the operators'
// workflow is "open participants.json, fix the typo, save", with no restart, no
// SQL client. To honour that, every read goes back to the file: List and
// FindByID re-read it on each call, so a hand edit is visible on the very
// next request. Writes go through a temp-file-and-rename so a crash mid-write
// can never leave a half-written roster behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/herwingx/secret-santa/internal/apperror"
	"github.com/herwingx/secret-santa/internal/model"
	"github.com/herwingx/secret-santa/internal/repository"
)

// Compile-time check that *Directory satisfies the directory contract.
var _ repository.ParticipantDirectory = (*Directory)(nil)

// Directory is a JSON-file-backed participant directory.
//
// The mutex serialises Add calls (read-modify-write of the file). Plain reads
// take it too: a List racing an in-flight rename is safe on POSIX, but the
// roster is small enough that the lock costs nothing and keeps the reasoning
// trivial.
type Directory struct {
	mu   sync.Mutex
	path string
}

// New returns a Directory backed by the file at path. The file must already
// exist; see Bootstrap for first-run creation.
func New(path string) *Directory {
	return &Directory{path: path}
}

// load reads and decodes the roster file. Always called fresh; the whole
// point of this store is that it has no in-memory cache to go stale.
func (d *Directory) load() ([]model.Participant, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: reading roster %s: %w", d.path, err)
	}

	var participants []model.Participant
	if err := json.Unmarshal(data, &participants); err != nil {
		return nil, fmt.Errorf("jsonfile: decoding roster %s: %w", d.path, err)
	}
	return participants, nil
}

// save writes the roster atomically: marshal to a temp file in the same
// directory, then rename over the real one. Rename is atomic on the same
// filesystem, so readers see either the old roster or the new one, never a
// torn file.
func (d *Directory) save(participants []model.Participant) error {
	data, err := json.MarshalIndent(participants, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding roster: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".roster-*.json")
	if err != nil {
		return fmt.Errorf("jsonfile: creating temp roster: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: writing temp roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: closing temp roster: %w", err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: replacing roster: %w", err)
	}
	return nil
}

// List returns the full roster in seating order.
func (d *Directory) List(_ context.Context) ([]model.Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// FindByID returns the participant with the given seat number.
func (d *Directory) FindByID(_ context.Context, id string) (*model.Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	participants, err := d.load()
	if err != nil {
		return nil, err
	}
	for i := range participants {
		if participants[i].ID == id {
			return &participants[i], nil
		}
	}
	return nil, apperror.NotFound("participant", id)
}

// Add appends a new participant and persists the roster before returning.
//
// The name is trimmed and upper-cased (the roster is all-caps by convention,
// and the duplicate check is case-insensitive anyway). The new ID is
// max(existing)+1, NOT len+1, which would collide if the roster ever had a
// hole from a manual edit.
func (d *Directory) Add(_ context.Context, name string) (*model.Participant, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	if normalized == "" {
		return nil, apperror.ValidationFailed("name", "participant name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	participants, err := d.load()
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, p := range participants {
		if strings.ToUpper(strings.TrimSpace(p.Name)) == normalized {
			return nil, apperror.Conflict(fmt.Sprintf("participant %q already exists", normalized))
		}
		if n, err := strconv.Atoi(p.ID); err == nil && n > maxID {
			maxID = n
		}
	}

	participant := model.Participant{
		ID:   strconv.Itoa(maxID + 1),
		Name: normalized,
	}
	participants = append(participants, participant)

	if err := d.save(participants); err != nil {
		return nil, err
	}
	return &participant, nil
}
