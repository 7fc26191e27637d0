// Package fs implements the persistence adapter contracts over a local data
// directory: one JSON document per entity type, written atomically. Loads are
// permissive: a missing file is an empty collection, and legacy field shapes
// are upgraded on read.
package fs

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/aretw0/opennote/pkg/core"
)

const (
	notesFile      = "notes.json"
	categoriesFile = "categories.json"
	tagsFile       = "tags.json"
)

// Config holds the configuration for the filesystem adapters.
type Config struct {
	Dir    string
	Logger *slog.Logger
}

// NotesAdapter persists the note collection as a single JSON array in
// notes.json. Note IDs are ULIDs built from the creation timestamp, which
// makes them globally unique and lexically sortable by creation order.
type NotesAdapter struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex
	entropy io.Reader
}

// NewNotesAdapter creates a filesystem notes adapter rooted at cfg.Dir.
func NewNotesAdapter(cfg Config) *NotesAdapter {
	return &NotesAdapter{
		path:    filepath.Join(cfg.Dir, notesFile),
		logger:  cfg.Logger,
		entropy: ulid.Monotonic(crand.Reader, 0),
	}
}

// GenerateNoteID issues a ULID for the given creation timestamp.
func (a *NotesAdapter) GenerateNoteID(ctx context.Context, timestampMs core.Timestamp, tempID string) (core.IDPair, error) {
	a.mu.Lock()
	id, err := ulid.New(uint64(timestampMs), a.entropy)
	a.mu.Unlock()
	if err != nil {
		return core.IDPair{}, fmt.Errorf("failed to generate ulid: %w", err)
	}
	return core.IDPair{TempID: tempID, NoteID: id.String()}, nil
}

// FetchAllNotes reads the full snapshot. A missing file is an empty list.
func (a *NotesAdapter) FetchAllNotes(ctx context.Context) ([]core.Note, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked()
}

// CreateNote appends the note to the snapshot. Retrying a create of an
// existing ID overwrites that entry, keeping the operation idempotent.
func (a *NotesAdapter) CreateNote(ctx context.Context, n core.Note) error {
	return a.mutate(func(notes []core.Note) ([]core.Note, error) {
		for i := range notes {
			if notes[i].ID == n.ID {
				notes[i] = n
				return notes, nil
			}
		}
		return append(notes, n), nil
	})
}

// UpdateNote replaces the stored aggregate.
func (a *NotesAdapter) UpdateNote(ctx context.Context, n core.Note) error {
	return a.mutate(func(notes []core.Note) ([]core.Note, error) {
		for i := range notes {
			if notes[i].ID == n.ID {
				notes[i] = n
				return notes, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", core.ErrNoteNotFound, n.ID)
	})
}

// DeleteNote removes the note. Deleting a missing ID is a no-op so retries
// stay idempotent.
func (a *NotesAdapter) DeleteNote(ctx context.Context, id core.NoteID) error {
	return a.mutate(func(notes []core.Note) ([]core.Note, error) {
		out := notes[:0]
		for _, n := range notes {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out, nil
	})
}

func (a *NotesAdapter) mutate(fn func([]core.Note) ([]core.Note, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	notes, err := a.loadLocked()
	if err != nil {
		return err
	}
	notes, err = fn(notes)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}
	return writeFileAtomic(a.path, data, 0644)
}

// noteRecord carries legacy fields alongside the current shape so old
// snapshots upgrade transparently on read.
type noteRecord struct {
	core.Note
	LegacyCategories []string `json:"categories,omitempty"`
}

func (a *NotesAdapter) loadLocked() ([]core.Note, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return []core.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	var records []noteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}

	notes := make([]core.Note, 0, len(records))
	for _, r := range records {
		notes = append(notes, upgradeNote(r))
	}
	return notes, nil
}

// upgradeNote applies best-effort field migration: the legacy multi-category
// array collapses to its first entry, and absent collections default.
func upgradeNote(r noteRecord) core.Note {
	n := r.Note
	if n.Category == "" && len(r.LegacyCategories) > 0 {
		n.Category = r.LegacyCategories[0]
	}
	if n.ContentBlocks == nil {
		n.ContentBlocks = []core.Block{}
	}
	if n.EnrichmentBlocks == nil {
		n.EnrichmentBlocks = []core.Block{}
	}
	if n.Tags.User == nil {
		n.Tags.User = []string{}
	}
	if n.Tags.System == nil {
		n.Tags.System = []string{}
	}
	return n
}
