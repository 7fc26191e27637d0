package badgerdb

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"

	"github.com/aretw0/opennote/pkg/core"
)

// NotesAdapter implements core.NotesAdapter over a badger Store. Each note is
// a JSON value under "note:<id>", so writes touch only the note they change.
type NotesAdapter struct {
	db *badger.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var _ core.NotesAdapter = (*NotesAdapter)(nil)

// NewNotesAdapter returns a notes adapter backed by the given store.
func NewNotesAdapter(s *Store) *NotesAdapter {
	return &NotesAdapter{
		db:      s.db,
		entropy: ulid.Monotonic(crand.Reader, 0),
	}
}

func (a *NotesAdapter) GenerateNoteID(_ context.Context, timestampMs core.Timestamp, tempID string) (core.IDPair, error) {
	a.mu.Lock()
	id, err := ulid.New(uint64(timestampMs), a.entropy)
	a.mu.Unlock()
	if err != nil {
		return core.IDPair{}, fmt.Errorf("generating note id: %w", err)
	}
	return core.IDPair{TempID: tempID, NoteID: core.NoteID(id.String())}, nil
}

func (a *NotesAdapter) FetchAllNotes(_ context.Context) ([]core.Note, error) {
	notes := []core.Note{}
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(notePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var n core.Note
				if err := json.Unmarshal(val, &n); err != nil {
					return fmt.Errorf("decoding note %s: %w", it.Item().Key(), err)
				}
				notes = append(notes, n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (a *NotesAdapter) CreateNote(_ context.Context, n core.Note) error {
	return a.put(n)
}

func (a *NotesAdapter) UpdateNote(_ context.Context, n core.Note) error {
	key := noteKey(n.ID)
	return a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("updating note %s: %w", n.ID, core.ErrNoteNotFound)
			}
			return err
		}
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encoding note %s: %w", n.ID, err)
		}
		return txn.Set(key, payload)
	})
}

func (a *NotesAdapter) DeleteNote(_ context.Context, id core.NoteID) error {
	// Deleting an absent key is a no-op in badger, matching the contract.
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(noteKey(id))
	})
}

func (a *NotesAdapter) put(n core.Note) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding note %s: %w", n.ID, err)
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(noteKey(n.ID), payload)
	})
}

func noteKey(id core.NoteID) []byte {
	return []byte(notePrefix + string(id))
}
