package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/opennote/pkg/core"
)

// Notes is the reactive container for the note collection. It holds the
// canonical in-memory map plus a lexically ordered ID list, and applies every
// mutation optimistically: memory first, adapter second, rollback to the
// pre-mutation snapshot if the adapter fails.
//
// Concurrency: each mutation's in-memory steps run under the store mutex, so a
// single call is never observed half-applied. Two concurrent UpdateNote calls
// on the same ID still race at updater granularity: each updater receives the
// snapshot taken at its own call time, so the last writer wins field-merge
// chosen by its closure. Callers patching the same note concurrently must
// coordinate through one updater.
type Notes struct {
	mu      sync.RWMutex
	notes   map[core.NoteID]core.Note
	ordered []core.NoteID

	adapter core.NotesAdapter
	logger  *slog.Logger
	broker  *broker

	loading bool
	lastErr error
}

// NoteUpdater transforms a pre-mutation snapshot into the desired state.
type NoteUpdater func(core.Note) core.Note

// NoteUpdate pairs a note ID with its updater for batch operations.
type NoteUpdate struct {
	ID      core.NoteID
	Updater NoteUpdater
}

// NewNotes creates a notes store over the given adapter.
func NewNotes(adapter core.NotesAdapter, opts ...Option) *Notes {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Notes{
		notes:   make(map[core.NoteID]core.Note),
		ordered: []core.NoteID{},
		adapter: adapter,
		logger:  o.logger,
		broker:  newBroker(o.eventBuffer, o.logger),
	}
}

// CreateNote inserts a note optimistically under a temporary ID, asks the
// adapter for a permanent one, re-keys the entry and persists it. On any
// failure the temporary entry is removed entirely and the error returned: the
// caller must never see a note that does not exist in storage.
//
// Zero fields of initial get defaults (title "Untitled Note", empty blocks and
// tags). initial.ID is ignored; IDs are owned by the store and adapter.
func (s *Notes) CreateNote(ctx context.Context, initial core.Note) (core.NoteID, error) {
	now := nowMillis()
	tempID := fmt.Sprintf("temp-%d-%s", now, uuid.NewString()[:8])

	note := initial.Clone()
	note.ID = tempID
	if note.Title == "" {
		note.Title = "Untitled Note"
	}
	note.CreatedAt = now
	note.UpdatedAt = now

	s.mu.Lock()
	s.notes[tempID] = note
	s.ordered = insertSorted(s.ordered, tempID)
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		delete(s.notes, tempID)
		s.ordered = removeID(s.ordered, tempID)
		s.mu.Unlock()
	}

	pair, err := s.adapter.GenerateNoteID(ctx, now, tempID)
	if err != nil {
		rollback()
		return "", fmt.Errorf("failed to generate note id: %w", err)
	}

	note.ID = pair.NoteID
	s.mu.Lock()
	delete(s.notes, tempID)
	s.notes[pair.NoteID] = note
	s.ordered = insertSorted(removeID(s.ordered, tempID), pair.NoteID)
	s.mu.Unlock()

	if err := s.adapter.CreateNote(ctx, note); err != nil {
		s.mu.Lock()
		delete(s.notes, pair.NoteID)
		s.ordered = removeID(s.ordered, pair.NoteID)
		s.mu.Unlock()
		return "", fmt.Errorf("failed to persist note: %w", err)
	}

	s.publish(core.EventCreate, pair.NoteID)
	return pair.NoteID, nil
}

// UpdateNote applies updater to a deep copy of the current entity, stamps
// UpdatedAt, swaps it in optimistically and persists. On persistence failure
// the entity is rolled back to its pre-update value and the error returned.
func (s *Notes) UpdateNote(ctx context.Context, id core.NoteID, updater NoteUpdater) error {
	s.mu.Lock()
	current, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrNoteNotFound, id)
	}
	snapshot := current.Clone()

	updated := updater(current.Clone())
	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = stampAfter(current.UpdatedAt)
	s.notes[id] = updated
	s.mu.Unlock()

	if err := s.adapter.UpdateNote(ctx, updated); err != nil {
		s.mu.Lock()
		s.notes[id] = snapshot
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("note update rolled back", "id", id, "error", err)
		}
		return fmt.Errorf("failed to persist note update: %w", err)
	}

	s.publish(core.EventModify, id)
	return nil
}

// DeleteNote removes the entity and its ordered-list entry optimistically,
// then persists the deletion; on failure both are restored.
func (s *Notes) DeleteNote(ctx context.Context, id core.NoteID) error {
	s.mu.Lock()
	snapshot, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrNoteNotFound, id)
	}
	delete(s.notes, id)
	s.ordered = removeID(s.ordered, id)
	s.mu.Unlock()

	if err := s.adapter.DeleteNote(ctx, id); err != nil {
		s.mu.Lock()
		s.notes[id] = snapshot
		s.ordered = insertSorted(s.ordered, id)
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("note delete rolled back", "id", id, "error", err)
		}
		return fmt.Errorf("failed to persist note deletion: %w", err)
	}

	s.publish(core.EventDelete, id)
	return nil
}

// BatchUpdateNotes computes every update against the pre-batch snapshots,
// applies them to memory atomically and persists them in parallel. If any
// persistence call fails, every entity touched by the batch is rolled back to
// its pre-batch value. All-or-nothing from the caller's point of view even
// though the underlying writes are not transactional.
func (s *Notes) BatchUpdateNotes(ctx context.Context, updates []NoteUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	now := nowMillis()

	s.mu.Lock()
	originals := make(map[core.NoteID]core.Note, len(updates))
	updated := make(map[core.NoteID]core.Note, len(updates))
	for _, u := range updates {
		current, ok := s.notes[u.ID]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", core.ErrNoteNotFound, u.ID)
		}
		originals[u.ID] = current.Clone()

		next := u.Updater(current.Clone())
		next.ID = u.ID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = now
		if next.UpdatedAt < current.UpdatedAt {
			next.UpdatedAt = current.UpdatedAt
		}
		updated[u.ID] = next
	}
	for id, n := range updated {
		s.notes[id] = n
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, n := range updated {
		note := n
		g.Go(func() error {
			return s.adapter.UpdateNote(gctx, note)
		})
	}

	if err := g.Wait(); err != nil {
		s.mu.Lock()
		for id, original := range originals {
			s.notes[id] = original
		}
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("batch update rolled back", "count", len(updates), "error", err)
		}
		return fmt.Errorf("failed to persist batch update: %w", err)
	}

	for id := range updated {
		s.publish(core.EventModify, id)
	}
	return nil
}

// ReplaceEnrichments replaces the AI-owned enrichment blocks wholesale.
func (s *Notes) ReplaceEnrichments(ctx context.Context, id core.NoteID, blocks []core.Block) error {
	return s.UpdateNote(ctx, id, func(n core.Note) core.Note {
		n.EnrichmentBlocks = cloneForWrite(blocks)
		return n
	})
}

// ClearEnrichments removes all enrichment blocks.
func (s *Notes) ClearEnrichments(ctx context.Context, id core.NoteID) error {
	return s.UpdateNote(ctx, id, func(n core.Note) core.Note {
		n.EnrichmentBlocks = []core.Block{}
		return n
	})
}

// SetEmbeddings stores note-level semantic vectors.
func (s *Notes) SetEmbeddings(ctx context.Context, id core.NoteID, embeddings []core.Embedding) error {
	return s.UpdateNote(ctx, id, func(n core.Note) core.Note {
		n.Embeddings = embeddings
		return n
	})
}

// ClearEmbeddings drops the note's semantic vectors.
func (s *Notes) ClearEmbeddings(ctx context.Context, id core.NoteID) error {
	return s.UpdateNote(ctx, id, func(n core.Note) core.Note {
		n.Embeddings = nil
		return n
	})
}

// Hydrate replaces the entire in-memory state from a fetched snapshot. Pure
// synchronous replace, no rollback semantics. Used once at startup.
func (s *Notes) Hydrate(notes []core.Note) {
	m := make(map[core.NoteID]core.Note, len(notes))
	ids := make([]core.NoteID, 0, len(notes))
	for _, n := range notes {
		m[n.ID] = n.Clone()
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	s.mu.Lock()
	s.notes = m
	s.ordered = ids
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()
}

// RefreshFromAdapter refetches the full snapshot and hydrates. A fetch
// failure is recorded in the store-level error field (see Err) and returned,
// but existing in-memory state is left untouched so the UI is never stranded.
func (s *Notes) RefreshFromAdapter(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	notes, err := s.adapter.FetchAllNotes(ctx)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.lastErr = err
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Error("failed to refresh notes", "error", err)
		}
		return fmt.Errorf("failed to refresh notes: %w", err)
	}

	s.Hydrate(notes)
	return nil
}

// GetNote returns a copy of the note, or false if absent.
func (s *Notes) GetNote(id core.NoteID) (core.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return core.Note{}, false
	}
	return n.Clone(), true
}

// GetNotesByCategory returns all notes referencing the category, in ID order.
func (s *Notes) GetNotesByCategory(categoryID string) []core.Note {
	return s.filter(func(n core.Note) bool {
		return n.Category == categoryID
	})
}

// GetNotesByTag returns notes whose user or system tags contain an exact
// match for tag.
func (s *Notes) GetNotesByTag(tag string) []core.Note {
	return s.filter(func(n core.Note) bool {
		return n.Tags.Contains(tag)
	})
}

// GetRecentNotes returns up to limit notes ordered by UpdatedAt descending.
func (s *Notes) GetRecentNotes(limit int) []core.Note {
	if limit <= 0 {
		limit = 10
	}
	all := s.filter(func(core.Note) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt > all[j].UpdatedAt
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// OrderedIDs returns the lexically ordered ID list for stable iteration.
func (s *Notes) OrderedIDs() []core.NoteID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.NoteID{}, s.ordered...)
}

// Len returns the number of notes currently held.
func (s *Notes) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Err returns the last hydration/fetch error, if any. Mutation failures are
// returned to their callers and never recorded here.
func (s *Notes) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Loading reports whether a refresh is in flight.
func (s *Notes) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Watch subscribes to committed note changes. The pattern is a doublestar
// glob matched against note IDs; "*" matches everything. The channel closes
// when ctx is done.
func (s *Notes) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if !doublestar.ValidatePattern(pattern) && pattern != "" {
		return nil, fmt.Errorf("invalid watch pattern: %s", pattern)
	}
	return s.broker.subscribe(ctx, pattern), nil
}

func (s *Notes) publish(t core.EventType, id core.NoteID) {
	s.broker.publish(core.Event{
		Type:      t,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})
}

func (s *Notes) filter(keep func(core.Note) bool) []core.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Note
	for _, id := range s.ordered {
		if n, ok := s.notes[id]; ok && keep(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

func nowMillis() core.Timestamp {
	return time.Now().UnixMilli()
}

// stampAfter returns the current time in millis, never before prev: UpdatedAt
// is monotonically non-decreasing even under clock skew.
func stampAfter(prev core.Timestamp) core.Timestamp {
	now := nowMillis()
	if now < prev {
		return prev
	}
	return now
}

func insertSorted(ids []core.NoteID, id core.NoteID) []core.NoteID {
	i := sort.SearchStrings(ids, id)
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeID(ids []core.NoteID, id core.NoteID) []core.NoteID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func cloneForWrite(blocks []core.Block) []core.Block {
	if blocks == nil {
		return []core.Block{}
	}
	out := make([]core.Block, len(blocks))
	copy(out, blocks)
	return out
}
