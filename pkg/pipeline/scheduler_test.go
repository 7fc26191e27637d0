package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/opennote/pkg/ai"
	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/store"
)

type memNotesAdapter struct {
	mu   sync.Mutex
	seq  int
	rows map[core.NoteID]core.Note
}

func newMemNotesAdapter() *memNotesAdapter {
	return &memNotesAdapter{rows: make(map[core.NoteID]core.Note)}
}

func (m *memNotesAdapter) GenerateNoteID(_ context.Context, _ core.Timestamp, tempID string) (core.IDPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return core.IDPair{TempID: tempID, NoteID: core.NoteID(fmt.Sprintf("note-%04d", m.seq))}, nil
}

func (m *memNotesAdapter) FetchAllNotes(context.Context) ([]core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Note, 0, len(m.rows))
	for _, n := range m.rows {
		out = append(out, n)
	}
	return out, nil
}

func (m *memNotesAdapter) CreateNote(_ context.Context, n core.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[n.ID] = n
	return nil
}

func (m *memNotesAdapter) UpdateNote(_ context.Context, n core.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[n.ID]; !ok {
		return core.ErrNoteNotFound
	}
	m.rows[n.ID] = n
	return nil
}

func (m *memNotesAdapter) DeleteNote(_ context.Context, id core.NoteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func serializeText(n core.Note) string {
	var parts []string
	for _, b := range n.ContentBlocks {
		var payload map[string]string
		if err := json.Unmarshal(b.Content, &payload); err == nil {
			parts = append(parts, payload["text"])
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func startScheduler(t *testing.T, notes *store.Notes, caller Caller, delay time.Duration) *Scheduler {
	t.Helper()

	scheduler := NewScheduler(SchedulerConfig{
		Notes:     notes,
		Processor: NewProcessor(caller, nil),
		Serialize: serializeText,
		Settings: func(context.Context) Options {
			return testOptions()
		},
		Delay: delay,
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = scheduler.Stop(context.Background())
	})
	return scheduler
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("Processes Note After Quiet Period", func(t *testing.T) {
		notes := store.NewNotes(newMemNotesAdapter())
		caller := &stubCaller{
			categorizeResult: ai.CategorizeResult{Category: []string{"cat-1"}, Tags: []string{"work"}},
		}
		startScheduler(t, notes, caller, 30*time.Millisecond)

		id, err := notes.CreateNote(ctx, core.Note{Title: "Standup"})
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			n, ok := notes.GetNote(id)
			return ok && n.Category == "cat-1"
		}, 5*time.Second, 10*time.Millisecond)

		n, _ := notes.GetNote(id)
		assert.Equal(t, []string{"work"}, n.Tags.System)
	})

	t.Run("Edits During Quiet Period Reset The Timer", func(t *testing.T) {
		notes := store.NewNotes(newMemNotesAdapter())
		caller := &stubCaller{categorizeResult: ai.CategorizeResult{Tags: []string{"t"}}}
		startScheduler(t, notes, caller, 300*time.Millisecond)

		id, err := notes.CreateNote(ctx, core.Note{Title: "Draft"})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			time.Sleep(50 * time.Millisecond)
			require.NoError(t, notes.UpdateNote(ctx, id, func(n core.Note) core.Note {
				n.Title = fmt.Sprintf("Draft %d", i)
				return n
			}))
		}

		// No full quiet period elapsed yet, so nothing was processed.
		assert.Zero(t, caller.categorizeCount())

		assert.Eventually(t, func() bool {
			return caller.categorizeCount() == 1
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("Write-Back Does Not Retrigger Processing", func(t *testing.T) {
		notes := store.NewNotes(newMemNotesAdapter())
		caller := &stubCaller{
			categorizeResult: ai.CategorizeResult{Category: []string{"cat-1"}, Tags: []string{"work"}},
		}
		startScheduler(t, notes, caller, 20*time.Millisecond)

		_, err := notes.CreateNote(ctx, core.Note{Title: "Once"})
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return caller.categorizeCount() >= 1
		}, 5*time.Second, 10*time.Millisecond)

		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 1, caller.categorizeCount())
	})

	t.Run("Delete Cancels Pending Processing", func(t *testing.T) {
		notes := store.NewNotes(newMemNotesAdapter())
		caller := &stubCaller{categorizeResult: ai.CategorizeResult{Tags: []string{"t"}}}
		startScheduler(t, notes, caller, 60*time.Millisecond)

		id, err := notes.CreateNote(ctx, core.Note{Title: "Gone"})
		require.NoError(t, err)
		require.NoError(t, notes.DeleteNote(ctx, id))

		time.Sleep(150 * time.Millisecond)
		assert.Zero(t, caller.categorizeCount())
	})

	t.Run("Flush Processes Immediately", func(t *testing.T) {
		notes := store.NewNotes(newMemNotesAdapter())
		caller := &stubCaller{
			categorizeResult: ai.CategorizeResult{Category: []string{"cat-1"}},
		}
		scheduler := startScheduler(t, notes, caller, time.Hour)

		id, err := notes.CreateNote(ctx, core.Note{Title: "Now"})
		require.NoError(t, err)

		require.NoError(t, scheduler.Flush(ctx, id))
		require.Equal(t, 1, caller.categorizeCount())

		n, ok := notes.GetNote(id)
		require.True(t, ok)
		assert.Equal(t, "cat-1", n.Category)
	})

	t.Run("Flush Of Unknown Note Is A NoOp", func(t *testing.T) {
		notes := store.NewNotes(newMemNotesAdapter())
		caller := &stubCaller{}
		scheduler := startScheduler(t, notes, caller, time.Hour)

		require.NoError(t, scheduler.Flush(ctx, "missing"))
		assert.Zero(t, caller.categorizeCount())
	})
}
