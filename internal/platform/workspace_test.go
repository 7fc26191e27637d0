package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/pipeline"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("FS Backend Round Trip", func(t *testing.T) {
		dir := t.TempDir()

		ws, err := New(WithDataDir(dir))
		require.NoError(t, err)
		defer ws.Close()

		id, err := ws.Notes.CreateNote(ctx, core.Note{Title: "hello"})
		require.NoError(t, err)
		_, err = ws.Categories.CreateCategory(ctx, "Work", "")
		require.NoError(t, err)
		_, err = ws.Tags.AddTag(ctx, "urgent")
		require.NoError(t, err)

		fresh, err := New(WithDataDir(dir))
		require.NoError(t, err)
		defer fresh.Close()
		require.NoError(t, fresh.Hydrate(ctx))

		note, ok := fresh.Notes.GetNote(id)
		require.True(t, ok)
		assert.Equal(t, "hello", note.Title)
		assert.Len(t, fresh.Categories.AllCategories(), 1)
		assert.Equal(t, []string{"urgent"}, fresh.Tags.AllTags())
	})

	t.Run("Badger Backend Round Trip", func(t *testing.T) {
		dir := t.TempDir()

		ws, err := New(WithDataDir(dir), WithAdapter("badger"))
		require.NoError(t, err)

		id, err := ws.Notes.CreateNote(ctx, core.Note{Title: "kv note"})
		require.NoError(t, err)
		require.NoError(t, ws.Close())

		fresh, err := New(WithDataDir(dir), WithAdapter("badger"))
		require.NoError(t, err)
		defer fresh.Close()
		require.NoError(t, fresh.Hydrate(ctx))

		note, ok := fresh.Notes.GetNote(id)
		require.True(t, ok)
		assert.Equal(t, "kv note", note.Title)
	})

	t.Run("Unknown Adapter Is An Error", func(t *testing.T) {
		_, err := New(WithAdapter("s3"))
		assert.Error(t, err)
	})

	t.Run("Processing Delay Flows To The Scheduler", func(t *testing.T) {
		ws, err := New(WithDataDir(t.TempDir()), WithProcessingDelay(3*time.Second))
		require.NoError(t, err)
		defer ws.Close()
		assert.Equal(t, 3*time.Second, ws.ProcessingDelay())

		plain, err := New(WithDataDir(t.TempDir()))
		require.NoError(t, err)
		defer plain.Close()
		assert.Equal(t, pipeline.DefaultProcessingDelay, plain.ProcessingDelay())
	})

	t.Run("Injected Adapters Bypass Backend Selection", func(t *testing.T) {
		ws, err := New(
			WithAdapter("does-not-matter-when-all-injected"),
			WithNotesAdapter(stubNotesAdapter{}),
			WithCategoriesAdapter(stubCategoriesAdapter{}),
			WithTagsAdapter(stubTagsAdapter{}),
		)
		require.NoError(t, err)
		defer ws.Close()
		assert.NotNil(t, ws.Notes)
	})
}

type stubNotesAdapter struct{}

func (stubNotesAdapter) GenerateNoteID(_ context.Context, _ core.Timestamp, tempID string) (core.IDPair, error) {
	return core.IDPair{TempID: tempID, NoteID: "n1"}, nil
}
func (stubNotesAdapter) FetchAllNotes(context.Context) ([]core.Note, error) { return nil, nil }
func (stubNotesAdapter) CreateNote(context.Context, core.Note) error        { return nil }
func (stubNotesAdapter) UpdateNote(context.Context, core.Note) error        { return nil }
func (stubNotesAdapter) DeleteNote(context.Context, core.NoteID) error      { return nil }

type stubCategoriesAdapter struct{}

func (stubCategoriesAdapter) FetchAllCategories(context.Context) ([]core.Category, error) {
	return nil, nil
}
func (stubCategoriesAdapter) CreateCategory(context.Context, core.Category) error { return nil }
func (stubCategoriesAdapter) UpdateCategory(context.Context, core.Category) error { return nil }
func (stubCategoriesAdapter) DeleteCategory(context.Context, string) error        { return nil }

type stubTagsAdapter struct{}

func (stubTagsAdapter) FetchAllTags(context.Context) ([]string, error) { return nil, nil }
func (stubTagsAdapter) SaveTags(context.Context, []string) error       { return nil }
