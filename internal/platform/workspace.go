package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/opennote/pkg/adapters/badgerdb"
	"github.com/aretw0/opennote/pkg/adapters/fs"
	"github.com/aretw0/opennote/pkg/pipeline"
	"github.com/aretw0/opennote/pkg/store"
)

// Workspace bundles the three domain stores over a shared backend.
type Workspace struct {
	Notes      *store.Notes
	Categories *store.Categories
	Tags       *store.Tags

	logger          *slog.Logger
	processingDelay time.Duration
	closer          func() error
}

// DefaultDataDir is where adapters keep their files when no directory is
// configured.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".opennote")
	}
	return filepath.Join(home, ".opennote")
}

// New builds a workspace from the given options. The stores start empty;
// call Hydrate to load persisted state.
func New(opts ...Option) (*Workspace, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	dataDir := o.dataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	ws := &Workspace{
		logger:          logger,
		processingDelay: o.processingDelay,
	}

	notesAdapter := o.notesAdapter
	categoriesAdapter := o.categoriesAdapter
	tagsAdapter := o.tagsAdapter

	if notesAdapter == nil || categoriesAdapter == nil || tagsAdapter == nil {
		switch o.adapter {
		case "fs":
			cfg := fs.Config{Dir: dataDir, Logger: logger}
			if notesAdapter == nil {
				notesAdapter = fs.NewNotesAdapter(cfg)
			}
			if categoriesAdapter == nil {
				categoriesAdapter = fs.NewCategoriesAdapter(cfg)
			}
			if tagsAdapter == nil {
				tagsAdapter = fs.NewTagsAdapter(cfg)
			}

		case "badger":
			db, err := badgerdb.Open(badgerdb.Config{Dir: filepath.Join(dataDir, "badger"), Logger: logger})
			if err != nil {
				return nil, fmt.Errorf("opening badger backend: %w", err)
			}
			ws.closer = db.Close
			if notesAdapter == nil {
				notesAdapter = badgerdb.NewNotesAdapter(db)
			}
			if categoriesAdapter == nil {
				categoriesAdapter = badgerdb.NewCategoriesAdapter(db)
			}
			if tagsAdapter == nil {
				tagsAdapter = badgerdb.NewTagsAdapter(db)
			}

		default:
			return nil, fmt.Errorf("unknown adapter: %q", o.adapter)
		}
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	if o.eventBuffer > 0 {
		storeOpts = append(storeOpts, store.WithEventBuffer(o.eventBuffer))
	}

	ws.Notes = store.NewNotes(notesAdapter, storeOpts...)
	ws.Categories = store.NewCategories(categoriesAdapter, storeOpts...)
	ws.Tags = store.NewTags(tagsAdapter, storeOpts...)

	return ws, nil
}

// Hydrate loads all three stores from their adapters. Partial failures are
// collected; stores that loaded stay loaded.
func (w *Workspace) Hydrate(ctx context.Context) error {
	return errors.Join(
		w.Notes.RefreshFromAdapter(ctx),
		w.Categories.RefreshFromAdapter(ctx),
		w.Tags.RefreshFromAdapter(ctx),
	)
}

// ProcessingDelay is the configured pipeline quiet period, falling back to
// the pipeline default.
func (w *Workspace) ProcessingDelay() time.Duration {
	if w.processingDelay > 0 {
		return w.processingDelay
	}
	return pipeline.DefaultProcessingDelay
}

// Close releases backend resources. Safe to call on an fs-backed workspace.
func (w *Workspace) Close() error {
	if w.closer != nil {
		return w.closer()
	}
	return nil
}
