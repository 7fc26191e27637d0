// Package opennote is the composition root for the opennote application.
//
// It connects the domain stores (notes, categories, tags) with the
// persistence adapters and the AI processing pipeline.
//
// Philosophy:
//
// opennote treats a personal note collection as a reactive database. Stores
// apply changes optimistically and roll back when persistence fails, so the
// caller always observes either the confirmed new state or the old one.
// Storage is swappable: the default adapter writes JSON files, an embedded
// BadgerDB backend covers larger collections, and any core.*Adapter
// implementation can be injected.
//
// Features:
//
//   - **Optimistic stores**: create/update/delete apply in memory first,
//     persist through the adapter, and roll back on failure.
//   - **Reactive**: subscribers watch committed changes through glob-filtered
//     event channels.
//   - **AI pipeline**: notes that stay unchanged for a quiet period are
//     categorized and enriched through the processing server.
//   - **Swappable persistence**: filesystem JSON by default, BadgerDB
//     optional, custom adapters injectable.
//
// Usage:
//
//	// Build a workspace with functional options
//	ws, err := opennote.New(
//		opennote.WithDataDir("~/.opennote"),
//		opennote.WithLogger(logger),
//	)
//
//	// Create a note
//	id, err := ws.Notes.CreateNote(ctx, core.Note{Title: "groceries"})
package opennote

import (
	"log/slog"
	"time"

	"github.com/aretw0/opennote/internal/platform"
	"github.com/aretw0/opennote/pkg/core"
)

// --- Types ---

// Workspace bundles the notes, categories, and tags stores over a shared
// storage backend.
type Workspace = platform.Workspace

// --- Configuration ---

// Option defines a functional option for configuring a workspace.
type Option = platform.Option

// WithLogger sets the logger for the workspace and its stores.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithDataDir sets where the persistence adapters keep their files.
func WithDataDir(dir string) Option {
	return platform.WithDataDir(dir)
}

// WithAdapter selects the storage backend by name ("fs" or "badger").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithNotesAdapter injects a custom notes adapter.
func WithNotesAdapter(a core.NotesAdapter) Option {
	return platform.WithNotesAdapter(a)
}

// WithCategoriesAdapter injects a custom categories adapter.
func WithCategoriesAdapter(a core.CategoriesAdapter) Option {
	return platform.WithCategoriesAdapter(a)
}

// WithTagsAdapter injects a custom tags adapter.
func WithTagsAdapter(a core.TagsAdapter) Option {
	return platform.WithTagsAdapter(a)
}

// WithEventBuffer sets the per-subscriber event channel size.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithProcessingDelay sets how long a note must stay unchanged before the
// pipeline processes it.
func WithProcessingDelay(d time.Duration) Option {
	return platform.WithProcessingDelay(d)
}

// --- Factory ---

// New creates a workspace. Stores start empty; call Workspace.Hydrate to
// load persisted state.
func New(opts ...Option) (*Workspace, error) {
	return platform.New(opts...)
}

// DefaultDataDir is the storage location used when none is configured.
func DefaultDataDir() string {
	return platform.DefaultDataDir()
}
