package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/opennote/pkg/core"
)

// options holds the internal configuration for a workspace.
type options struct {
	logger          *slog.Logger
	dataDir         string
	adapter         string
	eventBuffer     int
	processingDelay time.Duration

	notesAdapter      core.NotesAdapter
	categoriesAdapter core.CategoriesAdapter
	tagsAdapter       core.TagsAdapter
}

// Option defines a functional option for configuring a workspace.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
	}
}

// WithLogger sets the logger for the workspace and its stores.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDataDir sets where the persistence adapters keep their files.
// Defaults to ~/.opennote.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithAdapter selects the storage backend by name ("fs" or "badger").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithNotesAdapter injects a custom notes adapter (e.g. mock, remote API).
// If provided, the named backend is skipped for notes.
func WithNotesAdapter(a core.NotesAdapter) Option {
	return func(o *options) {
		o.notesAdapter = a
	}
}

// WithCategoriesAdapter injects a custom categories adapter.
func WithCategoriesAdapter(a core.CategoriesAdapter) Option {
	return func(o *options) {
		o.categoriesAdapter = a
	}
}

// WithTagsAdapter injects a custom tags adapter.
func WithTagsAdapter(a core.TagsAdapter) Option {
	return func(o *options) {
		o.tagsAdapter = a
	}
}

// WithEventBuffer sets the per-subscriber event channel size.
// Zero means the store default.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithProcessingDelay sets how long a note must stay unchanged before the
// pipeline processes it. Zero means the pipeline default.
func WithProcessingDelay(d time.Duration) Option {
	return func(o *options) {
		o.processingDelay = d
	}
}
