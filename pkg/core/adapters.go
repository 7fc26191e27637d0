package core

import "context"

// IDPair maps the store-assigned temporary ID to the adapter-issued permanent
// one during note creation.
type IDPair struct {
	TempID string
	NoteID NoteID
}

// NotesAdapter is the persistence contract for notes. Implementations exist
// for the local filesystem, an embedded KV store, or a remote API; all must be
// idempotent under retry of the same payload and safe for concurrent use.
type NotesAdapter interface {
	// GenerateNoteID issues a permanent, lexically sortable ID for a note
	// created at timestampMs. An error aborts note creation.
	GenerateNoteID(ctx context.Context, timestampMs Timestamp, tempID string) (IDPair, error)

	// FetchAllNotes returns a full snapshot. Used only for store hydration.
	FetchAllNotes(ctx context.Context) ([]Note, error)

	// CreateNote persists a new note under its permanent ID.
	CreateNote(ctx context.Context, n Note) error

	// UpdateNote replaces the whole aggregate. Not a delta-patch.
	UpdateNote(ctx context.Context, n Note) error

	// DeleteNote removes a note. Deleting a missing ID is not an error.
	DeleteNote(ctx context.Context, id NoteID) error
}

// CategoriesAdapter is the persistence contract for categories.
type CategoriesAdapter interface {
	FetchAllCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c Category) error
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// TagsAdapter persists the tag collection as a flat list of normalized
// strings, not individual records.
type TagsAdapter interface {
	FetchAllTags(ctx context.Context) ([]string, error)
	SaveTags(ctx context.Context, tags []string) error
}
