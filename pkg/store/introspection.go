package store

import (
	"github.com/aretw0/introspection"
)

// NotesState exposes internal state for observability.
type NotesState struct {
	NoteCount int    `json:"note_count"`
	Loading   bool   `json:"loading"`
	LastError string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Notes) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := NotesState{
		NoteCount: len(s.notes),
		Loading:   s.loading,
	}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Notes) ComponentType() string {
	return "notes-store"
}

// CategoriesState exposes internal state for observability.
type CategoriesState struct {
	CategoryCount int    `json:"category_count"`
	LastError     string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Categories) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := CategoriesState{CategoryCount: len(s.categories)}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Categories) ComponentType() string {
	return "categories-store"
}

// TagsState exposes internal state for observability.
type TagsState struct {
	TagCount  int    `json:"tag_count"`
	LastError string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Tags) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := TagsState{TagCount: len(s.tags)}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Tags) ComponentType() string {
	return "tags-store"
}

var _ introspection.Introspectable = (*Notes)(nil)
var _ introspection.Component = (*Notes)(nil)
var _ introspection.Introspectable = (*Categories)(nil)
var _ introspection.Component = (*Categories)(nil)
var _ introspection.Introspectable = (*Tags)(nil)
var _ introspection.Component = (*Tags)(nil)
