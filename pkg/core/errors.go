package core

import "errors"

// Common errors.
var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrCategoryNotFound = errors.New("category not found")
)
