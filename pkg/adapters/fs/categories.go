package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/opennote/pkg/core"
)

// CategoriesAdapter persists the category list as a single JSON array in
// categories.json.
type CategoriesAdapter struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCategoriesAdapter creates a filesystem categories adapter rooted at cfg.Dir.
func NewCategoriesAdapter(cfg Config) *CategoriesAdapter {
	return &CategoriesAdapter{
		path:   filepath.Join(cfg.Dir, categoriesFile),
		logger: cfg.Logger,
	}
}

// FetchAllCategories reads the full snapshot. A missing file is an empty list.
func (a *CategoriesAdapter) FetchAllCategories(ctx context.Context) ([]core.Category, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked()
}

// CreateCategory appends (or overwrites on retry) the category.
func (a *CategoriesAdapter) CreateCategory(ctx context.Context, c core.Category) error {
	return a.mutate(func(categories []core.Category) ([]core.Category, error) {
		for i := range categories {
			if categories[i].ID == c.ID {
				categories[i] = c
				return categories, nil
			}
		}
		return append(categories, c), nil
	})
}

// UpdateCategory replaces the stored category.
func (a *CategoriesAdapter) UpdateCategory(ctx context.Context, c core.Category) error {
	return a.mutate(func(categories []core.Category) ([]core.Category, error) {
		for i := range categories {
			if categories[i].ID == c.ID {
				categories[i] = c
				return categories, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", core.ErrCategoryNotFound, c.ID)
	})
}

// DeleteCategory removes the category; deleting a missing ID is a no-op.
func (a *CategoriesAdapter) DeleteCategory(ctx context.Context, id string) error {
	return a.mutate(func(categories []core.Category) ([]core.Category, error) {
		out := categories[:0]
		for _, c := range categories {
			if c.ID != id {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

func (a *CategoriesAdapter) mutate(fn func([]core.Category) ([]core.Category, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	categories, err := a.loadLocked()
	if err != nil {
		return err
	}
	categories, err = fn(categories)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	return writeFileAtomic(a.path, data, 0644)
}

// categoryRecord tolerates the legacy prompt field name.
type categoryRecord struct {
	core.Category
	LegacyPrompt string `json:"aiPrompt,omitempty"`
}

func (a *CategoriesAdapter) loadLocked() ([]core.Category, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return []core.Category{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}

	var records []categoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]core.Category, 0, len(records))
	for _, r := range records {
		c := r.Category
		if c.EnrichmentPrompt == "" && r.LegacyPrompt != "" {
			c.EnrichmentPrompt = r.LegacyPrompt
		}
		categories = append(categories, c)
	}
	return categories, nil
}
