package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/opennote/pkg/core"
)

const defaultEnrichmentPrompt = "Provide insights and context relevant to this category."

// Categories mirrors the notes store's optimistic create/update/delete shape
// at smaller scale. Category IDs are store-assigned, not adapter-issued, so
// there is no temporary-ID reconciliation here.
type Categories struct {
	mu         sync.RWMutex
	categories map[string]core.Category

	adapter core.CategoriesAdapter
	logger  *slog.Logger

	loading bool
	lastErr error
}

// NewCategories creates a categories store over the given adapter.
func NewCategories(adapter core.CategoriesAdapter, opts ...Option) *Categories {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Categories{
		categories: make(map[string]core.Category),
		adapter:    adapter,
		logger:     o.logger,
	}
}

// CreateCategory inserts a category optimistically and persists it, removing
// the entry again if persistence fails. The color is picked at random from
// the palette; the enrichment prompt falls back to a generic default.
func (s *Categories) CreateCategory(ctx context.Context, name, enrichmentPrompt string) (string, error) {
	if enrichmentPrompt == "" {
		enrichmentPrompt = defaultEnrichmentPrompt
	}
	cat := core.Category{
		ID:               fmt.Sprintf("cat-%d-%s", nowMillis(), uuid.NewString()[:8]),
		Name:             name,
		Color:            core.Palette[rand.Intn(len(core.Palette))],
		EnrichmentPrompt: enrichmentPrompt,
	}

	s.mu.Lock()
	s.categories[cat.ID] = cat
	s.mu.Unlock()

	if err := s.adapter.CreateCategory(ctx, cat); err != nil {
		s.mu.Lock()
		delete(s.categories, cat.ID)
		s.mu.Unlock()
		return "", fmt.Errorf("failed to persist category: %w", err)
	}

	return cat.ID, nil
}

// UpdateCategory applies updater to the pre-mutation snapshot, swaps the
// result in and persists; rolled back on failure.
func (s *Categories) UpdateCategory(ctx context.Context, id string, updater func(core.Category) core.Category) error {
	s.mu.Lock()
	current, ok := s.categories[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrCategoryNotFound, id)
	}
	updated := updater(current)
	updated.ID = id
	s.categories[id] = updated
	s.mu.Unlock()

	if err := s.adapter.UpdateCategory(ctx, updated); err != nil {
		s.mu.Lock()
		s.categories[id] = current
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("category update rolled back", "id", id, "error", err)
		}
		return fmt.Errorf("failed to persist category update: %w", err)
	}
	return nil
}

// DeleteCategory removes the category optimistically and persists; restored
// on failure. Removing the category reference from notes is the caller's job.
func (s *Categories) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	snapshot, ok := s.categories[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrCategoryNotFound, id)
	}
	delete(s.categories, id)
	s.mu.Unlock()

	if err := s.adapter.DeleteCategory(ctx, id); err != nil {
		s.mu.Lock()
		s.categories[id] = snapshot
		s.mu.Unlock()
		return fmt.Errorf("failed to persist category deletion: %w", err)
	}
	return nil
}

// GetCategory returns the category, or false if absent.
func (s *Categories) GetCategory(id string) (core.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

// GetCategoryByName returns the first category with the given name.
func (s *Categories) GetCategoryByName(name string) (core.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, true
		}
	}
	return core.Category{}, false
}

// AllCategories returns every category sorted by ID.
func (s *Categories) AllCategories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Hydrate replaces the in-memory map from a fetched snapshot.
func (s *Categories) Hydrate(categories []core.Category) {
	m := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	s.mu.Lock()
	s.categories = m
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()
}

// RefreshFromAdapter refetches and hydrates; fetch failure lands in Err.
func (s *Categories) RefreshFromAdapter(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	categories, err := s.adapter.FetchAllCategories(ctx)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.lastErr = err
		s.mu.Unlock()
		return fmt.Errorf("failed to refresh categories: %w", err)
	}
	s.Hydrate(categories)
	return nil
}

// Err returns the last hydration failure, if any.
func (s *Categories) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
