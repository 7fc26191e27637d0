package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/tags"
)

// Tags holds the denormalized collection of tag strings. Every string passes
// through tags.Normalize before storage or comparison, so "Urgent Task" and
// "urgent-task" are the same tag. The whole set is persisted as one flat
// sorted list on every change.
type Tags struct {
	mu   sync.RWMutex
	tags map[string]struct{}

	adapter core.TagsAdapter
	logger  *slog.Logger

	loading bool
	lastErr error
}

// NewTags creates a tags store over the given adapter.
func NewTags(adapter core.TagsAdapter, opts ...Option) *Tags {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Tags{
		tags:    make(map[string]struct{}),
		adapter: adapter,
		logger:  o.logger,
	}
}

// AddTag normalizes and inserts the tag, then persists the full list. The
// insertion is rolled back if persistence fails. Returns the normalized form.
func (s *Tags) AddTag(ctx context.Context, name string) (string, error) {
	normalized := tags.Normalize(name)
	if normalized == "" {
		return "", fmt.Errorf("tag is empty after normalization: %q", name)
	}

	s.mu.Lock()
	_, existed := s.tags[normalized]
	s.tags[normalized] = struct{}{}
	s.mu.Unlock()

	if err := s.saveAll(ctx); err != nil {
		if !existed {
			s.mu.Lock()
			delete(s.tags, normalized)
			s.mu.Unlock()
		}
		return "", err
	}
	return normalized, nil
}

// RemoveTag deletes the normalized tag and persists; restored on failure.
// Removing the tag from notes that reference it is the caller's job.
func (s *Tags) RemoveTag(ctx context.Context, tag string) error {
	normalized := tags.Normalize(tag)

	s.mu.Lock()
	_, existed := s.tags[normalized]
	delete(s.tags, normalized)
	s.mu.Unlock()

	if err := s.saveAll(ctx); err != nil {
		if existed {
			s.mu.Lock()
			s.tags[normalized] = struct{}{}
			s.mu.Unlock()
		}
		return err
	}
	return nil
}

// HasTag reports whether the normalized form of tag is present.
func (s *Tags) HasTag(tag string) bool {
	normalized := tags.Normalize(tag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tags[normalized]
	return ok
}

// AllTags returns the sorted tag list.
func (s *Tags) AllTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// TagColors returns each tag paired with its derived display color, sorted.
func (s *Tags) TagColors() map[string]core.ColorName {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]core.ColorName, len(s.tags))
	for t := range s.tags {
		out[t] = tags.Color(t)
	}
	return out
}

// Hydrate replaces the set from a fetched snapshot, normalizing every entry.
func (s *Tags) Hydrate(list []string) {
	m := make(map[string]struct{}, len(list))
	for _, t := range list {
		if n := tags.Normalize(t); n != "" {
			m[n] = struct{}{}
		}
	}
	s.mu.Lock()
	s.tags = m
	s.loading = false
	s.lastErr = nil
	s.mu.Unlock()
}

// RefreshFromAdapter refetches and hydrates; fetch failure lands in Err.
func (s *Tags) RefreshFromAdapter(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	list, err := s.adapter.FetchAllTags(ctx)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.lastErr = err
		s.mu.Unlock()
		return fmt.Errorf("failed to refresh tags: %w", err)
	}
	s.Hydrate(list)
	return nil
}

// Err returns the last hydration failure, if any.
func (s *Tags) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Tags) saveAll(ctx context.Context) error {
	s.mu.RLock()
	list := s.sortedLocked()
	s.mu.RUnlock()

	if err := s.adapter.SaveTags(ctx, list); err != nil {
		if s.logger != nil {
			s.logger.Warn("tag save rolled back", "error", err)
		}
		return fmt.Errorf("failed to persist tags: %w", err)
	}
	return nil
}

func (s *Tags) sortedLocked() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
