package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/opennote/pkg/tags"
)

// TagsAdapter persists the tag collection as a flat JSON array of normalized
// strings in tags.json. Earlier revisions stored tag objects with an id and a
// color; those are upgraded to their normalized names on read.
type TagsAdapter struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewTagsAdapter creates a filesystem tags adapter rooted at cfg.Dir.
func NewTagsAdapter(cfg Config) *TagsAdapter {
	return &TagsAdapter{
		path:   filepath.Join(cfg.Dir, tagsFile),
		logger: cfg.Logger,
	}
}

// FetchAllTags reads the tag list. A missing file is an empty list.
func (a *TagsAdapter) FetchAllTags(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	// Legacy shape: [{"id": "...", "name": "Urgent Task", "color": "rose"}].
	var legacy []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	if a.logger != nil {
		a.logger.Info("upgrading legacy tag objects to normalized strings", "count", len(legacy))
	}
	out := make([]string, 0, len(legacy))
	for _, t := range legacy {
		if n := tags.Normalize(t.Name); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

// SaveTags replaces the whole list atomically.
func (a *TagsAdapter) SaveTags(ctx context.Context, list []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if list == nil {
		list = []string{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	return writeFileAtomic(a.path, data, 0644)
}
