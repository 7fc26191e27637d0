package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/opennote/pkg/core"
)

// Manager caches the settings document in memory and serializes access to
// the adapter. Safe for concurrent use.
type Manager struct {
	adapter Adapter
	logger  *slog.Logger

	mu       sync.RWMutex
	current  Settings
	loaded   bool
	loadedAt time.Time
}

// NewManager wraps adapter. The document is loaded lazily; call Load to
// surface persistence errors up front.
func NewManager(adapter Adapter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		adapter: adapter,
		logger:  logger,
		current: Defaults(),
	}
}

// Load reads the document from the adapter, replacing the cache. On failure
// the cache falls back to defaults so the application stays usable.
func (m *Manager) Load(ctx context.Context) error {
	loaded, err := m.adapter.Load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Error("failed to load settings, using defaults", "path", m.adapter.Path(), "error", err)
		m.current = Defaults()
		m.loaded = true
		m.loadedAt = time.Now()
		return err
	}
	m.current = loaded
	m.loaded = true
	m.loadedAt = time.Now()
	return nil
}

// Reload is Load with a log line, for explicit refresh requests.
func (m *Manager) Reload(ctx context.Context) error {
	m.logger.Info("reloading settings", "path", m.adapter.Path())
	return m.Load(ctx)
}

// Settings returns the cached document, loading it on first access.
func (m *Manager) Settings(ctx context.Context) Settings {
	m.mu.RLock()
	if m.loaded {
		defer m.mu.RUnlock()
		return m.current
	}
	m.mu.RUnlock()

	_ = m.Load(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Config returns the server-relevant subset of the cached document.
func (m *Manager) Config(ctx context.Context) ServerConfig {
	return m.Settings(ctx).ServerConfig()
}

// Apply merges update onto the current document, persists the result, and
// updates the cache only after the save succeeds.
func (m *Manager) Apply(ctx context.Context, update Update) (Settings, error) {
	current := m.Settings(ctx)

	merged := current.Merge(update)
	merged.LastSavedAt = core.Timestamp(time.Now().UnixMilli())

	if err := m.adapter.Save(ctx, merged); err != nil {
		return Settings{}, fmt.Errorf("saving settings: %w", err)
	}

	m.mu.Lock()
	m.current = merged
	m.loadedAt = time.Now()
	m.mu.Unlock()
	return merged, nil
}

// Path is the adapter's document location.
func (m *Manager) Path() string {
	return m.adapter.Path()
}

// LoadedAt reports when the cache was last refreshed. Zero before first load.
func (m *Manager) LoadedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadedAt
}
