package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Adapter persists the settings document.
type Adapter interface {
	// Load reads the stored document merged onto Defaults. A missing
	// document is not an error; pure defaults are returned.
	Load(ctx context.Context) (Settings, error)

	// Save replaces the stored document.
	Save(ctx context.Context, s Settings) error

	// Path is where the document lives, for diagnostics.
	Path() string
}

// FSAdapter stores settings as a single JSON file.
type FSAdapter struct {
	path string
}

var _ Adapter = (*FSAdapter)(nil)

// DefaultPath is the settings location used when none is configured.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".opennote", "settings.json")
	}
	return filepath.Join(home, ".opennote", "settings.json")
}

// NewFSAdapter returns an adapter persisting at path, or DefaultPath when
// path is empty.
func NewFSAdapter(path string) *FSAdapter {
	if path == "" {
		path = DefaultPath()
	}
	return &FSAdapter{path: path}
}

func (a *FSAdapter) Path() string {
	return a.path
}

func (a *FSAdapter) Load(_ context.Context) (Settings, error) {
	loaded := Defaults()

	data, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return loaded, nil
		}
		return Settings{}, fmt.Errorf("loading settings from %s: %w", a.path, err)
	}

	// Unmarshal over the defaults: fields absent from the document keep
	// their default value.
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("parsing settings at %s: %w", a.path, err)
	}
	if loaded.Categories == nil {
		loaded.Categories = Defaults().Categories
	}
	return loaded, nil
}

func (a *FSAdapter) Save(_ context.Context, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), "opennote-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing settings file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting settings permissions: %w", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}
