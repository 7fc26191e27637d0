// Package badgerdb persists notes, categories, and tags in an embedded
// BadgerDB key-value store. It is a drop-in alternative to the fs adapters
// for vaults that outgrow single-file JSON snapshots.
package badgerdb

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	notePrefix     = "note:"
	categoryPrefix = "category:"
	tagsKey        = "tags"
)

// Config configures the embedded database.
type Config struct {
	// Dir is the directory for database files. Ignored when InMemory is set.
	Dir string

	// InMemory disables disk persistence. Intended for tests.
	InMemory bool

	// Logger receives BadgerDB's internal log output. Nil silences it.
	Logger *slog.Logger
}

// Store wraps an open database shared by the three adapters.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the database at cfg.Dir.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&slogAdapter{cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// slogAdapter bridges slog to badger.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (l *slogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *slogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *slogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *slogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
