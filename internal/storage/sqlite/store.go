package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/migration"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/migrations"
)

// Store is a local single-file store for development and offline demos.
type Store struct {
	path string
	db   *sql.DB
}

var _ storage.Provider = (*Store)(nil)

// NewStore accepts a file path, optionally prefixed with sqlite:// or file:.
func NewStore(path string) *Store {
	for _, prefix := range []string{"sqlite://", "file:"} {
		path = strings.TrimPrefix(path, prefix)
	}
	return &Store{path: path}
}

func (s *Store) dsn() string {
	return s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) open(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.SQLite), nil
}

// Init creates the database file if needed and applies migrations.
func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}
	r, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := r.Apply(ctx, func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load opens an existing, migrated database. A failed Load can be retried.
func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store %s not initialized, run 'flowstate migrate' first", s.path)
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	if err := s.validate(ctx); err != nil {
		s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) validate(ctx context.Context) error {
	r, err := s.runner()
	if err != nil {
		return err
	}
	return r.Validate(ctx)
}

// SchemaVersion reports the applied and latest known schema versions.
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	r, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = r.CurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	latest, err = r.LatestVersion()
	return current, latest, err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("store not loaded")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Name() string {
	return s.path
}
