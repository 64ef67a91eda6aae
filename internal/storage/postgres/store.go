package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/migration"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/migrations"
)

// Store reads the FlowState schema from Postgres through lib/pq.
type Store struct {
	connStr string
	db      *sql.DB
}

var _ storage.Provider = (*Store)(nil)

var ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")

// New expects a URL-style connection string with the password already
// injected (see config.ConnString).
func New(connStr string) *Store {
	s := &Store{connStr: connStr}
	s.ensureSearchPath()
	return s
}

func (s *Store) ensureSearchPath() {
	u, err := url.Parse(s.connStr)
	if err != nil || u.Scheme == "" {
		logger.Warn("Could not parse Postgres connection string; search_path left unset")
		return
	}
	q := u.Query()
	if q.Get("search_path") == "" {
		q.Set("search_path", constants.AppName)
		u.RawQuery = q.Encode()
		s.connStr = u.String()
	}
}

// hasSSLMode reports whether the URL carries an sslmode parameter.
func hasSSLMode(connStr string) bool {
	u, err := url.Parse(connStr)
	if err != nil {
		return false
	}
	for key := range u.Query() {
		if strings.EqualFold(key, "sslmode") {
			return true
		}
	}
	return false
}

// ValidateConnString checks that connStr parses as a Postgres URL the
// driver accepts.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if u.Host == "" && (u.Path == "" || u.Path == "/") {
		return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
	}
	return nil
}

func (s *Store) open(ctx context.Context) error {
	if err := ValidateConnString(s.connStr); err != nil {
		return err
	}
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to the store URL)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.Postgres), nil
}

// Init connects, creates the application schema and applies migrations.
func (s *Store) Init(ctx context.Context) error {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}
	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(constants.AppName)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
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

// Load connects to an already migrated database. A failed Load can be retried.
func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
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

// Name is non-sensitive; the connection string carries the service key.
func (s *Store) Name() string {
	return "postgresql"
}
