package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowstate/flowstate/internal/backup"
	"github.com/flowstate/flowstate/internal/config"
	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/demo"
	ferrors "github.com/flowstate/flowstate/internal/errors"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/retry"
	"github.com/flowstate/flowstate/internal/scheduler"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/storage/postgres"
	"github.com/flowstate/flowstate/internal/storage/sqlite"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(24)

	TaskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// Context is passed to every command's Run method.
type Context struct {
	Config    *config.Config
	Scheduler *scheduler.Scheduler
	Location  *time.Location
	Out       io.Writer

	// OpenStore builds the provider for a connection string. Tests replace it.
	OpenStore func(cfg *config.Config) (storage.Provider, error)

	store storage.Provider
}

// NewContext validates cfg and builds the scheduler. The store is opened
// lazily so commands that never touch it run without secrets.
func NewContext(cfg *config.Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, ferrors.ConfigError(err, "check the "+constants.AppName+" environment settings")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, ferrors.ConfigError(err, "set "+constants.EnvTimezone+" to an IANA zone name")
	}
	sched, err := scheduler.NewFromSettings(loc, cfg.WorkStart, cfg.WorkEnd, cfg.MorningStart, cfg.MorningEnd, nil)
	if err != nil {
		return nil, ferrors.ConfigError(err, "")
	}
	return &Context{
		Config:    cfg,
		Scheduler: sched,
		Location:  loc,
		Out:       os.Stdout,
		OpenStore: OpenStore,
	}, nil
}

// OpenStore picks the backend from the store URL. Anything that is not a
// Postgres URL is a SQLite path.
func OpenStore(cfg *config.Config) (storage.Provider, error) {
	conn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	if cfg.IsPostgres() {
		if err := postgres.ValidateConnString(conn); err != nil {
			return nil, err
		}
		return postgres.New(conn), nil
	}
	return sqlite.NewStore(conn), nil
}

// Store returns the configured provider without loading it.
func (c *Context) Store() (storage.Provider, error) {
	if c.store != nil {
		return c.store, nil
	}
	s, err := c.OpenStore(c.Config)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrMissingStoreURL):
			return nil, ferrors.ConfigError(err, "export "+constants.EnvStoreURL+"=postgresql://host/db or a SQLite file path")
		case errors.Is(err, config.ErrMissingServiceKey):
			return nil, ferrors.ConfigError(err, "export "+constants.EnvServiceKey+" or run 'flowstate key set'")
		case errors.Is(err, config.ErrEmbeddedCredentials):
			return nil, ferrors.ConfigError(err, "remove the password from the URL")
		case errors.Is(err, postgres.ErrInvalidConnectionString):
			return nil, ferrors.ConfigError(err, "check "+constants.EnvStoreURL)
		}
		return nil, err
	}
	c.store = s
	return s, nil
}

// LoadedStore opens the store and checks its schema.
func (c *Context) LoadedStore(ctx context.Context) (storage.Provider, error) {
	s, err := c.Store()
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, ferrors.WithHint(fmt.Errorf("failed to load store: %w", err), "run 'flowstate migrate' first")
	}
	return s, nil
}

// OptionalStore is LoadedStore for read paths that can fall back to the
// mock dataset: a missing store URL yields nil with no error.
func (c *Context) OptionalStore(ctx context.Context) (storage.Provider, error) {
	if c.Config.StoreURL == "" {
		logger.Warn("No store configured; using the mock dataset", "env", constants.EnvStoreURL)
		return nil, nil
	}
	return c.LoadedStore(ctx)
}

// Snapshot backs up a local SQLite store before a command rewrites it.
// Postgres stores are left to the server's own backups.
func (c *Context) Snapshot(ctx context.Context, store storage.Provider) {
	s, ok := store.(*sqlite.Store)
	if !ok {
		return
	}
	path, err := backup.NewManager(s.Name()).Snapshot(ctx)
	if err != nil {
		// Don't block the command on a failed backup
		logger.Warn("Automatic backup failed", "error", err)
		return
	}
	if path != "" {
		logger.Info("Created backup", "path", path)
	}
}

// RetryOptions applies the configured retry policy.
func (c *Context) RetryOptions() []retry.Option {
	return []retry.Option{
		retry.WithAttempts(c.Config.RetryAttempts),
		retry.WithBaseDelay(c.Config.RetryBaseDelay),
	}
}

// Loader builds a demo loader over store, which may be nil.
func (c *Context) Loader(store storage.Provider) *demo.Loader {
	return &demo.Loader{
		Store:     store,
		Workspace: c.Config.DemoWorkspace,
		Location:  c.Location,
		Retry:     c.RetryOptions(),
	}
}

// Close releases the store if one was opened.
func (c *Context) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// Print writes s to the command output unchanged.
func (c *Context) Print(s string) {
	fmt.Fprint(c.Out, s)
}

// Println writes a line to the command output.
func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// FormatRange renders a slot in the context zone, e.g. "Mon 08 Sep 09:00-10:30".
func FormatRange(start, end time.Time, loc *time.Location) string {
	s, e := start.In(loc), end.In(loc)
	if s.Format(constants.DateFormat) == e.Format(constants.DateFormat) {
		return s.Format("Mon 02 Jan 15:04") + "-" + e.Format(constants.TimeFormat)
	}
	return s.Format("Mon 02 Jan 15:04") + " - " + e.Format("Mon 02 Jan 15:04")
}

// ParseDay accepts RFC 3339 instants or YYYY-MM-DD dates in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(constants.DateFormat, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or RFC 3339)", value)
}
