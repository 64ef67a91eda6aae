package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/keyring"
	"github.com/flowstate/flowstate/internal/utils"
)

var (
	ErrMissingStoreURL     = errors.New(constants.EnvStoreURL + " is not set")
	ErrMissingServiceKey   = errors.New(constants.EnvServiceKey + " is not set and no key is stored in the OS keyring")
	ErrEmbeddedCredentials = errors.New("store URL must not contain a password; provide it via " + constants.EnvServiceKey)
)

type Config struct {
	StoreURL   string
	ServiceKey string

	Timezone      string
	DemoWorkspace string

	WorkStart    string
	WorkEnd      string
	MorningStart string
	MorningEnd   string

	RetryAttempts  int
	RetryBaseDelay time.Duration

	ListenAddr      string
	AllowedOrigins  []string
	InteractivePath string

	// KeyLookup is consulted when ServiceKey is empty.
	KeyLookup func() (string, error)
}

// Load reads the environment. Nothing is validated here; secrets are checked
// by Require when the store is first used.
func Load() *Config {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv.
func LoadFrom(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	attempts, err := strconv.Atoi(getenv(constants.EnvRetryAttempts))
	if err != nil || attempts < 1 {
		attempts = constants.RetryAttempts
	}

	baseDelay, err := time.ParseDuration(getenv(constants.EnvRetryBaseDelay))
	if err != nil || baseDelay <= 0 {
		baseDelay = constants.RetryBaseDelay
	}

	var origins []string
	for _, o := range strings.Split(get(constants.EnvAllowedOrigins, "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		StoreURL:   strings.TrimSpace(getenv(constants.EnvStoreURL)),
		ServiceKey: strings.TrimSpace(getenv(constants.EnvServiceKey)),

		Timezone:      get(constants.EnvTimezone, constants.DefaultTimezone),
		DemoWorkspace: get(constants.EnvDemoWorkspace, constants.DefaultDemoWorkspace),

		WorkStart:    get(constants.EnvWorkStart, constants.DefaultWorkStart),
		WorkEnd:      get(constants.EnvWorkEnd, constants.DefaultWorkEnd),
		MorningStart: get(constants.EnvMorningStart, constants.DefaultMorningStart),
		MorningEnd:   get(constants.EnvMorningEnd, constants.DefaultMorningEnd),

		RetryAttempts:  attempts,
		RetryBaseDelay: baseDelay,

		ListenAddr:      get(constants.EnvListenAddr, constants.DefaultListenAddr),
		AllowedOrigins:  origins,
		InteractivePath: get(constants.EnvInteractivePath, constants.DefaultInteractivePath),

		KeyLookup: keyring.GetServiceKey,
	}
}

// IsPostgres reports whether the store URL points at Postgres.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.StoreURL, "postgres://") || strings.HasPrefix(c.StoreURL, "postgresql://")
}

// Require checks the store secrets. A local SQLite path needs no service key.
func (c *Config) Require() error {
	if c.StoreURL == "" {
		return ErrMissingStoreURL
	}
	if !c.IsPostgres() {
		return nil
	}
	if c.ServiceKey == "" && c.KeyLookup != nil {
		if key, err := c.KeyLookup(); err == nil {
			c.ServiceKey = key
		}
	}
	if c.ServiceKey == "" {
		return ErrMissingServiceKey
	}
	return nil
}

// ConnString returns the driver connection string with the service key
// injected as the password.
func (c *Config) ConnString() (string, error) {
	if err := c.Require(); err != nil {
		return "", err
	}
	if !c.IsPostgres() {
		return c.StoreURL, nil
	}

	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return "", fmt.Errorf("invalid store URL: %w", err)
	}
	if _, isSet := u.User.Password(); isSet {
		return "", ErrEmbeddedCredentials
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, c.ServiceKey)
	return u.String(), nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// Validate checks the non-secret settings.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"work start":    c.WorkStart,
		"work end":      c.WorkEnd,
		"morning start": c.MorningStart,
		"morning end":   c.MorningEnd,
	} {
		if !utils.ValidateTimeFormat(v) {
			return fmt.Errorf("invalid %s %q (expected HH:MM)", name, v)
		}
	}
	if c.WorkStart >= c.WorkEnd {
		return fmt.Errorf("work start %s must be before work end %s", c.WorkStart, c.WorkEnd)
	}
	if c.MorningStart >= c.MorningEnd {
		return fmt.Errorf("morning start %s must be before morning end %s", c.MorningStart, c.MorningEnd)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	return nil
}

// Redacted returns the store URL without credentials, for display.
func (c *Config) Redacted() string {
	if !c.IsPostgres() {
		return c.StoreURL
	}
	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return "postgresql"
	}
	u.User = nil
	return u.Redacted()
}
