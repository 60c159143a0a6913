package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const minSessionSecretLen = 32

// StoreConfig selects and locates the account store.
type StoreConfig struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"dashboard-auth.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreDatabase  string `env:"FIRESTORE_DATABASE"`
}

type LogConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"production"`

	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string   `env:"GOOGLE_REDIRECT_URL"`
	AllowedDomains     []string `env:"ALLOWED_DOMAINS" envSeparator:","`

	SessionSecret     string        `env:"SESSION_SECRET,required"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionIssuer     string        `env:"SESSION_ISSUER" envDefault:"dashboard-auth"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"session_token"`
	CookieDomain      string        `env:"COOKIE_DOMAIN"`
	// CookieSecure is nil when unset so the default can follow AppEnv.
	CookieSecure *bool `env:"COOKIE_SECURE"`

	StoreConfig
	LogConfig
}

// MigrateConfig is what the migrate command needs: no identity provider
// and no signing secret.
type MigrateConfig struct {
	StoreConfig
	LogConfig
}

// Load reads the configuration from the environment. A missing signing
// secret or client id is returned as an error so the process can refuse
// to start.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadMigrate reads only the store and log settings.
func LoadMigrate() (MigrateConfig, error) {
	var cfg MigrateConfig
	if err := env.Parse(&cfg); err != nil {
		return MigrateConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.StoreConfig.validate(); err != nil {
		return MigrateConfig{}, err
	}
	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "sqlite" {
		return MigrateConfig{}, fmt.Errorf("STORE_DRIVER %q has no schema to migrate", cfg.StoreDriver)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(strings.TrimSpace(c.SessionSecret)) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return c.StoreConfig.validate()
}

func (s StoreConfig) validate() error {
	switch s.StoreDriver {
	case "postgres":
		if s.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres store")
		}
	case "sqlite":
		if s.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case "redis":
		if s.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case "firestore":
		if s.FirestoreProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.StoreDriver)
	}
	return nil
}

// IsDev reports whether the service runs in a local development setup.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// SecureCookies reports whether session cookies carry the Secure flag.
func (c Config) SecureCookies() bool {
	if c.CookieSecure != nil {
		return *c.CookieSecure
	}
	return !c.IsDev()
}

// RedirectLoginEnabled reports whether the OAuth redirect flow can be served.
func (c Config) RedirectLoginEnabled() bool {
	return c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}
