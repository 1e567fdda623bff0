// Package config provides typed configuration for Beffroi.
// Values are layered: defaults < YAML config file < BEFFROI_* environment
// variables < CLI flags.
package config

import (
	"fmt"
	"net/url"
)

// Database drivers supported by the store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// BaseURL is the externally visible origin used to build absolute
	// links in emails (verification, password reset).
	BaseURL string `koanf:"base_url"`

	// Dev relaxes secret requirements for local work.
	Dev bool `koanf:"dev"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	// Secret signs session cookies. Required outside dev mode.
	Secret string `koanf:"secret"`

	// MaxAge is the session lifetime in seconds.
	MaxAge int `koanf:"max_age"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	Path   string `koanf:"path"`   // sqlite file path (or :memory:)
	DSN    string `koanf:"dsn"`    // postgres connection string
}

// SMTPConfig holds outgoing mail settings. When disabled, mail is logged
// instead of sent.
type SMTPConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	From     string `koanf:"from"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// UploadsConfig holds event attachment storage settings.
type UploadsConfig struct {
	Dir string `koanf:"dir"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Session  SessionConfig  `koanf:"session"`
	Database DatabaseConfig `koanf:"database"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Verbose  bool           `koanf:"verbose"`

	// Source is the config file actually read, empty when the
	// configuration came from defaults, env and flags alone.
	Source string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8400
	DefaultDatabasePath  = "beffroi.db"
	DefaultUploadsDir    = "uploads"
	DefaultSessionMaxAge = 86400 * 30 // 30 days
	DefaultSMTPPort      = 587
)

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the configuration for startup-blocking problems.
func (c *Config) Validate() error {
	if c.Session.Secret == "" && !c.Server.Dev {
		return fmt.Errorf("session.secret must be set (BEFFROI_SESSION_SECRET) outside dev mode")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q (want %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	if c.Server.BaseURL != "" {
		if _, err := url.Parse(c.Server.BaseURL); err != nil {
			return fmt.Errorf("invalid server.base_url: %w", err)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	return nil
}
