package store

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// migrationDir returns the embedded migration directory for a dialect.
// DDL differs enough between the backends (identity columns, boolean
// storage) that each keeps its own scripts.
func migrationDir(dialect string) (string, error) {
	switch dialect {
	case DialectSQLite:
		return "migrations/sqlite", nil
	case DialectPostgres:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate() error {
	dir, err := migrationDir(s.dialect)
	if err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(s.db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(s.db)
	if err == nil {
		s.logger.Debug("database migrated", "dialect", s.dialect, "version", version)
	}
	return nil
}

// MigrationStatus returns the current schema version.
func (s *Store) MigrationStatus() (int64, error) {
	if err := goose.SetDialect(s.dialect); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	version, err := goose.GetDBVersion(s.db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
