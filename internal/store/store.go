// Package store provides the relational store for Beffroi. It tracks
// users, sectors, roles, events and leave accounting on SQLite or
// PostgreSQL through database/sql, with schema managed by goose.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Sentinel errors returned by store operations. Handlers translate these
// into 404s and form field messages.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate value for unique field")
)

// Store is the relational store. All methods are safe for concurrent use;
// the underlying *sql.DB pools connections.
type Store struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// Open opens a store for the given dialect. For sqlite, dsn is a file path
// or ":memory:"; for postgres it is a connection string.
func Open(dialect, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var db *sql.DB
	var err error

	switch dialect {
	case DialectSQLite:
		// Foreign keys are off by default in sqlite; WAL keeps readers
		// unblocked during form submissions.
		pragmas := "?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
		if dsn == ":memory:" {
			pragmas = "?_pragma=foreign_keys(1)"
		}
		db, err = sql.Open("sqlite", dsn+pragmas)
	case DialectPostgres:
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unknown store dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// A single writer avoids SQLITE_BUSY on concurrent form posts.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	return &Store{db: db, dialect: dialect, logger: logger}, nil
}

// New wraps an existing database handle. Used by tests (sqlmock) and by
// callers that manage the connection themselves.
func New(db *sql.DB, dialect string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Counts holds the entity totals shown on the admin dashboard.
type Counts struct {
	Users            int
	Sectors          int
	Roles            int
	Events           int
	PendingApprovals int
}

// Counts returns entity totals in a single round trip per table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM sectors),
			(SELECT COUNT(*) FROM roles),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM events
			  WHERE deputy_status = 'pending' OR director_status = 'pending')`))
	if err := row.Scan(&c.Users, &c.Sectors, &c.Roles, &c.Events, &c.PendingApprovals); err != nil {
		return Counts{}, fmt.Errorf("failed to count entities: %w", err)
	}
	return c, nil
}

// q rewrites ? placeholders to $N for postgres. Queries in this package
// are written with ? and rebound per dialect.
func (s *Store) q(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint violation
// on either backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapWriteErr converts driver-level errors into store sentinels.
func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
