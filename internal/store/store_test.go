package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/testutil"
)

// setupTestStore opens a migrated in-memory database. Seed migrations run
// too, so tests start with the default role ladder and sector set.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DialectSQLite, ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func createTestUser(t *testing.T, s *Store, email string) *User {
	t.Helper()
	u := &User{
		Email:         email,
		PasswordHash:  "not-a-real-hash",
		Active:        true,
		EmailVerified: true,
		NotifyWelcome: true,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	assert.ErrorContains(t, err, "unknown store dialect")
}

func TestMigrateSeedsDefaults(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	roles, err := s.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 5)
	assert.Equal(t, "Agent", roles[0].Name)
	assert.Equal(t, 0, roles[0].Level)
	assert.Equal(t, "Élu", roles[4].Name)
	assert.Equal(t, 4, roles[4].Level)

	n, err := s.CountSectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "agent@mairie.fr")
	e := &Event{
		Title:     "Forum des associations",
		StartsAt:  time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC),
		Timezone:  "Europe/Paris",
		CreatorID: u.ID,
		Deputy:    Approval{Requested: true, Status: ApprovalPending},
		Director:  Approval{Status: ApprovalNotRequested},
	}
	require.NoError(t, s.CreateEvent(ctx, e, nil))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Users)
	assert.Equal(t, 8, c.Sectors)
	assert.Equal(t, 5, c.Roles)
	assert.Equal(t, 1, c.Events)
	assert.Equal(t, 1, c.PendingApprovals)
}

func TestPlaceholderRebind(t *testing.T) {
	s := &Store{dialect: DialectPostgres}
	assert.Equal(t, "SELECT $1, $2", s.q("SELECT ?, ?"))

	s.dialect = DialectSQLite
	assert.Equal(t, "SELECT ?, ?", s.q("SELECT ?, ?"))
}
