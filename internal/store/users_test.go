package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserNormalizesEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := &User{Email: "  Marie.Dupont@Mairie.FR ", PasswordHash: "h", Active: true}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Equal(t, "marie.dupont@mairie.fr", u.Email)
	assert.False(t, u.JoinedAt.IsZero())

	got, err := s.UserByEmail(ctx, "MARIE.DUPONT@mairie.fr")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Same address, different case.
	err = s.CreateUser(ctx, &User{Email: "marie.dupont@MAIRIE.fr", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserTokens(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "agent@mairie.fr")

	sent := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.SetVerifyToken(ctx, u.ID, "tok-verify", sent))

	got, err := s.UserByVerifyToken(ctx, "tok-verify")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.VerifySentAt)

	require.NoError(t, s.MarkEmailVerified(ctx, u.ID))
	_, err = s.UserByVerifyToken(ctx, "tok-verify")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Empty(t, got.VerifyToken)

	require.NoError(t, s.SetResetToken(ctx, u.ID, "tok-reset", sent))
	got, err = s.UserByResetToken(ctx, "tok-reset")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.ClearResetToken(ctx, u.ID))
	_, err = s.UserByResetToken(ctx, "tok-reset")
	assert.ErrorIs(t, err, ErrNotFound)

	// Blank tokens never match the cleared rows.
	_, err = s.UserByVerifyToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UserByResetToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserProfileAndFlags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "agent@mairie.fr")

	require.NoError(t, s.UpdateProfile(ctx, u.ID, "Marie", "Dupont"))
	require.NoError(t, s.SetPassword(ctx, u.ID, "new-hash"))
	require.NoError(t, s.SetActive(ctx, u.ID, false))
	require.NoError(t, s.SetSuperuser(ctx, u.ID, true))
	require.NoError(t, s.SetNotificationPrefs(ctx, u.ID, NotificationPrefs{
		Welcome:        false,
		PasswordChange: true,
		NewLogin:       true,
		SecurityAlerts: false,
	}))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marie Dupont", got.FullName())
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.False(t, got.Active)
	assert.True(t, got.Superuser)
	assert.False(t, got.NotifyWelcome)
	assert.True(t, got.NotifyNewLogin)
}

func TestUserFullNameFallback(t *testing.T) {
	u := &User{Email: "prenom.nom@mairie.fr"}
	assert.Equal(t, "prenom.nom", u.FullName())
}

func TestListUsersPaginationAndPrefetch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	culture, err := s.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)
	agent, err := s.RoleByLevel(ctx, 0, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		u := createTestUser(t, s, fmt.Sprintf("user%d@mairie.fr", i))
		require.NoError(t, s.UpdateProfile(ctx, u.ID, "User", fmt.Sprintf("%c", 'A'+i)))
		require.NoError(t, s.SetUserSectors(ctx, u.ID, []int64{culture.ID}))
		require.NoError(t, s.SetUserRole(ctx, u.ID, &agent.ID))
	}

	page, err := s.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "User A", page[0].FullName())
	assert.Equal(t, "User B", page[1].FullName())
	for _, u := range page {
		require.NotNil(t, u.Role)
		assert.Equal(t, "Agent", u.Role.Name)
		require.Len(t, u.Sectors, 1)
		assert.Equal(t, "Culture", u.Sectors[0].Name)
	}

	page, err = s.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "User C", page[0].FullName())

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDeleteUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "agent@mairie.fr")
	culture, err := s.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)
	require.NoError(t, s.SetUserSectors(ctx, u.ID, []int64{culture.ID}))

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Membership rows are gone; the sector itself stays.
	_, err = s.GetSector(ctx, culture.ID)
	assert.NoError(t, err)
}
