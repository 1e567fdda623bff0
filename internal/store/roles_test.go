package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	r := &Role{Name: "Stagiaire", Level: 10}
	require.NoError(t, s.CreateRole(ctx, r))
	assert.NotZero(t, r.ID)

	r.Name = "Apprenti"
	r.Level = 11
	require.NoError(t, s.UpdateRole(ctx, r))

	got, err := s.GetRole(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apprenti", got.Name)
	assert.Equal(t, 11, got.Level)

	require.NoError(t, s.DeleteRole(ctx, r.ID))
	_, err = s.GetRole(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRoleDuplicates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Name and level both collide with the seeded ladder.
	assert.ErrorIs(t, s.CreateRole(ctx, &Role{Name: "Agent", Level: 10}), ErrDuplicate)
	assert.ErrorIs(t, s.CreateRole(ctx, &Role{Name: "Autre", Level: 0}), ErrDuplicate)
}

func TestRoleByLevel(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	holder, err := s.RoleByLevel(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, "Directeur", holder.Name)

	// The holder itself is skipped when editing it.
	_, err = s.RoleByLevel(ctx, 2, holder.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RoleByLevel(ctx, 42, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRoleClearsUserRole(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "directeur@mairie.fr")
	r := &Role{Name: "Temporaire", Level: 9}
	require.NoError(t, s.CreateRole(ctx, r))
	require.NoError(t, s.SetUserRole(ctx, u.ID, &r.ID))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Role)
	assert.Equal(t, "Temporaire", got.Role.Name)

	require.NoError(t, s.DeleteRole(ctx, r.ID))

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RoleID)
	assert.Nil(t, got.Role)
}

func TestListRolesCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "agent@mairie.fr")
	agent, err := s.RoleByLevel(ctx, 0, 0)
	require.NoError(t, err)
	require.NoError(t, s.SetUserRole(ctx, u.ID, &agent.ID))

	roles, err := s.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 5)
	assert.Equal(t, 1, roles[0].UserCount)
	assert.Zero(t, roles[1].UserCount)
}
