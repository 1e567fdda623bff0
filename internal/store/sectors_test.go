package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sec := &Sector{Name: "Petite enfance", Color: "#FF8800", Position: 20}
	require.NoError(t, s.CreateSector(ctx, sec))
	assert.NotZero(t, sec.ID)
	assert.False(t, sec.CreatedAt.IsZero())

	got, err := s.GetSector(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Petite enfance", got.Name)
	assert.Equal(t, "#FF8800", got.Color)

	sec.Name = "Petite enfance et famille"
	sec.Position = 3
	require.NoError(t, s.UpdateSector(ctx, sec))

	byName, err := s.GetSectorByName(ctx, "Petite enfance et famille")
	require.NoError(t, err)
	assert.Equal(t, sec.ID, byName.ID)

	require.NoError(t, s.DeleteSector(ctx, sec.ID))
	_, err = s.GetSector(ctx, sec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSectorDuplicateName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Seeded in the default set.
	err := s.CreateSector(ctx, &Sector{Name: "Culture", Color: "#000000"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSectorNotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetSector(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateSector(ctx, &Sector{ID: 99999, Name: "x", Color: "#FFFFFF"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteSector(ctx, 99999), ErrNotFound)
}

func TestListSectorsOrderAndCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "agent@mairie.fr")
	culture, err := s.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)
	sports, err := s.GetSectorByName(ctx, "Sports")
	require.NoError(t, err)
	require.NoError(t, s.SetUserSectors(ctx, u.ID, []int64{culture.ID, sports.ID}))

	sectors, err := s.ListSectors(ctx)
	require.NoError(t, err)
	require.Len(t, sectors, 8)

	prev := -1
	for _, sec := range sectors {
		assert.GreaterOrEqual(t, sec.Position, prev)
		prev = sec.Position
		switch sec.ID {
		case culture.ID, sports.ID:
			assert.Equal(t, 1, sec.UserCount, sec.Name)
		default:
			assert.Zero(t, sec.UserCount, sec.Name)
		}
	}
}

func TestSetUserSectorsReplacesMemberships(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "agent@mairie.fr")
	culture, err := s.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)
	sports, err := s.GetSectorByName(ctx, "Sports")
	require.NoError(t, err)

	require.NoError(t, s.SetUserSectors(ctx, u.ID, []int64{culture.ID}))
	require.NoError(t, s.SetUserSectors(ctx, u.ID, []int64{sports.ID}))

	got, err := s.SectorsForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sports.ID, got[0].ID)
}

func TestDeleteSectorRemovesMemberships(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "agent@mairie.fr")
	culture, err := s.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)
	require.NoError(t, s.SetUserSectors(ctx, u.ID, []int64{culture.ID}))

	require.NoError(t, s.DeleteSector(ctx, culture.ID))

	got, err := s.SectorsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
