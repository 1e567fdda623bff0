package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkCycleLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "agent@mairie.fr")

	c := &WorkCycle{
		UserID:         u.ID,
		Year:           2026,
		HoursPerWeek:   37.5,
		Quota:          1.0,
		Basis:          BasisFiveDay,
		RTTDays:        15,
		AnnualHalfDays: 50,
	}
	require.NoError(t, s.CreateWorkCycle(ctx, c))
	require.NotZero(t, c.ID)

	// One cycle per user and year.
	err := s.CreateWorkCycle(ctx, &WorkCycle{UserID: u.ID, Year: 2026, HoursPerWeek: 35, Quota: 1, Basis: BasisFiveDay})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.WorkCycleForYear(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 37.5, got.HoursPerWeek)
	assert.Equal(t, 25.0, got.AnnualDays())

	c.HoursPerWeek = 39
	c.RTTDays = 23
	require.NoError(t, s.UpdateWorkCycle(ctx, c))

	cycles, err := s.ListWorkCycles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 39.0, cycles[0].HoursPerWeek)

	require.NoError(t, s.DeleteWorkCycle(ctx, c.ID))
	_, err = s.GetWorkCycle(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYearBasisResolution(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "agent@mairie.fr")

	// Default with nothing stored.
	basis, err := s.YearBasis(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, BasisFiveDay, basis)

	// Year override applies.
	require.NoError(t, s.SetYearBasis(ctx, u.ID, 2026, BasisSixDay))
	basis, err = s.YearBasis(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, BasisSixDay, basis)

	// Upsert replaces the override.
	require.NoError(t, s.SetYearBasis(ctx, u.ID, 2026, BasisFiveDay))
	basis, err = s.YearBasis(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, BasisFiveDay, basis)

	// A work cycle wins over the override.
	require.NoError(t, s.SetYearBasis(ctx, u.ID, 2026, BasisSixDay))
	require.NoError(t, s.CreateWorkCycle(ctx, &WorkCycle{
		UserID: u.ID, Year: 2026, HoursPerWeek: 35, Quota: 1, Basis: BasisFiveDay,
	}))
	basis, err = s.YearBasis(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, BasisFiveDay, basis)
}

func TestLeavePeriodLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "agent@mairie.fr")

	p := &LeavePeriod{
		UserID:    u.ID,
		Start:     date(2026, 7, 6),
		StartHalf: Morning,
		End:       date(2026, 7, 10),
		EndHalf:   Afternoon,
		Kind:      LeaveAnnual,
		Year:      2026,
		HalfDays:  10,
	}
	require.NoError(t, s.CreateLeavePeriod(ctx, p))
	require.NotZero(t, p.ID)

	got, err := s.GetLeavePeriod(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 7, 6), got.Start)
	assert.Equal(t, Afternoon, got.EndHalf)
	assert.Equal(t, 5.0, got.Days())

	p.End = date(2026, 7, 8)
	p.HalfDays = 6
	require.NoError(t, s.UpdateLeavePeriod(ctx, p))

	require.NoError(t, s.CreateLeavePeriod(ctx, &LeavePeriod{
		UserID: u.ID, Start: date(2026, 2, 2), StartHalf: Morning,
		End: date(2026, 2, 2), EndHalf: Afternoon,
		Kind: LeaveRTT, Year: 2026, HalfDays: 2,
	}))

	all, err := s.ListLeavePeriods(ctx, u.ID, 2026, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, LeaveRTT, all[0].Kind) // ordered by start date

	annual, err := s.ListLeavePeriods(ctx, u.ID, 2026, LeaveAnnual)
	require.NoError(t, err)
	require.Len(t, annual, 1)

	none, err := s.ListLeavePeriods(ctx, u.ID, 2025, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, s.DeleteLeavePeriod(ctx, p.ID))
	_, err = s.GetLeavePeriod(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitCalculationUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "agent@mairie.fr")

	_, err := s.SplitCalculationForYear(ctx, u.ID, 2026)
	assert.ErrorIs(t, err, ErrNotFound)

	c := &SplitCalculation{UserID: u.ID, Year: 2026, DaysOutside: 6, BonusDays: 1}
	require.NoError(t, s.SaveSplitCalculation(ctx, c))
	firstID := c.ID

	c2 := &SplitCalculation{UserID: u.ID, Year: 2026, DaysOutside: 9, BonusDays: 2}
	require.NoError(t, s.SaveSplitCalculation(ctx, c2))
	assert.Equal(t, firstID, c2.ID)

	got, err := s.SplitCalculationForYear(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 9, got.DaysOutside)
	assert.Equal(t, 2, got.BonusDays)
}
