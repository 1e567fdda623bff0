package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/store"
)

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2026, time.April, 5},
		{2027, time.March, 28},
		{2030, time.April, 21},
	}
	for _, tt := range tests {
		assert.Equal(t, date(tt.year, tt.month, tt.day), easterSunday(tt.year), "easter %d", tt.year)
	}
}

func TestHolidays(t *testing.T) {
	hs := Holidays(2026)
	require.Len(t, hs, 12)

	byName := make(map[string]time.Time)
	for _, h := range hs {
		byName[h.Name] = h.Date
	}
	assert.Equal(t, date(2026, time.April, 5), byName["Pâques"])
	assert.Equal(t, date(2026, time.April, 6), byName["Lundi de Pâques"])
	assert.Equal(t, date(2026, time.May, 14), byName["Ascension"])
	assert.Equal(t, date(2026, time.May, 25), byName["Lundi de Pentecôte"])
	assert.Equal(t, date(2026, time.July, 14), byName["Fête nationale"])

	// Sorted by date.
	for i := 1; i < len(hs); i++ {
		assert.True(t, hs[i-1].Date.Before(hs[i].Date))
	}

	// Cached slice is reused.
	assert.Same(t, &hs[0], &Holidays(2026)[0])
}

func TestIsHoliday(t *testing.T) {
	assert.True(t, IsHoliday(date(2026, time.July, 14)))
	assert.True(t, IsHoliday(time.Date(2026, time.December, 25, 18, 30, 0, 0, time.UTC)))
	assert.False(t, IsHoliday(date(2026, time.July, 15)))
}

func TestIsWorkingDay(t *testing.T) {
	monday := date(2026, time.July, 6)
	saturday := date(2026, time.July, 11)
	sunday := date(2026, time.July, 12)
	bastille := date(2026, time.July, 14) // a Tuesday

	assert.True(t, IsWorkingDay(monday, store.BasisFiveDay))
	assert.False(t, IsWorkingDay(saturday, store.BasisFiveDay))
	assert.True(t, IsWorkingDay(saturday, store.BasisSixDay))
	assert.False(t, IsWorkingDay(sunday, store.BasisSixDay))
	assert.False(t, IsWorkingDay(bastille, store.BasisFiveDay))
	assert.False(t, IsWorkingDay(bastille, store.BasisSixDay))
}
