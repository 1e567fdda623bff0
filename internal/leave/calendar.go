// Package leave implements French public-sector leave accounting:
// holiday calendars, working-day counting in half-day units, RTT
// entitlements and the fractionnement bonus.
package leave

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/beffroi/beffroi/internal/store"
)

// Holiday is one French public holiday.
type Holiday struct {
	Date time.Time
	Name string
}

// The calendar rarely covers more than a handful of years at once.
var holidayCache, _ = lru.New[int, []Holiday](16)

// Holidays returns the French public holidays of a year, in date order.
// Results are cached per year.
func Holidays(year int) []Holiday {
	if hs, ok := holidayCache.Get(year); ok {
		return hs
	}

	easter := easterSunday(year)
	hs := []Holiday{
		{date(year, time.January, 1), "Jour de l'an"},
		{easter, "Pâques"},
		{easter.AddDate(0, 0, 1), "Lundi de Pâques"},
		{date(year, time.May, 1), "Fête du Travail"},
		{date(year, time.May, 8), "Victoire 1945"},
		{easter.AddDate(0, 0, 39), "Ascension"},
		{easter.AddDate(0, 0, 50), "Lundi de Pentecôte"},
		{date(year, time.July, 14), "Fête nationale"},
		{date(year, time.August, 15), "Assomption"},
		{date(year, time.November, 1), "Toussaint"},
		{date(year, time.November, 11), "Armistice 1918"},
		{date(year, time.December, 25), "Noël"},
	}
	sortHolidays(hs)

	holidayCache.Add(year, hs)
	return hs
}

// IsHoliday reports whether a date falls on a public holiday.
func IsHoliday(day time.Time) bool {
	day = date(day.Year(), day.Month(), day.Day())
	for _, h := range Holidays(day.Year()) {
		if h.Date.Equal(day) {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether a date counts as worked under the given
// basis: Monday through Friday for the five-day week, plus Saturday for
// the six-day week, holidays excluded either way.
func IsWorkingDay(day time.Time, basis store.DayBasis) bool {
	switch day.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		if basis != store.BasisSixDay {
			return false
		}
	}
	return !IsHoliday(day)
}

// easterSunday computes Easter of a year with Gauss's algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func sortHolidays(hs []Holiday) {
	// Only the mobile spring holidays ever move; insertion sort is
	// plenty for twelve entries.
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Date.Before(hs[j-1].Date); j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}
