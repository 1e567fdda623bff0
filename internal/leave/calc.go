package leave

import (
	"math"
	"time"

	"github.com/beffroi/beffroi/internal/store"
)

// Statutory constants for full-time staff.
const (
	// LegalAnnualHours is the yearly working time a full-time agent owes.
	LegalAnnualHours = 1607
	// BaseAnnualLeaveDays is the full-time annual leave entitlement.
	BaseAnnualLeaveDays = 25
)

// MainPeriodBounds returns the main leave period of a year, May 1 through
// October 31. Annual leave taken outside it feeds the fractionnement
// bonus.
func MainPeriodBounds(year int) (start, end time.Time) {
	return date(year, time.May, 1), date(year, time.October, 31)
}

// CountHalfDays counts the working time consumed between two half-day
// bounds, in half days. Non-working days contribute nothing; a period
// starting in the afternoon or ending at noon gives its boundary half
// back when that day is worked.
func CountHalfDays(start time.Time, startHalf store.HalfDay,
	end time.Time, endHalf store.HalfDay, basis store.DayBasis) int {

	start = date(start.Year(), start.Month(), start.Day())
	end = date(end.Year(), end.Month(), end.Day())
	if end.Before(start) {
		return 0
	}

	total := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if IsWorkingDay(day, basis) {
			total += 2
		}
	}
	if startHalf == store.Afternoon && IsWorkingDay(start, basis) {
		total--
	}
	if endHalf == store.Morning && IsWorkingDay(end, basis) {
		total--
	}
	if total < 0 {
		return 0
	}
	return total
}

// PeriodHalfDays counts the working time a stored leave period consumes.
func PeriodHalfDays(p *store.LeavePeriod, basis store.DayBasis) int {
	return CountHalfDays(p.Start, p.StartHalf, p.End, p.EndHalf, basis)
}

// RTTDays derives the yearly RTT entitlement from weekly hours and the
// work-time quota. At 35 hours or below there is nothing to compensate.
func RTTDays(hoursPerWeek, quota float64) int {
	if hoursPerWeek <= 35 {
		return 0
	}
	annualHours := hoursPerWeek * 52
	full := (annualHours - LegalAnnualHours) / hoursPerWeek
	return int(math.Round(full * quota))
}

// AnnualHalfDays prorates the annual leave entitlement by the work-time
// quota, in half days.
func AnnualHalfDays(quota float64) int {
	return int(math.Round(BaseAnnualLeaveDays * 2 * quota))
}

// DaysOutsideMainPeriod counts the whole working days of annual leave
// taken outside May 1 - Oct 31, the input of the fractionnement bonus.
// Non-annual periods are ignored. Periods straddling a boundary are cut
// there, the cut falling between the full days on each side.
func DaysOutsideMainPeriod(periods []*store.LeavePeriod, basis store.DayBasis) int {
	halves := 0
	for _, p := range periods {
		if p.Kind != store.LeaveAnnual {
			continue
		}
		halves += outsideHalfDays(p, basis)
	}
	return halves / 2
}

func outsideHalfDays(p *store.LeavePeriod, basis store.DayBasis) int {
	mainStart, mainEnd := MainPeriodBounds(p.Year)

	total := 0

	// Segment before May 1.
	if p.Start.Before(mainStart) {
		end, endHalf := p.End, p.EndHalf
		if !end.Before(mainStart) {
			end, endHalf = mainStart.AddDate(0, 0, -1), store.Afternoon
		}
		total += CountHalfDays(p.Start, p.StartHalf, end, endHalf, basis)
	}

	// Segment after October 31.
	if p.End.After(mainEnd) {
		start, startHalf := p.Start, p.StartHalf
		if !start.After(mainEnd) {
			start, startHalf = mainEnd.AddDate(0, 0, 1), store.Morning
		}
		total += CountHalfDays(start, startHalf, p.End, p.EndHalf, basis)
	}

	return total
}

// SplitBonus grants the fractionnement days: one extra day from 5 annual
// leave days outside the main period, two from 8.
func SplitBonus(daysOutside int) int {
	switch {
	case daysOutside >= 8:
		return 2
	case daysOutside >= 5:
		return 1
	default:
		return 0
	}
}
