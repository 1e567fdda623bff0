package leaves

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/testutil"
	"github.com/beffroi/beffroi/internal/web/features"
)

func newHandlers(t *testing.T) (*features.TestFixture, *Handlers, *store.User) {
	t.Helper()
	f := features.NewTestFixture(t)
	h := NewHandlers(f.Store, f.Sessions, testutil.NewTestLogger(t))
	u := f.CreateUser(t, "agent@mairie.fr", false)
	return f, h, u
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func postForm(u *store.User, path string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return features.AsUser(r, u)
}

func TestCycleSaveDerivesEntitlements(t *testing.T) {
	f, h, u := newHandlers(t)

	rec := httptest.NewRecorder()
	h.CycleSave(rec, postForm(u, "/leave/cycle/new", url.Values{
		"year":           {"2026"},
		"hours_per_week": {"37.5"},
		"quota":          {"1"},
		"basis":          {"five_day"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	cycle, err := f.Store.WorkCycleForYear(context.Background(), u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 9, cycle.RTTDays)
	assert.Equal(t, 50, cycle.AnnualHalfDays)
	assert.Equal(t, store.BasisFiveDay, cycle.Basis)
}

func TestCycleSaveUpdatesExisting(t *testing.T) {
	f, h, u := newHandlers(t)

	for _, hours := range []string{"35", "39"} {
		rec := httptest.NewRecorder()
		h.CycleSave(rec, postForm(u, "/leave/cycle/edit", url.Values{
			"year":           {"2026"},
			"hours_per_week": {hours},
			"quota":          {"1"},
			"basis":          {"five_day"},
		}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	cycles, err := f.Store.ListWorkCycles(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 39.0, cycles[0].HoursPerWeek)
	assert.Equal(t, 11, cycles[0].RTTDays)
}

func TestCycleSaveValidation(t *testing.T) {
	_, h, u := newHandlers(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"hours too low", url.Values{"year": {"2026"}, "hours_per_week": {"34"}, "quota": {"1"}, "basis": {"five_day"}}, "entre 35 et 39"},
		{"hours too high", url.Values{"year": {"2026"}, "hours_per_week": {"40"}, "quota": {"1"}, "basis": {"five_day"}}, "entre 35 et 39"},
		{"quota too low", url.Values{"year": {"2026"}, "hours_per_week": {"35"}, "quota": {"0.4"}, "basis": {"five_day"}}, "quotité"},
		{"bad basis", url.Values{"year": {"2026"}, "hours_per_week": {"35"}, "quota": {"1"}, "basis": {"seven_day"}}, "décompte"},
		{"bad year", url.Values{"year": {"abc"}, "hours_per_week": {"35"}, "quota": {"1"}, "basis": {"five_day"}}, "année"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CycleSave(rec, postForm(u, "/leave/cycle/new", tt.form))
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, strings.ToLower(rec.Body.String()), tt.want)
		})
	}
}

func TestPeriodCreateComputesHalfDays(t *testing.T) {
	f, h, u := newHandlers(t)

	// July 6 to July 10 2026 is a full working week.
	rec := httptest.NewRecorder()
	h.PeriodCreate(rec, postForm(u, "/leave/periods/new", url.Values{
		"start":      {"2026-07-06"},
		"start_half": {"morning"},
		"end":        {"2026-07-10"},
		"end_half":   {"afternoon"},
		"kind":       {"annual"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	periods, err := f.Store.ListLeavePeriods(context.Background(), u.ID, 2026, "")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, 10, periods[0].HalfDays)
	assert.Equal(t, 2026, periods[0].Year)
	assert.Equal(t, store.LeaveAnnual, periods[0].Kind)
}

func TestPeriodCreateValidation(t *testing.T) {
	_, h, u := newHandlers(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"end before start", url.Values{
			"start": {"2026-07-10"}, "start_half": {"morning"},
			"end": {"2026-07-06"}, "end_half": {"afternoon"}, "kind": {"annual"},
		}},
		{"bad half", url.Values{
			"start": {"2026-07-06"}, "start_half": {"noon"},
			"end": {"2026-07-10"}, "end_half": {"afternoon"}, "kind": {"annual"},
		}},
		{"bad kind", url.Values{
			"start": {"2026-07-06"}, "start_half": {"morning"},
			"end": {"2026-07-10"}, "end_half": {"afternoon"}, "kind": {"vacances"},
		}},
		{"bad date", url.Values{
			"start": {"pas-une-date"}, "start_half": {"morning"},
			"end": {"2026-07-10"}, "end_half": {"afternoon"}, "kind": {"annual"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.PeriodCreate(rec, postForm(u, "/leave/periods/new", tt.form))
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestPeriodOwnershipEnforced(t *testing.T) {
	f, h, u := newHandlers(t)
	other := f.CreateUser(t, "autre@mairie.fr", false)

	p := &store.LeavePeriod{
		UserID:    other.ID,
		Start:     date(2026, 7, 6),
		StartHalf: store.Morning,
		End:       date(2026, 7, 10),
		EndHalf:   store.Afternoon,
		Kind:      store.LeaveAnnual,
		Year:      2026,
		HalfDays:  10,
	}
	require.NoError(t, f.Store.CreateLeavePeriod(context.Background(), p))

	id := strconv.FormatInt(p.ID, 10)
	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/leave/periods/"+id+"/edit", nil), u)
	rec := httptest.NewRecorder()
	h.PeriodEditPage(rec, features.WithPathParam(req, "id", id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryComputesAndStoresSplitBonus(t *testing.T) {
	f, h, u := newHandlers(t)
	ctx := context.Background()

	// Two full working weeks of annual leave in April 2026 (clear of
	// Easter Monday), entirely outside the May-October main period:
	// 10 days outside, the maximum bonus.
	for _, dates := range [][2]string{
		{"2026-04-13", "2026-04-17"},
		{"2026-04-20", "2026-04-24"},
	} {
		rec := httptest.NewRecorder()
		h.PeriodCreate(rec, postForm(u, "/leave/periods/new", url.Values{
			"start": {dates[0]}, "start_half": {"morning"},
			"end": {dates[1]}, "end_half": {"afternoon"}, "kind": {"annual"},
		}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/leave?year=2026", nil), u)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	calc, err := f.Store.SplitCalculationForYear(ctx, u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 10, calc.DaysOutside)
	assert.Equal(t, 2, calc.BonusDays)

	body := rec.Body.String()
	assert.Contains(t, body, "<strong>10</strong>")
	assert.Contains(t, body, "<strong>2</strong>")
}

func TestSummaryIgnoresNonAnnualLeave(t *testing.T) {
	f, h, u := newHandlers(t)

	rec := httptest.NewRecorder()
	h.PeriodCreate(rec, postForm(u, "/leave/periods/new", url.Values{
		"start": {"2026-04-06"}, "start_half": {"morning"},
		"end": {"2026-04-17"}, "end_half": {"afternoon"}, "kind": {"rtt"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/leave?year=2026", nil), u)
	rec = httptest.NewRecorder()
	h.Summary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	calc, err := f.Store.SplitCalculationForYear(context.Background(), u.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, calc.DaysOutside)
	assert.Equal(t, 0, calc.BonusDays)
}
