package leaves

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/web/features"
)

func TestCalendarData(t *testing.T) {
	_, h, u := newHandlers(t)

	rec := httptest.NewRecorder()
	h.PeriodCreate(rec, postForm(u, "/leave/periods/new", url.Values{
		"start": {"2026-07-06"}, "start_half": {"morning"},
		"end": {"2026-07-10"}, "end_half": {"afternoon"}, "kind": {"annual"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/leave/api/calendar?year=2026", nil), u)
	rec = httptest.NewRecorder()
	h.CalendarData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body struct {
		Year     int           `json:"year"`
		Holidays []holidayJSON `json:"holidays"`
		Periods  []periodJSON  `json:"periods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2026, body.Year)
	require.Len(t, body.Holidays, 12)
	assert.Equal(t, "2026-01-01", body.Holidays[0].Date)
	assert.Equal(t, "Jour de l'an", body.Holidays[0].Name)
	assert.Contains(t, rec.Body.String(), `"Pâques"`)
	require.Len(t, body.Periods, 1)
	assert.Equal(t, "2026-07-06", body.Periods[0].Start)
	assert.Equal(t, 10, body.Periods[0].HalfDays)
}

func TestSplitData(t *testing.T) {
	_, h, u := newHandlers(t)

	// One full working week in April, outside the May-October main
	// period.
	rec := httptest.NewRecorder()
	h.PeriodCreate(rec, postForm(u, "/leave/periods/new", url.Values{
		"start": {"2026-04-13"}, "start_half": {"morning"},
		"end": {"2026-04-17"}, "end_half": {"afternoon"}, "kind": {"annual"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/leave/api/split?year=2026", nil), u)
	rec = httptest.NewRecorder()
	h.SplitData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Year        int `json:"year"`
		DaysOutside int `json:"days_outside"`
		BonusDays   int `json:"bonus_days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2026, body.Year)
	assert.Equal(t, 5, body.DaysOutside)
	assert.Equal(t, 1, body.BonusDays)
}
