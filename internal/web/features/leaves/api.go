package leaves

import (
	"encoding/json"
	"net/http"

	"github.com/beffroi/beffroi/internal/leave"
	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/session"
)

type holidayJSON struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type periodJSON struct {
	ID        int64  `json:"id"`
	Start     string `json:"start"`
	StartHalf string `json:"start_half"`
	End       string `json:"end"`
	EndHalf   string `json:"end_half"`
	Kind      string `json:"kind"`
	HalfDays  int    `json:"half_days"`
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// CalendarData returns the public holidays and the signed-in user's
// periods for one year, for the calendar widget.
func (h *Handlers) CalendarData(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	year := queryYear(r)

	periods, err := h.Store.ListLeavePeriods(r.Context(), u.ID, year, "")
	if err != nil {
		h.Logger.Error("failed to list leave periods", "user_id", u.ID, "error", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}

	holidays := make([]holidayJSON, 0, 12)
	for _, hd := range leave.Holidays(year) {
		holidays = append(holidays, holidayJSON{Date: hd.Date.Format(dateLayout), Name: hd.Name})
	}
	out := make([]periodJSON, 0, len(periods))
	for _, p := range periods {
		out = append(out, periodJSON{
			ID:        p.ID,
			Start:     p.Start.Format(dateLayout),
			StartHalf: string(p.StartHalf),
			End:       p.End.Format(dateLayout),
			EndHalf:   string(p.EndHalf),
			Kind:      string(p.Kind),
			HalfDays:  p.HalfDays,
		})
	}

	err = writeJSON(w, map[string]any{
		"year":     year,
		"holidays": holidays,
		"periods":  out,
	})
	if err != nil {
		h.Logger.Error("failed to encode calendar data", "error", err)
	}
}

// SplitData returns the split-bonus figures for one year, computed from
// the current periods.
func (h *Handlers) SplitData(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	year := queryYear(r)
	ctx := r.Context()

	periods, err := h.Store.ListLeavePeriods(ctx, u.ID, year, store.LeaveAnnual)
	if err != nil {
		h.Logger.Error("failed to list leave periods", "user_id", u.ID, "error", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	basis, err := h.Store.YearBasis(ctx, u.ID, year)
	if err != nil {
		h.Logger.Error("failed to resolve counting basis", "user_id", u.ID, "error", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}

	outside := leave.DaysOutsideMainPeriod(periods, basis)
	err = writeJSON(w, map[string]any{
		"year":         year,
		"days_outside": outside,
		"bonus_days":   leave.SplitBonus(outside),
	})
	if err != nil {
		h.Logger.Error("failed to encode split data", "error", err)
	}
}
