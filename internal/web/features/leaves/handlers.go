// Package leaves implements the personal leave pages: work cycle,
// leave periods and the yearly split-bonus summary.
package leaves

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beffroi/beffroi/internal/leave"
	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/leaves/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Handlers carries the dependencies of the leave pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewHandlers(st *store.Store, sm *session.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{Store: st, Sessions: sm, Logger: logger}
}

// Routes returns the leave routes, mounted under /leave for signed-in
// users.
func Routes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Summary)
	r.Get("/cycle/new", h.CyclePage)
	r.Post("/cycle/new", h.CycleSave)
	r.Get("/cycle/edit", h.CyclePage)
	r.Post("/cycle/edit", h.CycleSave)
	r.Get("/periods/new", h.PeriodNewPage)
	r.Post("/periods/new", h.PeriodCreate)
	r.Get("/periods/{id}/edit", h.PeriodEditPage)
	r.Post("/periods/{id}/edit", h.PeriodUpdate)
	r.Post("/periods/{id}/delete", h.PeriodDelete)
	r.Get("/api/calendar", h.CalendarData)
	r.Get("/api/split", h.SplitData)
	return r
}

func queryYear(r *http.Request) int {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	if year < 1900 || year > 2200 {
		return time.Now().Year()
	}
	return year
}

// Summary shows the cycle, the periods and the split bonus for one
// year. The bonus is recomputed and persisted on every visit so the
// stored figure never lags the periods.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	year := queryYear(r)
	ctx := r.Context()

	cycle, err := h.Store.WorkCycleForYear(ctx, u.ID, year)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.Logger.Error("failed to load work cycle", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	periods, err := h.Store.ListLeavePeriods(ctx, u.ID, year, "")
	if err != nil {
		h.Logger.Error("failed to list leave periods", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	basis, err := h.Store.YearBasis(ctx, u.ID, year)
	if err != nil {
		h.Logger.Error("failed to resolve counting basis", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	var annual []*store.LeavePeriod
	for _, p := range periods {
		if p.Kind == store.LeaveAnnual {
			annual = append(annual, p)
		}
	}
	outside := leave.DaysOutsideMainPeriod(annual, basis)
	bonus := leave.SplitBonus(outside)

	calc := &store.SplitCalculation{
		UserID:      u.ID,
		Year:        year,
		DaysOutside: outside,
		BonusDays:   bonus,
		ComputedAt:  time.Now().UTC(),
	}
	if err := h.Store.SaveSplitCalculation(ctx, calc); err != nil {
		h.Logger.Error("failed to save split calculation", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	ui.Page(w, r, http.StatusOK, "Mes congés", u, h.Sessions.Flashes(w, r),
		pages.Summary(year, cycle, periods, outside, bonus))
}

type cycleForm struct {
	pages.CycleForm

	hours float64
	quota float64
}

func parseCycleForm(r *http.Request, action string) (cycleForm, string) {
	f := cycleForm{CycleForm: pages.CycleForm{
		HoursPerWeek: r.FormValue("hours_per_week"),
		Quota:        r.FormValue("quota"),
		Basis:        r.FormValue("basis"),
		Action:       action,
	}}
	var err error
	f.Year, err = strconv.Atoi(r.FormValue("year"))
	if err != nil || f.Year < 1900 || f.Year > 2200 {
		return f, "L'année est invalide."
	}
	f.hours, err = strconv.ParseFloat(f.HoursPerWeek, 64)
	if err != nil || f.hours < 35 || f.hours > 39 {
		return f, "Les heures hebdomadaires doivent être comprises entre 35 et 39."
	}
	f.quota, err = strconv.ParseFloat(f.Quota, 64)
	if err != nil || f.quota < 0.5 || f.quota > 1.0 {
		return f, "La quotité doit être comprise entre 0,5 et 1."
	}
	if f.Basis != string(store.BasisFiveDay) && f.Basis != string(store.BasisSixDay) {
		return f, "Base de décompte inconnue."
	}
	return f, ""
}

func (h *Handlers) renderCycleForm(w http.ResponseWriter, r *http.Request, status int, f cycleForm) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, status, "Cycle de travail", u, nil,
		pages.CycleFormPage("Cycle de travail", f.CycleForm))
}

// CyclePage shows the cycle form, pre-filled from the stored cycle when
// one exists for the year.
func (h *Handlers) CyclePage(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	year := queryYear(r)

	f := cycleForm{CycleForm: pages.CycleForm{
		Year:         year,
		HoursPerWeek: "35",
		Quota:        "1",
		Basis:        string(store.BasisFiveDay),
		Action:       r.URL.Path,
	}}
	cycle, err := h.Store.WorkCycleForYear(r.Context(), u.ID, year)
	switch {
	case err == nil:
		f.HoursPerWeek = strconv.FormatFloat(cycle.HoursPerWeek, 'f', -1, 64)
		f.Quota = strconv.FormatFloat(cycle.Quota, 'f', -1, 64)
		f.Basis = string(cycle.Basis)
	case !errors.Is(err, store.ErrNotFound):
		h.Logger.Error("failed to load work cycle", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	h.renderCycleForm(w, r, http.StatusOK, f)
}

// CycleSave creates or updates the cycle for the submitted year. The
// RTT and annual entitlements are derived here, at save time.
func (h *Handlers) CycleSave(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	f, msg := parseCycleForm(r, r.URL.Path)
	if msg != "" {
		f.Error = msg
		h.renderCycleForm(w, r, http.StatusUnprocessableEntity, f)
		return
	}

	ctx := r.Context()
	cycle, err := h.Store.WorkCycleForYear(ctx, u.ID, f.Year)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.Logger.Error("failed to load work cycle", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if cycle == nil {
		cycle = &store.WorkCycle{UserID: u.ID, Year: f.Year}
	}

	cycle.HoursPerWeek = f.hours
	cycle.Quota = f.quota
	cycle.Basis = store.DayBasis(f.Basis)
	cycle.RTTDays = leave.RTTDays(f.hours, f.quota)
	cycle.AnnualHalfDays = leave.AnnualHalfDays(f.quota)

	if cycle.ID == 0 {
		err = h.Store.CreateWorkCycle(ctx, cycle)
	} else {
		err = h.Store.UpdateWorkCycle(ctx, cycle)
	}
	if err != nil {
		h.Logger.Error("failed to save work cycle", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("work cycle saved", "user_id", u.ID, "year", cycle.Year,
		"hours", cycle.HoursPerWeek, "rtt_days", cycle.RTTDays)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Cycle de travail enregistré.")
	http.Redirect(w, r, "/leave?year="+strconv.Itoa(cycle.Year), http.StatusSeeOther)
}

const dateLayout = "2006-01-02"

type periodForm struct {
	pages.PeriodForm

	start time.Time
	end   time.Time
}

func validHalf(v string) bool {
	return v == string(store.Morning) || v == string(store.Afternoon)
}

func validKind(v string) bool {
	switch store.LeaveKind(v) {
	case store.LeaveAnnual, store.LeaveRTT, store.LeaveASA, store.LeaveSick, store.LeaveOther:
		return true
	}
	return false
}

func parsePeriodForm(r *http.Request, action string) (periodForm, string) {
	f := periodForm{PeriodForm: pages.PeriodForm{
		Start:     r.FormValue("start"),
		StartHalf: r.FormValue("start_half"),
		End:       r.FormValue("end"),
		EndHalf:   r.FormValue("end_half"),
		Kind:      r.FormValue("kind"),
		Action:    action,
	}}
	var err error
	f.start, err = time.ParseInLocation(dateLayout, f.Start, time.UTC)
	if err != nil {
		return f, "La date de début est invalide."
	}
	f.end, err = time.ParseInLocation(dateLayout, f.End, time.UTC)
	if err != nil {
		return f, "La date de fin est invalide."
	}
	if f.end.Before(f.start) {
		return f, "La fin doit être postérieure ou égale au début."
	}
	if !validHalf(f.StartHalf) || !validHalf(f.EndHalf) {
		return f, "Demi-journée inconnue."
	}
	if !validKind(f.Kind) {
		return f, "Type de congé inconnu."
	}
	return f, ""
}

func (h *Handlers) renderPeriodForm(w http.ResponseWriter, r *http.Request, status int, title string, f periodForm) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, status, title, u, nil, pages.PeriodFormPage(title, f.PeriodForm))
}

// PeriodNewPage shows the period creation form.
func (h *Handlers) PeriodNewPage(w http.ResponseWriter, r *http.Request) {
	h.renderPeriodForm(w, r, http.StatusOK, "Nouvelle période", periodForm{PeriodForm: pages.PeriodForm{
		StartHalf: string(store.Morning),
		EndHalf:   string(store.Afternoon),
		Kind:      string(store.LeaveAnnual),
		Action:    "/leave/periods/new",
	}})
}

// savePeriod fills the computed fields and persists the period. The
// year is the start year; the consumed half days use the counting basis
// in force for that year.
func (h *Handlers) savePeriod(ctx context.Context, u *store.User, p *store.LeavePeriod, f periodForm) error {
	p.Start = f.start
	p.StartHalf = store.HalfDay(f.StartHalf)
	p.End = f.end
	p.EndHalf = store.HalfDay(f.EndHalf)
	p.Kind = store.LeaveKind(f.Kind)
	p.Year = f.start.Year()

	basis, err := h.Store.YearBasis(ctx, u.ID, p.Year)
	if err != nil {
		return err
	}
	p.HalfDays = leave.PeriodHalfDays(p, basis)

	if p.ID == 0 {
		return h.Store.CreateLeavePeriod(ctx, p)
	}
	return h.Store.UpdateLeavePeriod(ctx, p)
}

// PeriodCreate inserts a period.
func (h *Handlers) PeriodCreate(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	f, msg := parsePeriodForm(r, "/leave/periods/new")
	if msg != "" {
		f.Error = msg
		h.renderPeriodForm(w, r, http.StatusUnprocessableEntity, "Nouvelle période", f)
		return
	}

	p := &store.LeavePeriod{UserID: u.ID}
	if err := h.savePeriod(r.Context(), u, p, f); err != nil {
		h.Logger.Error("failed to create leave period", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Période enregistrée.")
	http.Redirect(w, r, "/leave?year="+strconv.Itoa(p.Year), http.StatusSeeOther)
}

// periodFromPath loads a period and checks it belongs to the signed-in
// user. Someone else's period reads as not found.
func (h *Handlers) periodFromPath(w http.ResponseWriter, r *http.Request) (*store.LeavePeriod, bool) {
	u := session.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ui.Error(w, r, http.StatusNotFound, u, "Période introuvable.")
		return nil, false
	}
	p, err := h.Store.GetLeavePeriod(r.Context(), id)
	if err == nil && p.UserID != u.ID {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Période introuvable.")
		} else {
			h.Logger.Error("failed to get leave period", "period_id", id, "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		}
		return nil, false
	}
	return p, true
}

// PeriodEditPage shows the pre-filled edit form.
func (h *Handlers) PeriodEditPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.periodFromPath(w, r)
	if !ok {
		return
	}
	h.renderPeriodForm(w, r, http.StatusOK, "Modifier la période", periodForm{PeriodForm: pages.PeriodForm{
		Start:     p.Start.Format(dateLayout),
		StartHalf: string(p.StartHalf),
		End:       p.End.Format(dateLayout),
		EndHalf:   string(p.EndHalf),
		Kind:      string(p.Kind),
		Action:    "/leave/periods/" + strconv.FormatInt(p.ID, 10) + "/edit",
	}})
}

// PeriodUpdate saves the edit form.
func (h *Handlers) PeriodUpdate(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	p, ok := h.periodFromPath(w, r)
	if !ok {
		return
	}
	action := "/leave/periods/" + strconv.FormatInt(p.ID, 10) + "/edit"
	f, msg := parsePeriodForm(r, action)
	if msg != "" {
		f.Error = msg
		h.renderPeriodForm(w, r, http.StatusUnprocessableEntity, "Modifier la période", f)
		return
	}

	if err := h.savePeriod(r.Context(), u, p, f); err != nil {
		h.Logger.Error("failed to update leave period", "period_id", p.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Période mise à jour.")
	http.Redirect(w, r, "/leave?year="+strconv.Itoa(p.Year), http.StatusSeeOther)
}

// PeriodDelete removes a period.
func (h *Handlers) PeriodDelete(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	p, ok := h.periodFromPath(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteLeavePeriod(r.Context(), p.ID); err != nil {
		h.Logger.Error("failed to delete leave period", "period_id", p.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Période supprimée.")
	http.Redirect(w, r, "/leave?year="+strconv.Itoa(p.Year), http.StatusSeeOther)
}
