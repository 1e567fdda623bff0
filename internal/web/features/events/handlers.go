// Package events implements the event pages: calendar, listing,
// lifecycle, the two-track approval circuit, attachments and statistics.
package events

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/events/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// TimelineLimit caps the chronology page.
const TimelineLimit = 200

// statsTTL is how long the statistics page may lag behind the data.
const statsTTL = 10 * time.Minute

// Role levels allowed to decide each approval track. Superusers always
// may.
const (
	deputyMinLevel   = 2
	directorMinLevel = 3
)

// Handlers carries the dependencies of the event pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger

	// UploadsDir is where attachment files live.
	UploadsDir string

	stats *expirable.LRU[int, *store.EventStats]
}

func NewHandlers(st *store.Store, sm *session.Manager,
	uploadsDir string, logger *slog.Logger) *Handlers {
	return &Handlers{
		Store:      st,
		Sessions:   sm,
		UploadsDir: uploadsDir,
		Logger:     logger,
		stats:      expirable.NewLRU[int, *store.EventStats](4, nil, statsTTL),
	}
}

// Routes returns the event routes, mounted under /events for signed-in
// users.
func Routes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/mine", h.Mine)
	r.Get("/calendar", h.Calendar)
	r.Get("/timeline", h.Timeline)
	r.Get("/stats", h.Stats)
	r.Get("/new", h.NewPage)
	r.Post("/new", h.Create)
	r.Get("/{id}", h.Detail)
	r.Get("/{id}/edit", h.EditPage)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
	r.Post("/{id}/decide", h.Decide)
	r.Post("/{id}/attachments", h.Upload)
	r.Get("/{id}/attachments/{att}", h.Download)
	r.Post("/{id}/attachments/{att}/delete", h.DeleteAttachment)
	return r
}

// canEdit reports whether a user may modify an event.
func canEdit(u *store.User, e *store.Event) bool {
	return u.Superuser || e.CreatorID == u.ID
}

// canDecide reports whether a user may decide a track, from their role
// level.
func canDecide(u *store.User, track store.ApprovalTrack) bool {
	if u.Superuser {
		return true
	}
	if u.Role == nil {
		return false
	}
	switch track {
	case store.TrackDeputy:
		return u.Role.Level >= deputyMinLevel
	case store.TrackDirector:
		return u.Role.Level >= directorMinLevel
	}
	return false
}

// List shows upcoming events, optionally narrowed to one sector
// through ?sector=.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	from := time.Now().AddDate(0, 0, -1)
	filter := store.EventFilter{From: &from}
	filter.SectorID, _ = strconv.ParseInt(r.URL.Query().Get("sector"), 10, 64)

	events, err := h.Store.ListEvents(r.Context(), filter)
	if err != nil {
		h.Logger.Error("failed to list events", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	sectors, err := h.Store.ListSectors(r.Context())
	if err != nil {
		h.Logger.Error("failed to list sectors", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	ui.Page(w, r, http.StatusOK, "Événements à venir", u, h.Sessions.Flashes(w, r),
		pages.List("Événements à venir", events, sectors, filter.SectorID))
}

// Mine shows the signed-in user's events, past included.
func (h *Handlers) Mine(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	events, err := h.Store.ListEvents(r.Context(), store.EventFilter{CreatorID: u.ID})
	if err != nil {
		h.Logger.Error("failed to list events", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	ui.Page(w, r, http.StatusOK, "Mes événements", u, h.Sessions.Flashes(w, r),
		pages.List("Mes événements", events, nil, 0))
}

// Calendar shows one month of events, colored by sector.
func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())

	now := time.Now()
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	prev := first.AddDate(0, -1, 0)

	events, err := h.Store.EventsBetween(r.Context(), first, next)
	if err != nil {
		h.Logger.Error("failed to load calendar", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	ui.Page(w, r, http.StatusOK, "Calendrier", u, nil,
		pages.Calendar(monthLabel(first), prev.Year(), int(prev.Month()),
			next.Year(), int(next.Month()), events))
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func monthLabel(t time.Time) string {
	return frenchMonths[int(t.Month())-1] + " " + strconv.Itoa(t.Year())
}

// Timeline shows the next events, capped at TimelineLimit.
func (h *Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	events, err := h.Store.Timeline(r.Context(), time.Now(), TimelineLimit)
	if err != nil {
		h.Logger.Error("failed to load timeline", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	ui.Page(w, r, http.StatusOK, "Chronologie", u, nil, pages.Timeline(events))
}

// Stats shows the aggregate page. Figures are cached for ten minutes.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	year := time.Now().Year()

	st, ok := h.stats.Get(year)
	if !ok {
		var err error
		st, err = h.Store.Stats(r.Context(), year)
		if err != nil {
			h.Logger.Error("failed to compute stats", "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
			return
		}
		h.stats.Add(year, st)
	}

	ui.Page(w, r, http.StatusOK, "Statistiques", u, nil,
		pages.Stats(year, st, frenchMonths[:]))
}

func (h *Handlers) eventFromPath(w http.ResponseWriter, r *http.Request) (*store.Event, bool) {
	u := session.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ui.Error(w, r, http.StatusNotFound, u, "Événement introuvable.")
		return nil, false
	}
	e, err := h.Store.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Événement introuvable.")
		} else {
			h.Logger.Error("failed to get event", "event_id", id, "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		}
		return nil, false
	}
	return e, true
}

// Detail shows one event with its approvals and attachments.
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}

	atts, err := h.Store.Attachments(r.Context(), e.ID)
	if err != nil {
		h.Logger.Error("failed to list attachments", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	ui.Page(w, r, http.StatusOK, e.Title, u, h.Sessions.Flashes(w, r),
		pages.Detail(e, atts, canEdit(u, e),
			e.Deputy.Requested && e.Deputy.Status == store.ApprovalPending && canDecide(u, store.TrackDeputy),
			e.Director.Requested && e.Director.Status == store.ApprovalPending && canDecide(u, store.TrackDirector)))
}

// Delete removes an event and its attachment files.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(u, e) {
		ui.Error(w, r, http.StatusForbidden, u, "Seul l'auteur ou un administrateur peut supprimer cet événement.")
		return
	}

	atts, err := h.Store.Attachments(r.Context(), e.ID)
	if err != nil {
		h.Logger.Error("failed to list attachments", "event_id", e.ID, "error", err)
	}
	if err := h.Store.DeleteEvent(r.Context(), e.ID); err != nil {
		h.Logger.Error("failed to delete event", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	h.removeFiles(atts)

	h.Logger.Info("event deleted", "event_id", e.ID, "by", u.ID)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Événement supprimé.")
	http.Redirect(w, r, "/events", http.StatusSeeOther)
}

// Decide records an approval decision on one track.
func (h *Handlers) Decide(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}

	track := store.ApprovalTrack(r.FormValue("track"))
	if track != store.TrackDeputy && track != store.TrackDirector {
		ui.Error(w, r, http.StatusUnprocessableEntity, u, "Circuit de validation inconnu.")
		return
	}
	if !canDecide(u, track) {
		h.Logger.Warn("decision refused", "event_id", e.ID, "user_id", u.ID, "track", track)
		ui.Error(w, r, http.StatusForbidden, u, "Votre rôle ne permet pas de valider ce circuit.")
		return
	}

	var status store.ApprovalStatus
	switch r.FormValue("decision") {
	case "approved":
		status = store.ApprovalApproved
	case "refused":
		status = store.ApprovalRefused
	default:
		ui.Error(w, r, http.StatusUnprocessableEntity, u, "Décision inconnue.")
		return
	}

	err := h.Store.Decide(r.Context(), e.ID, track, status, u.ID, r.FormValue("comment"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusUnprocessableEntity, u, "Ce circuit n'a pas été demandé pour cet événement.")
			return
		}
		h.Logger.Error("failed to record decision", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("event decision", "event_id", e.ID, "track", track, "status", status, "by", u.ID)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Décision enregistrée.")
	http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
}
