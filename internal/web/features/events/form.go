package events

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/events/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// dtLocalLayout matches the datetime-local input format.
const dtLocalLayout = "2006-01-02T15:04"

const dateLayout = "2006-01-02"

// form carries the event form fields plus the parsed times.
type form struct {
	pages.Form

	startsAt  time.Time
	endsAt    *time.Time
	publishBy *time.Time
}

func emptyForm(action string) form {
	return form{Form: pages.Form{
		Timezone:  "Europe/Paris",
		Selected:  map[int64]bool{},
		Timezones: store.EventTimezones,
		Action:    action,
	}}
}

// stripTags flattens free-text input to plain text. Markup pasted into
// the description or venue fields is reduced to its text content;
// script and style bodies are dropped entirely.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	var b strings.Builder
	var skip bool
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			skip = string(name) == "script" || string(name) == "style"
		case html.EndTagToken:
			skip = false
		case html.TextToken:
			if !skip {
				b.Write(z.Text())
			}
		}
	}
}

// formFromEvent pre-fills the form from a stored event for editing.
func formFromEvent(e *store.Event, action string) form {
	f := emptyForm(action)
	f.Title = e.Title
	f.Description = e.Description
	f.Venue = e.Venue
	if e.Address != nil {
		f.Street = e.Address.Street
		f.City = e.Address.City
		f.PostalCode = e.Address.PostalCode
		f.Country = e.Address.Country
		f.Extra = e.Address.Extra
	}
	f.StartsAt = e.StartsAt.Format(dtLocalLayout)
	if e.EndsAt != nil {
		f.EndsAt = e.EndsAt.Format(dtLocalLayout)
	}
	if e.Timezone != "" {
		f.Timezone = e.Timezone
	}
	if e.PublishBy != nil {
		f.PublishBy = e.PublishBy.Format(dateLayout)
	}
	for _, s := range e.Sectors {
		f.SectorIDs = append(f.SectorIDs, s.ID)
		f.Selected[s.ID] = true
	}
	f.DeputyRequested = e.Deputy.Requested
	f.DirectorRequested = e.Director.Requested
	return f
}

// parseForm validates a submission. Times are interpreted in the chosen
// timezone; the address is kept only when at least one field is filled.
func parseForm(r *http.Request, action string) (form, string) {
	f := emptyForm(action)
	if err := r.ParseForm(); err != nil {
		return f, "Formulaire invalide."
	}

	f.Title = strings.TrimSpace(r.FormValue("title"))
	f.Description = stripTags(strings.TrimSpace(r.FormValue("description")))
	f.Venue = stripTags(strings.TrimSpace(r.FormValue("venue")))
	f.Street = strings.TrimSpace(r.FormValue("street"))
	f.City = strings.TrimSpace(r.FormValue("city"))
	f.PostalCode = strings.TrimSpace(r.FormValue("postal_code"))
	f.Country = strings.TrimSpace(r.FormValue("country"))
	f.Extra = strings.TrimSpace(r.FormValue("extra"))
	f.StartsAt = r.FormValue("starts_at")
	f.EndsAt = r.FormValue("ends_at")
	f.Timezone = r.FormValue("timezone")
	f.PublishBy = r.FormValue("publish_by")
	f.DeputyRequested = r.FormValue("deputy_requested") != ""
	f.DirectorRequested = r.FormValue("director_requested") != ""

	for _, raw := range r.PostForm["sector_ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, "Secteur invalide."
		}
		f.SectorIDs = append(f.SectorIDs, id)
		f.Selected[id] = true
	}

	if n := utf8.RuneCountInString(f.Title); n < 2 || n > 200 {
		return f, "Le titre doit faire entre 2 et 200 caractères."
	}
	if !slices.Contains(store.EventTimezones, f.Timezone) {
		return f, "Fuseau horaire inconnu."
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return f, "Fuseau horaire inconnu."
	}

	f.startsAt, err = time.ParseInLocation(dtLocalLayout, f.StartsAt, loc)
	if err != nil {
		return f, "La date de début est invalide."
	}
	if f.EndsAt != "" {
		end, err := time.ParseInLocation(dtLocalLayout, f.EndsAt, loc)
		if err != nil {
			return f, "La date de fin est invalide."
		}
		if end.Before(f.startsAt) {
			return f, "La fin doit être postérieure au début."
		}
		f.endsAt = &end
	}
	if f.PublishBy != "" {
		d, err := time.ParseInLocation(dateLayout, f.PublishBy, time.UTC)
		if err != nil {
			return f, "La date limite de publication est invalide."
		}
		f.publishBy = &d
	}
	return f, ""
}

// address returns the form's address, or nil when every field is empty.
func (f form) address() *store.Address {
	if f.Street == "" && f.City == "" && f.PostalCode == "" && f.Extra == "" {
		return nil
	}
	return &store.Address{
		Street:     f.Street,
		City:       f.City,
		PostalCode: f.PostalCode,
		Country:    f.Country,
		Extra:      f.Extra,
	}
}

// applyTrack updates one approval track from its requested checkbox.
// Unticking resets the track; ticking a fresh track puts it in the
// pending state without disturbing an existing decision.
func applyTrack(a store.Approval, requested bool) store.Approval {
	if !requested {
		return store.Approval{Status: store.ApprovalNotRequested}
	}
	a.Requested = true
	if a.Status == store.ApprovalNotRequested || a.Status == "" {
		a.Status = store.ApprovalPending
	}
	return a
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, f form) {
	u := session.UserFromContext(r.Context())
	if f.Sectors == nil {
		sectors, err := h.Store.ListSectors(r.Context())
		if err != nil {
			h.Logger.Error("failed to list sectors", "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
			return
		}
		f.Sectors = sectors
	}
	ui.Page(w, r, status, title, u, nil, pages.FormPage(title, f.Form))
}

// NewPage shows the creation form.
func (h *Handlers) NewPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Nouvel événement", emptyForm("/events/new"))
}

// Create inserts an event from the form.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	f, msg := parseForm(r, "/events/new")
	if msg != "" {
		f.Error = msg
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Nouvel événement", f)
		return
	}

	e := &store.Event{
		Title:       f.Title,
		Description: f.Description,
		Venue:       f.Venue,
		Address:     f.address(),
		StartsAt:    f.startsAt,
		EndsAt:      f.endsAt,
		Timezone:    f.Timezone,
		PublishBy:   f.publishBy,
		CreatorID:   u.ID,
		Deputy:      applyTrack(store.Approval{}, f.DeputyRequested),
		Director:    applyTrack(store.Approval{}, f.DirectorRequested),
	}
	if err := h.Store.CreateEvent(r.Context(), e, f.SectorIDs); err != nil {
		h.Logger.Error("failed to create event", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("event created", "event_id", e.ID, "by", u.ID)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Événement créé.")
	http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
}

// EditPage shows the pre-filled edit form.
func (h *Handlers) EditPage(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(u, e) {
		ui.Error(w, r, http.StatusForbidden, u, "Seul l'auteur ou un administrateur peut modifier cet événement.")
		return
	}
	action := "/events/" + strconv.FormatInt(e.ID, 10) + "/edit"
	h.renderForm(w, r, http.StatusOK, "Modifier l'événement", formFromEvent(e, action))
}

// Update saves the edit form.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	e, ok := h.eventFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(u, e) {
		ui.Error(w, r, http.StatusForbidden, u, "Seul l'auteur ou un administrateur peut modifier cet événement.")
		return
	}

	action := "/events/" + strconv.FormatInt(e.ID, 10) + "/edit"
	f, msg := parseForm(r, action)
	if msg != "" {
		f.Error = msg
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Modifier l'événement", f)
		return
	}

	e.Title = f.Title
	e.Description = f.Description
	e.Venue = f.Venue
	e.Address = f.address()
	e.StartsAt = f.startsAt
	e.EndsAt = f.endsAt
	e.Timezone = f.Timezone
	e.PublishBy = f.publishBy
	e.Deputy = applyTrack(e.Deputy, f.DeputyRequested)
	e.Director = applyTrack(e.Director, f.DirectorRequested)

	if err := h.Store.UpdateEvent(r.Context(), e, f.SectorIDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Événement introuvable.")
			return
		}
		h.Logger.Error("failed to update event", "event_id", e.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Événement mis à jour.")
	http.Redirect(w, r, "/events/"+strconv.FormatInt(e.ID, 10), http.StatusSeeOther)
}
