// Package sectors implements the sector administration pages.
package sectors

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/sectors/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Handlers carries the dependencies of the sector pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewHandlers(st *store.Store, sm *session.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{Store: st, Sessions: sm, Logger: logger}
}

// Routes returns the superuser-only sector routes, mounted under
// /admin/sectors.
func Routes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/new", h.NewPage)
	r.Post("/new", h.Create)
	r.Get("/{id}/edit", h.EditPage)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
	return r
}

// List shows all sectors with their member counts.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	sectors, err := h.Store.ListSectors(r.Context())
	if err != nil {
		h.Logger.Error("failed to list sectors", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	ui.Page(w, r, http.StatusOK, "Secteurs", u, h.Sessions.Flashes(w, r), pages.List(sectors))
}

type form = pages.Form

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, f form) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, status, title, u, nil, pages.FormPage(title, f))
}

// parseForm validates the submitted fields. The color is normalized to
// uppercase #RRGGBB.
func parseForm(r *http.Request, action string) (form, string) {
	f := form{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Color:  strings.TrimSpace(r.FormValue("color")),
		Action: action,
	}
	f.Position, _ = strconv.Atoi(r.FormValue("position"))

	if n := utf8.RuneCountInString(f.Name); n < 2 || n > 200 {
		return f, "Le nom doit faire entre 2 et 200 caractères."
	}
	if !colorPattern.MatchString(f.Color) {
		return f, "La couleur doit être au format #RRGGBB."
	}
	f.Color = strings.ToUpper(f.Color)
	return f, ""
}

// NewPage shows the creation form.
func (h *Handlers) NewPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Nouveau secteur", form{
		Color:  "#808080",
		Action: "/admin/sectors/new",
	})
}

// Create inserts a sector.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	f, msg := parseForm(r, "/admin/sectors/new")
	if msg != "" {
		f.Error = msg
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Nouveau secteur", f)
		return
	}

	sec := &store.Sector{Name: f.Name, Color: f.Color, Position: f.Position}
	if err := h.Store.CreateSector(r.Context(), sec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			f.Error = "Un secteur porte déjà ce nom."
			h.renderForm(w, r, http.StatusUnprocessableEntity, "Nouveau secteur", f)
			return
		}
		h.Logger.Error("failed to create sector", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, session.UserFromContext(r.Context()), "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("sector created", "sector_id", sec.ID, "name", sec.Name)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Secteur créé.")
	http.Redirect(w, r, "/admin/sectors", http.StatusSeeOther)
}

func (h *Handlers) sectorFromPath(w http.ResponseWriter, r *http.Request) (*store.Sector, bool) {
	u := session.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ui.Error(w, r, http.StatusNotFound, u, "Secteur introuvable.")
		return nil, false
	}
	sec, err := h.Store.GetSector(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Secteur introuvable.")
		} else {
			h.Logger.Error("failed to get sector", "sector_id", id, "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		}
		return nil, false
	}
	return sec, true
}

// EditPage shows the edit form.
func (h *Handlers) EditPage(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.sectorFromPath(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, "Modifier le secteur", form{
		Name:     sec.Name,
		Color:    sec.Color,
		Position: sec.Position,
		Action:   "/admin/sectors/" + strconv.FormatInt(sec.ID, 10) + "/edit",
	})
}

// Update saves the edit form.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.sectorFromPath(w, r)
	if !ok {
		return
	}
	action := "/admin/sectors/" + strconv.FormatInt(sec.ID, 10) + "/edit"
	f, msg := parseForm(r, action)
	if msg != "" {
		f.Error = msg
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Modifier le secteur", f)
		return
	}

	sec.Name = f.Name
	sec.Color = f.Color
	sec.Position = f.Position
	if err := h.Store.UpdateSector(r.Context(), sec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			f.Error = "Un secteur porte déjà ce nom."
			h.renderForm(w, r, http.StatusUnprocessableEntity, "Modifier le secteur", f)
			return
		}
		h.Logger.Error("failed to update sector", "sector_id", sec.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, session.UserFromContext(r.Context()), "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Secteur mis à jour.")
	http.Redirect(w, r, "/admin/sectors", http.StatusSeeOther)
}

// Delete removes a sector and its memberships.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.sectorFromPath(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteSector(r.Context(), sec.ID); err != nil {
		h.Logger.Error("failed to delete sector", "sector_id", sec.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, session.UserFromContext(r.Context()), "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("sector deleted", "sector_id", sec.ID, "name", sec.Name)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Secteur supprimé.")
	http.Redirect(w, r, "/admin/sectors", http.StatusSeeOther)
}
