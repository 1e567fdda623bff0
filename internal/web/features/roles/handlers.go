// Package roles implements the role administration pages and the
// level-availability probe used by the role form.
package roles

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/roles/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Handlers carries the dependencies of the role pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewHandlers(st *store.Store, sm *session.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{Store: st, Sessions: sm, Logger: logger}
}

// Routes returns the superuser-only role routes, mounted under
// /admin/roles.
func Routes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/new", h.NewPage)
	r.Post("/new", h.Create)
	r.Get("/{id}/edit", h.EditPage)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
	r.Get("/check-level", h.CheckLevel)
	return r
}

// List shows the role ladder with holder counts.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		h.Logger.Error("failed to list roles", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	ui.Page(w, r, http.StatusOK, "Rôles", u, h.Sessions.Flashes(w, r), pages.List(roles))
}

type form = pages.Form

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, title string, f form) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, status, title, u, nil, pages.FormPage(title, f))
}

func parseForm(r *http.Request, action string) (form, string) {
	f := form{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Action: action,
	}
	var err error
	f.Level, err = strconv.Atoi(r.FormValue("level"))
	if f.Name == "" {
		return f, "Le nom est obligatoire."
	}
	if err != nil || f.Level < 0 {
		return f, "Le niveau doit être un entier positif ou nul."
	}
	return f, ""
}

// NewPage shows the creation form.
func (h *Handlers) NewPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Nouveau rôle", form{Action: "/admin/roles/new"})
}

// Create inserts a role.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	f, msg := parseForm(r, "/admin/roles/new")
	if msg != "" {
		f.Error = msg
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Nouveau rôle", f)
		return
	}

	role := &store.Role{Name: f.Name, Level: f.Level}
	if err := h.Store.CreateRole(r.Context(), role); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			f.Error = "Nom ou niveau déjà utilisé par un autre rôle."
			h.renderForm(w, r, http.StatusUnprocessableEntity, "Nouveau rôle", f)
			return
		}
		h.Logger.Error("failed to create role", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, session.UserFromContext(r.Context()), "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("role created", "role_id", role.ID, "name", role.Name, "level", role.Level)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Rôle créé.")
	http.Redirect(w, r, "/admin/roles", http.StatusSeeOther)
}

func (h *Handlers) roleFromPath(w http.ResponseWriter, r *http.Request) (*store.Role, bool) {
	u := session.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ui.Error(w, r, http.StatusNotFound, u, "Rôle introuvable.")
		return nil, false
	}
	role, err := h.Store.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Rôle introuvable.")
		} else {
			h.Logger.Error("failed to get role", "role_id", id, "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		}
		return nil, false
	}
	return role, true
}

// EditPage shows the edit form.
func (h *Handlers) EditPage(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleFromPath(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, "Modifier le rôle", form{
		Name:   role.Name,
		Level:  role.Level,
		Action: "/admin/roles/" + strconv.FormatInt(role.ID, 10) + "/edit",
	})
}

// Update saves the edit form.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleFromPath(w, r)
	if !ok {
		return
	}
	action := "/admin/roles/" + strconv.FormatInt(role.ID, 10) + "/edit"
	f, msg := parseForm(r, action)
	if msg != "" {
		f.Error = msg
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Modifier le rôle", f)
		return
	}

	role.Name = f.Name
	role.Level = f.Level
	if err := h.Store.UpdateRole(r.Context(), role); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			f.Error = "Nom ou niveau déjà utilisé par un autre rôle."
			h.renderForm(w, r, http.StatusUnprocessableEntity, "Modifier le rôle", f)
			return
		}
		h.Logger.Error("failed to update role", "role_id", role.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, session.UserFromContext(r.Context()), "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Rôle mis à jour.")
	http.Redirect(w, r, "/admin/roles", http.StatusSeeOther)
}

// Delete removes a role; holders fall back to no role.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	role, ok := h.roleFromPath(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteRole(r.Context(), role.ID); err != nil {
		h.Logger.Error("failed to delete role", "role_id", role.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, session.UserFromContext(r.Context()), "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("role deleted", "role_id", role.ID, "name", role.Name)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Rôle supprimé.")
	http.Redirect(w, r, "/admin/roles", http.StatusSeeOther)
}

// CheckLevel answers the role form's availability probe as JSON:
// whether a level is free, and who holds it otherwise. The edited role
// itself is excluded through ?exclude=.
func (h *Handlers) CheckLevel(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.URL.Query().Get("level"))
	if err != nil || level < 0 {
		http.Error(w, `{"error":"invalid level"}`, http.StatusBadRequest)
		return
	}
	exclude, _ := strconv.ParseInt(r.URL.Query().Get("exclude"), 10, 64)

	resp := map[string]any{"available": true}
	holder, err := h.Store.RoleByLevel(r.Context(), level, exclude)
	switch {
	case err == nil:
		resp["available"] = false
		resp["held_by"] = holder.Name
	case !errors.Is(err, store.ErrNotFound):
		h.Logger.Error("level probe failed", "level", level, "error", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("failed to encode level probe response", "error", err)
	}
}
