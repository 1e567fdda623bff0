// Package users implements the back-office account pages: the paginated
// directory and the per-account assignment form (flags, role, sectors).
package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/beffroi/beffroi/internal/store"
	adminpages "github.com/beffroi/beffroi/internal/web/features/users/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// PageSize is the directory page length.
const PageSize = 25

// Handlers carries the dependencies of the account administration pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewHandlers(st *store.Store, sm *session.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{Store: st, Sessions: sm, Logger: logger}
}

// Routes returns the superuser-only account routes, mounted under
// /admin/users.
func Routes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}/edit", h.EditPage)
	r.Post("/{id}/edit", h.Update)
	return r
}

// List shows a page of the account directory.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	total, err := h.Store.CountUsers(r.Context())
	if err != nil {
		h.Logger.Error("failed to count users", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	pages := (total + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}

	list, err := h.Store.ListUsers(r.Context(), PageSize, (page-1)*PageSize)
	if err != nil {
		h.Logger.Error("failed to list users", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	ui.Page(w, r, http.StatusOK, "Utilisateurs", u, h.Sessions.Flashes(w, r),
		adminpages.List(list, page, pages))
}

func (h *Handlers) targetFromPath(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	u := session.UserFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ui.Error(w, r, http.StatusNotFound, u, "Utilisateur introuvable.")
		return nil, false
	}
	target, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ui.Error(w, r, http.StatusNotFound, u, "Utilisateur introuvable.")
		} else {
			h.Logger.Error("failed to get user", "target_id", id, "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		}
		return nil, false
	}
	return target, true
}

// EditPage shows the assignment form for one account.
func (h *Handlers) EditPage(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	target, ok := h.targetFromPath(w, r)
	if !ok {
		return
	}

	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		h.Logger.Error("failed to list roles", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	sectors, err := h.Store.ListSectors(r.Context())
	if err != nil {
		h.Logger.Error("failed to list sectors", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	member := make(map[int64]bool, len(target.Sectors))
	for _, s := range target.Sectors {
		member[s.ID] = true
	}

	ui.Page(w, r, http.StatusOK, target.FullName(), u, nil,
		adminpages.Edit(target, roles, sectors, member))
}

// Update applies the assignment form: account flags, role, sector
// memberships. An administrator cannot lock or demote their own account.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	target, ok := h.targetFromPath(w, r)
	if !ok {
		return
	}

	active := r.FormValue("active") != ""
	superuser := r.FormValue("superuser") != ""
	if target.ID == u.ID && (!active || !superuser) {
		h.Sessions.AddFlash(w, r, session.FlashError,
			"Vous ne pouvez pas désactiver ou rétrograder votre propre compte.")
		http.Redirect(w, r, "/admin/users/"+strconv.FormatInt(target.ID, 10)+"/edit", http.StatusSeeOther)
		return
	}

	var roleID *int64
	if raw := r.FormValue("role_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ui.Error(w, r, http.StatusUnprocessableEntity, u, "Rôle invalide.")
			return
		}
		roleID = &id
	}

	if err := r.ParseForm(); err != nil {
		ui.Error(w, r, http.StatusUnprocessableEntity, u, "Formulaire invalide.")
		return
	}
	var sectorIDs []int64
	for _, raw := range r.PostForm["sector_ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ui.Error(w, r, http.StatusUnprocessableEntity, u, "Secteur invalide.")
			return
		}
		sectorIDs = append(sectorIDs, id)
	}

	ctx := r.Context()
	if err := h.Store.SetActive(ctx, target.ID, active); err != nil {
		h.Logger.Error("failed to set active flag", "target_id", target.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if err := h.Store.SetSuperuser(ctx, target.ID, superuser); err != nil {
		h.Logger.Error("failed to set superuser flag", "target_id", target.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if err := h.Store.SetUserRole(ctx, target.ID, roleID); err != nil {
		h.Logger.Error("failed to set role", "target_id", target.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if err := h.Store.SetUserSectors(ctx, target.ID, sectorIDs); err != nil {
		h.Logger.Error("failed to set sectors", "target_id", target.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("account updated", "target_id", target.ID, "by", u.ID,
		"active", active, "superuser", superuser)
	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Compte mis à jour.")
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
