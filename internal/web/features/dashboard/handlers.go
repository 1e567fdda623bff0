// Package dashboard implements the landing page and the superuser
// overview.
package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/dashboard/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Handlers carries the dependencies of the landing and overview pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Logger   *slog.Logger
}

func NewHandlers(st *store.Store, sm *session.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{Store: st, Sessions: sm, Logger: logger}
}

// Home shows the landing page. Signed-in users get their shortcuts and
// the upcoming event count.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())

	var upcoming int
	if u != nil {
		from := time.Now()
		var err error
		upcoming, err = h.Store.CountEvents(r.Context(), store.EventFilter{From: &from})
		if err != nil {
			h.Logger.Error("failed to count upcoming events", "error", err)
			ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
			return
		}
	}

	ui.Page(w, r, http.StatusOK, "Accueil", u, h.Sessions.Flashes(w, r),
		pages.Home(u, upcoming))
}

// Overview shows the superuser dashboard with entity counts.
func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	counts, err := h.Store.Counts(r.Context())
	if err != nil {
		h.Logger.Error("failed to load dashboard counts", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	ui.Page(w, r, http.StatusOK, "Administration", u, h.Sessions.Flashes(w, r),
		pages.Overview(counts))
}
