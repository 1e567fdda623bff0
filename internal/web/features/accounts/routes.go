package accounts

import (
	"github.com/go-chi/chi/v5"

	"github.com/beffroi/beffroi/internal/web/session"
)

// PublicRoutes registers the routes reachable without a session onto r.
// They live at the root of the site, so they attach to the parent router
// instead of a mounted subrouter.
func PublicRoutes(r chi.Router, h *Handlers) {
	r.Get("/register", h.RegisterPage)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/verify", h.Verify)
	r.Get("/password/forgot", h.ForgotPage)
	r.Post("/password/forgot", h.Forgot)
	r.Get("/password/reset", h.ResetPage)
	r.Post("/password/reset", h.Reset)
}

// ProfileRoutes returns the signed-in profile pages.
func ProfileRoutes(h *Handlers, mw *session.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireUser)
	r.Get("/", h.Profile)
	r.Get("/edit", h.ProfileEditPage)
	r.Post("/edit", h.ProfileEdit)
	r.Get("/password", h.PasswordPage)
	r.Post("/password", h.PasswordChange)
	r.Get("/notifications", h.NotificationsPage)
	r.Post("/notifications", h.Notifications)
	return r
}
