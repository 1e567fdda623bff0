// Package web assembles the HTTP surface: router, middleware chain and
// the server lifecycle.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/beffroi/beffroi/internal/config"
	"github.com/beffroi/beffroi/internal/mailer"
	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/accounts"
	"github.com/beffroi/beffroi/internal/web/features/dashboard"
	"github.com/beffroi/beffroi/internal/web/features/events"
	"github.com/beffroi/beffroi/internal/web/features/leaves"
	"github.com/beffroi/beffroi/internal/web/features/roles"
	"github.com/beffroi/beffroi/internal/web/features/sectors"
	"github.com/beffroi/beffroi/internal/web/features/users"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

//go:embed static
var staticFS embed.FS

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// NewRouter wires every feature behind the shared middleware chain.
func NewRouter(cfg *config.Config, st *store.Store,
	ml mailer.Mailer, logger *slog.Logger) chi.Router {

	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	sm := session.New(cfg.Session.Secret, cfg.Session.MaxAge, secure)
	mw := &session.Middleware{Sessions: sm, Store: st, ErrorPage: ui.Error, Logger: logger}

	ah := accounts.NewHandlers(st, sm, ml, cfg.Server.BaseURL, logger)
	dh := dashboard.NewHandlers(st, sm, logger)
	eh := events.NewHandlers(st, sm, cfg.Uploads.Dir, logger)
	lh := leaves.NewHandlers(st, sm, logger)
	sh := sectors.NewHandlers(st, sm, logger)
	rh := roles.NewHandlers(st, sm, logger)
	uh := users.NewHandlers(st, sm, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(mw.LoadUser)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		ui.Error(w, req, http.StatusNotFound, session.UserFromContext(req.Context()), "Page introuvable.")
	})

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", dh.Home)
	accounts.PublicRoutes(r, ah)
	r.Mount("/profile", accounts.ProfileRoutes(ah, mw))

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUser)
		r.Mount("/events", events.Routes(eh))
		r.Mount("/leave", leaves.Routes(lh))
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUser, mw.RequireSuperuser)
		r.Get("/dashboard", dh.Overview)
		r.Mount("/admin/sectors", sectors.Routes(sh))
		r.Mount("/admin/roles", roles.Routes(rh))
		r.Mount("/admin/users", users.Routes(uh))
	})

	return r
}
