package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/beffroi/beffroi/internal/store"
)

type ctxKey int

const userKey ctxKey = 0

// UserFromContext returns the signed-in user attached by LoadUser, or nil.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userKey).(*store.User)
	return u
}

// ContextWithUser attaches a user, mainly for handler tests.
func ContextWithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Middleware carries the dependencies of the auth middleware chain.
// ErrorPage renders the shared error page; it is a function field to
// keep the import pointing one way.
type Middleware struct {
	Sessions  *Manager
	Store     *store.Store
	ErrorPage func(w http.ResponseWriter, r *http.Request, status int, user *store.User, message string)
	Logger    *slog.Logger
}

// LoadUser resolves the session cookie into a user on the request
// context. A stale cookie (deleted or deactivated account) is dropped.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.Sessions.UserID(r)
		if id == 0 {
			next.ServeHTTP(w, r)
			return
		}

		u, err := m.Store.GetUser(r.Context(), id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				m.Logger.Error("failed to load session user", "user_id", id, "error", err)
			}
			_ = m.Sessions.Clear(w, r)
			next.ServeHTTP(w, r)
			return
		}
		if !u.Active {
			_ = m.Sessions.Clear(w, r)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
	})
}

// RequireUser redirects anonymous requests to the login page, keeping the
// original URL for after sign-in.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser rejects non-administrators with a 403. Administration
// pages are superuser-only across the board.
func (m *Middleware) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		if !u.Superuser {
			m.ErrorPage(w, r, http.StatusForbidden, u, "Accès réservé aux administrateurs.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
