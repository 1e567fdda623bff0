// Package features groups the page handlers and shares their test
// fixture.
package features

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/auth"
	"github.com/beffroi/beffroi/internal/mailer"
	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/testutil"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// TestSessionSecret signs session cookies in handler tests.
const TestSessionSecret = "test-secret-key-32-bytes-long!!!"

// TestPassword is the known password of fixture accounts.
const TestPassword = "motdepasse1"

// TestFixture bundles the dependencies a handler test needs.
type TestFixture struct {
	Store    *store.Store
	Sessions *session.Manager
	Mailer   *mailer.Recorder
	MW       *session.Middleware
}

// NewTestFixture builds a fixture over a migrated in-memory database.
func NewTestFixture(t *testing.T) *TestFixture {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	st, err := store.Open(store.DialectSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())

	sm := session.New(TestSessionSecret, 86400, false)

	f := &TestFixture{
		Store:    st,
		Sessions: sm,
		Mailer:   &mailer.Recorder{},
	}
	f.MW = &session.Middleware{Sessions: sm, Store: st, ErrorPage: ui.Error, Logger: logger}
	return f
}

// CreateUser inserts a verified, active account with TestPassword.
func (f *TestFixture) CreateUser(t *testing.T, email string, superuser bool) *store.User {
	t.Helper()
	hash, err := auth.HashPassword(TestPassword)
	require.NoError(t, err)

	u := &store.User{
		Email:         email,
		PasswordHash:  hash,
		Active:        true,
		Superuser:     superuser,
		EmailVerified: true,
	}
	require.NoError(t, f.Store.CreateUser(context.Background(), u))
	return u
}

// AsUser attaches a signed-in user to a request, bypassing the cookie
// round trip.
func AsUser(r *http.Request, u *store.User) *http.Request {
	return r.WithContext(session.ContextWithUser(r.Context(), u))
}

// WithPathParam attaches a chi URL parameter to a request for handlers
// called outside a router.
func WithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
