package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/config"
	"github.com/beffroi/beffroi/internal/mailer"
	"github.com/beffroi/beffroi/internal/testutil"
	"github.com/beffroi/beffroi/internal/web/features"
)

func newTestRouter(t *testing.T) (*features.TestFixture, http.Handler) {
	t.Helper()
	f := features.NewTestFixture(t)
	logger := testutil.NewTestLogger(t)

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8400
	cfg.Server.BaseURL = "http://intranet.example"
	cfg.Session.Secret = features.TestSessionSecret
	cfg.Session.MaxAge = 86400
	cfg.Uploads.Dir = t.TempDir()

	return f, NewRouter(cfg, f.Store, &mailer.Recorder{}, logger)
}

// signIn performs a login round trip and returns the session cookie.
func signIn(t *testing.T, router http.Handler, email string) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {email}, "password": {features.TestPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "beffroi_session" {
			return c
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func TestAnonymousRedirectedToLogin(t *testing.T) {
	_, router := newTestRouter(t)

	for _, path := range []string{"/events", "/leave", "/profile", "/dashboard", "/admin/sectors"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code, path)
		loc := rec.Header().Get("Location")
		assert.True(t, strings.HasPrefix(loc, "/login?next="), "%s redirected to %s", path, loc)
	}
}

func TestAdminPagesRequireSuperuser(t *testing.T) {
	f, router := newTestRouter(t)
	f.CreateUser(t, "agent@mairie.fr", false)
	cookie := signIn(t, router, "agent@mairie.fr")

	for _, path := range []string{"/dashboard", "/admin/sectors", "/admin/roles", "/admin/users"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestSuperuserReachesAdminPages(t *testing.T) {
	f, router := newTestRouter(t)
	f.CreateUser(t, "admin@mairie.fr", true)
	cookie := signIn(t, router, "admin@mairie.fr")

	for _, path := range []string{"/dashboard", "/admin/sectors", "/admin/roles", "/admin/users"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSignedInUserReachesEvents(t *testing.T) {
	f, router := newTestRouter(t)
	f.CreateUser(t, "agent@mairie.fr", false)
	cookie := signIn(t, router, "agent@mairie.fr")

	for _, path := range []string{"/", "/events", "/events/calendar", "/events/timeline", "/leave", "/profile"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStaticAssets(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestUnknownPathRendersErrorPage(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nulle-part", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page introuvable")
}

func TestLogoutClearsSession(t *testing.T) {
	f, router := newTestRouter(t)
	f.CreateUser(t, "agent@mairie.fr", false)
	cookie := signIn(t, router, "agent@mairie.fr")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	// The old cookie no longer opens protected pages.
	cleared := rec.Result().Cookies()
	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	for _, c := range cleared {
		if c.Name == "beffroi_session" {
			req.AddCookie(c)
		}
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
