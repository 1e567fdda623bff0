package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/testutil"
	"github.com/beffroi/beffroi/internal/web/features"
)

func newHandlers(t *testing.T) (*features.TestFixture, *Handlers) {
	t.Helper()
	f := features.NewTestFixture(t)
	h := NewHandlers(f.Store, f.Sessions, testutil.NewTestLogger(t))
	return f, h
}

func TestHomeAnonymous(t *testing.T) {
	_, h := newHandlers(t)

	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Connectez-vous")
}

func TestHomeSignedInCountsUpcoming(t *testing.T) {
	f, h := newHandlers(t)
	u := f.CreateUser(t, "agent@mairie.fr", false)

	past := &store.Event{Title: "Passé", StartsAt: time.Now().AddDate(0, 0, -7), Timezone: "Europe/Paris", CreatorID: u.ID}
	future := &store.Event{Title: "Futur", StartsAt: time.Now().AddDate(0, 0, 7), Timezone: "Europe/Paris", CreatorID: u.ID}
	require.NoError(t, f.Store.CreateEvent(context.Background(), past, nil))
	require.NoError(t, f.Store.CreateEvent(context.Background(), future, nil))

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/", nil), u)
	rec := httptest.NewRecorder()
	h.Home(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Bonjour")
	assert.Contains(t, body, "(1)")
}

func TestOverview(t *testing.T) {
	f, h := newHandlers(t)
	admin := f.CreateUser(t, "admin@mairie.fr", true)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/dashboard", nil), admin)
	rec := httptest.NewRecorder()
	h.Overview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Utilisateurs")
	assert.Contains(t, body, "Secteurs")
	assert.Contains(t, body, "Validations en attente")
}
