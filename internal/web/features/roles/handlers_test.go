package roles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/testutil"
	"github.com/beffroi/beffroi/internal/web/features"
)

func newHandlers(t *testing.T) (*features.TestFixture, *Handlers, *store.User) {
	t.Helper()
	f := features.NewTestFixture(t)
	h := NewHandlers(f.Store, f.Sessions, testutil.NewTestLogger(t))
	admin := f.CreateUser(t, "admin@mairie.fr", true)
	return f, h, admin
}

func postForm(admin *store.User, path string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return features.AsUser(r, admin)
}

func TestCreateRole(t *testing.T) {
	f, h, admin := newHandlers(t)

	rec := httptest.NewRecorder()
	h.Create(rec, postForm(admin, "/admin/roles/new", url.Values{
		"name":  {"Chef de service"},
		"level": {"5"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	role, err := f.Store.RoleByLevel(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, "Chef de service", role.Name)
}

func TestCreateRoleDuplicateLevel(t *testing.T) {
	_, h, admin := newHandlers(t)

	// Level 0 is held by the seeded Agent role.
	rec := httptest.NewRecorder()
	h.Create(rec, postForm(admin, "/admin/roles/new", url.Values{
		"name":  {"Stagiaire"},
		"level": {"0"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "déjà utilisé")
}

func TestCreateRoleInvalidLevel(t *testing.T) {
	_, h, admin := newHandlers(t)

	for _, level := range []string{"", "abc", "-1"} {
		rec := httptest.NewRecorder()
		h.Create(rec, postForm(admin, "/admin/roles/new", url.Values{
			"name":  {"Role"},
			"level": {level},
		}))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestDeleteRoleClearsHolders(t *testing.T) {
	f, h, admin := newHandlers(t)
	ctx := context.Background()

	role, err := f.Store.RoleByLevel(ctx, 0, 0)
	require.NoError(t, err)
	holder := f.CreateUser(t, "agent@mairie.fr", false)
	require.NoError(t, f.Store.SetUserRole(ctx, holder.ID, &role.ID))

	id := strconv.FormatInt(role.ID, 10)
	req := postForm(admin, "/admin/roles/"+id+"/delete", url.Values{})
	rec := httptest.NewRecorder()
	h.Delete(rec, features.WithPathParam(req, "id", id))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := f.Store.GetUser(ctx, holder.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Role)
}

func TestCheckLevel(t *testing.T) {
	f, h, admin := newHandlers(t)

	// Seeded: Agent holds level 0.
	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/roles/check-level?level=0", nil), admin)
	rec := httptest.NewRecorder()
	h.CheckLevel(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["available"])
	assert.Equal(t, "Agent", resp["held_by"])

	// A free level.
	req = features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/roles/check-level?level=9", nil), admin)
	rec = httptest.NewRecorder()
	h.CheckLevel(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["available"])

	// The edited role excludes itself.
	agent, err := f.Store.RoleByLevel(context.Background(), 0, 0)
	require.NoError(t, err)
	req = features.AsUser(httptest.NewRequest(http.MethodGet,
		"/admin/roles/check-level?level=0&exclude="+strconv.FormatInt(agent.ID, 10), nil), admin)
	rec = httptest.NewRecorder()
	h.CheckLevel(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["available"])
}

func TestCheckLevelBadInput(t *testing.T) {
	_, h, admin := newHandlers(t)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/roles/check-level?level=abc", nil), admin)
	rec := httptest.NewRecorder()
	h.CheckLevel(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
