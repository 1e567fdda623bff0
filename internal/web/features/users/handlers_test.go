package users

import (
	"context"
	"fmt"
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

func TestListPagination(t *testing.T) {
	f, h, admin := newHandlers(t)
	for i := 0; i < PageSize+5; i++ {
		f.CreateUser(t, fmt.Sprintf("agent%02d@mairie.fr", i), false)
	}

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/users?page=2", nil), admin)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// 31 accounts: page 2 holds the tail of the directory.
	assert.Contains(t, body, "Page 2 / 2")
}

func TestListClampsPage(t *testing.T) {
	_, h, admin := newHandlers(t)

	for _, page := range []string{"0", "-3", "99"} {
		req := features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/users?page="+page, nil), admin)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestUpdateAssignsRoleAndSectors(t *testing.T) {
	f, h, admin := newHandlers(t)
	ctx := context.Background()

	target := f.CreateUser(t, "agent@mairie.fr", false)
	role, err := f.Store.RoleByLevel(ctx, 2, 0)
	require.NoError(t, err)
	sector, err := f.Store.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)

	id := strconv.FormatInt(target.ID, 10)
	req := postForm(admin, "/admin/users/"+id+"/edit", url.Values{
		"active":     {"on"},
		"role_id":    {strconv.FormatInt(role.ID, 10)},
		"sector_ids": {strconv.FormatInt(sector.ID, 10)},
	})
	rec := httptest.NewRecorder()
	h.Update(rec, features.WithPathParam(req, "id", id))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := f.Store.GetUser(ctx, target.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Role)
	assert.Equal(t, role.ID, got.Role.ID)
	require.Len(t, got.Sectors, 1)
	assert.Equal(t, sector.ID, got.Sectors[0].ID)
	assert.True(t, got.Active)
	assert.False(t, got.Superuser)
}

func TestUpdateDeactivates(t *testing.T) {
	f, h, admin := newHandlers(t)
	target := f.CreateUser(t, "parti@mairie.fr", false)

	id := strconv.FormatInt(target.ID, 10)
	req := postForm(admin, "/admin/users/"+id+"/edit", url.Values{})
	rec := httptest.NewRecorder()
	h.Update(rec, features.WithPathParam(req, "id", id))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := f.Store.GetUser(context.Background(), target.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestUpdateSelfDemotionRefused(t *testing.T) {
	f, h, admin := newHandlers(t)

	id := strconv.FormatInt(admin.ID, 10)
	req := postForm(admin, "/admin/users/"+id+"/edit", url.Values{
		"active": {"on"},
		// superuser unchecked: would demote the signed-in admin.
	})
	rec := httptest.NewRecorder()
	h.Update(rec, features.WithPathParam(req, "id", id))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/edit")

	got, err := f.Store.GetUser(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.True(t, got.Superuser)
	assert.True(t, got.Active)
}

func TestEditPageUnknownUser(t *testing.T) {
	_, h, admin := newHandlers(t)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/users/999/edit", nil), admin)
	rec := httptest.NewRecorder()
	h.EditPage(rec, features.WithPathParam(req, "id", "999"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
