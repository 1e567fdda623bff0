package sectors

import (
	"context"
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

func TestCreateSector(t *testing.T) {
	f, h, admin := newHandlers(t)

	rec := httptest.NewRecorder()
	h.Create(rec, postForm(admin, "/admin/sectors/new", url.Values{
		"name":     {"Petite enfance"},
		"color":    {"#ff8800"},
		"position": {"12"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	sec, err := f.Store.GetSectorByName(context.Background(), "Petite enfance")
	require.NoError(t, err)
	assert.Equal(t, "#FF8800", sec.Color)
	assert.Equal(t, 12, sec.Position)
}

func TestCreateSectorDuplicateName(t *testing.T) {
	_, h, admin := newHandlers(t)

	// Culture is part of the seed data.
	rec := httptest.NewRecorder()
	h.Create(rec, postForm(admin, "/admin/sectors/new", url.Values{
		"name":  {"Culture"},
		"color": {"#123456"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "porte déjà ce nom")
}

func TestCreateSectorInvalidColor(t *testing.T) {
	_, h, admin := newHandlers(t)

	for _, color := range []string{"", "red", "#12345", "#GGGGGG"} {
		rec := httptest.NewRecorder()
		h.Create(rec, postForm(admin, "/admin/sectors/new", url.Values{
			"name":  {"Un secteur"},
			"color": {color},
		}))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "#RRGGBB")
	}
}

func TestUpdateSector(t *testing.T) {
	f, h, admin := newHandlers(t)
	sec, err := f.Store.GetSectorByName(context.Background(), "Culture")
	require.NoError(t, err)
	id := strconv.FormatInt(sec.ID, 10)

	req := postForm(admin, "/admin/sectors/"+id+"/edit", url.Values{
		"name":     {"Culture et patrimoine"},
		"color":    {"#112233"},
		"position": {"3"},
	})
	rec := httptest.NewRecorder()
	h.Update(rec, features.WithPathParam(req, "id", id))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	got, err := f.Store.GetSector(context.Background(), sec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Culture et patrimoine", got.Name)
	assert.Equal(t, "#112233", got.Color)
	assert.Equal(t, 3, got.Position)
}

func TestDeleteSectorDropsMemberships(t *testing.T) {
	f, h, admin := newHandlers(t)
	ctx := context.Background()

	sec, err := f.Store.GetSectorByName(ctx, "Culture")
	require.NoError(t, err)
	member := f.CreateUser(t, "membre@mairie.fr", false)
	require.NoError(t, f.Store.SetUserSectors(ctx, member.ID, []int64{sec.ID}))

	id := strconv.FormatInt(sec.ID, 10)
	req := postForm(admin, "/admin/sectors/"+id+"/delete", url.Values{})
	rec := httptest.NewRecorder()
	h.Delete(rec, features.WithPathParam(req, "id", id))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, err = f.Store.GetSector(ctx, sec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := f.Store.GetUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Sectors)
}

func TestEditPageUnknownSector(t *testing.T) {
	_, h, admin := newHandlers(t)

	req := features.AsUser(httptest.NewRequest(http.MethodGet, "/admin/sectors/999/edit", nil), admin)
	rec := httptest.NewRecorder()
	h.EditPage(rec, features.WithPathParam(req, "id", "999"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
