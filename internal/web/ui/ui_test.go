package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/session"
)

func renderPage(t *testing.T, status int, title string, user *store.User, flashes []session.Flash) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Page(rec, req, status, title, user, flashes, Component(func(b *strings.Builder) {
		b.WriteString("<h1>Contenu</h1>")
	}))
	return rec
}

func TestPageAnonymousChrome(t *testing.T) {
	rec := renderPage(t, http.StatusOK, "Accueil", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="fr">`)
	assert.Contains(t, body, "<title>Accueil — Beffroi</title>")
	assert.Contains(t, body, `href="/login"`)
	assert.Contains(t, body, `href="/register"`)
	assert.NotContains(t, body, "Déconnexion")
	assert.Contains(t, body, "<h1>Contenu</h1>")
}

func TestPageSignedInChrome(t *testing.T) {
	u := &store.User{Email: "agent@mairie.fr", FirstName: "Jeanne", LastName: "Martin"}
	rec := renderPage(t, http.StatusOK, "Événements", u, nil)

	body := rec.Body.String()
	assert.Contains(t, body, "Jeanne Martin")
	assert.Contains(t, body, `href="/events"`)
	assert.Contains(t, body, `href="/leave"`)
	assert.Contains(t, body, "Déconnexion")
	assert.NotContains(t, body, `href="/dashboard"`)

	u.Superuser = true
	body = renderPage(t, http.StatusOK, "Événements", u, nil).Body.String()
	assert.Contains(t, body, `href="/dashboard"`)
}

func TestPageFlashes(t *testing.T) {
	flashes := []session.Flash{
		{Kind: session.FlashSuccess, Text: "Événement créé."},
		{Kind: session.FlashError, Text: "Une erreur est survenue."},
	}
	body := renderPage(t, http.StatusOK, "Accueil", nil, flashes).Body.String()

	assert.Contains(t, body, `class="flash flash-success"`)
	assert.Contains(t, body, "Événement créé.")
	assert.Contains(t, body, `class="flash flash-error"`)
}

func TestPageEscapesTitle(t *testing.T) {
	body := renderPage(t, http.StatusOK, `<script>pwn</script>`, nil, nil).Body.String()
	assert.NotContains(t, body, "<script>pwn")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestErrorPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nulle-part", nil)
	rec := httptest.NewRecorder()
	Error(rec, req, http.StatusNotFound, nil, "Page introuvable.")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Erreur 404 — Beffroi</title>")
	assert.Contains(t, body, "<h1>Erreur 404</h1>")
	assert.Contains(t, body, "Page introuvable.")
	assert.Contains(t, body, "Retour à l'accueil")
}
