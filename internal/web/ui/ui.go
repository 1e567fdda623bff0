// Package ui owns the shared page chrome. Pages are templ components
// built in each feature's pages package; Layout wraps them in the site
// header and flash area, Page writes them out.
package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/session"
)

// Component builds a templ component from a function writing HTML into
// a builder. Builder writes cannot fail, so page bodies need no error
// handling of their own.
func Component(f func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		f(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Layout wraps a page body in the site chrome.
func Layout(title string, user *store.User, flashes []session.Flash, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="fr"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		b.WriteString(templ.EscapeString(title))
		b.WriteString(` — Beffroi</title><link rel="stylesheet" href="/static/app.css"></head><body><header><nav><a href="/" class="brand">Beffroi</a>`)
		if user != nil {
			b.WriteString(`<a href="/events">Événements</a><a href="/events/calendar">Calendrier</a><a href="/leave">Congés</a>`)
			if user.Superuser {
				b.WriteString(`<a href="/dashboard">Administration</a>`)
			}
			b.WriteString(`<span class="spacer"></span><a href="/profile">`)
			b.WriteString(templ.EscapeString(user.FullName()))
			b.WriteString(`</a><form method="post" action="/logout" class="inline"><button type="submit">Déconnexion</button></form>`)
		} else {
			b.WriteString(`<span class="spacer"></span><a href="/login">Connexion</a><a href="/register">Inscription</a>`)
		}
		b.WriteString(`</nav></header><main>`)
		for _, f := range flashes {
			b.WriteString(`<p class="flash flash-`)
			b.WriteString(templ.EscapeString(f.Kind))
			b.WriteString(`">`)
			b.WriteString(templ.EscapeString(f.Text))
			b.WriteString(`</p>`)
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// Page renders a body inside the layout. The component is rendered into
// a buffer first so a failing component cannot emit half a page.
func Page(w http.ResponseWriter, r *http.Request, status int, title string,
	user *store.User, flashes []session.Flash, body templ.Component) {

	var buf bytes.Buffer
	if err := Layout(title, user, flashes, body).Render(r.Context(), &buf); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error renders the shared error page.
func Error(w http.ResponseWriter, r *http.Request, status int, user *store.User, message string) {
	Page(w, r, status, fmt.Sprintf("Erreur %d", status), user, nil, errorPage(status, message))
}

func errorPage(status int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<h1>Erreur %d</h1><p>%s</p>`, status, templ.EscapeString(message))
		b.WriteString(`<p><a href="/">Retour à l'accueil</a></p>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
