// Package pages renders the role administration pages.
package pages

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Form carries the role form fields for display.
type Form struct {
	Name   string
	Level  int
	Action string
	Error  string
}

// List renders the role ladder with holder counts.
func List(roles []*store.Role) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Rôles</h1><p><a href="/admin/roles/new">Ajouter un rôle</a></p>`)
		b.WriteString(`<table><tr><th>Niveau</th><th>Nom</th><th>Titulaires</th><th></th></tr>`)
		for _, role := range roles {
			fmt.Fprintf(b, `<tr><td>%d</td><td><a href="/admin/roles/%d/edit">%s</a></td><td>%d</td>`,
				role.Level, role.ID, templ.EscapeString(role.Name), role.UserCount)
			fmt.Fprintf(b, `<td><form method="post" action="/admin/roles/%d/delete" class="inline"><button type="submit">Supprimer</button></form></td></tr>`, role.ID)
		}
		b.WriteString(`</table>`)
	})
}

// FormPage renders the create/edit form. The level input is probed
// against /admin/roles/check-level from the browser.
func FormPage(title string, f Form) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		if f.Error != "" {
			fmt.Fprintf(b, `<p class="form-error">%s</p>`, templ.EscapeString(f.Error))
		}
		fmt.Fprintf(b, `<form method="post" action="%s" data-check-level="/admin/roles/check-level">`, templ.EscapeString(f.Action))
		fmt.Fprintf(b, `<label>Nom <input type="text" name="name" value="%s" required></label>`, templ.EscapeString(f.Name))
		fmt.Fprintf(b, `<label>Niveau <input type="number" name="level" value="%d" min="0" required></label>`, f.Level)
		b.WriteString(`<button type="submit">Enregistrer</button></form>`)
	})
}
