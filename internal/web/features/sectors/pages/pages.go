// Package pages renders the sector administration pages.
package pages

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Form carries the sector form fields for display.
type Form struct {
	Name     string
	Color    string
	Position int
	Action   string
	Error    string
}

// List renders the sector table with member counts.
func List(sectors []*store.Sector) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Secteurs</h1><p><a href="/admin/sectors/new">Ajouter un secteur</a></p>`)
		b.WriteString(`<table><tr><th>Ordre</th><th>Nom</th><th>Couleur</th><th>Membres</th><th></th></tr>`)
		for _, s := range sectors {
			fmt.Fprintf(b, `<tr><td>%d</td><td><a href="/admin/sectors/%d/edit">%s</a></td>`,
				s.Position, s.ID, templ.EscapeString(s.Name))
			fmt.Fprintf(b, `<td><span class="swatch" style="background:%s"></span> %s</td><td>%d</td>`,
				templ.EscapeString(s.Color), templ.EscapeString(s.Color), s.UserCount)
			fmt.Fprintf(b, `<td><form method="post" action="/admin/sectors/%d/delete" class="inline"><button type="submit">Supprimer</button></form></td></tr>`, s.ID)
		}
		b.WriteString(`</table>`)
	})
}

// FormPage renders the create/edit form.
func FormPage(title string, f Form) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		if f.Error != "" {
			fmt.Fprintf(b, `<p class="form-error">%s</p>`, templ.EscapeString(f.Error))
		}
		fmt.Fprintf(b, `<form method="post" action="%s">`, templ.EscapeString(f.Action))
		fmt.Fprintf(b, `<label>Nom <input type="text" name="name" value="%s" required minlength="2" maxlength="200"></label>`, templ.EscapeString(f.Name))
		fmt.Fprintf(b, `<label>Couleur <input type="color" name="color" value="%s"></label>`, templ.EscapeString(f.Color))
		fmt.Fprintf(b, `<label>Ordre <input type="number" name="position" value="%d"></label>`, f.Position)
		b.WriteString(`<button type="submit">Enregistrer</button></form>`)
	})
}
