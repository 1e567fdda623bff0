// Package pages renders the account administration pages.
package pages

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// List renders one page of the account directory.
func List(users []*store.User, page, pages int) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Utilisateurs</h1>`)
		b.WriteString(`<table><tr><th>Nom</th><th>Email</th><th>Rôle</th><th>Secteurs</th><th>Statut</th><th></th></tr>`)
		for _, u := range users {
			fmt.Fprintf(b, `<tr><td>%s</td><td>%s</td>`,
				templ.EscapeString(u.FullName()), templ.EscapeString(u.Email))
			if u.Role != nil {
				fmt.Fprintf(b, `<td>%s</td>`, templ.EscapeString(u.Role.Name))
			} else {
				b.WriteString(`<td></td>`)
			}
			b.WriteString(`<td>`)
			for _, s := range u.Sectors {
				fmt.Fprintf(b, `<span class="tag" style="background:%s">%s</span>`,
					templ.EscapeString(s.Color), templ.EscapeString(s.Name))
			}
			b.WriteString(`</td><td>`)
			switch {
			case !u.Active:
				b.WriteString(`inactif`)
			case u.Superuser:
				b.WriteString(`admin`)
			default:
				b.WriteString(`actif`)
			}
			if !u.EmailVerified {
				b.WriteString(` · non vérifié`)
			}
			fmt.Fprintf(b, `</td><td><a href="/admin/users/%d/edit">Modifier</a></td></tr>`, u.ID)
		}
		b.WriteString(`</table>`)
		if pages > 1 {
			b.WriteString(`<nav class="pagination">`)
			if page > 1 {
				fmt.Fprintf(b, `<a href="?page=%d">Précédent</a>`, page-1)
			}
			fmt.Fprintf(b, `<span>Page %d / %d</span>`, page, pages)
			if page < pages {
				fmt.Fprintf(b, `<a href="?page=%d">Suivant</a>`, page+1)
			}
			b.WriteString(`</nav>`)
		}
	})
}

// Edit renders the assignment form for one account. member marks the
// sectors the account belongs to.
func Edit(target *store.User, roles []*store.Role, sectors []*store.Sector, member map[int64]bool) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(target.FullName()))
		fmt.Fprintf(b, `<form method="post" action="/admin/users/%d/edit">`, target.ID)

		b.WriteString(`<fieldset><legend>Compte</legend>`)
		fmt.Fprintf(b, `<label><input type="checkbox" name="active"%s> Actif</label>`, checked(target.Active))
		fmt.Fprintf(b, `<label><input type="checkbox" name="superuser"%s> Administrateur</label>`, checked(target.Superuser))
		b.WriteString(`</fieldset>`)

		b.WriteString(`<fieldset><legend>Rôle</legend><select name="role_id"><option value="">aucun</option>`)
		for _, role := range roles {
			selected := ""
			if target.RoleID != nil && *target.RoleID == role.ID {
				selected = " selected"
			}
			fmt.Fprintf(b, `<option value="%d"%s>%s (niveau %d)</option>`,
				role.ID, selected, templ.EscapeString(role.Name), role.Level)
		}
		b.WriteString(`</select></fieldset>`)

		b.WriteString(`<fieldset><legend>Secteurs</legend>`)
		for _, s := range sectors {
			fmt.Fprintf(b, `<label><input type="checkbox" name="sector_ids" value="%d"%s> %s</label>`,
				s.ID, checked(member[s.ID]), templ.EscapeString(s.Name))
		}
		b.WriteString(`</fieldset><button type="submit">Enregistrer</button></form>`)
	})
}

func checked(on bool) string {
	if on {
		return " checked"
	}
	return ""
}
