// Package pages renders the landing page and the admin overview.
package pages

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Home renders the landing page. Visitors get a sign-in prompt, staff
// get their shortcuts.
func Home(user *store.User, upcoming int) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Intranet de la mairie</h1>`)
		if user == nil {
			b.WriteString(`<p>Connectez-vous pour accéder à l'intranet.</p>`)
			return
		}
		fmt.Fprintf(b, `<p>Bonjour %s.</p>`, templ.EscapeString(user.FullName()))
		fmt.Fprintf(b, `<ul><li><a href="/events">Événements à venir (%d)</a></li>`, upcoming)
		b.WriteString(`<li><a href="/events/mine">Mes événements</a></li>`)
		b.WriteString(`<li><a href="/leave">Mes congés</a></li></ul>`)
	})
}

// Overview renders the entity count cards.
func Overview(c store.Counts) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Administration</h1><ul class="cards">`)
		fmt.Fprintf(b, `<li><a href="/admin/users">Utilisateurs</a> <strong>%d</strong></li>`, c.Users)
		fmt.Fprintf(b, `<li><a href="/admin/sectors">Secteurs</a> <strong>%d</strong></li>`, c.Sectors)
		fmt.Fprintf(b, `<li><a href="/admin/roles">Rôles</a> <strong>%d</strong></li>`, c.Roles)
		fmt.Fprintf(b, `<li><a href="/events">Événements</a> <strong>%d</strong></li>`, c.Events)
		fmt.Fprintf(b, `<li>Validations en attente <strong>%d</strong></li></ul>`, c.PendingApprovals)
	})
}
