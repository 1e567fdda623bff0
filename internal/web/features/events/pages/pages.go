// Package pages renders the event pages: listings, calendar,
// statistics, the detail view and the create/edit form.
package pages

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

func sectorTags(b *strings.Builder, sectors []*store.Sector) {
	for _, s := range sectors {
		fmt.Fprintf(b, `<span class="tag" style="background:%s">%s</span>`,
			templ.EscapeString(s.Color), templ.EscapeString(s.Name))
	}
}

// List renders an event table. sectors, when non-nil, adds the sector
// filter with sectorID preselected; Mine passes nil.
func List(title string, events []*store.Event, sectors []*store.Sector, sectorID int64) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		b.WriteString(`<p><a href="/events/new">Créer un événement</a> · <a href="/events/timeline">Chronologie</a> · <a href="/events/stats">Statistiques</a></p>`)
		if len(sectors) > 0 {
			b.WriteString(`<form method="get" action="/events"><label>Secteur <select name="sector" onchange="this.form.submit()"><option value="">Tous</option>`)
			for _, s := range sectors {
				selected := ""
				if s.ID == sectorID {
					selected = " selected"
				}
				fmt.Fprintf(b, `<option value="%d"%s>%s</option>`, s.ID, selected, templ.EscapeString(s.Name))
			}
			b.WriteString(`</select></label><noscript><button type="submit">Filtrer</button></noscript></form>`)
		}
		b.WriteString(`<table><tr><th>Date</th><th>Titre</th><th>Secteurs</th><th>Statut</th></tr>`)
		if len(events) == 0 {
			b.WriteString(`<tr><td colspan="4">Aucun événement.</td></tr>`)
		}
		for _, e := range events {
			fmt.Fprintf(b, `<tr><td>%s</td><td><a href="/events/%d">%s</a></td><td>`,
				ui.FrTime(e.StartsAt), e.ID, templ.EscapeString(e.Title))
			sectorTags(b, e.Sectors)
			fmt.Fprintf(b, `</td><td>%s</td></tr>`, ui.StatusLabel(e.OverallStatus()))
		}
		b.WriteString(`</table>`)
	})
}

// Calendar renders one month of events with their sector colors.
func Calendar(monthLabel string, prevYear, prevMonth, nextYear, nextMonth int, events []*store.Event) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>Calendrier — %s</h1>`, templ.EscapeString(monthLabel))
		fmt.Fprintf(b, `<nav><a href="?year=%d&month=%d">&laquo; Mois précédent</a> <a href="?year=%d&month=%d">Mois suivant &raquo;</a></nav>`,
			prevYear, prevMonth, nextYear, nextMonth)
		b.WriteString(`<ul class="calendar">`)
		if len(events) == 0 {
			b.WriteString(`<li>Aucun événement ce mois-ci.</li>`)
		}
		for _, e := range events {
			fmt.Fprintf(b, `<li><span class="dot" style="background:%s"></span> %s — <a href="/events/%d">%s</a></li>`,
				e.CalendarColor(), ui.FrTime(e.StartsAt), e.ID, templ.EscapeString(e.Title))
		}
		b.WriteString(`</ul>`)
	})
}

// Timeline renders the chronology of coming events.
func Timeline(events []*store.Event) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Chronologie</h1><ol class="timeline">`)
		if len(events) == 0 {
			b.WriteString(`<li>Aucun événement à venir.</li>`)
		}
		for _, e := range events {
			fmt.Fprintf(b, `<li><span class="dot" style="background:%s"></span> <strong>%s</strong> <a href="/events/%d">%s</a> <em>%s</em></li>`,
				e.CalendarColor(), ui.FrTime(e.StartsAt), e.ID, templ.EscapeString(e.Title), ui.StatusLabel(e.OverallStatus()))
		}
		b.WriteString(`</ol>`)
	})
}

// Stats renders the yearly aggregate page. months holds the twelve
// column headers, January first.
func Stats(year int, st *store.EventStats, months []string) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>Statistiques %d</h1>`, year)
		b.WriteString(`<ul class="cards">`)
		fmt.Fprintf(b, `<li>Total <strong>%d</strong></li>`, st.Total)
		fmt.Fprintf(b, `<li>En attente <strong>%d</strong></li>`, st.Pending)
		fmt.Fprintf(b, `<li>Validés <strong>%d</strong></li>`, st.Approved)
		fmt.Fprintf(b, `<li>Refusés <strong>%d</strong></li></ul>`, st.Refused)

		b.WriteString(`<h2>Par mois</h2><table><tr>`)
		for _, m := range months {
			fmt.Fprintf(b, `<th>%s</th>`, templ.EscapeString(m))
		}
		b.WriteString(`</tr><tr>`)
		for _, n := range st.PerMonth {
			fmt.Fprintf(b, `<td>%d</td>`, n)
		}
		b.WriteString(`</tr></table>`)

		b.WriteString(`<h2>Par secteur</h2><table><tr><th>Secteur</th><th>Événements</th></tr>`)
		for _, sc := range st.BySector {
			fmt.Fprintf(b, `<tr><td><span class="tag" style="background:%s">%s</span></td><td>%d</td></tr>`,
				templ.EscapeString(sc.Color), templ.EscapeString(sc.Name), sc.Count)
		}
		b.WriteString(`</table>`)
	})
}

// Detail renders one event with its approval circuit and attachments.
func Detail(e *store.Event, atts []*store.Attachment, canEdit, canDecideDeputy, canDecideDirector bool) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1><dl>`, templ.EscapeString(e.Title))
		fmt.Fprintf(b, `<dt>Début</dt><dd>%s (%s)</dd>`, ui.FrTime(e.StartsAt), templ.EscapeString(e.Timezone))
		if e.EndsAt != nil {
			fmt.Fprintf(b, `<dt>Fin</dt><dd>%s</dd>`, ui.FrTime(*e.EndsAt))
		}
		if e.Venue != "" {
			fmt.Fprintf(b, `<dt>Lieu</dt><dd>%s</dd>`, templ.EscapeString(e.Venue))
		}
		if a := e.Address; a != nil {
			fmt.Fprintf(b, `<dt>Adresse</dt><dd>%s, %s %s, %s`,
				templ.EscapeString(a.Street), templ.EscapeString(a.PostalCode),
				templ.EscapeString(a.City), templ.EscapeString(a.Country))
			if a.Extra != "" {
				fmt.Fprintf(b, ` (%s)`, templ.EscapeString(a.Extra))
			}
			b.WriteString(`</dd>`)
		}
		if e.PublishBy != nil {
			fmt.Fprintf(b, `<dt>Publication avant le</dt><dd>%s</dd>`, ui.FrDate(*e.PublishBy))
		}
		b.WriteString(`<dt>Secteurs</dt><dd>`)
		if len(e.Sectors) == 0 {
			b.WriteString(`aucun`)
		}
		sectorTags(b, e.Sectors)
		b.WriteString(`</dd>`)
		if e.Creator != nil {
			fmt.Fprintf(b, `<dt>Créé par</dt><dd>%s</dd>`, templ.EscapeString(e.Creator.FullName()))
		}
		fmt.Fprintf(b, `<dt>Statut global</dt><dd>%s</dd></dl>`, ui.StatusLabel(e.OverallStatus()))
		if e.Description != "" {
			fmt.Fprintf(b, `<p>%s</p>`, templ.EscapeString(e.Description))
		}

		b.WriteString(`<h2>Validations</h2><table><tr><th>Circuit</th><th>Statut</th><th>Décision</th><th>Commentaire</th></tr>`)
		approvalRow(b, "Direction générale adjointe", e.Deputy)
		approvalRow(b, "Direction générale", e.Director)
		b.WriteString(`</table>`)

		if canDecideDeputy {
			decideForm(b, e.ID, "deputy", "DGA")
		}
		if canDecideDirector {
			decideForm(b, e.ID, "director", "DGS")
		}

		b.WriteString(`<h2>Pièces jointes</h2><ul>`)
		if len(atts) == 0 {
			b.WriteString(`<li>Aucune pièce jointe.</li>`)
		}
		for _, a := range atts {
			fmt.Fprintf(b, `<li><a href="/events/%d/attachments/%d">%s</a> (%s, %d octets)`,
				e.ID, a.ID, templ.EscapeString(a.Name), a.Kind, a.Size)
			if canEdit {
				fmt.Fprintf(b, `<form method="post" action="/events/%d/attachments/%d/delete" class="inline"><button type="submit">Supprimer</button></form>`,
					e.ID, a.ID)
			}
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)

		if canEdit {
			fmt.Fprintf(b, `<form method="post" action="/events/%d/attachments" enctype="multipart/form-data"><input type="file" name="file" accept="image/jpeg,image/png,application/pdf" required> <button type="submit">Ajouter</button></form>`, e.ID)
			fmt.Fprintf(b, `<p><a href="/events/%d/edit">Modifier</a></p>`, e.ID)
			fmt.Fprintf(b, `<form method="post" action="/events/%d/delete" class="inline"><button type="submit">Supprimer l'événement</button></form>`, e.ID)
		}
	})
}

func approvalRow(b *strings.Builder, label string, a store.Approval) {
	fmt.Fprintf(b, `<tr><td>%s</td><td>`, label)
	if a.Requested {
		b.WriteString(ui.StatusLabel(a.Status))
	} else {
		b.WriteString(`non demandé`)
	}
	b.WriteString(`</td><td>`)
	if a.DecidedAt != nil {
		b.WriteString(ui.FrTime(*a.DecidedAt))
	}
	fmt.Fprintf(b, `</td><td>%s</td></tr>`, templ.EscapeString(a.Comment))
}

func decideForm(b *strings.Builder, eventID int64, track, acronym string) {
	fmt.Fprintf(b, `<form method="post" action="/events/%d/decide" class="inline">`, eventID)
	fmt.Fprintf(b, `<input type="hidden" name="track" value="%s">`, track)
	b.WriteString(`<input type="text" name="comment" placeholder="Commentaire">`)
	fmt.Fprintf(b, `<button type="submit" name="decision" value="approved">Valider (%s)</button>`, acronym)
	fmt.Fprintf(b, `<button type="submit" name="decision" value="refused">Refuser (%s)</button></form>`, acronym)
}

// Form carries the event form fields, as strings for re-display.
type Form struct {
	Title       string
	Description string
	Venue       string

	Street     string
	City       string
	PostalCode string
	Country    string
	Extra      string

	StartsAt  string
	EndsAt    string
	Timezone  string
	PublishBy string

	SectorIDs         []int64
	Selected          map[int64]bool
	DeputyRequested   bool
	DirectorRequested bool

	Sectors   []*store.Sector
	Timezones []string
	Action    string
	Error     string
}

func checked(on bool) string {
	if on {
		return " checked"
	}
	return ""
}

// FormPage renders the create/edit form.
func FormPage(title string, f Form) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		if f.Error != "" {
			fmt.Fprintf(b, `<p class="form-error">%s</p>`, templ.EscapeString(f.Error))
		}
		fmt.Fprintf(b, `<form method="post" action="%s">`, templ.EscapeString(f.Action))
		fmt.Fprintf(b, `<label>Titre <input type="text" name="title" value="%s" required maxlength="200"></label>`, templ.EscapeString(f.Title))
		fmt.Fprintf(b, `<label>Description <textarea name="description">%s</textarea></label>`, templ.EscapeString(f.Description))
		fmt.Fprintf(b, `<label>Lieu <input type="text" name="venue" value="%s"></label>`, templ.EscapeString(f.Venue))

		b.WriteString(`<fieldset><legend>Adresse</legend>`)
		fmt.Fprintf(b, `<label>Rue <input type="text" name="street" value="%s"></label>`, templ.EscapeString(f.Street))
		fmt.Fprintf(b, `<label>Code postal <input type="text" name="postal_code" value="%s"></label>`, templ.EscapeString(f.PostalCode))
		fmt.Fprintf(b, `<label>Ville <input type="text" name="city" value="%s"></label>`, templ.EscapeString(f.City))
		fmt.Fprintf(b, `<label>Pays <input type="text" name="country" value="%s"></label>`, templ.EscapeString(f.Country))
		fmt.Fprintf(b, `<label>Complément <input type="text" name="extra" value="%s"></label>`, templ.EscapeString(f.Extra))
		b.WriteString(`</fieldset>`)

		fmt.Fprintf(b, `<label>Début <input type="datetime-local" name="starts_at" value="%s" required></label>`, templ.EscapeString(f.StartsAt))
		fmt.Fprintf(b, `<label>Fin <input type="datetime-local" name="ends_at" value="%s"></label>`, templ.EscapeString(f.EndsAt))
		b.WriteString(`<label>Fuseau horaire <select name="timezone">`)
		for _, tz := range f.Timezones {
			selected := ""
			if tz == f.Timezone {
				selected = " selected"
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, templ.EscapeString(tz), selected, templ.EscapeString(tz))
		}
		b.WriteString(`</select></label>`)
		fmt.Fprintf(b, `<label>Publication avant le <input type="date" name="publish_by" value="%s"></label>`, templ.EscapeString(f.PublishBy))

		b.WriteString(`<fieldset><legend>Secteurs</legend>`)
		for _, s := range f.Sectors {
			fmt.Fprintf(b, `<label><input type="checkbox" name="sector_ids" value="%d"%s> %s</label>`,
				s.ID, checked(f.Selected[s.ID]), templ.EscapeString(s.Name))
		}
		b.WriteString(`</fieldset>`)

		b.WriteString(`<fieldset><legend>Validations demandées</legend>`)
		fmt.Fprintf(b, `<label><input type="checkbox" name="deputy_requested"%s> Direction générale adjointe</label>`, checked(f.DeputyRequested))
		fmt.Fprintf(b, `<label><input type="checkbox" name="director_requested"%s> Direction générale</label>`, checked(f.DirectorRequested))
		b.WriteString(`</fieldset><button type="submit">Enregistrer</button></form>`)
	})
}
