// Package pages renders the leave pages: the yearly summary, the work
// cycle form and the period form.
package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Summary renders one year: the cycle, the periods and the split bonus.
func Summary(year int, cycle *store.WorkCycle, periods []*store.LeavePeriod, daysOutside, bonusDays int) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>Mes congés %d</h1>`, year)
		fmt.Fprintf(b, `<nav><a href="?year=%d">&laquo; %d</a> <a href="?year=%d">%d &raquo;</a></nav>`,
			year-1, year-1, year+1, year+1)

		b.WriteString(`<h2>Cycle de travail</h2>`)
		if cycle != nil {
			b.WriteString(`<dl>`)
			fmt.Fprintf(b, `<dt>Heures par semaine</dt><dd>%s</dd>`, formatFloat(cycle.HoursPerWeek))
			fmt.Fprintf(b, `<dt>Quotité</dt><dd>%s</dd>`, formatFloat(cycle.Quota))
			if cycle.Basis == store.BasisSixDay {
				b.WriteString(`<dt>Décompte</dt><dd>jours ouvrables (lun-sam)</dd>`)
			} else {
				b.WriteString(`<dt>Décompte</dt><dd>jours ouvrés (lun-ven)</dd>`)
			}
			fmt.Fprintf(b, `<dt>RTT</dt><dd>%d jours</dd>`, cycle.RTTDays)
			fmt.Fprintf(b, `<dt>Congés annuels</dt><dd>%s</dd></dl>`, ui.HalfDays(cycle.AnnualHalfDays))
			fmt.Fprintf(b, `<p><a href="/leave/cycle/edit?year=%d">Modifier le cycle</a></p>`, cycle.Year)
		} else {
			fmt.Fprintf(b, `<p>Aucun cycle déclaré. <a href="/leave/cycle/new?year=%d">Déclarer mon cycle</a></p>`, year)
		}

		b.WriteString(`<h2>Périodes de congés</h2>`)
		fmt.Fprintf(b, `<p><a href="/leave/periods/new?year=%d">Ajouter une période</a></p>`, year)
		b.WriteString(`<table><tr><th>Du</th><th>Au</th><th>Type</th><th>Durée</th><th></th></tr>`)
		if len(periods) == 0 {
			b.WriteString(`<tr><td colspan="5">Aucune période enregistrée.</td></tr>`)
		}
		for _, p := range periods {
			fmt.Fprintf(b, `<tr><td>%s (%s)</td><td>%s (%s)</td><td>%s</td><td>%s</td>`,
				ui.FrDate(p.Start), ui.HalfLabel(p.StartHalf),
				ui.FrDate(p.End), ui.HalfLabel(p.EndHalf),
				ui.KindLabel(p.Kind), ui.HalfDays(p.HalfDays))
			fmt.Fprintf(b, `<td><a href="/leave/periods/%d/edit">Modifier</a> <form method="post" action="/leave/periods/%d/delete" class="inline"><button type="submit">Supprimer</button></form></td></tr>`,
				p.ID, p.ID)
		}
		b.WriteString(`</table>`)

		b.WriteString(`<h2>Fractionnement</h2>`)
		fmt.Fprintf(b, `<p>Jours de congés annuels pris hors période (1er mai au 31 octobre) : <strong>%d</strong>, soit <strong>%d</strong> jour(s) de fractionnement.</p>`,
			daysOutside, bonusDays)
	})
}

// CycleForm carries the work cycle form fields, as strings for
// re-display.
type CycleForm struct {
	Year         int
	HoursPerWeek string
	Quota        string
	Basis        string
	Action       string
	Error        string
}

// CycleFormPage renders the cycle declaration form.
func CycleFormPage(title string, f CycleForm) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		if f.Error != "" {
			fmt.Fprintf(b, `<p class="form-error">%s</p>`, templ.EscapeString(f.Error))
		}
		fmt.Fprintf(b, `<form method="post" action="%s">`, templ.EscapeString(f.Action))
		fmt.Fprintf(b, `<label>Année <input type="number" name="year" value="%d" required></label>`, f.Year)
		fmt.Fprintf(b, `<label>Heures par semaine <input type="number" name="hours_per_week" value="%s" step="0.5" min="35" max="39" required></label>`, templ.EscapeString(f.HoursPerWeek))
		fmt.Fprintf(b, `<label>Quotité <input type="number" name="quota" value="%s" step="0.1" min="0.5" max="1" required></label>`, templ.EscapeString(f.Quota))
		b.WriteString(`<label>Décompte <select name="basis">`)
		option(b, "five_day", f.Basis, "Jours ouvrés (lun-ven)")
		option(b, "six_day", f.Basis, "Jours ouvrables (lun-sam)")
		b.WriteString(`</select></label><button type="submit">Enregistrer</button></form>`)
	})
}

// PeriodForm carries the leave period form fields, as strings for
// re-display.
type PeriodForm struct {
	Start     string
	StartHalf string
	End       string
	EndHalf   string
	Kind      string
	Action    string
	Error     string
}

// PeriodFormPage renders the period create/edit form.
func PeriodFormPage(title string, f PeriodForm) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		if f.Error != "" {
			fmt.Fprintf(b, `<p class="form-error">%s</p>`, templ.EscapeString(f.Error))
		}
		fmt.Fprintf(b, `<form method="post" action="%s">`, templ.EscapeString(f.Action))
		fmt.Fprintf(b, `<label>Du <input type="date" name="start" value="%s" required></label>`, templ.EscapeString(f.Start))
		b.WriteString(`<label><select name="start_half">`)
		option(b, "morning", f.StartHalf, "matin")
		option(b, "afternoon", f.StartHalf, "après-midi")
		b.WriteString(`</select></label>`)
		fmt.Fprintf(b, `<label>Au <input type="date" name="end" value="%s" required></label>`, templ.EscapeString(f.End))
		b.WriteString(`<label><select name="end_half">`)
		option(b, "morning", f.EndHalf, "matin")
		option(b, "afternoon", f.EndHalf, "après-midi")
		b.WriteString(`</select></label>`)
		b.WriteString(`<label>Type <select name="kind">`)
		option(b, "annual", f.Kind, "Congés annuels")
		option(b, "rtt", f.Kind, "RTT")
		option(b, "asa", f.Kind, "ASA")
		option(b, "sick", f.Kind, "Maladie")
		option(b, "other", f.Kind, "Autre")
		b.WriteString(`</select></label><button type="submit">Enregistrer</button></form>`)
	})
}

func option(b *strings.Builder, value, current, label string) {
	selected := ""
	if value == current {
		selected = " selected"
	}
	fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, value, selected, label)
}
