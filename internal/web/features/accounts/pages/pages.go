// Package pages renders the account pages: sign-in, registration,
// password flows and the profile.
package pages

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// RegisterForm carries the registration form fields for display.
type RegisterForm struct {
	FirstName string
	LastName  string
	Email     string
	Error     string
}

// LoginForm carries the sign-in form fields for display.
type LoginForm struct {
	Email    string
	Next     string
	Remember bool
	Error    string
}

// ResetForm carries the new-password form state.
type ResetForm struct {
	Token string
	Error string
}

// ProfileForm carries the editable profile fields.
type ProfileForm struct {
	FirstName string
	LastName  string
	Error     string
}

func formError(b *strings.Builder, msg string) {
	if msg != "" {
		fmt.Fprintf(b, `<p class="form-error">%s</p>`, templ.EscapeString(msg))
	}
}

func checked(on bool) string {
	if on {
		return " checked"
	}
	return ""
}

// Register renders the registration form.
func Register(f RegisterForm) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Inscription</h1>`)
		formError(b, f.Error)
		b.WriteString(`<form method="post" action="/register">`)
		fmt.Fprintf(b, `<label>Prénom <input type="text" name="first_name" value="%s"></label>`, templ.EscapeString(f.FirstName))
		fmt.Fprintf(b, `<label>Nom <input type="text" name="last_name" value="%s"></label>`, templ.EscapeString(f.LastName))
		fmt.Fprintf(b, `<label>Email <input type="email" name="email" value="%s" required></label>`, templ.EscapeString(f.Email))
		b.WriteString(`<label>Mot de passe <input type="password" name="password" required></label>`)
		b.WriteString(`<label>Confirmation <input type="password" name="password_confirm" required></label>`)
		b.WriteString(`<button type="submit">Créer mon compte</button></form>`)
	})
}

// Login renders the sign-in form.
func Login(f LoginForm) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Connexion</h1>`)
		formError(b, f.Error)
		b.WriteString(`<form method="post" action="/login">`)
		fmt.Fprintf(b, `<input type="hidden" name="next" value="%s">`, templ.EscapeString(f.Next))
		fmt.Fprintf(b, `<label>Email <input type="email" name="email" value="%s" required></label>`, templ.EscapeString(f.Email))
		b.WriteString(`<label>Mot de passe <input type="password" name="password" required></label>`)
		fmt.Fprintf(b, `<label><input type="checkbox" name="remember_me"%s> Se souvenir de moi</label>`, checked(f.Remember))
		b.WriteString(`<button type="submit">Se connecter</button></form>`)
		b.WriteString(`<p><a href="/password/forgot">Mot de passe oublié ?</a></p>`)
	})
}

// Forgot renders the reset-request form.
func Forgot() templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Mot de passe oublié</h1>`)
		b.WriteString(`<form method="post" action="/password/forgot">`)
		b.WriteString(`<label>Email <input type="email" name="email" required></label>`)
		b.WriteString(`<button type="submit">Envoyer le lien</button></form>`)
	})
}

// Reset renders the new-password form.
func Reset(f ResetForm) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Nouveau mot de passe</h1>`)
		formError(b, f.Error)
		b.WriteString(`<form method="post" action="/password/reset">`)
		fmt.Fprintf(b, `<input type="hidden" name="token" value="%s">`, templ.EscapeString(f.Token))
		b.WriteString(`<label>Mot de passe <input type="password" name="password" required></label>`)
		b.WriteString(`<label>Confirmation <input type="password" name="password_confirm" required></label>`)
		b.WriteString(`<button type="submit">Enregistrer</button></form>`)
	})
}

// Profile renders the signed-in user's details.
func Profile(u *store.User) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Mon profil</h1><dl>`)
		fmt.Fprintf(b, `<dt>Nom</dt><dd>%s</dd>`, templ.EscapeString(u.FullName()))
		fmt.Fprintf(b, `<dt>Email</dt><dd>%s</dd>`, templ.EscapeString(u.Email))
		if u.Role != nil {
			fmt.Fprintf(b, `<dt>Rôle</dt><dd>%s</dd>`, templ.EscapeString(u.Role.Name))
		} else {
			b.WriteString(`<dt>Rôle</dt><dd>aucun</dd>`)
		}
		b.WriteString(`<dt>Secteurs</dt><dd>`)
		if len(u.Sectors) == 0 {
			b.WriteString(`aucun`)
		}
		for _, s := range u.Sectors {
			fmt.Fprintf(b, `<span class="tag" style="background:%s">%s</span>`,
				templ.EscapeString(s.Color), templ.EscapeString(s.Name))
		}
		b.WriteString(`</dd>`)
		fmt.Fprintf(b, `<dt>Inscrit le</dt><dd>%s</dd></dl>`, ui.FrDate(u.JoinedAt))
		b.WriteString(`<p><a href="/profile/edit">Modifier mes informations</a> · <a href="/profile/password">Changer mon mot de passe</a> · <a href="/profile/notifications">Notifications</a></p>`)
	})
}

// ProfileEdit renders the name form.
func ProfileEdit(f ProfileForm) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Modifier mon profil</h1>`)
		formError(b, f.Error)
		b.WriteString(`<form method="post" action="/profile/edit">`)
		fmt.Fprintf(b, `<label>Prénom <input type="text" name="first_name" value="%s"></label>`, templ.EscapeString(f.FirstName))
		fmt.Fprintf(b, `<label>Nom <input type="text" name="last_name" value="%s"></label>`, templ.EscapeString(f.LastName))
		b.WriteString(`<button type="submit">Enregistrer</button></form>`)
	})
}

// PasswordChange renders the password-change form.
func PasswordChange(errMsg string) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Changer mon mot de passe</h1>`)
		formError(b, errMsg)
		b.WriteString(`<form method="post" action="/profile/password">`)
		b.WriteString(`<label>Mot de passe actuel <input type="password" name="current" required></label>`)
		b.WriteString(`<label>Nouveau mot de passe <input type="password" name="password" required></label>`)
		b.WriteString(`<label>Confirmation <input type="password" name="password_confirm" required></label>`)
		b.WriteString(`<button type="submit">Enregistrer</button></form>`)
	})
}

// Notifications renders the email preference toggles.
func Notifications(u *store.User) templ.Component {
	return ui.Component(func(b *strings.Builder) {
		b.WriteString(`<h1>Notifications par email</h1>`)
		b.WriteString(`<form method="post" action="/profile/notifications">`)
		fmt.Fprintf(b, `<label><input type="checkbox" name="welcome"%s> Message de bienvenue</label>`, checked(u.NotifyWelcome))
		fmt.Fprintf(b, `<label><input type="checkbox" name="password_change"%s> Changement de mot de passe</label>`, checked(u.NotifyPasswordChange))
		fmt.Fprintf(b, `<label><input type="checkbox" name="new_login"%s> Nouvelle connexion</label>`, checked(u.NotifyNewLogin))
		fmt.Fprintf(b, `<label><input type="checkbox" name="security_alerts"%s> Alertes de sécurité</label>`, checked(u.NotifySecurityAlerts))
		b.WriteString(`<button type="submit">Enregistrer</button></form>`)
	})
}
