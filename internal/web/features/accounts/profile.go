package accounts

import (
	"net/http"
	"strings"
	"time"

	"github.com/beffroi/beffroi/internal/auth"
	"github.com/beffroi/beffroi/internal/mailer"
	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/accounts/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Profile shows the signed-in user's details.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, http.StatusOK, "Mon profil", u, h.Sessions.Flashes(w, r), pages.Profile(u))
}

// ProfileEditPage shows the name form.
func (h *Handlers) ProfileEditPage(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, http.StatusOK, "Modifier mon profil", u, nil,
		pages.ProfileEdit(pages.ProfileForm{FirstName: u.FirstName, LastName: u.LastName}))
}

// ProfileEdit saves the name fields.
func (h *Handlers) ProfileEdit(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	form := pages.ProfileForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
	}

	if len(form.FirstName) > 150 || len(form.LastName) > 150 {
		form.Error = "Nom ou prénom trop long."
		ui.Page(w, r, http.StatusUnprocessableEntity, "Modifier mon profil", u, nil,
			pages.ProfileEdit(form))
		return
	}

	if err := h.Store.UpdateProfile(r.Context(), u.ID, form.FirstName, form.LastName); err != nil {
		h.Logger.Error("failed to update profile", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Profil mis à jour.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// PasswordPage shows the password-change form.
func (h *Handlers) PasswordPage(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, http.StatusOK, "Changer mon mot de passe", u, nil, pages.PasswordChange(""))
}

// PasswordChange replaces the password after checking the current one.
func (h *Handlers) PasswordChange(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	fail := func(msg string) {
		ui.Page(w, r, http.StatusUnprocessableEntity, "Changer mon mot de passe", u, nil,
			pages.PasswordChange(msg))
	}

	if !auth.CheckPassword(u.PasswordHash, r.FormValue("current")) {
		h.Logger.Warn("password change refused", "user_id", u.ID, "reason", "bad current password", "ip", clientIP(r))
		fail("Mot de passe actuel incorrect.")
		return
	}
	password := r.FormValue("password")
	if err := auth.ValidatePassword(password); err != nil {
		fail("Mot de passe trop faible : " + err.Error())
		return
	}
	if password != r.FormValue("password_confirm") {
		fail("Les deux mots de passe ne correspondent pas.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.Logger.Error("password hashing failed", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}
	if err := h.Store.SetPassword(r.Context(), u.ID, hash); err != nil {
		h.Logger.Error("failed to set password", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("password changed", "user_id", u.ID, "ip", clientIP(r))
	if u.NotifyPasswordChange {
		if err := h.Mailer.Send(r.Context(), mailer.PasswordChanged(u.Email, u.FullName(), time.Now())); err != nil {
			h.Logger.Error("failed to send password notice", "user_id", u.ID, "error", err)
		}
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Mot de passe mis à jour.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// NotificationsPage shows the email toggles.
func (h *Handlers) NotificationsPage(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	ui.Page(w, r, http.StatusOK, "Notifications", u, nil, pages.Notifications(u))
}

// Notifications saves the email toggles.
func (h *Handlers) Notifications(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	prefs := store.NotificationPrefs{
		Welcome:        r.FormValue("welcome") != "",
		PasswordChange: r.FormValue("password_change") != "",
		NewLogin:       r.FormValue("new_login") != "",
		SecurityAlerts: r.FormValue("security_alerts") != "",
	}
	if err := h.Store.SetNotificationPrefs(r.Context(), u.ID, prefs); err != nil {
		h.Logger.Error("failed to save notification prefs", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, u, "Une erreur interne est survenue.")
		return
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Préférences enregistrées.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
