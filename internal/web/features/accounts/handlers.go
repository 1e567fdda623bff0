// Package accounts implements registration, sign-in and the profile
// pages. Sign-in security events are logged with the client address.
package accounts

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/beffroi/beffroi/internal/auth"
	"github.com/beffroi/beffroi/internal/mailer"
	"github.com/beffroi/beffroi/internal/store"
	"github.com/beffroi/beffroi/internal/web/features/accounts/pages"
	"github.com/beffroi/beffroi/internal/web/session"
	"github.com/beffroi/beffroi/internal/web/ui"
)

// Handlers carries the dependencies of the account pages.
type Handlers struct {
	Store    *store.Store
	Sessions *session.Manager
	Mailer   mailer.Mailer
	Logger   *slog.Logger

	// BaseURL prefixes the links embedded in mail.
	BaseURL string
}

func NewHandlers(st *store.Store, sm *session.Manager,
	m mailer.Mailer, baseURL string, logger *slog.Logger) *Handlers {
	return &Handlers{
		Store:    st,
		Sessions: sm,
		Mailer:   m,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Logger:   logger,
	}
}

// RegisterPage shows the registration form.
func (h *Handlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	ui.Page(w, r, http.StatusOK, "Inscription", nil, nil, pages.Register(pages.RegisterForm{}))
}

// Register creates an account. The very first account becomes an active,
// verified superuser so a fresh install can be administered at all.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	form := pages.RegisterForm{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
	}
	fail := func(msg string) {
		form.Error = msg
		ui.Page(w, r, http.StatusUnprocessableEntity, "Inscription", nil, nil, pages.Register(form))
	}

	if _, err := mail.ParseAddress(form.Email); err != nil {
		fail("Adresse email invalide.")
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
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}

	count, err := h.Store.CountUsers(r.Context())
	if err != nil {
		h.Logger.Error("failed to count users", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}

	u := &store.User{
		Email:                form.Email,
		PasswordHash:         hash,
		FirstName:            form.FirstName,
		LastName:             form.LastName,
		Active:               true,
		Superuser:            count == 0,
		EmailVerified:        true,
		NotifyWelcome:        true,
		NotifyPasswordChange: true,
		NotifySecurityAlerts: true,
	}
	if err := h.Store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail("Un compte existe déjà avec cette adresse.")
			return
		}
		h.Logger.Error("failed to create user", "error", err)
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("account registered", "user_id", u.ID, "email", u.Email,
		"superuser", u.Superuser, "ip", clientIP(r))

	if u.NotifyWelcome {
		if err := h.Mailer.Send(r.Context(), mailer.Welcome(u.Email, u.FullName())); err != nil {
			h.Logger.Error("failed to send welcome mail", "user_id", u.ID, "error", err)
		}
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Votre compte est créé, vous pouvez vous connecter.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage shows the sign-in form.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Page(w, r, http.StatusOK, "Connexion", nil, h.Sessions.Flashes(w, r),
		pages.Login(pages.LoginForm{Next: safeNext(r.URL.Query().Get("next"))}))
}

// Login authenticates and opens the session. Inactive and unverified
// accounts are told apart from bad credentials; failed attempts are
// logged with the client address.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	form := pages.LoginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Next:     safeNext(r.FormValue("next")),
		Remember: r.FormValue("remember_me") != "",
	}
	fail := func(msg string) {
		form.Error = msg
		ui.Page(w, r, http.StatusUnauthorized, "Connexion", nil, nil, pages.Login(form))
	}

	u, err := h.Store.UserByEmail(r.Context(), form.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.Logger.Error("login lookup failed", "error", err)
		}
		h.Logger.Warn("login failed", "email", form.Email, "reason", "unknown account", "ip", clientIP(r))
		fail("Identifiants invalides.")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, r.FormValue("password")) {
		h.Logger.Warn("login failed", "user_id", u.ID, "reason", "bad password", "ip", clientIP(r))
		fail("Identifiants invalides.")
		return
	}
	if !u.Active {
		h.Logger.Warn("login refused", "user_id", u.ID, "reason", "inactive", "ip", clientIP(r))
		fail("Votre compte est désactivé.")
		return
	}
	if !u.EmailVerified {
		h.Logger.Warn("login refused", "user_id", u.ID, "reason", "unverified", "ip", clientIP(r))
		fail("Votre adresse email n'a pas été vérifiée.")
		return
	}

	if err := h.Sessions.SetUser(w, r, u.ID, form.Remember); err != nil {
		h.Logger.Error("failed to open session", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}

	h.Logger.Info("login", "user_id", u.ID, "ip", clientIP(r), "remember", form.Remember)
	if u.NotifyNewLogin {
		if err := h.Mailer.Send(r.Context(), mailer.NewLogin(u.Email, u.FullName(), clientIP(r), time.Now())); err != nil {
			h.Logger.Error("failed to send login notice", "user_id", u.ID, "error", err)
		}
	}

	target := form.Next
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout closes the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if u := session.UserFromContext(r.Context()); u != nil {
		h.Logger.Info("logout", "user_id", u.ID)
	}
	_ = h.Sessions.Clear(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Verify confirms an email address from the mailed token. Accounts
// created through the back office start unverified and land here.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	u, err := h.Store.UserByVerifyToken(r.Context(), token)
	if err != nil || !auth.TokenValid(u.VerifySentAt, auth.VerifyTokenTTL, time.Now()) {
		h.Sessions.AddFlash(w, r, session.FlashError, "Lien de vérification invalide ou expiré.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.Store.MarkEmailVerified(r.Context(), u.ID); err != nil {
		h.Logger.Error("failed to mark email verified", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}
	h.Logger.Info("email verified", "user_id", u.ID)

	if u.NotifyWelcome {
		if err := h.Mailer.Send(r.Context(), mailer.Welcome(u.Email, u.FullName())); err != nil {
			h.Logger.Error("failed to send welcome mail", "user_id", u.ID, "error", err)
		}
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Adresse vérifiée, vous pouvez vous connecter.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ForgotPage shows the reset-request form.
func (h *Handlers) ForgotPage(w http.ResponseWriter, r *http.Request) {
	ui.Page(w, r, http.StatusOK, "Mot de passe oublié", nil, h.Sessions.Flashes(w, r), pages.Forgot())
}

// Forgot mails a reset link. The response never reveals whether the
// address has an account.
func (h *Handlers) Forgot(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	u, err := h.Store.UserByEmail(r.Context(), email)
	if err == nil {
		token := auth.NewToken()
		if err := h.Store.SetResetToken(r.Context(), u.ID, token, time.Now().UTC()); err != nil {
			h.Logger.Error("failed to set reset token", "user_id", u.ID, "error", err)
		} else {
			link := h.BaseURL + "/password/reset?token=" + url.QueryEscape(token)
			if err := h.Mailer.Send(r.Context(), mailer.PasswordReset(u.Email, u.FullName(), link)); err != nil {
				h.Logger.Error("failed to send reset mail", "user_id", u.ID, "error", err)
			}
			h.Logger.Info("password reset requested", "user_id", u.ID, "ip", clientIP(r))
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		h.Logger.Error("reset lookup failed", "error", err)
	}

	h.Sessions.AddFlash(w, r, session.FlashInfo,
		"Si un compte existe pour cette adresse, un lien de réinitialisation a été envoyé.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ResetPage shows the new-password form when the token is still valid.
func (h *Handlers) ResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	u, err := h.Store.UserByResetToken(r.Context(), token)
	if err != nil || !auth.TokenValid(u.ResetSentAt, auth.ResetTokenTTL, time.Now()) {
		h.Sessions.AddFlash(w, r, session.FlashError, "Lien de réinitialisation invalide ou expiré.")
		http.Redirect(w, r, "/password/forgot", http.StatusSeeOther)
		return
	}
	ui.Page(w, r, http.StatusOK, "Nouveau mot de passe", nil, nil,
		pages.Reset(pages.ResetForm{Token: token}))
}

// Reset applies the new password and invalidates the token.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	u, err := h.Store.UserByResetToken(r.Context(), token)
	if err != nil || !auth.TokenValid(u.ResetSentAt, auth.ResetTokenTTL, time.Now()) {
		h.Sessions.AddFlash(w, r, session.FlashError, "Lien de réinitialisation invalide ou expiré.")
		http.Redirect(w, r, "/password/forgot", http.StatusSeeOther)
		return
	}

	form := pages.ResetForm{Token: token}
	fail := func(msg string) {
		form.Error = msg
		ui.Page(w, r, http.StatusUnprocessableEntity, "Nouveau mot de passe", nil, nil, pages.Reset(form))
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
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}
	if err := h.Store.SetPassword(r.Context(), u.ID, hash); err != nil {
		h.Logger.Error("failed to set password", "user_id", u.ID, "error", err)
		ui.Error(w, r, http.StatusInternalServerError, nil, "Une erreur interne est survenue.")
		return
	}
	if err := h.Store.ClearResetToken(r.Context(), u.ID); err != nil {
		h.Logger.Error("failed to clear reset token", "user_id", u.ID, "error", err)
	}

	h.Logger.Info("password reset", "user_id", u.ID, "ip", clientIP(r))
	if u.NotifyPasswordChange {
		if err := h.Mailer.Send(r.Context(), mailer.PasswordChanged(u.Email, u.FullName(), time.Now())); err != nil {
			h.Logger.Error("failed to send password notice", "user_id", u.ID, "error", err)
		}
	}

	h.Sessions.AddFlash(w, r, session.FlashSuccess, "Mot de passe mis à jour, vous pouvez vous connecter.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps redirects on-site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

// clientIP returns the requester's address. The router installs RealIP,
// so RemoteAddr already reflects X-Forwarded-For behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
