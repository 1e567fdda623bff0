package mailer

import (
	"fmt"
	"time"
)

// Verification builds the email-confirmation mail sent at registration.
func Verification(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Confirmez votre adresse email",
		Body: fmt.Sprintf("Bonjour %s,\n\n"+
			"Merci de confirmer votre adresse email en ouvrant ce lien :\n\n%s\n\n"+
			"Le lien est valable 24 heures.\n", name, link),
	}
}

// Welcome builds the greeting mail sent once the address is confirmed.
func Welcome(to, name string) Message {
	return Message{
		To:      to,
		Subject: "Bienvenue sur l'intranet",
		Body: fmt.Sprintf("Bonjour %s,\n\n"+
			"Votre compte est actif. Bonne journée !\n", name),
	}
}

// PasswordReset builds the reset-link mail.
func PasswordReset(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Réinitialisation de votre mot de passe",
		Body: fmt.Sprintf("Bonjour %s,\n\n"+
			"Pour choisir un nouveau mot de passe, ouvrez ce lien :\n\n%s\n\n"+
			"Le lien est valable 1 heure. Si vous n'êtes pas à l'origine de "+
			"cette demande, ignorez ce message.\n", name, link),
	}
}

// PasswordChanged builds the notice sent after a successful password
// change.
func PasswordChanged(to, name string, at time.Time) Message {
	return Message{
		To:      to,
		Subject: "Votre mot de passe a été modifié",
		Body: fmt.Sprintf("Bonjour %s,\n\n"+
			"Votre mot de passe a été modifié le %s.\n"+
			"Si vous n'êtes pas à l'origine de ce changement, contactez "+
			"immédiatement l'administrateur.\n",
			name, at.Format("02/01/2006 à 15:04")),
	}
}

// NewLogin builds the notice sent on each sign-in for users who opted in.
func NewLogin(to, name, ip string, at time.Time) Message {
	return Message{
		To:      to,
		Subject: "Nouvelle connexion à votre compte",
		Body: fmt.Sprintf("Bonjour %s,\n\n"+
			"Une connexion à votre compte a eu lieu le %s depuis l'adresse %s.\n",
			name, at.Format("02/01/2006 à 15:04"), ip),
	}
}
