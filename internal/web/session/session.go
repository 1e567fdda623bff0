// Package session wraps cookie sessions: who is signed in, flash
// messages, and the middleware gating authenticated and superuser pages.
package session

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "beffroi_session"

	keyUserID = "user_id"
	keyFlash  = "_flash"
)

// Flash kinds map onto the stylesheet's message classes.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind string
	Text string
}

func init() {
	gob.Register(Flash{})
}

// Manager reads and writes the session cookie.
type Manager struct {
	store  *sessions.CookieStore
	maxAge int
}

// New builds a cookie-backed manager. secure marks the cookie HTTPS-only.
func New(secret string, maxAge int, secure bool) *Manager {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: cs, maxAge: maxAge}
}

func (m *Manager) get(r *http.Request) *sessions.Session {
	// A tampered cookie decodes to a fresh session, which is all we need.
	s, _ := m.store.Get(r, sessionName)
	return s
}

// SetUser signs a user in. Without remember, the cookie dies with the
// browser session instead of lasting the configured max age.
func (m *Manager) SetUser(w http.ResponseWriter, r *http.Request, userID int64, remember bool) error {
	s := m.get(r)
	s.Values[keyUserID] = userID
	if remember {
		s.Options.MaxAge = m.maxAge
	} else {
		s.Options.MaxAge = 0
	}
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UserID returns the signed-in user's ID, or 0.
func (m *Manager) UserID(r *http.Request) int64 {
	s := m.get(r)
	id, ok := s.Values[keyUserID].(int64)
	if !ok {
		return 0
	}
	return id
}

// Clear signs the user out and drops the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	s.Values = make(map[interface{}]interface{})
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, kind, text string) {
	s := m.get(r)
	s.AddFlash(Flash{Kind: kind, Text: text}, keyFlash)
	_ = s.Save(r, w)
}

// Flashes pops all queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := m.get(r)
	raw := s.Flashes(keyFlash)
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}
