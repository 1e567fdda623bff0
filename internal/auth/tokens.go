package auth

import (
	"time"

	"github.com/google/uuid"
)

// Token validity windows.
const (
	VerifyTokenTTL = 24 * time.Hour
	ResetTokenTTL  = 1 * time.Hour
)

// NewToken returns a fresh random token for email links.
func NewToken() string {
	return uuid.NewString()
}

// TokenValid reports whether a token issued at sentAt is still usable
// within the given window. A missing issue time means the token was never
// sent or has been cleared.
func TokenValid(sentAt *time.Time, ttl time.Duration, now time.Time) bool {
	if sentAt == nil {
		return false
	}
	return now.Sub(*sentAt) <= ttl
}
