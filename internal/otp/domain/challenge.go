// Package domain holds the pending OTP challenge kept in memory between
// sending a code and verifying it.
package domain

import (
	"time"

	userdomain "my-friends/backend/internal/user/domain"
)

// Kind distinguishes what a successful verification unlocks.
type Kind string

const (
	KindLogin        Kind = "login"
	KindRegistration Kind = "registration"
)

// Intent is the purpose attached to a challenge when it was issued, and is
// returned to the caller on successful verification. UserID is set for
// login challenges; Role for registration challenges.
type Intent struct {
	Kind   Kind
	UserID string
	Role   userdomain.Role
}

// Challenge is a pending code for one phone number. At most one challenge
// per phone exists at a time; reissuing replaces it.
type Challenge struct {
	Phone     string
	CodeHash  string
	Intent    Intent
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the challenge lapsed at the given instant.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
