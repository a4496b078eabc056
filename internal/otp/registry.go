package otp

import (
	"errors"
	"sync"
	"time"

	"my-friends/backend/internal/otp/domain"
)

// Verification outcomes. A mismatch keeps the challenge so the caller can
// retry within the window; expiry and success both clear it.
var (
	ErrNotFound = errors.New("no pending otp for phone")
	ErrExpired  = errors.New("otp expired")
	ErrMismatch = errors.New("otp does not match")
)

// Registry holds pending challenges in memory, keyed by phone. Challenges
// do not survive a restart; callers simply request a new code.
type Registry struct {
	mu         sync.Mutex
	challenges map[string]*domain.Challenge
	ttl        time.Duration
	nowF       func() time.Time
}

// NewRegistry returns a registry issuing challenges valid for ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		challenges: make(map[string]*domain.Challenge),
		ttl:        ttl,
		nowF:       time.Now,
	}
}

// Issue stores a challenge for the phone, replacing any pending one. A
// resend therefore always carries a fresh expiry window.
func (r *Registry) Issue(phone, code string, intent domain.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowF()
	r.challenges[phone] = &domain.Challenge{
		Phone:     phone,
		CodeHash:  HashCode(code),
		Intent:    intent,
		ExpiresAt: now.Add(r.ttl),
		CreatedAt: now,
	}
}

// Verify checks the submitted code against the pending challenge for the
// phone. On success the challenge is consumed and its intent returned.
// An expired challenge is removed on detection; a mismatched code leaves
// the challenge in place.
func (r *Registry) Verify(phone, code string) (domain.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.challenges[phone]
	if !ok {
		return domain.Intent{}, ErrNotFound
	}
	if ch.Expired(r.nowF()) {
		delete(r.challenges, phone)
		return domain.Intent{}, ErrExpired
	}
	if !CodeEqual(ch.CodeHash, code) {
		return domain.Intent{}, ErrMismatch
	}
	delete(r.challenges, phone)
	return ch.Intent, nil
}
