// Package session implements the in-memory session table behind the
// sessionId cookie. Tokens are opaque random strings; sessions do not
// survive a restart and the cookie's Max-Age is advisory only.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

const tokenBytes = 32

// Registry maps session tokens to user IDs.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]string)}
}

// Create mints a token bound to userID.
func (r *Registry) Create(userID string) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	r.mu.Lock()
	r.sessions[token] = userID
	r.mu.Unlock()
	return token, nil
}

// Resolve returns the user ID for the token, or ok false if the token is
// unknown (never issued, destroyed, or lost to a restart).
func (r *Registry) Resolve(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.sessions[token]
	return userID, ok
}

// Destroy removes the token. Destroying an unknown token is a no-op.
func (r *Registry) Destroy(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}
