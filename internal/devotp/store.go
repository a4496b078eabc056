// Package devotp provides an in-memory store for plain OTP codes by phone,
// used only when dev OTP mode is enabled (GET /dev/otp). Never wired in
// production.
package devotp

import (
	"sync"
	"time"
)

// Store holds plain codes for dev-only retrieval.
type Store interface {
	// Put stores the code for phone until expiresAt.
	Put(phone, code string, expiresAt time.Time)
	// Get returns the code for phone if present and not expired.
	Get(phone string) (code string, ok bool)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: time.Now,
	}
}

// Put stores the code for phone until expiresAt, replacing any prior entry.
func (s *MemoryStore) Put(phone, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[phone] = entry{code: code, expiresAt: expiresAt}
}

// Get returns the code for phone if present and not expired.
func (s *MemoryStore) Get(phone string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, phone)
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}
