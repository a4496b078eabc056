// Package security issues the short-lived registration tickets that link
// a verified phone to the final registration submit. The ticket replaces
// any client-asserted "verified" flag: the server signs the claim and
// accepts it exactly once.
package security

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userdomain "my-friends/backend/internal/user/domain"
)

// ErrInvalidTicket covers expired, tampered, replayed, and foreign tickets.
var ErrInvalidTicket = errors.New("invalid registration ticket")

type ticketClaims struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TicketProvider signs registration tickets with HS256 and tracks issued
// ticket IDs so each ticket is consumable once. The jti set lives in
// memory alongside the OTP registry; a restart invalidates outstanding
// tickets, which simply sends the user back through verification.
type TicketProvider struct {
	secret []byte
	ttl    time.Duration

	mu     sync.Mutex
	issued map[string]struct{}
	nowF   func() time.Time
}

// NewTicketProvider returns a provider signing with secret, tickets valid for ttl.
func NewTicketProvider(secret string, ttl time.Duration) *TicketProvider {
	return &TicketProvider{
		secret: []byte(secret),
		ttl:    ttl,
		issued: make(map[string]struct{}),
		nowF:   time.Now,
	}
}

// Issue signs a ticket asserting that phone was verified for a
// registration with the given role.
func (p *TicketProvider) Issue(phone string, role userdomain.Role) (string, error) {
	now := p.nowF()
	jti := uuid.NewString()
	claims := ticketClaims{
		Phone: phone,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}

	p.mu.Lock()
	p.issued[jti] = struct{}{}
	p.mu.Unlock()
	return token, nil
}

// Consume validates the ticket and retires its ID. A second Consume of the
// same ticket fails, as does any ticket this process did not issue.
func (p *TicketProvider) Consume(ticket string) (phone string, role userdomain.Role, err error) {
	claims := &ticketClaims{}
	_, err = jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return p.nowF() }))
	if err != nil {
		return "", "", ErrInvalidTicket
	}

	p.mu.Lock()
	_, ok := p.issued[claims.ID]
	if ok {
		delete(p.issued, claims.ID)
	}
	p.mu.Unlock()
	if !ok {
		return "", "", ErrInvalidTicket
	}

	parsedRole, perr := userdomain.ParseRole(claims.Role)
	if perr != nil {
		return "", "", ErrInvalidTicket
	}
	return claims.Phone, parsedRole, nil
}
