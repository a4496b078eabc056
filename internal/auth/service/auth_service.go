// Package service implements phone-first authentication: every login and
// registration is proven by a one-time code sent to the phone, and
// registration additionally rides a server-signed single-use ticket
// between the verify and submit steps.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"my-friends/backend/internal/devotp"
	"my-friends/backend/internal/otp"
	"my-friends/backend/internal/otp/delivery"
	otpdomain "my-friends/backend/internal/otp/domain"
	"my-friends/backend/internal/platform/ident"
	"my-friends/backend/internal/security"
	"my-friends/backend/internal/session"
	userdomain "my-friends/backend/internal/user/domain"
	userrepo "my-friends/backend/internal/user/repository"
)

var (
	// ErrUserNotFound means no account exists for the phone. Deliberately
	// disclosed to the client so the UI can steer to registration.
	ErrUserNotFound = errors.New("no account for this phone")
	// ErrPhoneAlreadyRegistered means the phone already has an account.
	ErrPhoneAlreadyRegistered = errors.New("phone already registered")
	// ErrInvalidTicket covers expired, tampered, and replayed registration tickets.
	ErrInvalidTicket = security.ErrInvalidTicket
	// ErrWrongFlow means the pending code was issued for the other flow
	// (login vs registration); the caller must request a fresh code.
	ErrWrongFlow = errors.New("code was issued for a different flow")
)

// Service drives the OTP login and registration flows.
type Service struct {
	users    userrepo.Repository
	sessions *session.Registry
	codes    *otp.Registry
	tickets  *security.TicketProvider
	sender   delivery.Sender
	devStore devotp.Store // nil unless dev OTP mode is enabled
	otpTTL   time.Duration
	nowF     func() time.Time
}

// NewService wires the auth service. devStore may be nil.
func NewService(
	users userrepo.Repository,
	sessions *session.Registry,
	codes *otp.Registry,
	tickets *security.TicketProvider,
	sender delivery.Sender,
	devStore devotp.Store,
	otpTTL time.Duration,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		codes:    codes,
		tickets:  tickets,
		sender:   sender,
		devStore: devStore,
		otpTTL:   otpTTL,
		nowF:     time.Now,
	}
}

// StartLogin sends a login code to the phone. The phone must belong to an
// existing account.
func (s *Service) StartLogin(ctx context.Context, phone string) error {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("lookup phone: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.issue(phone, otpdomain.Intent{Kind: otpdomain.KindLogin, UserID: user.ID})
}

// VerifyLogin checks the code and, on success, opens a session for the
// account the challenge was issued for.
func (s *Service) VerifyLogin(ctx context.Context, phone, code string) (*userdomain.User, string, error) {
	intent, err := s.codes.Verify(phone, code)
	if err != nil {
		return nil, "", err
	}
	if intent.Kind != otpdomain.KindLogin {
		return nil, "", ErrWrongFlow
	}
	user, err := s.users.GetByID(ctx, intent.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}
	token, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// StartRegistration sends a registration code to the phone after checking
// the phone is not taken. The chosen role travels with the challenge.
func (s *Service) StartRegistration(ctx context.Context, phone string, role userdomain.Role) error {
	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("lookup phone: %w", err)
	}
	if existing != nil {
		return ErrPhoneAlreadyRegistered
	}
	return s.issue(phone, otpdomain.Intent{Kind: otpdomain.KindRegistration, Role: role})
}

// VerifyRegistration checks the code and returns a single-use ticket
// binding the verified phone and role to the final submit.
func (s *Service) VerifyRegistration(ctx context.Context, phone, code string) (string, error) {
	intent, err := s.codes.Verify(phone, code)
	if err != nil {
		return "", err
	}
	if intent.Kind != otpdomain.KindRegistration {
		return "", ErrWrongFlow
	}
	return s.tickets.Issue(phone, intent.Role)
}

// CompleteRegistration consumes the ticket, creates the account, and opens
// a session. The duplicate-phone check runs again here; the phone could
// have been taken between verification and submit.
func (s *Service) CompleteRegistration(ctx context.Context, ticket, name, location string) (*userdomain.User, string, error) {
	phone, role, err := s.tickets.Consume(ticket)
	if err != nil {
		return nil, "", err
	}
	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, "", fmt.Errorf("lookup phone: %w", err)
	}
	if existing != nil {
		return nil, "", ErrPhoneAlreadyRegistered
	}

	user := &userdomain.User{
		ID:        ident.NewID(),
		Name:      name,
		Phone:     phone,
		Location:  location,
		Role:      role,
		CreatedAt: s.nowF().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, "", err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout destroys the session. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	s.sessions.Destroy(token)
}

func (s *Service) issue(phone string, intent otpdomain.Intent) error {
	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}
	s.codes.Issue(phone, code, intent)
	if s.devStore != nil {
		s.devStore.Put(phone, code, s.nowF().Add(s.otpTTL))
	}
	if err := s.sender.Send(phone, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}
