package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const minPasswordLength = 8

// Service orchestrates credential lookup, hashing, and token issuance for
// the login and registration flows.
type Service struct {
	users    UserStore
	orgs     OrganisationDirectory
	codec    *Codec
	now      func() time.Time
	tokenTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth service. The store and codec are injected;
// the service holds no other state and is safe for concurrent use.
func NewService(users UserStore, orgs OrganisationDirectory, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	svc := &Service{
		users:    users,
		orgs:     orgs,
		codec:    codec,
		now:      time.Now,
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Session is the result of a successful login or registration. The token is
// self-contained; nothing about the session is stored server-side.
type Session struct {
	User          *User
	Token         string
	ExpiresAt     time.Time
	SetupRequired bool
}

// Login authenticates an email/password pair and issues a session token.
// Unknown email and wrong password both collapse to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.newSession(user)
}

// Registration carries the inputs of the register flow. OrganisationID is
// optional; most users acquire their tenant in a later onboarding step.
type Registration struct {
	Email          string
	Password       string
	OrganisationID *string
}

// Register creates a new identity, hashes its password, and issues a first
// session token. The caller learns via SetupRequired whether the
// create-organisation onboarding step is still ahead.
func (s *Service) Register(ctx context.Context, reg Registration) (Session, error) {
	email := NormalizeEmail(reg.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if len(reg.Password) < minPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if reg.OrganisationID != nil {
		if err := s.checkOrganisation(ctx, *reg.OrganisationID); err != nil {
			return Session{}, err
		}
	}
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return Session{}, err
	}
	user := &User{
		Email:          email,
		PasswordHash:   hash,
		Role:           RoleMember,
		OrganisationID: reg.OrganisationID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return Session{}, err
	}
	return s.newSession(user)
}

// Reissue signs a fresh token for an existing user, typically right after
// the user gained a tenant. The previous token stays verifiable until it
// expires; the client is expected to replace it.
func (s *Service) Reissue(ctx context.Context, userID string) (Session, error) {
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.newSession(user)
}

// Authenticate verifies a raw token and returns the embedded principal.
// The token is self-contained, so no store round trip happens here.
func (s *Service) Authenticate(token string) (Principal, error) {
	return s.codec.Verify(token)
}

// Identity loads the stored user behind a verified principal. It derives
// everything from the token subject and has no side effects.
func (s *Service) Identity(ctx context.Context, p Principal) (*User, error) {
	return s.users.Find(ctx, p.UserID)
}

// AttachOrganisation links a tenantless user to an organisation and
// reissues the session token with the tenant claim set.
func (s *Service) AttachOrganisation(ctx context.Context, userID, organisationID string) (Session, error) {
	if err := s.users.SetOrganisation(ctx, userID, organisationID); err != nil {
		return Session{}, err
	}
	return s.Reissue(ctx, userID)
}

func (s *Service) checkOrganisation(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: organisation_id is empty", ErrInvalidInput)
	}
	if s.orgs == nil {
		return fmt.Errorf("%w: unknown organisation", ErrInvalidInput)
	}
	exists, err := s.orgs.OrganisationExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: unknown organisation", ErrInvalidInput)
	}
	return nil
}

func (s *Service) newSession(user *User) (Session, error) {
	token, exp, err := s.codec.Issue(user, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		User:          user,
		Token:         token,
		ExpiresAt:     exp,
		SetupRequired: user.OrganisationID == nil,
	}, nil
}

// NormalizeEmail lower-cases and trims an email address. Applied on both
// registration and login so lookups are consistent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
