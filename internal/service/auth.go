package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acg-climbing/sessions-api/internal/config"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository"
)

var (
	ErrProfileEmailExists = repository.ErrProfileEmailExists
	ErrProfileNotFound    = repository.ErrProfileNotFound
	ErrWrongPassword      = errors.New("wrong password")
	ErrNoPassword         = errors.New("this account signs in with google")
	ErrOAuthDisabled      = errors.New("google sign-in is not configured")
)

type AuthProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (domain.Profile, error)
	UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error
	Reclaim(ctx context.Context, id uuid.UUID, role domain.Role, fullName *string) (domain.Profile, error)
}

type AuthSessionRepository interface {
	Create(ctx context.Context, session domain.AuthSession) (domain.AuthSession, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleUser, error)
}

type IdentityInvalidator interface {
	Invalidate(ctx context.Context, sessionID uuid.UUID) error
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

// Invalidators fans sign-out out to every holder of per-session state.
type Invalidators []IdentityInvalidator

func (is Invalidators) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	var errs []error
	for _, i := range is {
		if err := i.Invalidate(ctx, sessionID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (is Invalidators) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	var errs []error
	for _, i := range is {
		if err := i.InvalidateUser(ctx, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type AuthService struct {
	profiles   AuthProfileRepository
	sessions   AuthSessionRepository
	google     GoogleProvider
	identities IdentityInvalidator
	tokenTTL   time.Duration
	leads      map[string]bool
	now        func() time.Time
}

// NewAuthService wires sign-in. google may be nil when OAuth is not configured.
func NewAuthService(
	profiles AuthProfileRepository,
	sessions AuthSessionRepository,
	google GoogleProvider,
	identities IdentityInvalidator,
	conf *config.AuthConfig,
) *AuthService {
	leads := make(map[string]bool, len(conf.LeadEmails))
	for _, email := range conf.LeadEmails {
		leads[normalizeEmail(email)] = true
	}

	return &AuthService{
		profiles:   profiles,
		sessions:   sessions,
		google:     google,
		identities: identities,
		tokenTTL:   conf.TokenTTL,
		leads:      leads,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// verifiedRole is the role for an identity whose email ownership has been
// proven by the provider. Leads are granted from the allow-list only here.
func (s *AuthService) verifiedRole(email string, current domain.Role) domain.Role {
	if s.leads[normalizeEmail(email)] {
		return domain.RoleLead
	}
	return current
}

// Signup creates an unverified password profile. It always starts as a
// climber, whatever the email.
func (s *AuthService) Signup(ctx context.Context, profile domain.Profile) (domain.Profile, domain.AuthSession, error) {
	hash, err := hashPassword(profile.Password)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, err
	}

	profile.Email = normalizeEmail(profile.Email)
	profile.Password = hash
	profile.Role = domain.RoleClimber

	created, err := s.profiles.Create(ctx, profile)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, fmt.Errorf("s.profiles.Create -> %w", err)
	}

	session, err := s.openSession(ctx, created.ID, domain.ProviderPassword)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, err
	}

	return created, session, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Profile, domain.AuthSession, error) {
	profile, err := s.profiles.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return domain.Profile{}, domain.AuthSession{}, ErrProfileNotFound
		}

		return domain.Profile{}, domain.AuthSession{}, fmt.Errorf("s.profiles.FindByEmail -> %w", err)
	}

	if profile.Password == "" {
		return domain.Profile{}, domain.AuthSession{}, ErrNoPassword
	}
	if err = bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(password)); err != nil {
		return domain.Profile{}, domain.AuthSession{}, ErrWrongPassword
	}

	session, err := s.openSession(ctx, profile.ID, domain.ProviderPassword)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, err
	}

	return profile, session, nil
}

func (s *AuthService) GoogleLoginURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrOAuthDisabled
	}

	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback finishes the OAuth flow, provisioning a profile on first
// sign-in.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (domain.Profile, domain.AuthSession, error) {
	if s.google == nil {
		return domain.Profile{}, domain.AuthSession{}, ErrOAuthDisabled
	}

	user, err := s.google.Exchange(ctx, code)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, fmt.Errorf("s.google.Exchange -> %w", err)
	}

	profile, err := s.findOrProvision(ctx, user)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, err
	}

	session, err := s.openSession(ctx, profile.ID, domain.ProviderGoogle)
	if err != nil {
		return domain.Profile{}, domain.AuthSession{}, err
	}

	return profile, session, nil
}

func (s *AuthService) findOrProvision(ctx context.Context, user GoogleUser) (domain.Profile, error) {
	email := normalizeEmail(user.Email)

	profile, err := s.profiles.FindByEmail(ctx, email)
	if err == nil {
		if profile.Password != "" {
			return s.reclaim(ctx, profile, user)
		}
		if profile.FullName == nil && user.Name != "" {
			if err = s.profiles.UpdateFullName(ctx, profile.ID, user.Name); err != nil {
				return domain.Profile{}, fmt.Errorf("s.profiles.UpdateFullName -> %w", err)
			}
			profile.FullName = &user.Name
		}
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return domain.Profile{}, fmt.Errorf("s.profiles.FindByEmail -> %w", err)
	}

	newProfile := domain.Profile{
		Email: email,
		Role:  s.verifiedRole(email, domain.RoleClimber),
	}
	if user.Name != "" {
		newProfile.FullName = &user.Name
	}

	created, err := s.profiles.Create(ctx, newProfile)
	if err != nil {
		// Lost a race with a concurrent first sign-in or a password signup.
		if errors.Is(err, repository.ErrProfileEmailExists) {
			existing, err := s.profiles.FindByEmail(ctx, email)
			if err != nil {
				return domain.Profile{}, fmt.Errorf("s.profiles.FindByEmail -> %w", err)
			}
			if existing.Password != "" {
				return s.reclaim(ctx, existing, user)
			}
			return existing, nil
		}
		return domain.Profile{}, fmt.Errorf("s.profiles.Create -> %w", err)
	}

	return created, nil
}

// reclaim gives a password profile to the verified owner of its email. The
// password nobody proved ownership for stops working and every session opened
// with it is revoked.
func (s *AuthService) reclaim(ctx context.Context, profile domain.Profile, user GoogleUser) (domain.Profile, error) {
	var fullName *string
	if user.Name != "" {
		fullName = &user.Name
	}

	reclaimed, err := s.profiles.Reclaim(ctx, profile.ID, s.verifiedRole(profile.Email, profile.Role), fullName)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("s.profiles.Reclaim -> %w", err)
	}

	if err = s.sessions.RevokeAllForUser(ctx, profile.ID, s.now().UTC()); err != nil {
		return domain.Profile{}, fmt.Errorf("s.sessions.RevokeAllForUser -> %w", err)
	}
	if err = s.identities.InvalidateUser(ctx, profile.ID); err != nil {
		return domain.Profile{}, fmt.Errorf("s.identities.InvalidateUser -> %w", err)
	}

	zap.L().Warn("password profile reclaimed by verified google sign-in",
		zap.String("user_id", profile.ID.String()))

	return reclaimed, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, sessionID, s.now().UTC()); err != nil {
		return fmt.Errorf("s.sessions.Revoke -> %w", err)
	}

	if err := s.identities.Invalidate(ctx, sessionID); err != nil {
		return fmt.Errorf("s.identities.Invalidate -> %w", err)
	}

	return nil
}

func (s *AuthService) openSession(ctx context.Context, userID uuid.UUID, provider domain.AuthProvider) (domain.AuthSession, error) {
	now := s.now().UTC()

	session, err := s.sessions.Create(ctx, domain.AuthSession{
		UserID:    userID,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	})
	if err != nil {
		return domain.AuthSession{}, fmt.Errorf("s.sessions.Create -> %w", err)
	}

	return session, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}
	return string(hash), nil
}
