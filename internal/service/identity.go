package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acg-climbing/sessions-api/internal/cache"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository"
)

type IdentityProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error
}

type IdentitySessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.AuthSession, error)
}

// IdentityService resolves the caller behind an auth session once and keeps
// the result until the session is signed out or the cache entry expires.
type IdentityService struct {
	profiles IdentityProfileRepository
	sessions IdentitySessionRepository
	cache    cache.IdentityCache
	ttl      time.Duration
	now      func() time.Time
}

func NewIdentityService(profiles IdentityProfileRepository, sessions IdentitySessionRepository, c cache.IdentityCache, ttl time.Duration) *IdentityService {
	return &IdentityService{
		profiles: profiles,
		sessions: sessions,
		cache:    c,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *IdentityService) Resolve(ctx context.Context, sessionID, userID uuid.UUID) (domain.Identity, error) {
	key := sessionID.String()

	cached, err := s.cache.Get(ctx, key)
	if err == nil && cached.Profile.ID == userID {
		return cached, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		zap.L().Warn("identity cache read failed", zap.String("session_id", key), zap.Error(err))
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrAuthSessionNotFound) {
			return domain.Identity{}, ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("s.sessions.FindByID -> %w", err)
	}

	now := s.now()
	if session.UserID != userID || !session.Active(now) {
		return domain.Identity{}, ErrUnauthenticated
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return domain.Identity{}, ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("s.profiles.FindByID -> %w", err)
	}

	identity := domain.NewIdentity(sessionID, profile)

	ttl := s.ttl
	if left := session.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}
	if err = s.cache.Set(ctx, key, identity, ttl); err != nil {
		zap.L().Warn("identity cache write failed", zap.String("session_id", key), zap.Error(err))
	}

	return identity, nil
}

// Invalidate drops the cached identity for a session.
func (s *IdentityService) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.cache.Delete(ctx, sessionID.String()); err != nil {
		return fmt.Errorf("s.cache.Delete -> %w", err)
	}

	return nil
}

// InvalidateUser drops the cached identity of every session the user holds.
func (s *IdentityService) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("s.cache.DeleteUser -> %w", err)
	}

	return nil
}

// UpdateFullName renames the caller and returns the refreshed identity.
func (s *IdentityService) UpdateFullName(ctx context.Context, identity domain.Identity, fullName string) (domain.Identity, error) {
	if err := s.profiles.UpdateFullName(ctx, identity.Profile.ID, fullName); err != nil {
		return domain.Identity{}, fmt.Errorf("s.profiles.UpdateFullName -> %w", err)
	}

	if err := s.InvalidateUser(ctx, identity.Profile.ID); err != nil {
		return domain.Identity{}, err
	}

	return s.Resolve(ctx, identity.SessionID, identity.Profile.ID)
}
