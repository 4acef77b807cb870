package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository/dao"
)

var ErrAuthSessionNotFound = dao.ErrAuthSessionNotFound

type AuthSessionDAO interface {
	Insert(ctx context.Context, session dao.AuthSession) (dao.AuthSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.AuthSession, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type AuthSessionRepository struct {
	dao AuthSessionDAO
}

func NewAuthSessionRepository(dao AuthSessionDAO) *AuthSessionRepository {
	return &AuthSessionRepository{
		dao: dao,
	}
}

func (r *AuthSessionRepository) Create(ctx context.Context, session domain.AuthSession) (domain.AuthSession, error) {
	created, err := r.dao.Insert(ctx, dao.AuthSession{
		UserID:    session.UserID,
		Provider:  string(session.Provider),
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	})
	if err != nil {
		return domain.AuthSession{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return authSessionDaoToDomain(created), nil
}

func (r *AuthSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.AuthSession, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.AuthSession{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return authSessionDaoToDomain(found), nil
}

func (r *AuthSessionRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := r.dao.Revoke(ctx, id, at); err != nil {
		return fmt.Errorf("r.dao.Revoke -> %w", err)
	}

	return nil
}

func (r *AuthSessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if err := r.dao.RevokeAllForUser(ctx, userID, at); err != nil {
		return fmt.Errorf("r.dao.RevokeAllForUser -> %w", err)
	}

	return nil
}

func authSessionDaoToDomain(s dao.AuthSession) domain.AuthSession {
	return domain.AuthSession{
		ID:        s.ID,
		UserID:    s.UserID,
		Provider:  domain.AuthProvider(s.Provider),
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
		CreatedAt: s.CreatedAt,
	}
}
