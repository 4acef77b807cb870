package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository/dao"
)

var (
	ErrSessionNotFound   = dao.ErrSessionNotFound
	ErrSessionCodeExists = dao.ErrSessionCodeExists
	ErrSessionConflict   = dao.ErrSessionConflict
)

type SessionDAO interface {
	Insert(ctx context.Context, session dao.ActiveSession) (dao.ActiveSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.ActiveSession, error)
	FindByCode(ctx context.Context, code string) (dao.ActiveSession, error)
	UpdateStatus(ctx context.Context, session dao.ActiveSession, fromStatus string) (dao.ActiveSession, error)
}

type SessionRepository struct {
	dao SessionDAO
}

func NewSessionRepository(dao SessionDAO) *SessionRepository {
	return &SessionRepository{
		dao: dao,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session domain.ActiveSession) (domain.ActiveSession, error) {
	created, err := r.dao.Insert(ctx, sessionDomainToDao(session))
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return sessionDaoToDomain(created), nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.ActiveSession, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return sessionDaoToDomain(found), nil
}

func (r *SessionRepository) FindByCode(ctx context.Context, code string) (domain.ActiveSession, error) {
	found, err := r.dao.FindByCode(ctx, code)
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("r.dao.FindByCode -> %w", err)
	}

	return sessionDaoToDomain(found), nil
}

func (r *SessionRepository) Transition(ctx context.Context, session domain.ActiveSession, from domain.SessionStatus) (domain.ActiveSession, error) {
	updated, err := r.dao.UpdateStatus(ctx, sessionDomainToDao(session), string(from))
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return sessionDaoToDomain(updated), nil
}

func sessionDomainToDao(s domain.ActiveSession) dao.ActiveSession {
	return dao.ActiveSession{
		ID:        s.ID,
		Code:      s.Code,
		GuideID:   s.GuideID,
		ClimberID: s.ClimberID,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
	}
}

func sessionDaoToDomain(s dao.ActiveSession) domain.ActiveSession {
	return domain.ActiveSession{
		ID:        s.ID,
		Code:      s.Code,
		GuideID:   s.GuideID,
		ClimberID: s.ClimberID,
		Status:    domain.SessionStatus(s.Status),
		CreatedAt: s.CreatedAt,
	}
}
