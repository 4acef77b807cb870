package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository/dao"
)

var (
	ErrProfileEmailExists = dao.ErrProfileEmailExists
	ErrProfileNotFound    = dao.ErrProfileNotFound
)

type ProfileDAO interface {
	Insert(ctx context.Context, profile dao.Profile) (dao.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Profile, error)
	FindByEmail(ctx context.Context, email string) (dao.Profile, error)
	UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error
	Reclaim(ctx context.Context, id uuid.UUID, role string, fullName *string) (dao.Profile, error)
}

type ProfileRepository struct {
	dao ProfileDAO
}

func NewProfileRepository(dao ProfileDAO) *ProfileRepository {
	return &ProfileRepository{
		dao: dao,
	}
}

func (r *ProfileRepository) Create(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	created, err := r.dao.Insert(ctx, dao.Profile{
		Email:    profile.Email,
		FullName: profile.FullName,
		Password: profile.Password,
		Role:     string(profile.Role),
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return profileDaoToDomain(created), nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return profileDaoToDomain(found), nil
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return profileDaoToDomain(found), nil
}

func (r *ProfileRepository) UpdateFullName(ctx context.Context, id uuid.UUID, fullName string) error {
	if err := r.dao.UpdateFullName(ctx, id, fullName); err != nil {
		return fmt.Errorf("r.dao.UpdateFullName -> %w", err)
	}

	return nil
}

func (r *ProfileRepository) Reclaim(ctx context.Context, id uuid.UUID, role domain.Role, fullName *string) (domain.Profile, error) {
	reclaimed, err := r.dao.Reclaim(ctx, id, string(role), fullName)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("r.dao.Reclaim -> %w", err)
	}

	return profileDaoToDomain(reclaimed), nil
}

func profileDaoToDomain(p dao.Profile) domain.Profile {
	role, ok := domain.ParseRole(p.Role)
	if !ok {
		// Unknown roles grant nothing beyond a climber.
		role = domain.RoleClimber
	}

	return domain.Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      role,
		Password:  p.Password,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
