package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository/dao"
)

var (
	ErrAlreadyJoined = dao.ErrAlreadyJoined
	ErrNotJoined     = dao.ErrNotJoined
	ErrEventFull     = dao.ErrEventFull
	ErrUnknownUser   = dao.ErrUnknownUser
)

type ParticipantDAO interface {
	Insert(ctx context.Context, participant dao.EventParticipant) (dao.EventParticipant, error)
	Delete(ctx context.Context, eventID, userID uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]dao.EventParticipant, error)
	Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

type ParticipantRepository struct {
	dao ParticipantDAO
}

func NewParticipantRepository(dao ParticipantDAO) *ParticipantRepository {
	return &ParticipantRepository{
		dao: dao,
	}
}

func (r *ParticipantRepository) Join(ctx context.Context, eventID, userID uuid.UUID) (domain.EventParticipant, error) {
	created, err := r.dao.Insert(ctx, dao.EventParticipant{
		EventID: eventID,
		UserID:  userID,
	})
	if err != nil {
		return domain.EventParticipant{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return participantDaoToDomain(created), nil
}

func (r *ParticipantRepository) Leave(ctx context.Context, eventID, userID uuid.UUID) error {
	if err := r.dao.Delete(ctx, eventID, userID); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.EventParticipant, error) {
	found, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	participants := make([]domain.EventParticipant, 0, len(found))
	for _, p := range found {
		participants = append(participants, participantDaoToDomain(p))
	}

	return participants, nil
}

func (r *ParticipantRepository) IsParticipating(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	ok, err := r.dao.Exists(ctx, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("r.dao.Exists -> %w", err)
	}

	return ok, nil
}

func participantDaoToDomain(p dao.EventParticipant) domain.EventParticipant {
	participant := domain.EventParticipant{
		ID:       p.ID,
		EventID:  p.EventID,
		UserID:   p.UserID,
		JoinedAt: p.JoinedAt,
	}
	if p.User.ID != uuid.Nil {
		participant.DisplayName = profileDaoToDomain(p.User).ShortName()
	}

	return participant
}
