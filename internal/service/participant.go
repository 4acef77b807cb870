package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/realtime"
	"github.com/acg-climbing/sessions-api/internal/repository"
)

var (
	ErrAlreadyJoined = repository.ErrAlreadyJoined
	ErrNotJoined     = repository.ErrNotJoined
	ErrEventFull     = repository.ErrEventFull
	ErrUnknownUser   = repository.ErrUnknownUser
	ErrEventEnded    = errors.New("event has already ended")
)

type ParticipantRepository interface {
	Join(ctx context.Context, eventID, userID uuid.UUID) (domain.EventParticipant, error)
	Leave(ctx context.Context, eventID, userID uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.EventParticipant, error)
}

type ParticipantEventRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
}

type ParticipantService struct {
	repo   ParticipantRepository
	events ParticipantEventRepository
	feed   realtime.Publisher
	now    func() time.Time
}

func NewParticipantService(repo ParticipantRepository, events ParticipantEventRepository, feed realtime.Publisher) *ParticipantService {
	return &ParticipantService{
		repo:   repo,
		events: events,
		feed:   feed,
		now:    time.Now,
	}
}

// JoinEvent registers the caller. Events that are under way can still be
// joined; finished ones cannot.
func (s *ParticipantService) JoinEvent(ctx context.Context, identity domain.Identity, eventID uuid.UUID) (domain.EventParticipant, error) {
	if !identity.Can(domain.CapJoinEvent) {
		return domain.EventParticipant{}, ErrPermissionDenied
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.EventParticipant{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if event.Phase(s.now()) == domain.PhasePast {
		return domain.EventParticipant{}, ErrEventEnded
	}

	participant, err := s.repo.Join(ctx, eventID, identity.Profile.ID)
	if err != nil {
		return domain.EventParticipant{}, fmt.Errorf("s.repo.Join -> %w", err)
	}
	participant.DisplayName = identity.Profile.ShortName()

	userID := identity.Profile.ID
	publish(ctx, s.feed, realtime.Change{
		Table:   realtime.TableParticipants,
		Op:      realtime.OpJoined,
		EventID: eventID,
		UserID:  &userID,
	})

	return participant, nil
}

func (s *ParticipantService) LeaveEvent(ctx context.Context, identity domain.Identity, eventID uuid.UUID) error {
	if err := s.repo.Leave(ctx, eventID, identity.Profile.ID); err != nil {
		return fmt.Errorf("s.repo.Leave -> %w", err)
	}

	userID := identity.Profile.ID
	publish(ctx, s.feed, realtime.Change{
		Table:   realtime.TableParticipants,
		Op:      realtime.OpLeft,
		EventID: eventID,
		UserID:  &userID,
	})

	return nil
}

func (s *ParticipantService) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]domain.EventParticipant, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	participants, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	return participants, nil
}
