package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/realtime"
	"github.com/acg-climbing/sessions-api/internal/repository"
)

var (
	ErrEventNotFound    = repository.ErrEventNotFound
	ErrCreatorGone      = repository.ErrCreatorGone
	ErrInvalidTimeRange = domain.ErrInvalidTimeRange
	ErrEventInPast      = domain.ErrEventInPast
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error)
	List(ctx context.Context, from, to time.Time) ([]domain.Event, error)
}

type EventService struct {
	repo EventRepository
	feed realtime.Publisher
	now  func() time.Time
}

func NewEventService(repo EventRepository, feed realtime.Publisher) *EventService {
	return &EventService{
		repo: repo,
		feed: feed,
		now:  time.Now,
	}
}

// Now is the clock phases are derived against.
func (s *EventService) Now() time.Time {
	return s.now()
}

func (s *EventService) ListEvents(ctx context.Context, q domain.EventQuery) ([]domain.Event, error) {
	events, err := s.repo.List(ctx, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	events = domain.FilterEvents(events, q.Search)
	domain.SortByStart(events)

	return events, nil
}

func (s *EventService) CreateEvent(ctx context.Context, identity domain.Identity, event domain.Event) (domain.Event, error) {
	if !identity.Can(domain.CapCreateEvent) {
		return domain.Event{}, ErrPermissionDenied
	}

	if err := event.ValidateSchedule(s.now()); err != nil {
		return domain.Event{}, err
	}

	event.ID = uuid.Nil
	event.CreatedBy = identity.Profile.ID

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	publish(ctx, s.feed, realtime.Change{
		Table:   realtime.TableEvents,
		Op:      realtime.OpCreated,
		EventID: created.ID,
		Event:   &created,
	})

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) Calendar(ctx context.Context, from, to time.Time) ([]domain.CalendarEntry, error) {
	events, err := s.ListEvents(ctx, domain.EventQuery{From: from, To: to})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CalendarEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, domain.NewCalendarEntry(e))
	}

	return entries, nil
}
