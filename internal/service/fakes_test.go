package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/realtime"
	"github.com/acg-climbing/sessions-api/internal/repository"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func identityWith(role domain.Role) domain.Identity {
	return domain.NewIdentity(uuid.New(), domain.Profile{
		ID:    uuid.New(),
		Email: string(role) + "@acg.example",
		Role:  role,
	})
}

type recordingFeed struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (f *recordingFeed) Publish(_ context.Context, c realtime.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.changes = append(f.changes, c)
	return nil
}

type fakeEventRepo struct {
	events map[uuid.UUID]domain.Event
	order  []uuid.UUID
	err    error
}

func newFakeEventRepo(events ...domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[uuid.UUID]domain.Event)}
	for _, e := range events {
		r.events[e.ID] = e
		r.order = append(r.order, e.ID)
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, e domain.Event) (domain.Event, error) {
	if r.err != nil {
		return domain.Event{}, r.err
	}
	e.ID = uuid.New()
	e.CreatedAt = testNow
	e.CreatorName = domain.DefaultCreatorName
	r.events[e.ID] = e
	r.order = append(r.order, e.ID)
	return e, nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) List(_ context.Context, _, _ time.Time) ([]domain.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.Event, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.events[id])
	}
	return out, nil
}

type participantKey struct{ event, user uuid.UUID }

type fakeParticipantRepo struct {
	rows   map[participantKey]domain.EventParticipant
	events *fakeEventRepo
}

func newFakeParticipantRepo(events *fakeEventRepo) *fakeParticipantRepo {
	return &fakeParticipantRepo{rows: make(map[participantKey]domain.EventParticipant), events: events}
}

func (r *fakeParticipantRepo) Join(_ context.Context, eventID, userID uuid.UUID) (domain.EventParticipant, error) {
	event, ok := r.events.events[eventID]
	if !ok {
		return domain.EventParticipant{}, repository.ErrEventNotFound
	}
	key := participantKey{eventID, userID}
	if _, ok := r.rows[key]; ok {
		return domain.EventParticipant{}, repository.ErrAlreadyJoined
	}
	event.ParticipantCount = r.count(eventID)
	if event.IsFull() {
		return domain.EventParticipant{}, repository.ErrEventFull
	}
	p := domain.EventParticipant{ID: uuid.New(), EventID: eventID, UserID: userID, JoinedAt: testNow}
	r.rows[key] = p
	return p, nil
}

func (r *fakeParticipantRepo) count(eventID uuid.UUID) int {
	n := 0
	for k := range r.rows {
		if k.event == eventID {
			n++
		}
	}
	return n
}

func (r *fakeParticipantRepo) Leave(_ context.Context, eventID, userID uuid.UUID) error {
	key := participantKey{eventID, userID}
	if _, ok := r.rows[key]; !ok {
		return repository.ErrNotJoined
	}
	delete(r.rows, key)
	return nil
}

func (r *fakeParticipantRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]domain.EventParticipant, error) {
	var out []domain.EventParticipant
	for k, p := range r.rows {
		if k.event == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	byID     map[uuid.UUID]domain.ActiveSession
	taken    map[string]bool
	conflict bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: make(map[uuid.UUID]domain.ActiveSession), taken: make(map[string]bool)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s domain.ActiveSession) (domain.ActiveSession, error) {
	if r.taken[s.Code] {
		return domain.ActiveSession{}, repository.ErrSessionCodeExists
	}
	s.ID = uuid.New()
	s.CreatedAt = testNow
	r.taken[s.Code] = true
	r.byID[s.ID] = s
	return s, nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (domain.ActiveSession, error) {
	s, ok := r.byID[id]
	if !ok {
		return domain.ActiveSession{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) FindByCode(_ context.Context, code string) (domain.ActiveSession, error) {
	for _, s := range r.byID {
		if s.Code == code {
			return s, nil
		}
	}
	return domain.ActiveSession{}, repository.ErrSessionNotFound
}

func (r *fakeSessionRepo) Transition(_ context.Context, s domain.ActiveSession, from domain.SessionStatus) (domain.ActiveSession, error) {
	current, ok := r.byID[s.ID]
	if !ok || current.Status != from || r.conflict {
		return domain.ActiveSession{}, repository.ErrSessionConflict
	}
	r.byID[s.ID] = s
	return s, nil
}

type fakeProfileRepo struct {
	byID map[uuid.UUID]domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: make(map[uuid.UUID]domain.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, p domain.Profile) (domain.Profile, error) {
	for _, existing := range r.byID {
		if existing.Email == p.Email {
			return domain.Profile{}, repository.ErrProfileEmailExists
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = testNow
	r.byID[p.ID] = p
	return p, nil
}

func (r *fakeProfileRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) FindByEmail(_ context.Context, email string) (domain.Profile, error) {
	for _, p := range r.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Profile{}, repository.ErrProfileNotFound
}

func (r *fakeProfileRepo) UpdateFullName(_ context.Context, id uuid.UUID, fullName string) error {
	p, ok := r.byID[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.FullName = &fullName
	r.byID[id] = p
	return nil
}

func (r *fakeProfileRepo) Reclaim(_ context.Context, id uuid.UUID, role domain.Role, fullName *string) (domain.Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, repository.ErrProfileNotFound
	}
	p.Password = ""
	p.Role = role
	p.FullName = fullName
	r.byID[id] = p
	return p, nil
}

type fakeAuthSessionRepo struct {
	byID    map[uuid.UUID]domain.AuthSession
	lookups int
}

func newFakeAuthSessionRepo() *fakeAuthSessionRepo {
	return &fakeAuthSessionRepo{byID: make(map[uuid.UUID]domain.AuthSession)}
}

func (r *fakeAuthSessionRepo) Create(_ context.Context, s domain.AuthSession) (domain.AuthSession, error) {
	s.ID = uuid.New()
	r.byID[s.ID] = s
	return s, nil
}

func (r *fakeAuthSessionRepo) FindByID(_ context.Context, id uuid.UUID) (domain.AuthSession, error) {
	r.lookups++
	s, ok := r.byID[id]
	if !ok {
		return domain.AuthSession{}, repository.ErrAuthSessionNotFound
	}
	return s, nil
}

func (r *fakeAuthSessionRepo) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	s, ok := r.byID[id]
	if !ok {
		return repository.ErrAuthSessionNotFound
	}
	s.RevokedAt = &at
	r.byID[id] = s
	return nil
}

func (r *fakeAuthSessionRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID, at time.Time) error {
	for id, s := range r.byID {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
			r.byID[id] = s
		}
	}
	return nil
}
