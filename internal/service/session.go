package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/repository"
)

const (
	sessionCodeLength   = 6
	sessionCodeAttempts = 3
	// 32 symbols, no 0/O or 1/I. 256 is a multiple of 32 so byte%32 is uniform.
	sessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	qrSize              = 256
)

var (
	ErrSessionNotFound   = repository.ErrSessionNotFound
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrNotSessionMember  = domain.ErrNotSessionMember
)

type SessionRepository interface {
	Create(ctx context.Context, session domain.ActiveSession) (domain.ActiveSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.ActiveSession, error)
	FindByCode(ctx context.Context, code string) (domain.ActiveSession, error)
	Transition(ctx context.Context, session domain.ActiveSession, from domain.SessionStatus) (domain.ActiveSession, error)
}

type SessionService struct {
	repo    SessionRepository
	newCode func() (string, error)
}

func NewSessionService(repo SessionRepository) *SessionService {
	return &SessionService{
		repo:    repo,
		newCode: randomSessionCode,
	}
}

func randomSessionCode() (string, error) {
	buf := make([]byte, sessionCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}

	for i, b := range buf {
		buf[i] = sessionCodeAlphabet[int(b)%len(sessionCodeAlphabet)]
	}

	return string(buf), nil
}

// CreateSession opens a waiting session guided by the caller.
func (s *SessionService) CreateSession(ctx context.Context, identity domain.Identity) (domain.ActiveSession, error) {
	if !identity.Can(domain.CapGuideSession) {
		return domain.ActiveSession{}, ErrPermissionDenied
	}

	guideID := identity.Profile.ID

	var lastErr error
	for attempt := 0; attempt < sessionCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return domain.ActiveSession{}, err
		}

		created, err := s.repo.Create(ctx, domain.ActiveSession{
			Code:    code,
			GuideID: &guideID,
			Status:  domain.SessionWaiting,
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrSessionCodeExists) {
			return domain.ActiveSession{}, fmt.Errorf("s.repo.Create -> %w", err)
		}
		lastErr = err
	}

	return domain.ActiveSession{}, fmt.Errorf("no free session code after %d attempts -> %w", sessionCodeAttempts, lastErr)
}

// JoinSession pairs the calling climber with the waiting session behind code.
func (s *SessionService) JoinSession(ctx context.Context, identity domain.Identity, code string) (domain.ActiveSession, error) {
	if !identity.Can(domain.CapJoinSession) {
		return domain.ActiveSession{}, ErrPermissionDenied
	}

	session, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("s.repo.FindByCode -> %w", err)
	}

	if err = session.Pair(identity.Profile.ID); err != nil {
		return domain.ActiveSession{}, err
	}

	return s.transition(ctx, session, domain.SessionWaiting)
}

func (s *SessionService) CompleteSession(ctx context.Context, identity domain.Identity, id uuid.UUID) (domain.ActiveSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err = session.Complete(identity.Profile.ID); err != nil {
		return domain.ActiveSession{}, err
	}

	return s.transition(ctx, session, domain.SessionActive)
}

func (s *SessionService) transition(ctx context.Context, session domain.ActiveSession, from domain.SessionStatus) (domain.ActiveSession, error) {
	updated, err := s.repo.Transition(ctx, session, from)
	if err != nil {
		// Somebody else moved the session first.
		if errors.Is(err, repository.ErrSessionConflict) {
			return domain.ActiveSession{}, ErrInvalidTransition
		}
		return domain.ActiveSession{}, fmt.Errorf("s.repo.Transition -> %w", err)
	}

	return updated, nil
}

// GetSession is visible to the session's guide and climber only.
func (s *SessionService) GetSession(ctx context.Context, identity domain.Identity, id uuid.UUID) (domain.ActiveSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ActiveSession{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if !session.HasMember(identity.Profile.ID) {
		return domain.ActiveSession{}, ErrNotSessionMember
	}

	return session, nil
}

// SessionQR renders the join code as a PNG for climbers to scan.
func (s *SessionService) SessionQR(ctx context.Context, identity domain.Identity, id uuid.UUID) ([]byte, error) {
	session, err := s.GetSession(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(session.Code, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return png, nil
}
