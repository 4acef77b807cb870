package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid session status transition")
	ErrNotSessionMember  = errors.New("user is not part of this session")
)

type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// ActiveSession pairs a guide with a climber through a short join code.
type ActiveSession struct {
	ID        uuid.UUID     `json:"id"`
	Code      string        `json:"code"`
	GuideID   *uuid.UUID    `json:"guide_id,omitempty"`
	ClimberID *uuid.UUID    `json:"climber_id,omitempty"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// Pair moves a waiting session to active with the given climber.
func (s *ActiveSession) Pair(climberID uuid.UUID) error {
	if s.Status != SessionWaiting {
		return ErrInvalidTransition
	}
	if s.GuideID != nil && *s.GuideID == climberID {
		return ErrInvalidTransition
	}

	s.ClimberID = &climberID
	s.Status = SessionActive

	return nil
}

// Complete closes an active session. Only its guide or climber may do so.
func (s *ActiveSession) Complete(userID uuid.UUID) error {
	if !s.HasMember(userID) {
		return ErrNotSessionMember
	}
	if s.Status != SessionActive {
		return ErrInvalidTransition
	}

	s.Status = SessionCompleted

	return nil
}

func (s *ActiveSession) HasMember(userID uuid.UUID) bool {
	return (s.GuideID != nil && *s.GuideID == userID) ||
		(s.ClimberID != nil && *s.ClimberID == userID)
}
