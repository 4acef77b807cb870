package domain

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimeRange = errors.New("start_time must be before end_time")
	ErrEventInPast      = errors.New("start_time must not be in the past")
)

type EventPhase string

const (
	PhaseFuture     EventPhase = "future"
	PhaseInProgress EventPhase = "in_progress"
	PhasePast       EventPhase = "past"
)

type Event struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Location    *string    `json:"location,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	CreatorName      string `json:"creator_name"`
	ParticipantCount int    `json:"participant_count"`
}

// Phase derives where the event sits relative to now. The end instant
// already counts as past.
func (e Event) Phase(now time.Time) EventPhase {
	switch {
	case now.Before(e.StartTime):
		return PhaseFuture
	case now.Before(e.EndTime):
		return PhaseInProgress
	default:
		return PhasePast
	}
}

// ValidateSchedule rejects empty or inverted ranges and events that would
// start before now.
func (e Event) ValidateSchedule(now time.Time) error {
	if !e.StartTime.Before(e.EndTime) {
		return ErrInvalidTimeRange
	}
	if e.StartTime.Before(now) {
		return ErrEventInPast
	}
	return nil
}

// IsFull reports whether a capacity is set and already reached.
func (e Event) IsFull() bool {
	return e.Capacity != nil && e.ParticipantCount >= *e.Capacity
}

// MapURL links the location to a Google Maps search, or "" without one.
func (e Event) MapURL() string {
	if e.Location == nil || *e.Location == "" {
		return ""
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(*e.Location)
}

// EventQuery narrows ListEvents. Zero values mean "no bound".
type EventQuery struct {
	Search string
	From   time.Time
	To     time.Time
}
