package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventParticipant struct {
	ID       uuid.UUID `json:"id"`
	EventID  uuid.UUID `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	DisplayName string `json:"display_name,omitempty"`
}
