package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuthProvider string

const (
	ProviderGoogle   AuthProvider = "google"
	ProviderPassword AuthProvider = "password"
)

// AuthSession backs one issued token; revoking it signs the user out.
type AuthSession struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Provider  AuthProvider
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (s AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
