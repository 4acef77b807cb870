package domain

import "github.com/google/uuid"

// Identity is the resolved caller of a request: who they are, under which
// auth session, and what they may do.
type Identity struct {
	SessionID    uuid.UUID    `json:"session_id"`
	Profile      Profile      `json:"profile"`
	Capabilities []Capability `json:"capabilities"`
}

func NewIdentity(sessionID uuid.UUID, p Profile) Identity {
	return Identity{
		SessionID:    sessionID,
		Profile:      p,
		Capabilities: Capabilities(p.Role),
	}
}

func (i Identity) Can(c Capability) bool {
	return Can(i.Profile.Role, c)
}
