package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleLead      Role = "lead"
	RoleVolunteer Role = "volunteer"
	RoleClimber   Role = "climber"
)

// DefaultCreatorName is shown for events whose creator has no full name.
const DefaultCreatorName = "ACG Lead"

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleLead, RoleVolunteer, RoleClimber:
		return Role(s), true
	default:
		return "", false
	}
}

type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  *string    `json:"full_name,omitempty"`
	Role      Role       `json:"role"`
	Password  string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (p Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return DefaultCreatorName
}

// ShortName is how a member appears in participant lists: the full name, or
// the local part of the email.
func (p Profile) ShortName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	return p.Email
}
