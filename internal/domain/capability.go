package domain

// Capability is an action gated by role. Every role check in the API goes
// through Can.
type Capability string

const (
	CapCreateEvent  Capability = "create_event"
	CapJoinEvent    Capability = "join_event"
	CapGuideSession Capability = "guide_session"
	CapJoinSession  Capability = "join_session"
)

var roleCapabilities = map[Role][]Capability{
	RoleLead:      {CapCreateEvent, CapJoinEvent, CapGuideSession},
	RoleVolunteer: {CapJoinEvent, CapGuideSession},
	RoleClimber:   {CapJoinEvent, CapJoinSession},
}

func Can(role Role, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// Capabilities returns a copy of the capabilities granted to role.
func Capabilities(role Role) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
