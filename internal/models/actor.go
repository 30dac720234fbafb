package models

// Role tiers recognized by the store. Mapping platform role ids onto these
// tiers happens outside this service; tokens carry the tier names directly.
const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleWorker    = "WORKER"
)

// Actor is the authenticated identity performing a command.
type Actor struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if a.HasRole(role) {
			return true
		}
	}
	return false
}

// IsStaff reports whether the actor holds an elevated capability.
func (a Actor) IsStaff() bool {
	return a.HasAnyRole(RoleAdmin, RoleModerator)
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}
