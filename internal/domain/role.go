package domain

// Role represents a user's authorization level
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AllRoles contains all valid roles
var AllRoles = []Role{RoleUser, RoleAdmin}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may act on content it does not own
func (r Role) CanModerate() bool {
	return r == RoleAdmin
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
