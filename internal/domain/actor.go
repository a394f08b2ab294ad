package domain

// Role differentiates what an actor may do.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleProvider Role = "PROVIDER"
	RoleViewer   Role = "VIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleProvider || r == RoleViewer
}

// Actor is the person performing a transition.
type Actor struct {
	ID   string
	Name string
	Role Role
}
