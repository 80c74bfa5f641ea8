package entity

// Role is the authorization level of an account. The numeric values are part
// of the wire format (legacy clients compare role == 1).
type Role int

const (
	RoleUser  Role = 0
	RoleAdmin Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
