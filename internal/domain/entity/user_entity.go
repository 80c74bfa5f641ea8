package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password and Answer hold bcrypt digests, never plaintext.
type User struct {
	ID        string
	Name      string
	Email     string // canonical: trimmed, lower-cased
	Phone     string
	Address   string
	DOB       time.Time
	Answer    string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user may pass admin-gated routes.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ProfilePatch carries the fields a profile update may touch. Nil keeps the
// stored value.
type ProfilePatch struct {
	Name     *string
	Phone    *string
	Address  *string
	Password *string // digest
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.Address == nil && p.Password == nil
}

// PublicUser is the outward projection of a User. It has no digest fields.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	DOB       string    `json:"DOB"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		DOB:       u.DOB.Format("2006-01-02"),
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
