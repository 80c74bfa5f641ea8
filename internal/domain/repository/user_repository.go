package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the persistence operations on accounts.
// Each write is atomic for a single user; email uniqueness is enforced by the
// implementation, not by callers.
type UserRepository interface {
	// FindByEmail expects the canonical email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// Create stores u and fills its timestamps. It returns ErrDuplicateEmail
	// when another user already holds u.Email.
	Create(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, digest string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.User, error)
	// SetRole is an operator action; request workflows never call it.
	SetRole(ctx context.Context, id string, role entity.Role) (*entity.User, error)
}
