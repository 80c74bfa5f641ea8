// Package memory is a process-local UserRepository for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*entity.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// clone keeps callers from aliasing stored records.
func clone(u *entity.User) *entity.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return repository.ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	ts := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = ts, ts
	r.byID[u.ID] = clone(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) update(id string, apply func(u *entity.User)) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	apply(u)
	u.UpdatedAt = r.now().UTC()
	return clone(u), nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, digest string) (*entity.User, error) {
	return r.update(id, func(u *entity.User) { u.Password = digest })
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.User, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}
	return r.update(id, func(u *entity.User) {
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.Address != nil {
			u.Address = *patch.Address
		}
		if patch.Password != nil {
			u.Password = *patch.Password
		}
	})
}

func (r *UserRepository) SetRole(_ context.Context, id string, role entity.Role) (*entity.User, error) {
	return r.update(id, func(u *entity.User) { u.Role = role })
}

var _ repository.UserRepository = (*UserRepository)(nil)
