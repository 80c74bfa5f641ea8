// Package cache decorates a UserRepository with a Redis read-through cache
// for lookups by id.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/domain/repository"
	"github.com/oksasatya/storefront-auth/pkg/helpers"
)

const DefaultTTL = 5 * time.Minute

// generationTTL outlives any in-flight read of a user record.
const generationTTL = 24 * time.Hour

type UserRepository struct {
	next   repository.UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewUserRepository wraps next. A nil rdb disables caching.
func NewUserRepository(next repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *UserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func userKey(id string) string { return "user:" + id }

// generationKey counts writes to a user. A read caches what it loaded only
// if no write happened since it started.
func generationKey(id string) string { return "user:" + id + ":gen" }

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if r.rdb == nil {
		return r.next.FindByID(ctx, id)
	}
	var cached entity.User
	hit, err := helpers.RedisGetJSON(ctx, r.rdb, userKey(id), &cached)
	if err != nil {
		helpers.LogError(r.logger, "user cache read failed", err, logrus.Fields{"user_id": id})
	}
	if hit {
		return &cached, nil
	}
	gen, genErr := helpers.RedisGetInt(ctx, r.rdb, generationKey(id))
	if genErr != nil {
		helpers.LogError(r.logger, "user cache read failed", genErr, logrus.Fields{"user_id": id})
	}
	u, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return u, nil
	}
	stored, err := helpers.RedisSetJSONIfUnchanged(ctx, r.rdb, userKey(id), u, r.ttl, generationKey(id), gen)
	if err != nil {
		helpers.LogError(r.logger, "user cache write failed", err, logrus.Fields{"user_id": id})
	} else if !stored && r.logger != nil {
		r.logger.WithField("user_id", id).Debug("user changed during read; not cached")
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return r.next.Create(ctx, u)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, digest string) (*entity.User, error) {
	return r.invalidate(ctx, id)(r.next.UpdatePassword(ctx, id, digest))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.User, error) {
	return r.invalidate(ctx, id)(r.next.UpdateProfile(ctx, id, patch))
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role entity.Role) (*entity.User, error) {
	return r.invalidate(ctx, id)(r.next.SetRole(ctx, id, role))
}

// invalidate drops the cached record after a write, whatever its outcome,
// and bumps the generation so in-flight reads do not put it back.
func (r *UserRepository) invalidate(ctx context.Context, id string) func(*entity.User, error) (*entity.User, error) {
	return func(u *entity.User, err error) (*entity.User, error) {
		if r.rdb != nil {
			if delErr := helpers.RedisBumpAndDel(ctx, r.rdb, userKey(id), generationKey(id), generationTTL); delErr != nil {
				helpers.LogError(r.logger, "user cache invalidate failed", delErr, logrus.Fields{"user_id": id})
			}
		}
		return u, err
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
