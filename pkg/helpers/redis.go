package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client. An empty addr disables Redis
// and returns nil; callers treat a nil client as "no cache".
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisGetJSON loads key into dest. A missing key is (false, nil).
func RedisGetJSON[T any](ctx context.Context, rdb *redis.Client, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

// RedisGetInt reads an integer key; a missing key is 0.
func RedisGetInt(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
	n, err := rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// RedisSetJSONIfUnchanged stores value under key only while guardKey still
// holds want. It reports false when the guard moved first.
func RedisSetJSONIfUnchanged(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration, guardKey string, want int64) (bool, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	stored := false
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, guardKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil || cur != want {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			return p.Set(ctx, key, b, ttl).Err()
		})
		stored = err == nil
		return err
	}, guardKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// RedisBumpAndDel increments guardKey and deletes key in one transaction.
func RedisBumpAndDel(ctx context.Context, rdb *redis.Client, key, guardKey string, guardTTL time.Duration) error {
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, guardKey)
		p.Expire(ctx, guardKey, guardTTL)
		p.Del(ctx, key)
		return nil
	})
	return err
}
