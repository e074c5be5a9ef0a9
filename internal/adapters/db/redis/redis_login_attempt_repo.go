package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login:fail:"

type RedisLoginAttemptRepo struct {
	client *redis.Client
}

func NewRedisLoginAttemptRepo(client *redis.Client) *RedisLoginAttemptRepo {
	return &RedisLoginAttemptRepo{
		client: client,
	}
}

func (r *RedisLoginAttemptRepo) Failures(ctx context.Context, identifier string) (int64, error) {
	val, err := r.client.Get(ctx, keyPrefix+identifier).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// RecordFailure bumps the counter. The window starts at the first failure and
// is not extended by later ones.
func (r *RedisLoginAttemptRepo) RecordFailure(ctx context.Context, identifier string, window time.Duration) (int64, error) {
	key := keyPrefix + identifier

	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, safeTTL(window)).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (r *RedisLoginAttemptRepo) Reset(ctx context.Context, identifier string) error {
	return r.client.Del(ctx, keyPrefix+identifier).Err()
}

func safeTTL(window time.Duration) time.Duration {
	if window <= 0 {
		// the key must still go away eventually
		return time.Hour
	}
	return window
}
