package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts events per key inside a sliding TTL window.
type AttemptCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAttemptCounter(rdb *redis.Client, ttl time.Duration) *AttemptCounter {
	return &AttemptCounter{rdb: rdb, ttl: ttl}
}

// IncrementAndGet increments the count for key and returns the new value.
// The window starts at the first increment.
func (a *AttemptCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	count, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := a.rdb.Expire(ctx, key, a.ttl).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}

// Get returns the current count, 0 when the key is absent.
func (a *AttemptCounter) Get(ctx context.Context, key string) (int64, error) {
	count, err := a.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Reset clears the count for key.
func (a *AttemptCounter) Reset(ctx context.Context, key string) error {
	return a.rdb.Del(ctx, key).Err()
}

// FormatLoginAttemptKey formats the counter key for failed logins of an email.
func FormatLoginAttemptKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}
