package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = keyPrefix + "lock:"

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock is held by another holder")

// releaseScript deletes the lock only if it still carries our token, so a
// holder whose lock expired cannot release someone else's.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// lock is a held distributed lock.
type lock struct {
	client *redis.Client
	key    string
	token  string
}

// AcquireLock takes the named lock for ttl using SET NX PX and returns the
// function that releases it. It returns ErrLockHeld when the lock is taken.
func (c *Cache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	key := lockPrefix + name
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	l := &lock{client: c.client, key: key, token: token}
	return l.release, nil
}

// release frees the lock if it is still ours.
func (l *lock) release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
