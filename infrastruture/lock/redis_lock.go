// Package lock provides exclusive locks shared by every server instance
// through Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "reeborg:lock:"
	lockTries = 1
)

var ErrLocked = errors.New("lock is held by someone else")

// RedisLocker hands out redsync mutexes.
type RedisLocker struct {
	locker *redsync.Redsync
	expiry time.Duration
}

// NewRedisLocker creates a locker whose locks expire after expiry unless
// released first.
func NewRedisLocker(client *redis.Client, expiry time.Duration) i.Locker {
	pool := goredis.NewPool(client)
	return &RedisLocker{
		locker: redsync.New(pool),
		expiry: expiry,
	}
}

// Acquire takes the lock named key without waiting for it.
func (rl *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	mutex := rl.locker.NewMutex(keyPrefix+key,
		redsync.WithExpiry(rl.expiry),
		redsync.WithTries(lockTries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLocked, key, err)
	}

	return func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = mutex.UnlockContext(unlockCtx)
	}, nil
}
