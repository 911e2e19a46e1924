package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, 10*time.Second)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	t.Run("Held lock is refused", func(t *testing.T) {
		_, err := locker.Acquire(ctx, key)
		assert.ErrorIs(t, err, ErrLocked)
	})

	t.Run("Other keys are independent", func(t *testing.T) {
		other, err := locker.Acquire(ctx, key+":other")
		require.NoError(t, err)
		other()
	})

	t.Run("Released lock can be taken again", func(t *testing.T) {
		release()
		again, err := locker.Acquire(ctx, key)
		require.NoError(t, err)
		again()
	})
}
