package leaderboard

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClient connects to the Redis named by REDIS_TEST_ADDR.
func newClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLeaderboard(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	key := "test:leaderboard:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, key) })

	board, err := NewRedisLeaderboard(client, key, 60)
	require.NoError(t, err)

	require.NoError(t, board.Submit(ctx, "alice", 10))
	require.NoError(t, board.Submit(ctx, "bob", 25))
	require.NoError(t, board.Submit(ctx, "carol", 3))

	t.Run("Lower scores do not replace a best", func(t *testing.T) {
		require.NoError(t, board.Submit(ctx, "bob", 5))
		top, err := board.Top(ctx, 1)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "bob", top[0].Username)
		assert.Equal(t, float64(25), top[0].Score)
	})

	t.Run("Best first", func(t *testing.T) {
		top, err := board.Top(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, []string{"bob", "alice", "carol"},
			[]string{top[0].Username, top[1].Username, top[2].Username})
	})

	t.Run("Expiry is set once", func(t *testing.T) {
		ttl, err := client.TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)
	})

	t.Run("Empty request", func(t *testing.T) {
		top, err := board.Top(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}
