// Package leaderboard ranks users by harvest in a Redis sorted set.
package leaderboard

import (
	"context"
	"time"

	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/redis/go-redis/v9"
)

const defaultKey = "reeborg:leaderboard"

// RedisLeaderboard keeps every member's best score in a sorted set.
type RedisLeaderboard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLeaderboard initializes a RedisLeaderboard stored under key. A
// positive ttlSeconds expires the board after that long without a new
// member.
func NewRedisLeaderboard(client *redis.Client, key string, ttlSeconds int) (i.Leaderboard, error) {
	if key == "" {
		key = defaultKey
	}
	return &RedisLeaderboard{
		client: client,
		key:    key,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// Submit records score unless the member already has a better one.
func (rl *RedisLeaderboard) Submit(ctx context.Context, member string, score float64) error {
	_, err := rl.client.ZAddGT(ctx, rl.key, redis.Z{Score: score, Member: member}).Result()
	if err != nil {
		return err
	}

	if rl.ttl <= 0 {
		return nil
	}
	// Set expiration only if it's not already set
	ttl, err := rl.client.TTL(ctx, rl.key).Result()
	if err == nil && ttl == -1 {
		_ = rl.client.Expire(ctx, rl.key, rl.ttl).Err()
	}
	return nil
}

// Top returns up to n members with the highest scores.
func (rl *RedisLeaderboard) Top(ctx context.Context, n int64) ([]i.Standing, error) {
	if n <= 0 {
		return nil, nil
	}
	entries, err := rl.client.ZRevRangeWithScores(ctx, rl.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	standings := make([]i.Standing, 0, len(entries))
	for _, e := range entries {
		member, _ := e.Member.(string)
		standings = append(standings, i.Standing{Username: member, Score: e.Score})
	}
	return standings, nil
}
