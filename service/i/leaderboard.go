package i

import "context"

// Standing is one leaderboard entry.
type Standing struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

// Leaderboard ranks users by their best harvest.
type Leaderboard interface {
	// Submit records score for member, keeping the member's best score.
	Submit(ctx context.Context, member string, score float64) error
	// Top returns up to n standings, best first.
	Top(ctx context.Context, n int64) ([]Standing, error)
}

// Locker hands out exclusive locks shared between server instances.
type Locker interface {
	// Acquire takes the lock named key. The returned release func gives it back.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
