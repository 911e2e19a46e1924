package i

import (
	"context"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/actionqueue"
	"github.com/beka-birhanu/reeborg-api/game/explorer"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/scene"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SceneSource tells how a session's scene is obtained. At most one of the
// fields is set; none selects the configured default.
type SceneSource struct {
	Document *scene.Document
	URL      string
	Maze     *scene.Maze
}

// SessionOptions configures a new simulation session.
type SessionOptions struct {
	Scene    SceneSource
	Capacity int
	// AckPacing waits for stream clients to acknowledge each step instead of
	// using fixed delays.
	AckPacing bool
}

// SessionView is a read-only picture of a session.
type SessionView struct {
	ID        uuid.UUID     `json:"id"`
	Owner     uuid.UUID     `json:"owner"`
	Scene     string        `json:"scene"`
	Fallback  bool          `json:"fallback,omitempty"`
	Layout    grid.Layout   `json:"layout"`
	Snapshot  game.Snapshot `json:"snapshot"`
	Frame     string        `json:"frame"`
	Pending   int           `json:"pending"`
	Exploring bool          `json:"exploring"`
}

// SimulationManager owns the running simulation sessions.
type SimulationManager interface {
	Create(ctx context.Context, owner uuid.UUID, opts SessionOptions) (SessionView, error)
	View(owner, id uuid.UUID) (SessionView, error)
	Submit(owner, id uuid.UUID, a actionqueue.Action) (*actionqueue.Task, error)
	Explore(owner, id uuid.UUID, mode explorer.Mode) error
	Cancel(owner, id uuid.UUID) (int, error)
	Close(owner, id uuid.UUID) error
	Stream(owner, id uuid.UUID, conn *websocket.Conn) error
	Runs(ctx context.Context, owner uuid.UUID) ([]*game.RunRecord, error)
	Leaderboard(ctx context.Context, n int64) ([]Standing, error)
}
