// Package simulationapi exposes robot sessions over HTTP and websockets.
package simulationapi

import (
	"encoding/json"

	"github.com/beka-birhanu/reeborg-api/game/actionqueue"
	"github.com/beka-birhanu/reeborg-api/game/scene"
	"github.com/google/uuid"
)

// CreateSessionRequest picks the scene of a new session. At most one of
// Scene, SceneURL and Maze may be set; none selects the default scene.
type CreateSessionRequest struct {
	Scene     json.RawMessage `json:"scene"`
	SceneURL  string          `json:"scene_url"`
	Maze      *scene.Maze     `json:"maze"`
	Capacity  int             `json:"capacity"`
	AckPacing bool            `json:"ack_pacing"`
}

// ActionRequest queues one robot action. With Wait set the response is sent
// once the action has finished.
type ActionRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Steps  int    `json:"steps"`
	Object string `json:"object"`
	Wait   bool   `json:"wait"`
}

// ActionResponse describes a queued or finished action.
type ActionResponse struct {
	TaskID uuid.UUID          `json:"task_id"`
	Action actionqueue.Action `json:"action"`
	State  string             `json:"state"`
	Moved  int                `json:"moved"`
	Error  string             `json:"error,omitempty"`
}

// ExploreRequest starts an exploration. An empty mode returns home.
type ExploreRequest struct {
	Mode string `json:"mode"`
}

// CancelResponse reports how many queued actions were dropped.
type CancelResponse struct {
	Dropped int `json:"dropped"`
}
