/*
Package game holds the contracts shared by the simulation core and its
collaborators.

The core (grid, robot, actionqueue, explorer) never draws anything. After
every mutating robot action it publishes a Snapshot to the registered
Renderers, which treat it as read-only.
*/
package game

import (
	"github.com/beka-birhanu/reeborg-api/game/grid"
)

// Action names carried by snapshots.
const (
	ActionInit     = "init"
	ActionMove     = "move"
	ActionTurnLeft = "turn_left"
	ActionPick     = "pick"
	ActionPut      = "put"
)

// Snapshot is the robot and object state after one action.
type Snapshot struct {
	Seq      int64                                     `json:"seq"`
	Action   string                                    `json:"action"`
	X        int                                       `json:"x"`
	Y        int                                       `json:"y"`
	Facing   grid.Heading                              `json:"facing"`
	Carried  int                                       `json:"carried"`
	Capacity int                                       `json:"capacity"`
	Moves    int                                       `json:"moves"`
	Turns    int                                       `json:"turns"`
	Objects  map[grid.Position]map[grid.ObjectKind]int `json:"objects"`
}

// Position returns the robot cell of the snapshot.
func (s Snapshot) Position() grid.Position {
	return grid.Position{X: s.X, Y: s.Y}
}

// Renderer consumes snapshots. Render must not retain or mutate s.Objects
// beyond the call unless it copies it.
type Renderer interface {
	Render(s Snapshot)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(Snapshot)

// Render calls f(s).
func (f RendererFunc) Render(s Snapshot) { f(s) }

// Logger is the logging surface the core writes informational messages to.
type Logger interface {
	Info(string)
	Warning(string)
	Error(string)
}

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }
