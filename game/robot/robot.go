// Package robot implements the state machine of a single robot on a grid
// world: position, facing, carried objects and the cells it has visited.
package robot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/zyedidia/generic/mapset"
)

const (
	// DefaultCapacity is the number of objects a robot can carry when no
	// capacity is configured.
	DefaultCapacity = 25
)

// Pick/put conditions. They are reported to the caller and leave the robot
// and the world unchanged.
var (
	ErrNothingToPick   = errors.New("nothing to pick here")
	ErrCapacityFull    = errors.New("capacity full")
	ErrNothingCarried  = errors.New("nothing carried to put")
	ErrInvalidPosition = errors.New("robot is out of the world")
	ErrInvalidCapacity = errors.New("capacity must not be negative")
)

// Config describes the initial state of a robot.
type Config struct {
	Start     grid.Position
	Facing    grid.Heading
	Capacity  int // 0 selects DefaultCapacity
	Renderers []game.Renderer
	Logger    game.Logger
}

// Robot is one agent on a World. All methods are safe for concurrent use,
// but actions are expected to be issued from a single sequence.
type Robot struct {
	world    *grid.World
	pos      grid.Position
	facing   grid.Heading
	carried  int
	capacity int
	visited  mapset.Set[grid.Position]

	moves int
	turns int
	picks int
	puts  int
	seq   int64

	renderers []game.Renderer
	logger    game.Logger
	mu        sync.RWMutex
}

// New places a robot on w. The start cell counts as visited.
func New(w *grid.World, c Config) (*Robot, error) {
	if !w.InBound(c.Start) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPosition, c.Start)
	}
	if c.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Logger == nil {
		c.Logger = game.NopLogger()
	}

	r := &Robot{
		world:     w,
		pos:       c.Start,
		facing:    c.Facing,
		capacity:  c.Capacity,
		visited:   mapset.New[grid.Position](),
		renderers: append([]game.Renderer(nil), c.Renderers...),
		logger:    c.Logger,
	}
	r.visited.Put(c.Start)
	return r, nil
}

// World returns the world the robot lives in.
func (r *Robot) World() *grid.World { return r.world }

// Subscribe registers a renderer and sends it the current state.
func (r *Robot) Subscribe(renderer game.Renderer) {
	r.mu.Lock()
	r.renderers = append(r.renderers, renderer)
	snap := r.stateLocked(game.ActionInit)
	r.mu.Unlock()

	renderer.Render(snap)
}

// Position returns the current cell.
func (r *Robot) Position() grid.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pos
}

// Facing returns the current heading.
func (r *Robot) Facing() grid.Heading {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.facing
}

// Carried returns the number of objects held.
func (r *Robot) Carried() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.carried
}

// Capacity returns the carrying limit.
func (r *Robot) Capacity() int { return r.capacity }

// Stats returns the move, turn, pick and put counters.
func (r *Robot) Stats() (moves, turns, picks, puts int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.moves, r.turns, r.picks, r.puts
}

// TurnLeft rotates a quarter turn counter-clockwise. It always succeeds.
func (r *Robot) TurnLeft() {
	r.mu.Lock()
	r.facing = r.facing.Left()
	r.turns++
	snap := r.snapshotLocked(game.ActionTurnLeft)
	r.mu.Unlock()

	r.publish(snap)
}

// TurnRight is three left turns, so it publishes three snapshots.
func (r *Robot) TurnRight() {
	r.TurnLeft()
	r.TurnLeft()
	r.TurnLeft()
}

// MoveForward attempts steps single-cell moves and stops at the first
// blocked one. It returns how many cells were crossed and, if a move was
// blocked, grid.ErrBlockedBoundary or grid.ErrBlockedWall.
func (r *Robot) MoveForward(steps int) (int, error) {
	moved := 0
	for range steps {
		if err := r.step(); err != nil {
			r.logger.Info(fmt.Sprintf("robot stopped after %d of %d steps: %s", moved, steps, err))
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (r *Robot) step() error {
	r.mu.Lock()
	next, err := r.world.CheckMove(r.pos, r.facing)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.pos = next
	r.visited.Put(next)
	r.moves++
	snap := r.snapshotLocked(game.ActionMove)
	r.mu.Unlock()

	r.publish(snap)
	return nil
}

// MoveBackward steps one cell back by turning around, moving and turning
// around again. The facing is restored even when the move is blocked.
func (r *Robot) MoveBackward() error {
	r.TurnLeft()
	r.TurnLeft()
	_, err := r.MoveForward(1)
	r.TurnLeft()
	r.TurnLeft()
	return err
}

// Pick takes one object of kind from the current cell.
func (r *Robot) Pick(kind grid.ObjectKind) error {
	r.mu.Lock()
	if r.carried >= r.capacity {
		r.mu.Unlock()
		r.logger.Info(fmt.Sprintf("pick %s refused: carrying %d of %d", kind, r.carried, r.capacity))
		return ErrCapacityFull
	}
	if r.world.ObjectCountAt(r.pos, kind) == 0 {
		r.mu.Unlock()
		r.logger.Info(fmt.Sprintf("pick %s refused: none at %s", kind, r.pos))
		return ErrNothingToPick
	}

	r.world.IncrementObject(r.pos, kind, -1)
	r.carried++
	r.picks++
	snap := r.snapshotLocked(game.ActionPick)
	r.mu.Unlock()

	r.publish(snap)
	return nil
}

// Put drops one carried object of kind on the current cell.
func (r *Robot) Put(kind grid.ObjectKind) error {
	r.mu.Lock()
	if r.carried == 0 {
		r.mu.Unlock()
		r.logger.Info(fmt.Sprintf("put %s refused: nothing carried", kind))
		return ErrNothingCarried
	}

	r.world.IncrementObject(r.pos, kind, 1)
	r.carried--
	r.puts++
	snap := r.snapshotLocked(game.ActionPut)
	r.mu.Unlock()

	r.publish(snap)
	return nil
}

// FrontIsClear reports whether a forward move would succeed.
func (r *Robot) FrontIsClear() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := r.world.CheckMove(r.pos, r.facing)
	return err == nil
}

// FrontCellVisited reports whether the cell ahead has been visited. A cell
// beyond the boundary is never visited.
func (r *Robot) FrontCellVisited() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visited.Has(r.pos.Step(r.facing))
}

// ObjectHere reports whether the current cell holds at least one object of
// kind.
func (r *Robot) ObjectHere(kind grid.ObjectKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.world.ObjectCountAt(r.pos, kind) != 0
}

// IsVisited reports whether the current cell is in the visited set.
func (r *Robot) IsVisited() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visited.Has(r.pos)
}

// MarkVisited adds the current cell to the visited set.
func (r *Robot) MarkVisited() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited.Put(r.pos)
}

// ResetVisited forgets every visited cell except the current one, starting
// a new run.
func (r *Robot) ResetVisited() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = mapset.New[grid.Position]()
	r.visited.Put(r.pos)
}

// HasVisited reports whether p is in the visited set.
func (r *Robot) HasVisited(p grid.Position) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.visited.Has(p)
}

// Visited returns the visited cells.
func (r *Robot) Visited() []grid.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cells := make([]grid.Position, 0, r.visited.Size())
	r.visited.Each(func(p grid.Position) {
		cells = append(cells, p)
	})
	return cells
}

// Snapshot returns the current state without publishing it. Its Seq is the
// one of the last published snapshot.
func (r *Robot) Snapshot() game.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked(game.ActionInit)
}

// String draws the world with the robot on it.
func (r *Robot) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.world.Draw(map[grid.Position]string{r.pos: Glyph(r.facing)})
}

// Glyph returns the three-character cell mark of a robot facing h.
func Glyph(h grid.Heading) string {
	switch h {
	case grid.North:
		return " ^ "
	case grid.West:
		return " < "
	case grid.South:
		return " v "
	default:
		return " > "
	}
}

// snapshotLocked numbers a new published state.
func (r *Robot) snapshotLocked(action string) game.Snapshot {
	r.seq++
	return r.stateLocked(action)
}

func (r *Robot) stateLocked(action string) game.Snapshot {
	return game.Snapshot{
		Seq:      r.seq,
		Action:   action,
		X:        r.pos.X,
		Y:        r.pos.Y,
		Facing:   r.facing,
		Carried:  r.carried,
		Capacity: r.capacity,
		Moves:    r.moves,
		Turns:    r.turns,
		Objects:  r.world.Objects(),
	}
}

func (r *Robot) publish(snap game.Snapshot) {
	r.mu.RLock()
	renderers := r.renderers
	r.mu.RUnlock()

	for _, renderer := range renderers {
		renderer.Render(snap)
	}
}
