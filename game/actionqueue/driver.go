package actionqueue

import (
	"context"

	"github.com/beka-birhanu/reeborg-api/game/grid"
)

// Sensor is the read-only robot surface queried between actions.
type Sensor interface {
	Position() grid.Position
	FrontIsClear() bool
	FrontCellVisited() bool
	ObjectHere(kind grid.ObjectKind) bool
	MarkVisited()
	ResetVisited()
}

// Driver issues actions through a Queue and waits for each one, so a caller
// can write sequential robot programs while the queue keeps the pacing.
type Driver struct {
	queue  *Queue
	sensor Sensor
}

// NewDriver binds a queue to the sensors of the robot it drives.
func NewDriver(q *Queue, s Sensor) *Driver {
	return &Driver{queue: q, sensor: s}
}

// Do submits a and waits for it. A non-nil error means the action was never
// run to completion; conditions reported by the robot are in Result.Err.
func (d *Driver) Do(ctx context.Context, a Action) (Result, error) {
	task, err := d.queue.Submit(a)
	if err != nil {
		return Result{}, err
	}
	r, err := task.Wait(ctx)
	if err != nil {
		return r, err
	}
	if task.State() == StateCancelled {
		return r, ErrCancelled
	}
	return r, nil
}

func (d *Driver) do(ctx context.Context, a Action) (Result, error) {
	r, err := d.Do(ctx, a)
	if err != nil {
		return r, err
	}
	return r, r.Err
}

// MoveForward moves up to steps cells and returns how many were crossed.
func (d *Driver) MoveForward(ctx context.Context, steps int) (int, error) {
	r, err := d.do(ctx, Action{Kind: KindMove, Steps: steps})
	return r.Moved, err
}

// MoveBackward steps one cell back keeping the facing.
func (d *Driver) MoveBackward(ctx context.Context) error {
	_, err := d.do(ctx, Action{Kind: KindMoveBackward})
	return err
}

// TurnLeft turns a quarter counter-clockwise.
func (d *Driver) TurnLeft(ctx context.Context) error {
	_, err := d.do(ctx, Action{Kind: KindTurnLeft})
	return err
}

// TurnRight turns a quarter clockwise.
func (d *Driver) TurnRight(ctx context.Context) error {
	_, err := d.do(ctx, Action{Kind: KindTurnRight})
	return err
}

// Pick takes one object of kind from the current cell.
func (d *Driver) Pick(ctx context.Context, kind grid.ObjectKind) error {
	_, err := d.do(ctx, Action{Kind: KindPick, Object: kind})
	return err
}

// Put drops one object of kind on the current cell.
func (d *Driver) Put(ctx context.Context, kind grid.ObjectKind) error {
	_, err := d.do(ctx, Action{Kind: KindPut, Object: kind})
	return err
}

func (d *Driver) Position() grid.Position { return d.sensor.Position() }
func (d *Driver) FrontIsClear() bool { return d.sensor.FrontIsClear() }
func (d *Driver) FrontCellVisited() bool { return d.sensor.FrontCellVisited() }
func (d *Driver) ObjectHere(kind grid.ObjectKind) bool { return d.sensor.ObjectHere(kind) }
func (d *Driver) MarkVisited() { d.sensor.MarkVisited() }
func (d *Driver) ResetVisited() { d.sensor.ResetVisited() }
