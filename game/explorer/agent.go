package explorer

import (
	"context"

	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/robot"
)

// Direct drives a robot without a queue or pacing. Each action checks ctx
// before it runs.
type Direct struct {
	*robot.Robot
}

// NewDirect wraps r as an Agent.
func NewDirect(r *robot.Robot) Direct { return Direct{Robot: r} }

func (d Direct) Pick(ctx context.Context, kind grid.ObjectKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Robot.Pick(kind)
}

func (d Direct) MoveForward(ctx context.Context, steps int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return d.Robot.MoveForward(steps)
}

func (d Direct) MoveBackward(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Robot.MoveBackward()
}

func (d Direct) TurnLeft(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Robot.TurnLeft()
	return nil
}
