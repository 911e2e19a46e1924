/*
Package explorer drives a robot through every cell it can reach, picking up
all objects of one kind on the way.

The traversal is a depth-first search with backtracking. At each cell the
robot empties the cell, marks it visited and then looks in its four
directions, in left-turn order starting with its current facing. An open
unvisited neighbour is entered recursively; on return the robot steps back
and keeps turning. Each frame turns exactly four times, so a frame that
returns without finishing leaves the robot facing the way it entered.
*/
package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/robot"
	"github.com/zyedidia/generic/mapset"
)

// Mode selects when an exploration counts as finished.
type Mode string

const (
	// ReturnHome backtracks every branch, so the robot ends on its start
	// cell with its start facing.
	ReturnHome Mode = "return_home"
	// StopWhenCovered finishes as soon as every reachable cell is visited
	// and leaves the robot where it is.
	StopWhenCovered Mode = "stop_when_covered"
)

var (
	ErrUnknownMode  = errors.New("unknown exploration mode")
	ErrNoReachable  = errors.New("reachable set required to stop when covered")
	ErrBacktracking = errors.New("robot could not step back")
)

// ParseMode validates a mode name. The empty string selects ReturnHome.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ReturnHome:
		return ReturnHome, nil
	case StopWhenCovered:
		return StopWhenCovered, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Agent is what the explorer needs from a robot. Actions take a context
// because they may wait for pacing.
type Agent interface {
	Position() grid.Position
	ObjectHere(kind grid.ObjectKind) bool
	FrontIsClear() bool
	FrontCellVisited() bool
	MarkVisited()
	ResetVisited()

	Pick(ctx context.Context, kind grid.ObjectKind) error
	MoveForward(ctx context.Context, steps int) (int, error)
	MoveBackward(ctx context.Context) error
	TurnLeft(ctx context.Context) error
}

// Options configures one exploration.
type Options struct {
	Mode Mode
	Kind grid.ObjectKind

	// Reachable is the set of cells the robot can reach from its start.
	// Required by StopWhenCovered, reported otherwise. A reachable set always
	// holds the start cell, so an empty set means none was given.
	Reachable mapset.Set[grid.Position]

	Logger game.Logger
}

// Report summarizes an exploration.
type Report struct {
	Mode      Mode            `json:"mode"`
	Picked    int             `json:"picked"`
	Visited   []grid.Position `json:"visited"`
	Reachable int             `json:"reachable"`
	Moves     int             `json:"moves"`
	Turns     int             `json:"turns"`
	Complete  bool            `json:"complete"`
	Duration  time.Duration   `json:"duration"`
}

type explorer struct {
	agent   Agent
	opts    Options
	visited mapset.Set[grid.Position]
	report  Report
}

// Explore runs the traversal from the agent's current cell. Blocked moves
// and a full robot are handled by the traversal; any other agent error, such
// as a cancelled context, aborts it and is returned with the partial report.
func Explore(ctx context.Context, agent Agent, opts Options) (Report, error) {
	if opts.Mode == "" {
		opts.Mode = ReturnHome
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return Report{}, err
	}
	if opts.Mode == StopWhenCovered && opts.Reachable.Size() == 0 {
		return Report{}, ErrNoReachable
	}
	if opts.Kind == "" {
		opts.Kind = grid.Carrot
	}
	if opts.Logger == nil {
		opts.Logger = game.NopLogger()
	}

	e := &explorer{
		agent:   agent,
		opts:    opts,
		visited: mapset.New[grid.Position](),
		report:  Report{Mode: opts.Mode},
	}
	e.report.Reachable = opts.Reachable.Size()

	// Cells entered before this run, by hand or by an earlier run, must be
	// entered again.
	agent.ResetVisited()

	start := time.Now()
	opts.Logger.Info(fmt.Sprintf("exploring from %s in %s mode", agent.Position(), opts.Mode))

	done, err := e.explore(ctx, true)
	e.report.Complete = done
	e.report.Duration = time.Since(start)
	e.visited.Each(func(p grid.Position) {
		e.report.Visited = append(e.report.Visited, p)
	})
	if err != nil {
		opts.Logger.Warning(fmt.Sprintf("exploration aborted at %s: %s", agent.Position(), err))
		return e.report, err
	}

	opts.Logger.Info(fmt.Sprintf(
		"exploration finished: picked %d, visited %d of %d reachable, %d moves, %d turns",
		e.report.Picked, len(e.report.Visited), e.report.Reachable, e.report.Moves, e.report.Turns,
	))
	return e.report, nil
}

func (e *explorer) explore(ctx context.Context, root bool) (bool, error) {
	if err := e.harvest(ctx); err != nil {
		return false, err
	}
	e.agent.MarkVisited()
	e.visited.Put(e.agent.Position())
	if e.covered() {
		return true, nil
	}

	for range 4 {
		if e.agent.FrontIsClear() && !e.agent.FrontCellVisited() {
			moved, err := e.agent.MoveForward(ctx, 1)
			e.report.Moves += moved
			switch {
			case err != nil && !grid.IsBlocked(err):
				return false, err
			case moved == 1:
				done, err := e.explore(ctx, false)
				if err != nil || done {
					return done, err
				}
				if err := e.agent.MoveBackward(ctx); err != nil {
					return false, fmt.Errorf("%w from %s: %w", ErrBacktracking, e.agent.Position(), err)
				}
				e.report.Moves++
				e.report.Turns += 4
			}
		}

		if err := e.agent.TurnLeft(ctx); err != nil {
			return false, err
		}
		e.report.Turns++
	}

	return root, nil
}

// harvest picks until the cell is empty or the robot refuses.
func (e *explorer) harvest(ctx context.Context) error {
	for e.agent.ObjectHere(e.opts.Kind) {
		err := e.agent.Pick(ctx, e.opts.Kind)
		if errors.Is(err, robot.ErrCapacityFull) || errors.Is(err, robot.ErrNothingToPick) {
			return nil
		}
		if err != nil {
			return err
		}
		e.report.Picked++
	}
	return nil
}

func (e *explorer) covered() bool {
	if e.opts.Mode != StopWhenCovered {
		return false
	}
	covered := true
	e.opts.Reachable.Each(func(p grid.Position) {
		if !e.visited.Has(p) {
			covered = false
		}
	})
	return covered
}
