package robot

import (
	"testing"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld(t *testing.T, width, height int) *grid.World {
	t.Helper()
	w, err := grid.New(width, height)
	require.NoError(t, err)
	return w
}

func newRobot(t *testing.T, w *grid.World, c Config) *Robot {
	t.Helper()
	r, err := New(w, c)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	w := newWorld(t, 2, 2)

	t.Run("rejects start outside the world", func(t *testing.T) {
		_, err := New(w, Config{Start: grid.Position{X: 2, Y: 0}})
		assert.ErrorIs(t, err, ErrInvalidPosition)
	})

	t.Run("rejects negative capacity", func(t *testing.T) {
		_, err := New(w, Config{Capacity: -1})
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	})

	t.Run("defaults capacity and marks start visited", func(t *testing.T) {
		r := newRobot(t, w, Config{Start: grid.Position{X: 1, Y: 1}, Facing: grid.South})
		assert.Equal(t, DefaultCapacity, r.Capacity())
		assert.True(t, r.IsVisited())
		assert.Equal(t, grid.South, r.Facing())
	})
}

func TestTurns(t *testing.T) {
	w := newWorld(t, 1, 1)

	t.Run("four left turns restore facing", func(t *testing.T) {
		r := newRobot(t, w, Config{Facing: grid.West})
		for range 4 {
			r.TurnLeft()
		}
		assert.Equal(t, grid.West, r.Facing())
	})

	t.Run("turn right is three left turns", func(t *testing.T) {
		var actions []string
		r := newRobot(t, w, Config{
			Facing: grid.East,
			Renderers: []game.Renderer{game.RendererFunc(func(s game.Snapshot) {
				actions = append(actions, s.Action)
			})},
		})

		r.TurnRight()
		assert.Equal(t, grid.South, r.Facing())
		assert.Equal(t, []string{game.ActionTurnLeft, game.ActionTurnLeft, game.ActionTurnLeft}, actions)
		_, turns, _, _ := r.Stats()
		assert.Equal(t, 3, turns)
	})
}

func TestMoveForward(t *testing.T) {
	t.Run("moves and records visited cells", func(t *testing.T) {
		w := newWorld(t, 4, 1)
		r := newRobot(t, w, Config{Facing: grid.East})

		moved, err := r.MoveForward(2)
		require.NoError(t, err)
		assert.Equal(t, 2, moved)
		assert.Equal(t, grid.Position{X: 2, Y: 0}, r.Position())
		assert.True(t, r.HasVisited(grid.Position{X: 1, Y: 0}))
		assert.Len(t, r.Visited(), 3)
	})

	t.Run("stops at the boundary", func(t *testing.T) {
		w := newWorld(t, 3, 2)
		r := newRobot(t, w, Config{Start: grid.Position{X: 2, Y: 1}, Facing: grid.East})

		moved, err := r.MoveForward(1)
		assert.ErrorIs(t, err, grid.ErrBlockedBoundary)
		assert.Equal(t, 0, moved)
		assert.Equal(t, grid.Position{X: 2, Y: 1}, r.Position())
	})

	t.Run("stops at a wall", func(t *testing.T) {
		w := newWorld(t, 3, 3)
		wallCell, err := grid.ParseKey("2,2")
		require.NoError(t, err)
		w.AddWall(wallCell, grid.SideEast)
		r := newRobot(t, w, Config{Start: grid.Position{X: 1, Y: 1}, Facing: grid.East})

		moved, err := r.MoveForward(1)
		assert.ErrorIs(t, err, grid.ErrBlockedWall)
		assert.Equal(t, 0, moved)
		assert.Equal(t, grid.Position{X: 1, Y: 1}, r.Position())
	})

	t.Run("partial move reports cells crossed", func(t *testing.T) {
		w := newWorld(t, 3, 1)
		r := newRobot(t, w, Config{Facing: grid.East})

		moved, err := r.MoveForward(5)
		assert.ErrorIs(t, err, grid.ErrBlockedBoundary)
		assert.Equal(t, 2, moved)
	})
}

func TestMoveBackward(t *testing.T) {
	t.Run("round trip restores position and facing", func(t *testing.T) {
		w := newWorld(t, 3, 3)
		start := grid.Position{X: 1, Y: 1}
		for h := grid.East; h <= grid.South; h++ {
			r := newRobot(t, w, Config{Start: start, Facing: h})
			_, err := r.MoveForward(1)
			require.NoError(t, err)
			require.NoError(t, r.MoveBackward())
			assert.Equal(t, start, r.Position())
			assert.Equal(t, h, r.Facing())
		}
	})

	t.Run("blocked backward keeps facing", func(t *testing.T) {
		w := newWorld(t, 2, 1)
		r := newRobot(t, w, Config{Facing: grid.East})

		err := r.MoveBackward()
		assert.ErrorIs(t, err, grid.ErrBlockedBoundary)
		assert.Equal(t, grid.East, r.Facing())
		assert.Equal(t, grid.Position{}, r.Position())
	})
}

func TestPickPut(t *testing.T) {
	t.Run("pick then put restores the cell", func(t *testing.T) {
		w := newWorld(t, 1, 1)
		w.SetObject(grid.Position{}, grid.Carrot, 2)
		r := newRobot(t, w, Config{})

		require.NoError(t, r.Pick(grid.Carrot))
		assert.Equal(t, 1, r.Carried())
		assert.Equal(t, 1, w.ObjectCountAt(grid.Position{}, grid.Carrot))

		require.NoError(t, r.Put(grid.Carrot))
		assert.Equal(t, 0, r.Carried())
		assert.Equal(t, 2, w.ObjectCountAt(grid.Position{}, grid.Carrot))
	})

	t.Run("nothing to pick", func(t *testing.T) {
		w := newWorld(t, 1, 1)
		r := newRobot(t, w, Config{})
		assert.ErrorIs(t, r.Pick(grid.Carrot), ErrNothingToPick)
		assert.Equal(t, 0, r.Carried())
	})

	t.Run("capacity full", func(t *testing.T) {
		w := newWorld(t, 1, 1)
		w.SetObject(grid.Position{}, grid.Carrot, 3)
		r := newRobot(t, w, Config{Capacity: 1})

		require.NoError(t, r.Pick(grid.Carrot))
		assert.ErrorIs(t, r.Pick(grid.Carrot), ErrCapacityFull)
		assert.Equal(t, 1, r.Carried())
		assert.Equal(t, 2, w.ObjectCountAt(grid.Position{}, grid.Carrot))
	})

	t.Run("nothing carried", func(t *testing.T) {
		w := newWorld(t, 1, 1)
		r := newRobot(t, w, Config{})
		assert.ErrorIs(t, r.Put(grid.Carrot), ErrNothingCarried)
		assert.Empty(t, w.Objects())
	})

	t.Run("unlimited cell stays unlimited", func(t *testing.T) {
		w := newWorld(t, 1, 1)
		w.SetObject(grid.Position{}, grid.Carrot, grid.Unlimited)
		r := newRobot(t, w, Config{Capacity: 3})

		for range 3 {
			require.NoError(t, r.Pick(grid.Carrot))
		}
		assert.True(t, r.ObjectHere(grid.Carrot))
		assert.Equal(t, grid.Unlimited, w.ObjectCountAt(grid.Position{}, grid.Carrot))
	})
}

func TestSensors(t *testing.T) {
	w := newWorld(t, 2, 2)
	w.AddWall(grid.Position{X: 0, Y: 0}, grid.SideNorth)
	r := newRobot(t, w, Config{Facing: grid.North})

	assert.False(t, r.FrontIsClear())
	r.TurnLeft()
	assert.False(t, r.FrontIsClear(), "west of the start is the boundary")
	assert.False(t, r.FrontCellVisited())
	r.TurnLeft()
	r.TurnLeft()
	assert.True(t, r.FrontIsClear())
	assert.False(t, r.FrontCellVisited())

	_, err := r.MoveForward(1)
	require.NoError(t, err)
	r.TurnLeft()
	r.TurnLeft()
	assert.True(t, r.FrontCellVisited())
}

func TestRenderers(t *testing.T) {
	w := newWorld(t, 2, 1)
	w.SetObject(grid.Position{X: 1, Y: 0}, grid.Carrot, 1)
	r := newRobot(t, w, Config{Facing: grid.East})

	var frames []game.Snapshot
	r.Subscribe(game.RendererFunc(func(s game.Snapshot) { frames = append(frames, s) }))

	_, err := r.MoveForward(1)
	require.NoError(t, err)
	require.NoError(t, r.Pick(grid.Carrot))

	require.Len(t, frames, 3)
	assert.Equal(t, game.ActionInit, frames[0].Action)
	assert.Equal(t, game.ActionMove, frames[1].Action)
	assert.Equal(t, 1, frames[1].X)
	assert.Equal(t, 1, frames[1].Objects[grid.Position{X: 1, Y: 0}][grid.Carrot])
	assert.Equal(t, game.ActionPick, frames[2].Action)
	assert.Equal(t, 1, frames[2].Carried)
	assert.Empty(t, frames[2].Objects)
	assert.Less(t, frames[1].Seq, frames[2].Seq)
}

func TestString(t *testing.T) {
	w := newWorld(t, 2, 1)
	r := newRobot(t, w, Config{Facing: grid.North})
	assert.Contains(t, r.String(), " ^ ")
}

func TestResetVisited(t *testing.T) {
	w := newWorld(t, 3, 1)
	r := newRobot(t, w, Config{Facing: grid.East})
	_, err := r.MoveForward(2)
	require.NoError(t, err)
	require.Len(t, r.Visited(), 3)

	r.ResetVisited()
	assert.Equal(t, []grid.Position{{X: 2, Y: 0}}, r.Visited())
	assert.True(t, r.IsVisited())
	assert.False(t, r.HasVisited(grid.Position{}))
}

func TestSnapshotKeepsSequence(t *testing.T) {
	w := newWorld(t, 2, 1)
	r := newRobot(t, w, Config{Facing: grid.East})

	var frames []game.Snapshot
	r.Subscribe(game.RendererFunc(func(s game.Snapshot) { frames = append(frames, s) }))
	_, err := r.MoveForward(1)
	require.NoError(t, err)

	for range 3 {
		assert.Equal(t, frames[1].Seq, r.Snapshot().Seq)
	}
	r.TurnLeft()
	require.Len(t, frames, 3)
	assert.Equal(t, frames[1].Seq+1, frames[2].Seq)
}
