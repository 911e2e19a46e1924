package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("rejects non-positive dimensions", func(t *testing.T) {
		_, err := New(0, 3)
		assert.ErrorIs(t, err, ErrInvalidDimension)

		_, err = New(3, -1)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("creates empty world", func(t *testing.T) {
		w, err := New(4, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, w.Width())
		assert.Equal(t, 2, w.Height())
		assert.Empty(t, w.Objects())
	})
}

func TestHasWallBetween(t *testing.T) {
	w, err := New(3, 3)
	require.NoError(t, err)
	w.AddWall(Position{X: 1, Y: 1}, SideEast)

	t.Run("own side blocks", func(t *testing.T) {
		assert.True(t, w.HasWallBetween(Position{X: 1, Y: 1}, East))
	})

	t.Run("neighbour declaration blocks the other way", func(t *testing.T) {
		assert.True(t, w.HasWallBetween(Position{X: 2, Y: 1}, West))
	})

	t.Run("other edges stay open", func(t *testing.T) {
		assert.False(t, w.HasWallBetween(Position{X: 1, Y: 1}, North))
		assert.False(t, w.HasWallBetween(Position{X: 2, Y: 1}, East))
	})

	t.Run("out of range access panics", func(t *testing.T) {
		assert.Panics(t, func() { w.HasWallBetween(Position{X: 3, Y: 0}, East) })
	})
}

func TestCheckMove(t *testing.T) {
	w, err := New(3, 3)
	require.NoError(t, err)
	w.AddWall(Position{X: 1, Y: 1}, SideEast)

	tests := []struct {
		name    string
		from    Position
		heading Heading
		want    Position
		err     error
	}{
		{name: "east open", from: Position{X: 0, Y: 0}, heading: East, want: Position{X: 1, Y: 0}},
		{name: "north increases y", from: Position{X: 0, Y: 0}, heading: North, want: Position{X: 0, Y: 1}},
		{name: "boundary west", from: Position{X: 0, Y: 2}, heading: West, want: Position{X: 0, Y: 2}, err: ErrBlockedBoundary},
		{name: "boundary south", from: Position{X: 2, Y: 0}, heading: South, want: Position{X: 2, Y: 0}, err: ErrBlockedBoundary},
		{name: "wall east", from: Position{X: 1, Y: 1}, heading: East, want: Position{X: 1, Y: 1}, err: ErrBlockedWall},
		{name: "wall seen from neighbour", from: Position{X: 2, Y: 1}, heading: West, want: Position{X: 2, Y: 1}, err: ErrBlockedWall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.CheckMove(tt.from, tt.heading)
			assert.Equal(t, tt.want, got)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
			assert.True(t, IsBlocked(err))
		})
	}
}

func TestObjects(t *testing.T) {
	w, err := New(2, 2)
	require.NoError(t, err)
	p := Position{X: 1, Y: 1}

	t.Run("absent object counts zero", func(t *testing.T) {
		assert.Equal(t, 0, w.ObjectCountAt(p, Carrot))
	})

	t.Run("increment clamps and drops empty entries", func(t *testing.T) {
		assert.Equal(t, 2, w.IncrementObject(p, Carrot, 2))
		assert.Equal(t, 0, w.IncrementObject(p, Carrot, -5))
		assert.Equal(t, 0, w.ObjectCountAt(p, Carrot))
		_, present := w.Objects()[p]
		assert.False(t, present)
	})

	t.Run("unlimited never depletes", func(t *testing.T) {
		w.SetObject(p, Carrot, Unlimited)
		assert.Equal(t, Unlimited, w.IncrementObject(p, Carrot, -1))
		total, unlimited := w.TotalObjects(Carrot)
		assert.Equal(t, 0, total)
		assert.True(t, unlimited)
		w.SetObject(p, Carrot, 0)
	})

	t.Run("objects returns a copy", func(t *testing.T) {
		w.SetObject(p, Carrot, 3)
		objs := w.Objects()
		objs[p][Carrot] = 99
		assert.Equal(t, 3, w.ObjectCountAt(p, Carrot))
	})
}

func TestReachable(t *testing.T) {
	w, err := New(3, 1)
	require.NoError(t, err)
	w.AddWall(Position{X: 1, Y: 0}, SideEast)

	reach := w.Reachable(Position{X: 0, Y: 0})
	assert.Equal(t, 2, reach.Size())
	assert.True(t, reach.Has(Position{X: 1, Y: 0}))
	assert.False(t, reach.Has(Position{X: 2, Y: 0}))
}

func TestParseKey(t *testing.T) {
	p, err := ParseKey("2,3")
	require.NoError(t, err)
	assert.Equal(t, Position{X: 1, Y: 2}, p)
	assert.Equal(t, "2,3", p.Key())

	for _, bad := range []string{"", "1", "a,b", "0,1", "1,2,3"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrMalformedPosition, bad)
	}
}

func TestHeading(t *testing.T) {
	t.Run("four left turns cycle back", func(t *testing.T) {
		for h := East; h <= South; h++ {
			assert.Equal(t, h, h.Left().Left().Left().Left())
		}
	})

	t.Run("left turn order", func(t *testing.T) {
		assert.Equal(t, North, East.Left())
		assert.Equal(t, West, North.Left())
		assert.Equal(t, South, West.Left())
		assert.Equal(t, East, South.Left())
	})

	t.Run("parse names and orientations", func(t *testing.T) {
		h, err := ParseHeading("w")
		require.NoError(t, err)
		assert.Equal(t, West, h)

		h, err = ParseHeading("3")
		require.NoError(t, err)
		assert.Equal(t, South, h)

		_, err = ParseHeading("up")
		assert.ErrorIs(t, err, ErrUnknownHeading)
	})
}

func TestLayoutJSON(t *testing.T) {
	w, err := New(2, 2)
	require.NoError(t, err)
	w.AddWall(Position{X: 0, Y: 0}, SideNorth)

	raw, err := json.Marshal(w.Layout())
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":2,"height":2,"walls":{"1,1":["north"]}}`, string(raw))
}

func TestDraw(t *testing.T) {
	w, err := New(2, 1)
	require.NoError(t, err)
	w.SetObject(Position{X: 1, Y: 0}, Carrot, 4)

	want := "" +
		"+---+---+\n" +
		"| >   4 |\n" +
		"+---+---+\n"
	assert.Equal(t, want, w.Draw(map[Position]string{{X: 0, Y: 0}: " > "}))
}
