package scene

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallScene = `{
  "robots": [{"x": 2, "y": 2, "orientation": 0}],
  "walls": {"2,2": ["east"]},
  "objects": {"3,1": {"carrot": 2}, "1,3": {"carrot": "infinite"}},
  "goal": {"objects": {}}
}`

const wallSceneYAML = `
robots:
  - x: 2
    y: 2
    orientation: 0
walls:
  "2,2": [east]
objects:
  "3,1": {carrot: 2}
  "1,3": {carrot: infinite}
`

func TestParse(t *testing.T) {
	t.Run("json and yaml agree", func(t *testing.T) {
		fromJSON, err := Parse([]byte(wallScene))
		require.NoError(t, err)
		fromYAML, err := Parse([]byte(wallSceneYAML))
		require.NoError(t, err)

		assert.Equal(t, fromJSON.Robots, fromYAML.Robots)
		assert.Equal(t, fromJSON.Walls, fromYAML.Walls)
		assert.Equal(t, fromJSON.Objects, fromYAML.Objects)
		assert.Equal(t, Count(grid.Unlimited), fromJSON.Objects["1,3"]["carrot"])
	})

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "  "},
		{name: "not json", input: "{"},
		{name: "zero key", input: `{"walls": {"0,1": ["east"]}}`},
		{name: "unknown side", input: `{"walls": {"1,1": ["up"]}}`},
		{name: "negative count", input: `{"objects": {"1,1": {"carrot": -3}}}`},
		{name: "unknown count word", input: `{"objects": {"1,1": {"carrot": "lots"}}}`},
		{name: "bad orientation", input: `{"robots": [{"x": 1, "y": 1, "orientation": 7}]}`},
		{name: "robot without y", input: `{"robots": [{"x": 1}]}`},
		{name: "declared width too large", input: `{"width": 101, "robots": [{"x": 1, "y": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorIs(t, err, ErrMalformedScene)
		})
	}
}

func TestBuild(t *testing.T) {
	t.Run("sizes the world from the largest coordinate", func(t *testing.T) {
		s, err := Load("walls", []byte(wallScene))
		require.NoError(t, err)

		assert.Equal(t, 3, s.World.Width())
		assert.Equal(t, 3, s.World.Height())
		require.NotNil(t, s.Robot)
		assert.Equal(t, grid.Position{X: 1, Y: 1}, s.Robot.Start)
		assert.Equal(t, grid.East, s.Robot.Facing)
		assert.True(t, s.World.HasWallBetween(grid.Position{X: 1, Y: 1}, grid.East))
		assert.True(t, s.World.HasWallBetween(grid.Position{X: 2, Y: 1}, grid.West))
		assert.Equal(t, 2, s.World.ObjectCountAt(grid.Position{X: 2, Y: 0}, grid.Carrot))
		assert.Equal(t, grid.Unlimited, s.World.ObjectCountAt(grid.Position{X: 0, Y: 2}, grid.Carrot))
	})

	t.Run("declared size wins when larger", func(t *testing.T) {
		s, err := Build("sized", &Document{Width: 5, Height: 4, Robots: []Robot{{X: 1, Y: 1}}})
		require.NoError(t, err)
		assert.Equal(t, 5, s.World.Width())
		assert.Equal(t, 4, s.World.Height())
	})

	t.Run("first robot only", func(t *testing.T) {
		s, err := Build("two", &Document{Robots: []Robot{{X: 3, Y: 1, Orientation: 1}, {X: 1, Y: 4}}})
		require.NoError(t, err)
		assert.Equal(t, grid.Position{X: 2, Y: 0}, s.Robot.Start)
		assert.Equal(t, grid.North, s.Robot.Facing)
		assert.Equal(t, 4, s.World.Height())
	})

	t.Run("no robot", func(t *testing.T) {
		s, err := Build("empty field", &Document{Objects: map[string]map[string]Count{"2,2": {"carrot": 1}}})
		require.NoError(t, err)
		assert.Nil(t, s.Robot)
	})

	t.Run("no cells", func(t *testing.T) {
		_, err := Build("nothing", &Document{})
		assert.ErrorIs(t, err, ErrEmptyScene)
	})

	t.Run("far object is refused", func(t *testing.T) {
		_, err := Load("far", []byte(`{"robots": [{"x": 1, "y": 1}], "objects": {"100000,100000": {"carrot": 1}}}`))
		assert.ErrorIs(t, err, ErrMalformedScene)
	})

	t.Run("largest world", func(t *testing.T) {
		s, err := Build("edge", &Document{Robots: []Robot{{X: MaxSide, Y: MaxSide}}})
		require.NoError(t, err)
		assert.Equal(t, MaxSide, s.World.Width())

		_, err = Build("past edge", &Document{Robots: []Robot{{X: MaxSide + 1, Y: 1}}})
		assert.ErrorIs(t, err, ErrMalformedScene)
	})

	t.Run("malformed key", func(t *testing.T) {
		_, err := Build("bad", &Document{Walls: map[string][]string{"a,b": {"east"}}})
		assert.ErrorIs(t, err, ErrMalformedScene)
		assert.ErrorIs(t, err, grid.ErrMalformedPosition)
	})
}

func TestDefault(t *testing.T) {
	s, err := Build("default", Default())
	require.NoError(t, err)

	assert.Equal(t, 10, s.World.Width())
	assert.Equal(t, 10, s.World.Height())
	assert.Equal(t, grid.Position{}, s.Robot.Start)
	assert.Equal(t, grid.East, s.Robot.Facing)
	assert.ElementsMatch(t, []grid.Side{grid.SideEast, grid.SideNorth}, s.World.WallsAt(grid.Position{X: 9, Y: 9}))

	total, unlimited := s.World.TotalObjects(grid.Carrot)
	assert.Equal(t, 38, total)
	assert.False(t, unlimited)
	assert.Equal(t, 100, s.World.Reachable(s.Robot.Start).Size())
}

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/walls.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(wallScene))
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"walls": {"1,1": ["sideways"]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := &Fetcher{Client: srv.Client()}
	ctx := context.Background()

	t.Run("loads a valid scene", func(t *testing.T) {
		doc, fallback := f.Fetch(ctx, srv.URL+"/walls.json")
		assert.False(t, fallback)
		assert.Equal(t, []string{"east"}, doc.Walls["2,2"])
	})

	t.Run("falls back on http errors", func(t *testing.T) {
		doc, fallback := f.Fetch(ctx, srv.URL+"/missing.json")
		assert.True(t, fallback)
		assert.Equal(t, Default(), doc)
	})

	t.Run("falls back on invalid scenes", func(t *testing.T) {
		_, fallback := f.Fetch(ctx, srv.URL+"/broken.json")
		assert.True(t, fallback)
	})

	t.Run("falls back on bad urls", func(t *testing.T) {
		_, fallback := f.Fetch(ctx, "://nowhere")
		assert.True(t, fallback)
	})
}

func TestMaze(t *testing.T) {
	m := Maze{Width: 8, Height: 6, Seed: 7, Carrots: RewardModel{RewardOne: 1, RewardTwo: 3, RewardTypeProb: 0.5}}

	t.Run("perfect maze", func(t *testing.T) {
		doc, err := m.Generate()
		require.NoError(t, err)
		s, err := Build("maze", doc)
		require.NoError(t, err)

		assert.Equal(t, 8, s.World.Width())
		assert.Equal(t, 6, s.World.Height())
		assert.Equal(t, 48, s.World.Reachable(grid.Position{}).Size())

		closed := 0
		for _, sides := range doc.Walls {
			closed += len(sides)
		}
		inner := (m.Width-1)*m.Height + m.Width*(m.Height-1)
		assert.Equal(t, inner-(m.Width*m.Height-1), closed, "a spanning tree opens cells-1 edges")
	})

	t.Run("every cell gets a reward", func(t *testing.T) {
		doc, err := m.Generate()
		require.NoError(t, err)
		assert.Len(t, doc.Objects, 48)
		for key, counts := range doc.Objects {
			n := counts[string(grid.Carrot)]
			assert.True(t, n == 1 || n == 3, "unexpected reward %d at %s", n, key)
		}
	})

	t.Run("same seed same maze", func(t *testing.T) {
		a, err := m.Generate()
		require.NoError(t, err)
		b, err := m.Generate()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("single cell", func(t *testing.T) {
		doc, err := Maze{Width: 1, Height: 1}.Generate()
		require.NoError(t, err)
		s, err := Build("tiny", doc)
		require.NoError(t, err)
		assert.Equal(t, 1, s.World.Width())
	})

	t.Run("invalid parameters", func(t *testing.T) {
		_, err := Maze{Width: 0, Height: 3}.Generate()
		assert.ErrorIs(t, err, ErrInvalidMaze)
		_, err = Maze{Width: 3, Height: 3, Carrots: RewardModel{RewardTypeProb: 2}}.Generate()
		assert.ErrorIs(t, err, ErrInvalidMaze)
	})
}
