package tracelog

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/robot"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTrace(t *testing.T, path string) []game.Snapshot {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var snaps []game.Snapshot
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var s game.Snapshot
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		snaps = append(snaps, s)
	}
	require.NoError(t, sc.Err())
	return snaps
}

func TestWriter(t *testing.T) {
	t.Run("Records every robot snapshot", func(t *testing.T) {
		dir := t.TempDir()
		session := uuid.New()
		tw, err := Open(dir, session, nil)
		require.NoError(t, err)
		assert.Equal(t, Path(dir, session), tw.Path())

		w, err := grid.New(2, 2)
		require.NoError(t, err)
		w.SetObject(grid.Position{X: 1, Y: 0}, grid.Carrot, 1)
		r, err := robot.New(w, robot.Config{})
		require.NoError(t, err)
		r.Subscribe(tw)

		_, err = r.MoveForward(1)
		require.NoError(t, err)
		require.NoError(t, r.Pick(grid.Carrot))
		r.TurnLeft()

		require.NoError(t, tw.Close())
		assert.Equal(t, 4, tw.Frames())

		snaps := readTrace(t, tw.Path())
		require.Len(t, snaps, 4)
		assert.Equal(t, game.ActionInit, snaps[0].Action)
		assert.Equal(t, game.ActionMove, snaps[1].Action)
		assert.Equal(t, 1, snaps[1].X)
		assert.Equal(t, game.ActionPick, snaps[2].Action)
		assert.Equal(t, 1, snaps[2].Carried)
		assert.Equal(t, game.ActionTurnLeft, snaps[3].Action)
		assert.Equal(t, grid.North, snaps[3].Facing)
		assert.Equal(t, 1, snaps[1].Objects[grid.Position{X: 1, Y: 0}][grid.Carrot])
	})

	t.Run("Writes after close are refused", func(t *testing.T) {
		tw, err := Open(t.TempDir(), uuid.New(), nil)
		require.NoError(t, err)
		require.NoError(t, tw.Close())
		require.NoError(t, tw.Close())

		assert.ErrorIs(t, tw.Write(game.Snapshot{}), ErrClosed)
		tw.Render(game.Snapshot{})
		assert.Equal(t, 0, tw.Frames())
	})
}
