// Package render holds the Renderer implementations: a plain-text frame
// writer and a websocket hub that streams snapshots to browsers.
package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/robot"
)

// Text writes one ASCII frame per snapshot.
type Text struct {
	world *grid.World
	out   io.Writer

	mu     sync.Mutex
	frames int
	err    error
}

// NewText creates a text renderer drawing world onto out.
func NewText(world *grid.World, out io.Writer) *Text {
	return &Text{world: world, out: out}
}

// Render draws s. The first write error is kept and later frames are
// dropped.
func (t *Text) Render(s game.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return
	}

	t.frames++
	header := fmt.Sprintf("#%d %s at %s facing %s, carrying %d/%d\n",
		s.Seq, s.Action, s.Position(), s.Facing, s.Carried, s.Capacity)
	frame := t.world.Draw(map[grid.Position]string{s.Position(): robot.Glyph(s.Facing)})
	_, t.err = io.WriteString(t.out, header+frame)
}

// Frames returns how many frames were drawn.
func (t *Text) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Err returns the first write error.
func (t *Text) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
