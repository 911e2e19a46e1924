package scene

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/beka-birhanu/reeborg-api/game/grid"
)

const maxMazeSide = 64

var ErrInvalidMaze = errors.New("invalid maze parameters")

// RewardModel decides how many carrots each maze cell gets. Every cell gets
// RewardOne or RewardTwo; RewardTypeProb is the base probability of
// RewardOne, which grows toward the centre.
type RewardModel struct {
	RewardOne      int     `json:"reward_one" yaml:"reward_one"`
	RewardTwo      int     `json:"reward_two" yaml:"reward_two"`
	RewardTypeProb float32 `json:"reward_type_prob" yaml:"reward_type_prob"`
}

// Maze describes a generated scene.
type Maze struct {
	Width   int         `json:"width" yaml:"width"`
	Height  int         `json:"height" yaml:"height"`
	Carrots RewardModel `json:"carrots" yaml:"carrots"`
	Seed    int64       `json:"seed" yaml:"seed"`
}

func (m Maze) validate() error {
	if m.Width < 1 || m.Height < 1 || m.Width > maxMazeSide || m.Height > maxMazeSide {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidMaze, m.Width, m.Height)
	}
	r := m.Carrots
	if r.RewardTypeProb > 1 || r.RewardTypeProb < 0 || min(r.RewardOne, r.RewardTwo) < 0 {
		return fmt.Errorf("%w: reward model", ErrInvalidMaze)
	}
	return nil
}

type passage struct {
	from, to grid.Position
	heading  grid.Heading
}

// mazeCells tracks which sides of each cell are still closed.
type mazeCells struct {
	width, height int
	open          map[grid.Position]map[grid.Heading]bool
	rng           *rand.Rand
}

// Generate builds a perfect maze with Wilson's algorithm: loop-erased random
// walks from unvisited cells are added to the tree until every cell is in
// it. The robot starts in the south-west corner facing east.
func (m Maze) Generate() (*Document, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	cells := &mazeCells{
		width:  m.Width,
		height: m.Height,
		open:   make(map[grid.Position]map[grid.Heading]bool, m.Width*m.Height),
		rng:    rand.New(rand.NewSource(m.Seed)),
	}
	cells.generate()

	doc := &Document{
		Width:   m.Width,
		Height:  m.Height,
		Robots:  []Robot{{X: 1, Y: 1, Orientation: 0}},
		Walls:   cells.walls(),
		Objects: make(map[string]map[string]Count),
	}
	for y := range m.Height {
		for x := range m.Width {
			p := grid.Position{X: x, Y: y}
			reward := m.Carrots.RewardOne
			if cells.rng.Float32() > rewardProb(m.Carrots.RewardTypeProb, p, m.Width, m.Height) {
				reward = m.Carrots.RewardTwo
			}
			if reward > 0 {
				doc.Objects[p.Key()] = map[string]Count{string(grid.Carrot): Count(reward)}
			}
		}
	}
	return doc, nil
}

func (c *mazeCells) randomCell() grid.Position {
	return grid.Position{X: c.rng.Intn(c.width), Y: c.rng.Intn(c.height)}
}

func (c *mazeCells) neighbors(p grid.Position) []passage {
	var result []passage
	for h := grid.East; h <= grid.South; h++ {
		next := p.Step(h)
		if next.X >= 0 && next.X < c.width && next.Y >= 0 && next.Y < c.height {
			result = append(result, passage{from: p, to: next, heading: h})
		}
	}
	return result
}

func (c *mazeCells) carve(move passage) {
	for _, side := range []struct {
		p grid.Position
		h grid.Heading
	}{{move.from, move.heading}, {move.to, move.heading.Opposite()}} {
		if c.open[side.p] == nil {
			c.open[side.p] = make(map[grid.Heading]bool, 4)
		}
		c.open[side.p][side.h] = true
	}
}

func (c *mazeCells) generate() {
	inTree := map[grid.Position]struct{}{c.randomCell(): {}}
	total := c.width * c.height

	for len(inTree) < total {
		start := c.randomCell()
		for {
			if _, ok := inTree[start]; !ok {
				break
			}
			start = c.randomCell()
		}

		// The last exit taken from each cell overwrites earlier ones, which
		// erases the loops of the walk.
		exits := make(map[grid.Position]passage)
		for cell := start; ; {
			neighbors := c.neighbors(cell)
			move := neighbors[c.rng.Intn(len(neighbors))]
			exits[cell] = move
			if _, ok := inTree[move.to]; ok {
				break
			}
			cell = move.to
		}

		for cell := start; ; {
			if _, ok := inTree[cell]; ok {
				break
			}
			move := exits[cell]
			c.carve(move)
			inTree[cell] = struct{}{}
			cell = move.to
		}
	}
}

// walls declares every closed inner edge once, on the east or north side of
// the cell west or south of it.
func (c *mazeCells) walls() map[string][]string {
	walls := make(map[string][]string)
	for y := range c.height {
		for x := range c.width {
			p := grid.Position{X: x, Y: y}
			if x < c.width-1 && !c.open[p][grid.East] {
				walls[p.Key()] = append(walls[p.Key()], string(grid.SideEast))
			}
			if y < c.height-1 && !c.open[p][grid.North] {
				walls[p.Key()] = append(walls[p.Key()], string(grid.SideNorth))
			}
		}
	}
	return walls
}

// rewardProb is the probability of RewardOne at p. It grows with the
// closeness to the centre of the maze.
func rewardProb(baseProb float32, p grid.Position, width, height int) float32 {
	midX, midY := width/2, height/2
	maxDist := float64(midX + midY)
	if maxDist == 0 {
		return baseProb
	}

	dist := math.Abs(float64(p.X-midX)) + math.Abs(float64(p.Y-midY))
	closeness := 1.0 - dist/maxDist
	return baseProb + (1-baseProb)*float32(closeness)/10
}
