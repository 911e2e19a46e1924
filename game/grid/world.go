/*
Package grid models the rectangular world a robot lives in.

A World owns its dimensions, the walls declared on cell edges and the
objects lying on cells. A wall declared on either side of an edge blocks the
edge in both directions, so scenes may declare only one side.

Coordinates are 0-indexed with north increasing y. Scene documents use
1-indexed "x,y" keys; Position.Key and ParseKey convert between the two.
*/
package grid

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/zyedidia/generic/mapset"
)

// ObjectKind names a collectible object.
type ObjectKind string

const (
	Carrot ObjectKind = "carrot"

	// Unlimited is the count of a cell that never runs out of an object.
	Unlimited = -1
)

var (
	ErrInvalidDimension = errors.New("world dimensions must be positive")
)

// Layout is the static part of a world a renderer draws once.
type Layout struct {
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	Walls  map[Position][]Side `json:"walls"`
}

// World is a grid of cells with walls and object counts.
type World struct {
	width   int
	height  int
	walls   map[Position]map[Side]struct{}
	objects map[Position]map[ObjectKind]int
	sync.RWMutex
}

// New creates an empty world of the given size.
func New(width, height int) (*World, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}

	return &World{
		width:   width,
		height:  height,
		walls:   make(map[Position]map[Side]struct{}),
		objects: make(map[Position]map[ObjectKind]int),
	}, nil
}

// Width returns the number of columns.
func (w *World) Width() int { return w.width }

// Height returns the number of rows.
func (w *World) Height() int { return w.height }

// InBound reports whether p lies inside the world.
func (w *World) InBound(p Position) bool {
	return p.X >= 0 && p.X < w.width && p.Y >= 0 && p.Y < w.height
}

// mustInBound panics on out-of-range access; callers violating it have a bug.
func (w *World) mustInBound(p Position) {
	if !w.InBound(p) {
		panic(fmt.Sprintf("grid: cell %s outside %dx%d world", p, w.width, w.height))
	}
}

// AddWall declares a wall on side s of cell p.
func (w *World) AddWall(p Position, s Side) {
	w.mustInBound(p)
	w.Lock()
	defer w.Unlock()

	sides, ok := w.walls[p]
	if !ok {
		sides = make(map[Side]struct{})
		w.walls[p] = sides
	}
	sides[s] = struct{}{}
}

// WallsAt returns the sides declared on p, sorted by name.
func (w *World) WallsAt(p Position) []Side {
	w.mustInBound(p)
	w.RLock()
	defer w.RUnlock()
	return w.wallsAtLocked(p)
}

func (w *World) wallsAtLocked(p Position) []Side {
	sides := make([]Side, 0, len(w.walls[p]))
	for s := range w.walls[p] {
		sides = append(sides, s)
	}
	sort.Slice(sides, func(i, j int) bool { return sides[i] < sides[j] })
	return sides
}

// HasWallBetween reports whether the edge between p and its neighbour in
// direction h is walled, from either side. A neighbour outside the world is
// only checked through p's own declaration.
func (w *World) HasWallBetween(p Position, h Heading) bool {
	w.mustInBound(p)
	w.RLock()
	defer w.RUnlock()
	return w.hasWallBetweenLocked(p, h)
}

func (w *World) hasWallBetweenLocked(p Position, h Heading) bool {
	if _, ok := w.walls[p][h.Side()]; ok {
		return true
	}
	next := p.Step(h)
	if !w.InBound(next) {
		return false
	}
	_, ok := w.walls[next][h.Side().Opposite()]
	return ok
}

// ObjectCountAt returns how many objects of kind lie on p: 0 when absent,
// Unlimited for a bottomless cell.
func (w *World) ObjectCountAt(p Position, kind ObjectKind) int {
	w.mustInBound(p)
	w.RLock()
	defer w.RUnlock()
	return w.objects[p][kind]
}

// SetObject overwrites the count of kind on p. Counts <= 0 other than
// Unlimited remove the entry.
func (w *World) SetObject(p Position, kind ObjectKind, count int) {
	w.mustInBound(p)
	w.Lock()
	defer w.Unlock()
	w.setObjectLocked(p, kind, count)
}

func (w *World) setObjectLocked(p Position, kind ObjectKind, count int) {
	if count <= 0 && count != Unlimited {
		if cell, ok := w.objects[p]; ok {
			delete(cell, kind)
			if len(cell) == 0 {
				delete(w.objects, p)
			}
		}
		return
	}

	cell, ok := w.objects[p]
	if !ok {
		cell = make(map[ObjectKind]int)
		w.objects[p] = cell
	}
	cell[kind] = count
}

// IncrementObject adds delta to the count of kind on p, clamping at zero and
// dropping empty entries. Unlimited counts are left untouched. It returns
// the resulting count.
func (w *World) IncrementObject(p Position, kind ObjectKind, delta int) int {
	w.mustInBound(p)
	w.Lock()
	defer w.Unlock()

	current := w.objects[p][kind]
	if current == Unlimited {
		return Unlimited
	}

	next := max(current+delta, 0)
	w.setObjectLocked(p, kind, next)
	return next
}

// Objects returns a deep copy of the object map.
func (w *World) Objects() map[Position]map[ObjectKind]int {
	w.RLock()
	defer w.RUnlock()

	out := make(map[Position]map[ObjectKind]int, len(w.objects))
	for p, cell := range w.objects {
		out[p] = maps.Clone(cell)
	}
	return out
}

// TotalObjects sums the finite counts of kind; unlimited reports whether at
// least one cell is bottomless.
func (w *World) TotalObjects(kind ObjectKind) (total int, unlimited bool) {
	w.RLock()
	defer w.RUnlock()

	for _, cell := range w.objects {
		switch n := cell[kind]; {
		case n == Unlimited:
			unlimited = true
		case n > 0:
			total += n
		}
	}
	return total, unlimited
}

// Layout returns the dimensions and declared walls.
func (w *World) Layout() Layout {
	w.RLock()
	defer w.RUnlock()

	walls := make(map[Position][]Side, len(w.walls))
	for p := range w.walls {
		walls[p] = w.wallsAtLocked(p)
	}
	return Layout{Width: w.width, Height: w.height, Walls: walls}
}

// Reachable returns every cell connected to start through unwalled edges.
func (w *World) Reachable(start Position) mapset.Set[Position] {
	w.mustInBound(start)
	w.RLock()
	defer w.RUnlock()

	seen := mapset.New[Position]()
	seen.Put(start)
	queue := []Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for h := East; h <= South; h++ {
			next, err := w.checkMoveLocked(current, h)
			if err != nil || seen.Has(next) {
				continue
			}
			seen.Put(next)
			queue = append(queue, next)
		}
	}
	return seen
}

// String draws the world with north at the top.
func (w *World) String() string {
	return w.Draw(nil)
}

// Draw renders the world as ASCII art. marks overrides the three-character
// content of individual cells, e.g. to place a robot.
func (w *World) Draw(marks map[Position]string) string {
	w.RLock()
	defer w.RUnlock()

	var b strings.Builder

	// Top boundary
	b.WriteString("+" + strings.Repeat("---+", w.width) + "\n")

	for y := w.height - 1; y >= 0; y-- {
		// Cell row
		b.WriteString("|")
		for x := 0; x < w.width; x++ {
			p := Position{X: x, Y: y}
			b.WriteString(w.cellContentLocked(p, marks))
			if x == w.width-1 || w.hasWallBetweenLocked(p, East) {
				b.WriteString("|")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")

		// Wall row below the cells
		b.WriteString("+")
		for x := 0; x < w.width; x++ {
			p := Position{X: x, Y: y}
			if y == 0 || w.hasWallBetweenLocked(p, South) {
				b.WriteString("---+")
			} else {
				b.WriteString("   +")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (w *World) cellContentLocked(p Position, marks map[Position]string) string {
	if mark, ok := marks[p]; ok {
		return fmt.Sprintf("%-3.3s", mark)
	}

	switch n := w.objects[p][Carrot]; {
	case n == Unlimited:
		return " * "
	case n > 0 && n < 10:
		return fmt.Sprintf(" %d ", n)
	case n >= 10:
		return fmt.Sprintf("%3d", min(n, 999))
	}
	return "   "
}
