// Package scene loads world descriptions. A scene lists walls and objects by
// 1-indexed "x,y" keys plus the robots placed on it; only the first robot is
// modeled.
package scene

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const (
	// Infinite is the scene spelling of an unlimited object count.
	Infinite = "infinite"
	// MaxSide bounds the width and the height of a built world.
	MaxSide = 100
)

var (
	ErrMalformedScene = errors.New("malformed scene")
	ErrEmptyScene     = errors.New("scene has no cells")
	ErrNoRobot        = errors.New("scene has no robot")
)

var (
	//go:embed scene.schema.json
	schemaSource string
	//go:embed default_scene.json
	defaultSource []byte

	schema = jsonschema.MustCompileString("scene.schema.json", schemaSource)
)

// Count is an object count that is either a non-negative integer or
// unlimited.
type Count int

// UnmarshalJSON accepts a number or the string "infinite".
func (c *Count) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != Infinite {
			return fmt.Errorf("%w: count %q", ErrMalformedScene, s)
		}
		*c = Count(grid.Unlimited)
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: count %s", ErrMalformedScene, b)
	}
	*c = Count(n)
	return nil
}

// MarshalJSON writes unlimited counts as "infinite".
func (c Count) MarshalJSON() ([]byte, error) {
	if c == Count(grid.Unlimited) {
		return json.Marshal(Infinite)
	}
	return []byte(strconv.Itoa(int(c))), nil
}

// Robot is a robot placement. Objects are the robot's declared inventory,
// which is accepted and ignored: a robot always starts empty-handed.
type Robot struct {
	X           int              `json:"x" yaml:"x"`
	Y           int              `json:"y" yaml:"y"`
	Orientation int              `json:"orientation" yaml:"orientation"`
	Objects     map[string]Count `json:"objects,omitempty" yaml:"objects,omitempty"`
}

// Document is a scene description as found in JSON or YAML files.
type Document struct {
	Width   int                         `json:"width,omitempty" yaml:"width,omitempty"`
	Height  int                         `json:"height,omitempty" yaml:"height,omitempty"`
	Robots  []Robot                     `json:"robots,omitempty" yaml:"robots,omitempty"`
	Walls   map[string][]string         `json:"walls,omitempty" yaml:"walls,omitempty"`
	Objects map[string]map[string]Count `json:"objects,omitempty" yaml:"objects,omitempty"`
	Goal    map[string]any              `json:"goal,omitempty" yaml:"goal,omitempty"`
}

// Scene is a built world plus the first robot's placement.
type Scene struct {
	Name   string
	World  *grid.World
	Robot  *Placement
	Source *Document
}

// Placement is where the robot starts, 0-indexed.
type Placement struct {
	Start  grid.Position
	Facing grid.Heading
}

// Parse decodes and validates a JSON or YAML scene.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedScene)
	}

	if data[0] != '{' {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
		}
		data = converted
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}
	return &doc, nil
}

// Default returns the built-in scene: a 10x10 field walled on its east and
// north edges with carrots in the middle.
func Default() *Document {
	doc, err := Parse(defaultSource)
	if err != nil {
		panic(fmt.Sprintf("default scene: %s", err))
	}
	return doc
}

// Build creates the world a document describes. The world is as large as
// the largest coordinate used by walls, objects and robots, or the declared
// size when that is larger, and at most MaxSide cells on each side.
func Build(name string, doc *Document) (*Scene, error) {
	walls := make(map[grid.Position][]grid.Side, len(doc.Walls))
	objects := make(map[grid.Position]map[string]Count, len(doc.Objects))
	width, height := max(doc.Width, 0), max(doc.Height, 0)
	grow := func(p grid.Position) {
		width = max(width, p.X+1)
		height = max(height, p.Y+1)
	}

	for key, names := range doc.Walls {
		p, err := grid.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: walls: %w", ErrMalformedScene, err)
		}
		for _, name := range names {
			side, err := grid.ParseSide(name)
			if err != nil {
				return nil, fmt.Errorf("%w: walls %q: %w", ErrMalformedScene, key, err)
			}
			walls[p] = append(walls[p], side)
		}
		grow(p)
	}
	for key, counts := range doc.Objects {
		p, err := grid.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: objects: %w", ErrMalformedScene, err)
		}
		objects[p] = counts
		grow(p)
	}

	var placement *Placement
	for i, r := range doc.Robots {
		if r.X < 1 || r.Y < 1 {
			return nil, fmt.Errorf("%w: robot %d at %d,%d", ErrMalformedScene, i, r.X, r.Y)
		}
		p := grid.Position{X: r.X - 1, Y: r.Y - 1}
		grow(p)
		if placement == nil {
			placement = &Placement{Start: p, Facing: grid.HeadingFromOrientation(r.Orientation)}
		}
	}

	if width == 0 || height == 0 {
		return nil, ErrEmptyScene
	}
	if width > MaxSide || height > MaxSide {
		return nil, fmt.Errorf("%w: %dx%d is larger than %dx%d", ErrMalformedScene, width, height, MaxSide, MaxSide)
	}
	w, err := grid.New(width, height)
	if err != nil {
		return nil, err
	}
	for p, sides := range walls {
		for _, side := range sides {
			w.AddWall(p, side)
		}
	}
	for p, counts := range objects {
		for kind, n := range counts {
			if n < 0 && n != Count(grid.Unlimited) {
				return nil, fmt.Errorf("%w: negative count at %s", ErrMalformedScene, p.Key())
			}
			w.SetObject(p, grid.ObjectKind(kind), int(n))
		}
	}

	return &Scene{Name: name, World: w, Robot: placement, Source: doc}, nil
}

// Load parses and builds data in one go.
func Load(name string, data []byte) (*Scene, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(name, doc)
}
