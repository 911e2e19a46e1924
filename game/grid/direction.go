package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Heading is the direction a robot faces. The numeric values follow the
// scene "orientation" field and the left-turn order E -> N -> W -> S.
type Heading int

const (
	East Heading = iota
	North
	West
	South
)

// Side is one edge of a cell on which a wall can be declared.
type Side string

const (
	SideNorth Side = "north"
	SideSouth Side = "south"
	SideEast  Side = "east"
	SideWest  Side = "west"
)

var (
	ErrUnknownHeading    = errors.New("unknown heading")
	ErrUnknownSide       = errors.New("unknown wall side")
	ErrMalformedPosition = errors.New("malformed cell coordinate")
)

var (
	headingNames = [4]string{"E", "N", "W", "S"}

	// Deltas holds the one-cell step of every heading; north increases y.
	Deltas = [4]Position{
		East:  {X: 1, Y: 0},
		North: {X: 0, Y: 1},
		West:  {X: -1, Y: 0},
		South: {X: 0, Y: -1},
	}

	headingSides = [4]Side{
		East:  SideEast,
		North: SideNorth,
		West:  SideWest,
		South: SideSouth,
	}
)

// Left returns the heading after a single left turn.
func (h Heading) Left() Heading {
	return (h + 1) % 4
}

// Opposite returns the heading after two left turns.
func (h Heading) Opposite() Heading {
	return (h + 2) % 4
}

// Side returns the wall side crossed when moving toward h.
func (h Heading) Side() Side {
	return headingSides[h.normalize()]
}

// Delta returns the coordinate step of h.
func (h Heading) Delta() Position {
	return Deltas[h.normalize()]
}

func (h Heading) String() string {
	return headingNames[h.normalize()]
}

// MarshalText encodes the heading as its one-letter name.
func (h Heading) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts a one-letter name or a numeric orientation.
func (h *Heading) UnmarshalText(b []byte) error {
	parsed, err := ParseHeading(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h Heading) normalize() Heading {
	return ((h % 4) + 4) % 4
}

// HeadingFromOrientation maps a scene orientation (0..3) onto a heading.
func HeadingFromOrientation(orientation int) Heading {
	return Heading(orientation).normalize()
}

// ParseHeading parses "E", "N", "W", "S" (any case) or "0".."3".
func ParseHeading(s string) (Heading, error) {
	s = strings.TrimSpace(s)
	for i, name := range headingNames {
		if strings.EqualFold(s, name) {
			return Heading(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < 4 {
		return Heading(n), nil
	}
	return East, fmt.Errorf("%w: %q", ErrUnknownHeading, s)
}

// Opposite returns the side facing s across the shared edge.
func (s Side) Opposite() Side {
	switch s {
	case SideNorth:
		return SideSouth
	case SideSouth:
		return SideNorth
	case SideEast:
		return SideWest
	default:
		return SideEast
	}
}

// ParseSide validates a scene wall side name.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(s))); side {
	case SideNorth, SideSouth, SideEast, SideWest:
		return side, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
}
