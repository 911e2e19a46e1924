package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a 0-indexed cell coordinate. Its text form is the 1-indexed
// scene key, so JSON output matches scene documents.
type Position struct {
	X int
	Y int
}

// Step returns the neighbour of p in direction h.
func (p Position) Step(h Heading) Position {
	d := h.Delta()
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Key returns the 1-indexed "x,y" form used by scene documents.
func (p Position) Key() string {
	return fmt.Sprintf("%d,%d", p.X+1, p.Y+1)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// MarshalText encodes p as its 1-indexed scene key.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.Key()), nil
}

// UnmarshalText parses a 1-indexed scene key.
func (p *Position) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseKey converts a 1-indexed "x,y" scene key into a 0-indexed Position.
func ParseKey(key string) (Position, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrMalformedPosition, key)
	}

	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrMalformedPosition, key)
	}
	if x < 1 || y < 1 {
		return Position{}, fmt.Errorf("%w: %q is not 1-indexed", ErrMalformedPosition, key)
	}

	return Position{X: x - 1, Y: y - 1}, nil
}
