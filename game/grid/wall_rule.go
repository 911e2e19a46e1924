package grid

import "errors"

// Blocked-move conditions. Running into either is normal robot behaviour
// and is reported to the caller, never raised as a failure of the run.
var (
	ErrBlockedBoundary = errors.New("blocked: boundary")
	ErrBlockedWall     = errors.New("blocked: wall")
)

// CheckMove returns the cell reached by one step from p toward h, or the
// reason the step is blocked. The boundary is checked before walls so wall
// lookups never leave the grid.
func (w *World) CheckMove(p Position, h Heading) (Position, error) {
	w.mustInBound(p)
	w.RLock()
	defer w.RUnlock()
	return w.checkMoveLocked(p, h)
}

func (w *World) checkMoveLocked(p Position, h Heading) (Position, error) {
	next := p.Step(h)
	if !w.InBound(next) {
		return p, ErrBlockedBoundary
	}
	if w.hasWallBetweenLocked(p, h) {
		return p, ErrBlockedWall
	}
	return next, nil
}

// IsBlocked reports whether err is one of the blocked-move conditions.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlockedBoundary) || errors.Is(err, ErrBlockedWall)
}
