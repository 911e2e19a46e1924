package actionqueue

import (
	"context"
	"time"
)

// StepKind identifies the discrete step that just finished.
type StepKind int

const (
	StepMove StepKind = iota + 1
	StepTurn
)

func (k StepKind) String() string {
	switch k {
	case StepMove:
		return "move"
	case StepTurn:
		return "turn"
	default:
		return "unknown"
	}
}

// Pacer is the animation delay model. Pause is called after every discrete
// step and returns once the step may be considered displayed.
type Pacer interface {
	Pause(ctx context.Context, step StepKind) error
}

// Default step delays.
const (
	DefaultMoveDelay = 200 * time.Millisecond
	DefaultTurnDelay = 300 * time.Millisecond
)

// FixedDelay waits a constant duration per step kind.
type FixedDelay struct {
	Move time.Duration
	Turn time.Duration
}

// Pause sleeps for the delay of step or until ctx is done.
func (d FixedDelay) Pause(ctx context.Context, step StepKind) error {
	delay := d.Move
	if step == StepTurn {
		delay = d.Turn
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay never waits.
type NoDelay struct{}

// Pause returns immediately.
func (NoDelay) Pause(ctx context.Context, _ StepKind) error { return ctx.Err() }

// AckPacer waits for the renderer to acknowledge that a step finished
// animating. Acks sent while nothing is waiting are buffered up to the
// channel capacity.
type AckPacer struct {
	acks    chan struct{}
	timeout time.Duration
}

// NewAckPacer creates an AckPacer. A positive timeout bounds each wait so
// a vanished renderer cannot stall the queue forever.
func NewAckPacer(buffer int, timeout time.Duration) *AckPacer {
	return &AckPacer{
		acks:    make(chan struct{}, max(buffer, 1)),
		timeout: timeout,
	}
}

// Ack records that one step finished animating.
func (p *AckPacer) Ack() {
	select {
	case p.acks <- struct{}{}:
	default:
	}
}

// Pause blocks until an Ack arrives, the timeout elapses or ctx is done.
func (p *AckPacer) Pause(ctx context.Context, _ StepKind) error {
	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.acks:
	case <-timeout:
	}
	return nil
}
