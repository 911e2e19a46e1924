/*
Package actionqueue serializes the actions requested for one robot.

Actions are appended to a FIFO and executed one at a time by Run. Each
action goes through the states queued -> running -> complete; a running
action always finishes, including the pacing delay after every step, before
the next one is dequeued. There is no reordering and no preemption.

Cancel is an extension of that contract: it only drops actions that are
still queued, never the running one.
*/
package actionqueue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/google/uuid"
)

// Kind names an action a robot can be asked to perform.
type Kind string

const (
	KindMove         Kind = "move"
	KindTurnLeft     Kind = "turn_left"
	KindTurnRight    Kind = "turn_right"
	KindMoveBackward Kind = "move_backward"
	KindPick         Kind = "pick"
	KindPut          Kind = "put"

	maxSteps = 1000
)

// State is the lifecycle stage of a task.
type State int32

const (
	StateQueued State = iota
	StateRunning
	StateComplete
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	ErrQueueClosed   = errors.New("action queue closed")
	ErrCancelled     = errors.New("action cancelled before it started")
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidSteps  = errors.New("steps out of range")
)

// Actor is the robot surface the queue drives.
type Actor interface {
	MoveForward(steps int) (int, error)
	TurnLeft()
	Pick(kind grid.ObjectKind) error
	Put(kind grid.ObjectKind) error
}

// Action is one request for the robot.
type Action struct {
	Kind   Kind            `json:"kind"`
	Steps  int             `json:"steps,omitempty"`
	Object grid.ObjectKind `json:"object,omitempty"`
}

// ParseKind validates an action name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMove, KindTurnLeft, KindTurnRight, KindMoveBackward, KindPick, KindPut:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// normalize fills defaults and validates a.
func (a Action) normalize() (Action, error) {
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return a, err
	}
	if a.Kind == KindMove {
		if a.Steps == 0 {
			a.Steps = 1
		}
		if a.Steps < 0 || a.Steps > maxSteps {
			return a, fmt.Errorf("%w: %d", ErrInvalidSteps, a.Steps)
		}
	}
	if a.Object == "" {
		a.Object = grid.Carrot
	}
	return a, nil
}

// Result is the outcome of a completed task. Err carries reported
// conditions such as grid.ErrBlockedWall or robot.ErrCapacityFull.
type Result struct {
	Moved int
	Err   error
}

// Task tracks one submitted action.
type Task struct {
	ID     uuid.UUID
	Action Action

	state  atomic.Int32
	result Result
	done   chan struct{}
}

func newTask(a Action) *Task {
	return &Task{
		ID:     uuid.New(),
		Action: a,
		done:   make(chan struct{}),
	}
}

// State returns the current lifecycle stage.
func (t *Task) State() State { return State(t.state.Load()) }

// Done is closed once the task is complete or cancelled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the outcome once the task has finished.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-t.done:
		return t.result, nil
	}
}

func (t *Task) finish(state State, r Result) {
	t.result = r
	t.state.Store(int32(state))
	close(t.done)
}

// Config holds the optional collaborators of a Queue.
type Config struct {
	Pacer  Pacer
	Logger game.Logger
}

// Queue is a single-robot FIFO action serializer.
type Queue struct {
	actor  Actor
	pacer  Pacer
	logger game.Logger

	mu      sync.Mutex
	pending []*Task
	running *Task
	closed  bool
	wake    chan struct{}
}

// New creates a queue driving actor. Without a pacer the default fixed
// delays are used.
func New(actor Actor, c Config) *Queue {
	if c.Pacer == nil {
		c.Pacer = FixedDelay{Move: DefaultMoveDelay, Turn: DefaultTurnDelay}
	}
	if c.Logger == nil {
		c.Logger = game.NopLogger()
	}

	return &Queue{
		actor:  actor,
		pacer:  c.Pacer,
		logger: c.Logger,
		wake:   make(chan struct{}, 1),
	}
}

// Submit appends a to the queue.
func (q *Queue) Submit(a Action) (*Task, error) {
	a, err := a.normalize()
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	task := newTask(a)
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	q.signal()
	return task, nil
}

// Len returns the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Running returns the task currently executing, if any.
func (q *Queue) Running() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Cancel drops every task that has not started yet and returns how many
// were dropped. The running task is unaffected.
func (q *Queue) Cancel() int {
	q.mu.Lock()
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, task := range dropped {
		task.finish(StateCancelled, Result{Err: ErrCancelled})
	}
	if len(dropped) > 0 {
		q.logger.Info(fmt.Sprintf("cancelled %d queued actions", len(dropped)))
	}
	return len(dropped)
}

// Close stops accepting actions. Run returns once the queued ones ran.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Run drains the queue until it is closed and empty, or ctx is done. When
// ctx ends, the running action still completes without further delays and
// the remaining queued actions are cancelled.
func (q *Queue) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			q.Cancel()
			return ctx.Err()
		}

		task, closed := q.next()
		if task != nil {
			q.execute(ctx, task)
			q.clearRunning()
			continue
		}
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			q.Cancel()
			return ctx.Err()
		case <-q.wake:
		}
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) next() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, q.closed
	}
	task := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.running = task
	task.state.Store(int32(StateRunning))
	return task, false
}

func (q *Queue) clearRunning() {
	q.mu.Lock()
	q.running = nil
	q.mu.Unlock()
}

func (q *Queue) execute(ctx context.Context, task *Task) {
	var r Result
	a := task.Action

	switch a.Kind {
	case KindMove:
		for range a.Steps {
			if _, err := q.actor.MoveForward(1); err != nil {
				r.Err = err
				break
			}
			r.Moved++
			q.pause(ctx, StepMove)
		}
	case KindTurnLeft:
		q.turn(ctx, true)
	case KindTurnRight:
		q.turn(ctx, false)
		q.turn(ctx, false)
		q.turn(ctx, true)
	case KindMoveBackward:
		q.turn(ctx, true)
		q.turn(ctx, true)
		if _, err := q.actor.MoveForward(1); err != nil {
			r.Err = err
		} else {
			r.Moved = 1
			q.pause(ctx, StepMove)
		}
		q.turn(ctx, true)
		q.turn(ctx, true)
	case KindPick:
		r.Err = q.actor.Pick(a.Object)
	case KindPut:
		r.Err = q.actor.Put(a.Object)
	}

	if r.Err != nil {
		q.logger.Info(fmt.Sprintf("%s finished with: %s", a.Kind, r.Err))
	}
	task.finish(StateComplete, r)
}

func (q *Queue) turn(ctx context.Context, paced bool) {
	q.actor.TurnLeft()
	if paced {
		q.pause(ctx, StepTurn)
	}
}

// pause waits for the pacer. Once ctx is done pauses are skipped, but the
// action itself carries on.
func (q *Queue) pause(ctx context.Context, step StepKind) {
	if ctx.Err() != nil {
		return
	}
	if err := q.pacer.Pause(ctx, step); err != nil && ctx.Err() == nil {
		q.logger.Warning(fmt.Sprintf("pacer failed after %s step: %s", step, err))
	}
}
