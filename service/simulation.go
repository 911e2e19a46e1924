package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/beka-birhanu/reeborg-api/game/actionqueue"
	"github.com/beka-birhanu/reeborg-api/game/explorer"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/render"
	"github.com/beka-birhanu/reeborg-api/game/robot"
	"github.com/beka-birhanu/reeborg-api/game/scene"
	"github.com/beka-birhanu/reeborg-api/infrastruture/tracelog"
	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxSessionsPerOwner = 4
	runHistoryLimit     = 50
	repoTimeout         = 2 * time.Second
	ackTimeout          = 5 * time.Second

	defaultSceneName = "default"
	customSceneName  = "custom"

	EventExplored       = "explored"
	EventExploreAborted = "explore_aborted"
	EventClosed         = "closed"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrNotSessionOwner        = errors.New("session belongs to another user")
	ErrExplorationRunning     = errors.New("exploration already running")
	ErrTooManySessions        = errors.New("too many open sessions")
	ErrAmbiguousScene         = errors.New("only one scene source may be given")
	ErrLeaderboardUnavailable = errors.New("leaderboard is not configured")
)

type session struct {
	id        uuid.UUID
	owner     uuid.UUID
	sceneName string
	fallback  bool

	world  *grid.World
	robot  *robot.Robot
	queue  *actionqueue.Queue
	driver *actionqueue.Driver
	hub    *render.Hub
	trace  *tracelog.Writer

	exploring atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// SimulationService runs robot sessions, one queue goroutine per session.
// Implements i.SimulationManager.
type SimulationService struct {
	runRepo     i.RunRepo
	userRepo    i.UserRepo
	leaderboard i.Leaderboard
	locker      i.Locker
	fetcher     *scene.Fetcher
	sceneURL    string
	capacity    int
	moveDelay   time.Duration
	turnDelay   time.Duration
	traceDir    string
	logger      game.Logger

	sessions map[uuid.UUID]*session
	sync.RWMutex
}

// SimulationConfig holds the dependencies of a SimulationService. Leaderboard,
// Locker, Fetcher and Logger are optional.
type SimulationConfig struct {
	RunRepo     i.RunRepo
	UserRepo    i.UserRepo
	Leaderboard i.Leaderboard
	Locker      i.Locker
	Fetcher     *scene.Fetcher
	// SceneURL is fetched for sessions created without a scene.
	SceneURL string
	// Capacity is the robot capacity when a session asks for none.
	Capacity  int
	MoveDelay time.Duration
	TurnDelay time.Duration
	// TraceDir receives one compressed trace per session when set.
	TraceDir string
	Logger   game.Logger
}

// NewSimulationService creates a SimulationService.
func NewSimulationService(c *SimulationConfig) (*SimulationService, error) {
	if c.RunRepo == nil || c.UserRepo == nil {
		return nil, ErrMissingDependency
	}
	if c.Capacity < 0 {
		return nil, robot.ErrInvalidCapacity
	}

	logger := c.Logger
	if logger == nil {
		logger = game.NopLogger()
	}
	fetcher := c.Fetcher
	if fetcher == nil {
		fetcher = &scene.Fetcher{Logger: logger}
	}

	return &SimulationService{
		runRepo:     c.RunRepo,
		userRepo:    c.UserRepo,
		leaderboard: c.Leaderboard,
		locker:      c.Locker,
		fetcher:     fetcher,
		sceneURL:    c.SceneURL,
		capacity:    c.Capacity,
		moveDelay:   c.MoveDelay,
		turnDelay:   c.TurnDelay,
		traceDir:    c.TraceDir,
		logger:      logger,
		sessions:    make(map[uuid.UUID]*session),
	}, nil
}

// Create builds the requested scene and starts a session owned by owner.
func (s *SimulationService) Create(ctx context.Context, owner uuid.UUID, opts i.SessionOptions) (i.SessionView, error) {
	if s.countOwned(owner) >= maxSessionsPerOwner {
		return i.SessionView{}, ErrTooManySessions
	}

	doc, name, fallback, err := s.resolveScene(ctx, opts.Scene)
	if err != nil {
		return i.SessionView{}, err
	}
	sc, err := scene.Build(name, doc)
	if err != nil {
		return i.SessionView{}, err
	}
	if sc.Robot == nil {
		return i.SessionView{}, scene.ErrNoRobot
	}

	capacity := opts.Capacity
	if capacity == 0 {
		capacity = s.capacity
	}
	r, err := robot.New(sc.World, robot.Config{
		Start:    sc.Robot.Start,
		Facing:   sc.Robot.Facing,
		Capacity: capacity,
		Logger:   s.logger,
	})
	if err != nil {
		return i.SessionView{}, err
	}

	sess := &session{
		id:        uuid.New(),
		owner:     owner,
		sceneName: sc.Name,
		fallback:  fallback,
		world:     sc.World,
		robot:     r,
		hub:       render.NewHub(sc.World.Layout(), s.logger),
		done:      make(chan struct{}),
	}

	var pacer actionqueue.Pacer = actionqueue.FixedDelay{Move: s.moveDelay, Turn: s.turnDelay}
	if opts.AckPacing {
		ackPacer := actionqueue.NewAckPacer(1, ackTimeout)
		sess.hub.OnAck(ackPacer.Ack)
		pacer = ackPacer
	}
	sess.queue = actionqueue.New(r, actionqueue.Config{Pacer: pacer, Logger: s.logger})
	sess.driver = actionqueue.NewDriver(sess.queue, r)

	r.Subscribe(sess.hub)
	if s.traceDir != "" {
		trace, err := tracelog.Open(s.traceDir, sess.id, s.logger)
		if err != nil {
			s.logger.Warning(fmt.Sprintf("session %s runs without a trace: %s", sess.id, err))
		} else {
			sess.trace = trace
			r.Subscribe(trace)
		}
	}

	sess.ctx, sess.cancel = context.WithCancel(context.Background())
	go func() {
		defer close(sess.done)
		_ = sess.queue.Run(sess.ctx)
	}()

	s.Lock()
	s.sessions[sess.id] = sess
	s.Unlock()

	s.logger.Info(fmt.Sprintf("started session %s on scene %q for %s", sess.id, sc.Name, owner))
	return s.view(sess), nil
}

func (s *SimulationService) resolveScene(ctx context.Context, src i.SceneSource) (*scene.Document, string, bool, error) {
	given := 0
	for _, set := range []bool{src.Document != nil, src.URL != "", src.Maze != nil} {
		if set {
			given++
		}
	}
	if given > 1 {
		return nil, "", false, ErrAmbiguousScene
	}

	switch {
	case src.Document != nil:
		return src.Document, customSceneName, false, nil
	case src.URL != "":
		doc, fallback := s.fetcher.Fetch(ctx, src.URL)
		if fallback {
			return doc, defaultSceneName, true, nil
		}
		return doc, src.URL, false, nil
	case src.Maze != nil:
		doc, err := src.Maze.Generate()
		if err != nil {
			return nil, "", false, err
		}
		name := fmt.Sprintf("maze %dx%d seed %d", src.Maze.Width, src.Maze.Height, src.Maze.Seed)
		return doc, name, false, nil
	case s.sceneURL != "":
		doc, fallback := s.fetcher.Fetch(ctx, s.sceneURL)
		if fallback {
			return doc, defaultSceneName, true, nil
		}
		return doc, s.sceneURL, false, nil
	default:
		return scene.Default(), defaultSceneName, false, nil
	}
}

// View returns the current state of a session.
func (s *SimulationService) View(owner, id uuid.UUID) (i.SessionView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return i.SessionView{}, err
	}
	return s.view(sess), nil
}

// Submit queues one action. Manual actions are refused while the explorer
// drives the robot.
func (s *SimulationService) Submit(owner, id uuid.UUID, a actionqueue.Action) (*actionqueue.Task, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if sess.exploring.Load() {
		return nil, ErrExplorationRunning
	}
	return sess.queue.Submit(a)
}

// Explore starts an exploration in the background. Its outcome is
// published to stream clients and stored in the run history.
func (s *SimulationService) Explore(owner, id uuid.UUID, mode explorer.Mode) error {
	sess, err := s.session(owner, id)
	if err != nil {
		return err
	}
	if mode, err = explorer.ParseMode(string(mode)); err != nil {
		return err
	}
	if !sess.exploring.CompareAndSwap(false, true) {
		return ErrExplorationRunning
	}

	go s.explore(sess, mode)
	return nil
}

func (s *SimulationService) explore(sess *session, mode explorer.Mode) {
	defer sess.exploring.Store(false)

	if s.locker != nil {
		release, err := s.locker.Acquire(sess.ctx, "explore:"+sess.owner.String())
		if err != nil {
			s.logger.Warning(fmt.Sprintf("session %s: exploration refused: %s", sess.id, err))
			sess.hub.Publish(EventExploreAborted, err.Error())
			return
		}
		defer release()
	}

	startedAt := time.Now().UTC()
	report, err := explorer.Explore(sess.ctx, sess.driver, explorer.Options{
		Mode:      mode,
		Reachable: sess.world.Reachable(sess.robot.Position()),
		Logger:    s.logger,
	})
	if err != nil {
		s.logger.Warning(fmt.Sprintf("session %s: exploration aborted: %s", sess.id, err))
		sess.hub.Publish(EventExploreAborted, report)
		return
	}

	run := &game.RunRecord{
		ID:         uuid.New(),
		SessionID:  sess.id,
		Owner:      sess.owner,
		Scene:      sess.sceneName,
		Mode:       string(mode),
		Carried:    sess.robot.Carried(),
		Capacity:   sess.robot.Capacity(),
		Visited:    len(report.Visited),
		Reachable:  report.Reachable,
		Moves:      report.Moves,
		Turns:      report.Turns,
		Complete:   report.Complete,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
	s.recordRun(run, report.Picked)
	sess.hub.Publish(EventExplored, report)
}

// recordRun stores run and credits harvested to the owner. Failures are
// logged; the exploration itself already happened.
func (s *SimulationService) recordRun(run *game.RunRecord, harvested int) {
	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()

	if err := s.runRepo.Save(ctx, run); err != nil {
		s.logger.Error(fmt.Sprintf("saving run %s: %s", run.ID, err))
	}

	user, err := s.userRepo.ByID(run.Owner)
	if err != nil {
		s.logger.Error(fmt.Sprintf("loading owner of run %s: %s", run.ID, err))
		return
	}
	if user.RecordRun(harvested) {
		s.logger.Info(fmt.Sprintf("%s harvested a new best of %d", user.Username, harvested))
	}
	if err := s.userRepo.Save(user); err != nil {
		s.logger.Error(fmt.Sprintf("saving %s: %s", user.Username, err))
		return
	}

	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.Submit(ctx, user.Username, float64(user.BestHarvest)); err != nil {
		s.logger.Warning(fmt.Sprintf("leaderboard update for %s: %s", user.Username, err))
	}
}

// Cancel drops the actions waiting in the session queue. A running
// exploration stops at its next action.
func (s *SimulationService) Cancel(owner, id uuid.UUID) (int, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return 0, err
	}
	return sess.queue.Cancel(), nil
}

// Close stops a session and releases its stream clients and trace.
func (s *SimulationService) Close(owner, id uuid.UUID) error {
	sess, err := s.session(owner, id)
	if err != nil {
		return err
	}

	s.Lock()
	delete(s.sessions, id)
	s.Unlock()

	s.stop(sess)
	return nil
}

// Shutdown closes every session.
func (s *SimulationService) Shutdown() {
	s.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*session)
	s.Unlock()

	for _, sess := range sessions {
		s.stop(sess)
	}
}

func (s *SimulationService) stop(sess *session) {
	sess.queue.Close()
	sess.cancel()
	<-sess.done

	sess.hub.Publish(EventClosed, nil)
	sess.hub.Close()
	if sess.trace != nil {
		if err := sess.trace.Close(); err != nil {
			s.logger.Warning(fmt.Sprintf("closing trace of session %s: %s", sess.id, err))
		}
	}
	s.logger.Info(fmt.Sprintf("closed session %s", sess.id))
}

// Stream serves the session's frames on conn until the client leaves or the
// session closes.
func (s *SimulationService) Stream(owner, id uuid.UUID, conn *websocket.Conn) error {
	sess, err := s.session(owner, id)
	if err != nil {
		return err
	}
	sess.hub.Serve(conn)
	return nil
}

// Runs returns the newest runs of owner.
func (s *SimulationService) Runs(ctx context.Context, owner uuid.UUID) ([]*game.RunRecord, error) {
	return s.runRepo.ByOwner(ctx, owner, runHistoryLimit)
}

// Leaderboard returns the n best harvesters.
func (s *SimulationService) Leaderboard(ctx context.Context, n int64) ([]i.Standing, error) {
	if s.leaderboard == nil {
		return nil, ErrLeaderboardUnavailable
	}
	return s.leaderboard.Top(ctx, n)
}

func (s *SimulationService) session(owner, id uuid.UUID) (*session, error) {
	s.RLock()
	defer s.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.owner != owner {
		return nil, ErrNotSessionOwner
	}
	return sess, nil
}

func (s *SimulationService) countOwned(owner uuid.UUID) int {
	s.RLock()
	defer s.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.owner == owner {
			n++
		}
	}
	return n
}

func (s *SimulationService) view(sess *session) i.SessionView {
	snap := sess.robot.Snapshot()
	return i.SessionView{
		ID:        sess.id,
		Owner:     sess.owner,
		Scene:     sess.sceneName,
		Fallback:  sess.fallback,
		Layout:    sess.world.Layout(),
		Snapshot:  snap,
		Frame:     sess.world.Draw(map[grid.Position]string{snap.Position(): robot.Glyph(snap.Facing)}),
		Pending:   sess.queue.Len(),
		Exploring: sess.exploring.Load(),
	}
}
