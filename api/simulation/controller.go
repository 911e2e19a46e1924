package simulationapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/beka-birhanu/reeborg-api/api/identity"
	"github.com/beka-birhanu/reeborg-api/game/actionqueue"
	"github.com/beka-birhanu/reeborg-api/game/explorer"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/robot"
	"github.com/beka-birhanu/reeborg-api/game/scene"
	"github.com/beka-birhanu/reeborg-api/service"
	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	createTimeout     = 15 * time.Second
	actionWaitTimeout = 30 * time.Second
	repoTimeout       = 2 * time.Second

	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// SimulationController manages robot sessions.
type SimulationController struct {
	simulations i.SimulationManager
	upgrader    websocket.Upgrader
}

// NewSimulationController initializes a SimulationController.
func NewSimulationController(sm i.SimulationManager) (*SimulationController, error) {
	if sm == nil {
		return nil, service.ErrMissingDependency
	}
	return &SimulationController{
		simulations: sm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

// RegisterPublic registers public routes.
func (sc *SimulationController) RegisterPublic(route *gin.RouterGroup) {
	route.GET("/leaderboard", sc.leaderboard)
}

// RegisterProtected registers protected routes.
func (sc *SimulationController) RegisterProtected(route *gin.RouterGroup) {
	sessions := route.Group("/sessions")
	{
		sessions.POST("", sc.create)
		sessions.GET("/:ID", sc.view)
		sessions.DELETE("/:ID", sc.close)
		sessions.POST("/:ID/actions", sc.submit)
		sessions.POST("/:ID/explore", sc.explore)
		sessions.POST("/:ID/cancel", sc.cancel)
		sessions.GET("/:ID/stream", sc.stream)
	}
	route.GET("/runs", sc.runs)
}

// create starts a session on the requested scene.
func (sc *SimulationController) create(ctx *gin.Context) {
	owner, ok := identity.UserID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	var request CreateSessionRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	opts := i.SessionOptions{
		Scene: i.SceneSource{
			URL:  request.SceneURL,
			Maze: request.Maze,
		},
		Capacity:  request.Capacity,
		AckPacing: request.AckPacing,
	}
	if len(request.Scene) > 0 && string(request.Scene) != "null" {
		doc, err := scene.Parse(request.Scene)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Scene.Document = doc
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), createTimeout)
	defer cancel()
	view, err := sc.simulations.Create(timeoutCtx, owner, opts)
	if err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, view)
}

// view returns the current state of a session.
func (sc *SimulationController) view(ctx *gin.Context) {
	owner, id, ok := sessionParams(ctx)
	if !ok {
		return
	}

	view, err := sc.simulations.View(owner, id)
	if err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// submit queues an action, optionally waiting for it to finish.
func (sc *SimulationController) submit(ctx *gin.Context) {
	owner, id, ok := sessionParams(ctx)
	if !ok {
		return
	}

	var request ActionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := actionqueue.ParseKind(request.Kind)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := sc.simulations.Submit(owner, id, actionqueue.Action{
		Kind:   kind,
		Steps:  request.Steps,
		Object: grid.ObjectKind(request.Object),
	})
	if err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	if !request.Wait {
		ctx.JSON(http.StatusAccepted, taskResponse(task))
		return
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), actionWaitTimeout)
	defer cancel()
	if _, err := task.Wait(timeoutCtx); err != nil {
		ctx.JSON(http.StatusAccepted, taskResponse(task))
		return
	}
	ctx.JSON(http.StatusOK, taskResponse(task))
}

func taskResponse(task *actionqueue.Task) ActionResponse {
	resp := ActionResponse{
		TaskID: task.ID,
		Action: task.Action,
		State:  task.State().String(),
	}
	if res, done := task.Result(); done {
		resp.Moved = res.Moved
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
	}
	return resp
}

// explore starts an exploration in the background.
func (sc *SimulationController) explore(ctx *gin.Context) {
	owner, id, ok := sessionParams(ctx)
	if !ok {
		return
	}

	var request ExploreRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := sc.simulations.Explore(owner, id, explorer.Mode(request.Mode)); err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusAccepted)
}

// cancel drops the queued actions of a session.
func (sc *SimulationController) cancel(ctx *gin.Context) {
	owner, id, ok := sessionParams(ctx)
	if !ok {
		return
	}

	dropped, err := sc.simulations.Cancel(owner, id)
	if err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, CancelResponse{Dropped: dropped})
}

// close ends a session.
func (sc *SimulationController) close(ctx *gin.Context) {
	owner, id, ok := sessionParams(ctx)
	if !ok {
		return
	}

	if err := sc.simulations.Close(owner, id); err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// stream upgrades to a websocket carrying the session's frames.
func (sc *SimulationController) stream(ctx *gin.Context) {
	owner, id, ok := sessionParams(ctx)
	if !ok {
		return
	}
	if _, err := sc.simulations.View(owner, id); err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := sc.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		return
	}
	if err := sc.simulations.Stream(owner, id, conn); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// runs lists the caller's exploration history.
func (sc *SimulationController) runs(ctx *gin.Context) {
	owner, ok := identity.UserID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), repoTimeout)
	defer cancel()
	runs, err := sc.simulations.Runs(timeoutCtx, owner)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while loading runs"})
		return
	}
	ctx.JSON(http.StatusOK, runs)
}

// leaderboard lists the best harvesters.
func (sc *SimulationController) leaderboard(ctx *gin.Context) {
	n := int64(defaultLeaderboardSize)
	if limit := ctx.Query("limit"); limit != "" {
		parsed, err := strconv.ParseInt(limit, 10, 64)
		if err != nil || parsed < 1 || parsed > maxLeaderboardSize {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		n = parsed
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Request.Context(), repoTimeout)
	defer cancel()
	standings, err := sc.simulations.Leaderboard(timeoutCtx, n)
	if err != nil {
		ctx.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, standings)
}

// sessionParams reads the caller and the session ID, answering the request
// itself when either is missing.
func sessionParams(ctx *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := identity.UserID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(ctx.Params.ByName("ID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotSessionOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrExplorationRunning),
		errors.Is(err, actionqueue.ErrQueueClosed):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrLeaderboardUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrAmbiguousScene),
		errors.Is(err, scene.ErrMalformedScene),
		errors.Is(err, scene.ErrNoRobot),
		errors.Is(err, scene.ErrInvalidMaze),
		errors.Is(err, actionqueue.ErrUnknownAction),
		errors.Is(err, actionqueue.ErrInvalidSteps),
		errors.Is(err, explorer.ErrUnknownMode),
		errors.Is(err, robot.ErrInvalidCapacity),
		errors.Is(err, robot.ErrInvalidPosition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
