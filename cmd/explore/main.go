// Command explore loads a scene, lets the robot explore it and prints the
// final frame with a summary of the run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/beka-birhanu/reeborg-api/config"
	"github.com/beka-birhanu/reeborg-api/game/actionqueue"
	"github.com/beka-birhanu/reeborg-api/game/explorer"
	"github.com/beka-birhanu/reeborg-api/game/grid"
	"github.com/beka-birhanu/reeborg-api/game/render"
	"github.com/beka-birhanu/reeborg-api/game/robot"
	"github.com/beka-birhanu/reeborg-api/game/scene"
	logger "github.com/beka-birhanu/reeborg-api/infrastruture/log"
	"github.com/beka-birhanu/reeborg-api/infrastruture/tracelog"
	"github.com/google/uuid"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file, JSON or YAML (optional)")
		sceneURL  = flag.String("url", "", "fetch the scene from this URL (optional)")
		mazeSize  = flag.String("maze", "", "generate a WxH maze instead of loading a scene, e.g. 8x6")
		seed      = flag.Int64("seed", 1, "maze seed")
		capacity  = flag.Int("capacity", robot.DefaultCapacity, "robot capacity")
		mode      = flag.String("mode", string(explorer.ReturnHome), "return_home or stop_when_covered")
		frames    = flag.Bool("frames", false, "print a frame after every action")
		moveDelay = flag.Duration("move_delay", 0, "pause after each move")
		turnDelay = flag.Duration("turn_delay", 0, "pause after each turn")
		traceDir  = flag.String("trace", "", "write a compressed trace to this directory (optional)")
		asJSON    = flag.Bool("json", false, "print the report as JSON")
	)
	flag.Parse()

	log, err := logger.New("EXPLORE", config.ColorPurple, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sc, err := loadScene(ctx, *scenePath, *sceneURL, *mazeSize, *seed, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scene:", err)
		os.Exit(1)
	}
	if sc.Robot == nil {
		fmt.Fprintln(os.Stderr, "scene:", scene.ErrNoRobot)
		os.Exit(1)
	}
	explorationMode, err := explorer.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mode:", err)
		os.Exit(2)
	}

	r, err := robot.New(sc.World, robot.Config{
		Start:    sc.Robot.Start,
		Facing:   sc.Robot.Facing,
		Capacity: *capacity,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "robot:", err)
		os.Exit(1)
	}
	if *frames {
		r.Subscribe(render.NewText(sc.World, os.Stdout))
	}
	var trace *tracelog.Writer
	if *traceDir != "" {
		trace, err = tracelog.Open(*traceDir, uuid.New(), log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "trace:", err)
			os.Exit(1)
		}
		r.Subscribe(trace)
	}

	var pacer actionqueue.Pacer = actionqueue.NoDelay{}
	if *moveDelay > 0 || *turnDelay > 0 {
		pacer = actionqueue.FixedDelay{Move: *moveDelay, Turn: *turnDelay}
	}
	queue := actionqueue.New(r, actionqueue.Config{Pacer: pacer, Logger: log})
	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		_ = queue.Run(ctx)
	}()

	report, err := explorer.Explore(ctx, actionqueue.NewDriver(queue, r), explorer.Options{
		Mode:      explorationMode,
		Reachable: sc.World.Reachable(r.Position()),
		Logger:    log,
	})
	queue.Close()
	stop()
	<-queueDone

	if trace != nil {
		if err := trace.Close(); err != nil {
			log.Warning(fmt.Sprintf("closing trace: %s", err))
		}
		log.Info(fmt.Sprintf("wrote %d frames to %s", trace.Frames(), trace.Path()))
	}

	fmt.Print(sc.World.Draw(map[grid.Position]string{r.Position(): robot.Glyph(r.Facing())}))
	if *asJSON {
		b, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(b))
	} else {
		fmt.Printf("scene=%s mode=%s picked=%d carried=%d/%d visited=%d/%d moves=%d turns=%d complete=%t took=%s\n",
			sc.Name, report.Mode, report.Picked, r.Carried(), r.Capacity(),
			len(report.Visited), report.Reachable, report.Moves, report.Turns, report.Complete,
			report.Duration.Round(time.Millisecond))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "explore:", err)
		os.Exit(1)
	}
}

func loadScene(ctx context.Context, path, url, maze string, seed int64, log *logger.Logger) (*scene.Scene, error) {
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return scene.Load(path, data)
	case url != "":
		f := &scene.Fetcher{Logger: log}
		doc, fallback := f.Fetch(ctx, url)
		name := url
		if fallback {
			name = "default"
		}
		return scene.Build(name, doc)
	case maze != "":
		var width, height int
		if _, err := fmt.Sscanf(maze, "%dx%d", &width, &height); err != nil {
			return nil, fmt.Errorf("%w: size %q", scene.ErrInvalidMaze, maze)
		}
		m := scene.Maze{
			Width:   width,
			Height:  height,
			Seed:    seed,
			Carrots: scene.RewardModel{RewardOne: 1, RewardTwo: 5, RewardTypeProb: 0.9},
		}
		doc, err := m.Generate()
		if err != nil {
			return nil, err
		}
		return scene.Build(fmt.Sprintf("maze %s seed %d", maze, seed), doc)
	default:
		return scene.Build("default", scene.Default())
	}
}
