// Command strikeplan runs a scripted scenario through the strike planner and
// logs what it decides each frame.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/config"
	"github.com/banshee-data/strikeplanner/internal/fsutil"
	"github.com/banshee-data/strikeplanner/internal/monitoring"
	"github.com/banshee-data/strikeplanner/internal/render"
	"github.com/banshee-data/strikeplanner/internal/session"
	"github.com/banshee-data/strikeplanner/internal/storage/sqlite"
	"github.com/banshee-data/strikeplanner/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to strike tuning JSON (defaults built in)")
	dbPath      = flag.String("db", "", "SQLite file to record decisions in (empty disables)")
	renderMode  = flag.String("render", "none", "Debug rendering: png, html or none")
	outDir      = flag.String("out", "strikeplan-out", "Directory for rendered frames")
	ballPos     = flag.String("ball-pos", "0,20,1.8555", "Ball position x,y,z")
	ballVel     = flag.String("ball-vel", "5,0,0", "Ball velocity x,y,z")
	carPos      = flag.String("car-pos", "0,-20,0.3405", "Car position x,y,z")
	carVel      = flag.String("car-vel", "0,0,0", "Car velocity x,y,z")
	team        = flag.String("team", "blue", "Car team: blue or orange")
	boost       = flag.Float64("boost", 33, "Starting boost (0-100)")
	frames      = flag.Int("frames", 60, "Number of frames to simulate")
	dt          = flag.Float64("dt", 1.0/60, "Seconds between frames")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// parseVec parses a comma-separated x,y,z triple.
func parseVec(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		xyz[i] = v
	}
	return r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func newRenderer(mode, dir string) (render.Renderer, error) {
	switch mode {
	case "", "none":
		return render.Noop{}, nil
	case "png":
		return render.NewPlotRenderer(fsutil.OSFileSystem{}, dir)
	case "html":
		return render.NewChartRenderer(fsutil.OSFileSystem{}, dir)
	default:
		return nil, fmt.Errorf("unknown render mode %q", mode)
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	sc, err := scenarioFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(sc); err != nil {
		log.Fatal(err)
	}
}

// run wires the session from the flags and plays sc through it. Everything
// opened here is closed before it returns.
func run(sc *scenario) error {
	tuning := config.EmptyStrikeTuning()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadStrikeTuning(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	renderer, err := newRenderer(*renderMode, *outDir)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	var store *sqlite.DecisionStore
	if *dbPath != "" {
		db, err := sqlite.Open(*dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		store = sqlite.NewDecisionStore(db)
	}

	s, err := session.New(session.Options{Tuning: tuning, Renderer: renderer, Store: store})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	summary, err := sc.run(s, *frames, *dt)
	if err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	monitoring.Logf("%s", summary)

	if store != nil {
		feasible, total, err := store.CountFeasible(sc.car.PlayerIndex)
		if err != nil {
			return fmt.Errorf("count decisions: %w", err)
		}
		monitoring.Logf("recorded %d decisions in %s (%d feasible)", total, *dbPath, feasible)
	}
	return nil
}
