// Package session owns the per-match planning state: the trajectory cache,
// the tuning it was built with and the optional renderer and decision store.
//
// One Session is shared by every agent in a match. Evaluate may be called
// concurrently from several agents.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/aerial"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/config"
	"github.com/banshee-data/strikeplanner/internal/intercept"
	"github.com/banshee-data/strikeplanner/internal/kick"
	"github.com/banshee-data/strikeplanner/internal/monitoring"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/render"
	"github.com/banshee-data/strikeplanner/internal/storage/sqlite"
	"github.com/banshee-data/strikeplanner/internal/strike"
)

// Frame is one agent's view of a simulation tick.
type Frame struct {
	Car  car.CarData
	Ball physics.BallSlice
}

// Decision is what the planner concluded for one frame. Intercept is nil
// when no strike is feasible; Plan is nil when no kick strategy is
// configured or no route reaches the ball in time.
type Decision struct {
	ID          string
	PlayerIndex int
	Team        car.Team
	Time        float64
	Path        *physics.BallPath
	Intercept   *intercept.Intercept
	Checklist   strike.Checklist
	Plan        *intercept.PrecisionPlan
	// Aerial is set for airborne cars.
	Aerial *intercept.AerialGuidance
	// KickPath is the predicted ball path after the planned kick.
	KickPath *physics.BallPath
}

// Feasible reports whether an intercept was found.
func (d *Decision) Feasible() bool { return d.Intercept != nil }

// KickLanding is where the kicked ball next lands.
func (d *Decision) KickLanding() (physics.BallSlice, bool) {
	if d.KickPath == nil {
		return physics.BallSlice{}, false
	}
	return d.KickPath.Landing(d.KickPath.StartPoint().Time)
}

// KickRebound is the kicked ball just after its first wall bounce.
func (d *Decision) KickRebound() (physics.BallSlice, bool) {
	if d.KickPath == nil {
		return physics.BallSlice{}, false
	}
	return d.KickPath.MotionAfterWallBounce(1)
}

// ReadyToLaunch reports whether every readiness gate for the intercept's
// strike style passed this frame.
func (d *Decision) ReadyToLaunch() bool {
	return d.Checklist != nil && d.Checklist.ReadyToLaunch()
}

// Options configures New. Zero values select the defaults.
type Options struct {
	Tuning    *config.StrikeTuning
	Predictor physics.Predictor
	Renderer  render.Renderer
	Store     *sqlite.DecisionStore
}

// Session is the per-match planning context.
type Session struct {
	tuning   *config.StrikeTuning
	cache    *physics.TrajectoryCache
	renderer render.Renderer
	store    *sqlite.DecisionStore

	mu      sync.Mutex
	flights map[int]*flight

	evaluated atomic.Int64
	feasible  atomic.Int64
}

// flight tracks one player's current jump or aerial.
type flight struct {
	launchTime float64
	heldPitch  float64
	airborne   bool
}

// New builds a session from opts.
func New(opts Options) (*Session, error) {
	tuning := opts.Tuning
	if tuning == nil {
		tuning = config.EmptyStrikeTuning()
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	predictor := opts.Predictor
	if predictor == nil {
		predictor = &physics.BallisticPredictor{StepSeconds: tuning.GetSliceStepSeconds()}
	}

	cache, err := physics.NewTrajectoryCache(predictor, CacheOptions(tuning))
	if err != nil {
		return nil, fmt.Errorf("create trajectory cache: %w", err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.Noop{}
	}

	return &Session{
		tuning:   tuning,
		cache:    cache,
		renderer: renderer,
		store:    opts.Store,
		flights:  make(map[int]*flight),
	}, nil
}

// CacheOptions maps the tuning onto trajectory cache options.
func CacheOptions(t *config.StrikeTuning) physics.CacheOptions {
	return physics.CacheOptions{
		HorizonSeconds:          t.GetPredictionHorizonSeconds(),
		Capacity:                t.GetCacheCapacity(),
		PositionTolerance:       t.GetReusePositionTolerance(),
		PlanarPositionTolerance: t.GetReusePlanarPositionTolerance(),
		VelocityTolerance:       t.GetReuseVelocityTolerance(),
		PlanarVelocityTolerance: t.GetReusePlanarVelocityTolerance(),
		MinRemainingSeconds:     t.GetReuseMinRemainingSeconds(),
		KeyQuantum:              t.GetCacheKeyQuantum(),
	}
}

// Cache exposes the session's trajectory cache.
func (s *Session) Cache() *physics.TrajectoryCache { return s.cache }

// Renderer returns the session's renderer.
func (s *Session) Renderer() render.Renderer { return s.renderer }

// Stats returns how many frames were evaluated and how many of them found
// an intercept.
func (s *Session) Stats() (evaluated, feasible int64) {
	return s.evaluated.Load(), s.feasible.Load()
}

// LaunchTime returns when player last left the ground, or false when the
// player has not been seen airborne since its last grounded frame.
func (s *Session) LaunchTime(player int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[player]
	if !ok || !f.airborne {
		return 0, false
	}
	return f.launchTime, true
}

// Reset drops every cached path and flight record. Call it when play
// restarts, after a goal or a new kickoff.
func (s *Session) Reset() {
	s.cache.Reset()
	s.mu.Lock()
	s.flights = make(map[int]*flight)
	s.mu.Unlock()
	monitoring.Logf("session reset")
}

// track updates the flight record for c and returns a copy of it.
func (s *Session) track(c car.CarData) flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[c.PlayerIndex]
	if !ok {
		f = &flight{}
		s.flights[c.PlayerIndex] = f
	}
	if c.HasWheelContact {
		f.launchTime = c.Time
		f.airborne = false
		return *f
	}
	if !f.airborne {
		if !ok {
			f.launchTime = c.Time
		}
		f.heldPitch = aerial.NosePitch(c.Orientation.Nose)
		f.airborne = true
	}
	return *f
}

func (s *Session) holdPitch(player int, pitch float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.flights[player]; ok && f.airborne {
		f.heldPitch = pitch
	}
}

// KickStrategy returns the configured strategy for team, or nil when route
// planning is disabled.
func (s *Session) KickStrategy(team car.Team) intercept.KickStrategy {
	switch s.tuning.GetKickStrategy() {
	case config.KickStrategyWall:
		return kick.WallRebound{}
	case config.KickStrategyNone:
		return nil
	default:
		return kick.TowardEnemyGoal(team)
	}
}

// Evaluate plans one frame. Grounded cars get a flat-out intercept search
// and, with a kick strategy, a route; airborne cars get an aerial intercept
// refined against their held nose pitch. A prediction failure is returned as an error
// wrapping physics.PredictionError and the frame should be skipped. An
// unreachable ball is not an error: the Decision simply has no Intercept.
func (s *Session) Evaluate(frame Frame) (*Decision, error) {
	c := frame.Car
	path, err := s.cache.Simulate(frame.Ball)
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", c.PlayerIndex, err)
	}
	s.renderer.DrawBallPath(c.PlayerIndex, path)

	d := &Decision{
		ID:          uuid.New().String(),
		PlayerIndex: c.PlayerIndex,
		Team:        c.Team,
		Time:        c.Time,
		Path:        path,
	}
	s.evaluated.Add(1)

	f := s.track(c)
	var in *intercept.Intercept
	if f.airborne {
		in = s.evaluateAirborne(c, path, f, d)
	} else {
		in, _ = intercept.OpportunityAssumingMaxAccel(c, path, strike.BoostBudget(c), s.tuning.GetAccelHorizonSeconds(), strike.StraightOnProfile, strike.IsVerticallyAccessible)
	}

	if in != nil {
		s.feasible.Add(1)
		d.Intercept = in
		d.Checklist = strike.CheckReadiness(c, in.SpaceTime(), in.Profile)
		s.renderer.DrawIntercept(c.PlayerIndex, in)
		s.renderer.DrawDistancePlot(c.PlayerIndex, in.Plot)

		// Routes start from the ground.
		if strategy := s.KickStrategy(c.Team); strategy != nil && !f.airborne {
			search := intercept.NewRouteSearch(strategy)
			search.Clearance = s.tuning.GetKickClearance()
			search.Slack = s.tuning.GetRouteSlack().Seconds()
			search.Predicate = intercept.Accessible
			if plan, ok := intercept.RouteAwareIntercept(c, path, in.Plot, search); ok {
				d.Plan = plan
				s.predictKick(d)
			}
		}
	}

	if s.store != nil {
		if err := s.store.Insert(d.Record()); err != nil {
			// Telemetry loss does not invalidate the decision.
			monitoring.PlayerLogf(c.PlayerIndex, "failed to persist decision %s: %v", d.ID, err)
		}
	}
	return d, nil
}

// evaluateAirborne finds and refines an aerial intercept for a car already
// off the ground. d.Aerial is filled in even when the refined intercept is
// out of reach.
func (s *Session) evaluateAirborne(c car.CarData, path *physics.BallPath, f flight, d *Decision) *intercept.Intercept {
	found, ok := intercept.AerialIntercept(c, path, r3.Vec{}, f.launchTime)
	if !ok {
		return nil
	}
	guidance, ok := intercept.RefineAerial(c, found, f.heldPitch, f.launchTime)
	s.holdPitch(c.PlayerIndex, guidance.HeldPitch)
	d.Aerial = &guidance
	if !ok {
		return nil
	}
	return guidance.Intercept
}

// predictKick predicts the ball path after the planned kick, starting from
// the contact point with the desired ball velocity. The session's current
// path is left alone.
func (s *Session) predictKick(d *Decision) {
	k := d.Plan.Kick
	start := physics.BallSlice{
		Space:    k.Intercept.BallSlice.Space,
		Velocity: k.DesiredBallVelocity,
		Time:     k.Intercept.Time,
	}
	kicked, err := s.cache.Predict(start)
	if err != nil {
		monitoring.PlayerLogf(d.PlayerIndex, "kick follow-through not predicted: %v", err)
		return
	}
	d.KickPath = kicked
}

// IsPredictionFailure reports whether err came from the ball predictor.
func IsPredictionFailure(err error) bool {
	return errors.Is(err, physics.ErrPredictionFailed)
}

type planSummary struct {
	LaunchPad     [2]float64  `json:"launch_pad"`
	LaunchTime    float64     `json:"launch_time"`
	KickDirection [3]float64  `json:"kick_direction"`
	RouteSeconds  float64     `json:"route_seconds"`
	EasyKick      bool        `json:"easy_kick"`
	Landing       *[3]float64 `json:"landing,omitempty"`
	Rebound       *[3]float64 `json:"rebound,omitempty"`
}

func vec3(v r3.Vec) *[3]float64 {
	return &[3]float64{v.X, v.Y, v.Z}
}

// Record converts the decision to its stored form.
func (d *Decision) Record() *sqlite.DecisionRecord {
	rec := &sqlite.DecisionRecord{
		DecisionID:    d.ID,
		PlayerIndex:   d.PlayerIndex,
		Team:          string(d.Team),
		FrameTime:     d.Time,
		Feasible:      d.Feasible(),
		ReadyToLaunch: d.ReadyToLaunch(),
	}
	if in := d.Intercept; in != nil {
		rec.InterceptTime = in.Time
		rec.InterceptX, rec.InterceptY, rec.InterceptZ = in.Space.X, in.Space.Y, in.Space.Z
		rec.StrikeStyle = string(in.Profile.Style)
		rec.AirBoost = in.AirBoost
		rec.FailurePeriod = in.SpatialPredicateFailurePeriod
	}
	if d.Checklist != nil {
		rec.Checklist = fmt.Sprint(d.Checklist)
	}
	if p := d.Plan; p != nil {
		rec.Route = p.Steer.Route.String()
		pad := p.Kick.LaunchPad.Position()
		v := p.Kick.DesiredBallVelocity
		summary := planSummary{
			LaunchPad:     [2]float64{pad.X, pad.Y},
			LaunchTime:    p.Kick.LaunchPad.ExpectedTime(),
			KickDirection: [3]float64{v.X, v.Y, v.Z},
			RouteSeconds:  p.Steer.Route.Duration(),
			EasyKick:      p.Kick.EasyKickAllowed,
		}
		if landing, ok := d.KickLanding(); ok {
			summary.Landing = vec3(landing.Space)
		}
		if rebound, ok := d.KickRebound(); ok {
			summary.Rebound = vec3(rebound.Space)
		}
		if b, err := json.Marshal(summary); err == nil {
			rec.PlanJSON = b
		}
	}
	return rec
}
