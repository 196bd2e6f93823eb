package intercept

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/routing"
	"github.com/banshee-data/strikeplanner/internal/strike"
)

// KickStrategy chooses which way the ball should be pushed.
type KickStrategy interface {
	// KickDirection is the desired push direction for a ball at
	// ballPosition. The second result is false when the strategy has no
	// use for that ball.
	KickDirection(c car.CarData, ballPosition r3.Vec) (r3.Vec, bool)
	LooksViable(c car.CarData, ballPosition r3.Vec) bool
}

// KickPlanner turns an intercept into a concrete kick plan with a launch
// waypoint.
type KickPlanner interface {
	PlanKick(in *Intercept, path *physics.BallPath, c car.CarData, strategy KickStrategy) (*DirectedKickPlan, bool)
}

// KickPlannerFunc adapts a function to KickPlanner.
type KickPlannerFunc func(in *Intercept, path *physics.BallPath, c car.CarData, strategy KickStrategy) (*DirectedKickPlan, bool)

// PlanKick implements KickPlanner.
func (f KickPlannerFunc) PlanKick(in *Intercept, path *physics.BallPath, c car.CarData, strategy KickStrategy) (*DirectedKickPlan, bool) {
	return f(in, path, c, strategy)
}

// DirectedKickPlan is an intercept plus everything needed to drive to it
// and hit the ball in a chosen direction.
type DirectedKickPlan struct {
	Intercept           *Intercept
	BallPath            *physics.BallPath
	DistancePlot        *carpredict.DistancePlot
	InterceptModifier   r3.Vec
	DesiredBallVelocity r3.Vec
	PlannedKickForce    r3.Vec
	LaunchPad           routing.PreKickWaypoint
	EasyKickAllowed     bool
}

// PrecisionPlan pairs a kick plan with the steering route that delivers it.
type PrecisionPlan struct {
	Kick  *DirectedKickPlan
	Steer routing.SteerPlan
}

const (
	// minKickSpeed is the slowest ball speed a directed kick aims for.
	minKickSpeed = 20.0
	// carStrikeRadius is the distance from car center to the contact point.
	carStrikeRadius = 1.5
	// diagonalApproach and sideApproach are how far the car's heading at the
	// launch pad deviates from the kick direction.
	diagonalApproach = math.Pi / 4
	sideApproach     = math.Pi / 2
)

// DirectedKickPlanner is the default KickPlanner. It backs a launch pad off
// from the contact point along the direction the car will be travelling
// during the strike.
type DirectedKickPlanner struct{}

// PlanKick implements KickPlanner.
func (DirectedKickPlanner) PlanKick(in *Intercept, path *physics.BallPath, c car.CarData, strategy KickStrategy) (*DirectedKickPlan, bool) {
	ball := in.BallSlice
	if !strategy.LooksViable(c, ball.Space) {
		return nil, false
	}
	kickDir, ok := strategy.KickDirection(c, ball.Space)
	if !ok || r3.Norm(kickDir) == 0 {
		return nil, false
	}

	desired := geom.ScaledToMagnitude(kickDir, math.Max(r3.Norm(ball.Velocity), minKickSpeed))
	force := r3.Sub(desired, ball.Velocity)
	flatForce := geom.Flatten(force)
	if r2.Norm(flatForce) == 0 {
		flatForce = geom.Flatten(kickDir)
	}

	profile := in.Profile
	arrivalSpeed := math.Max(in.AccelSlice.Speed, 0)
	launchTime := in.Time - profile.StrikeDuration()
	contact := r2.Sub(geom.Flatten(ball.Space), geom.ScaledToMagnitude2(flatForce, carStrikeRadius+arena.BallRadius))

	var pad routing.PreKickWaypoint
	switch profile.Style {
	case strike.StyleDiagonalHit, strike.StyleSideHit:
		deviation := diagonalApproach
		if profile.Style == strike.StyleSideHit {
			deviation = sideApproach
		}
		facing := angledFacing(c, contact, flatForce, deviation)
		position := r2.Sub(contact, geom.ScaledToMagnitude2(facing, arrivalSpeed*profile.StrikeDuration()))
		pad = routing.NewFacingAndSpeedPreKickWaypoint(position, facing, launchTime, arrivalSpeed, nil)
	case strike.StyleAerial:
		lead := strike.ExpectedSecondsForSuperJump(in.Space.Z)
		approach := r2.Sub(contact, geom.Flatten(c.Position))
		if r2.Norm(approach) == 0 {
			approach = flatForce
		}
		position := r2.Sub(contact, geom.ScaledToMagnitude2(approach, arrivalSpeed*lead))
		pad = routing.NewFacingAndSpeedPreKickWaypoint(position, approach, in.Time-lead, arrivalSpeed, nil)
	default:
		position := r2.Sub(contact, geom.ScaledToMagnitude2(flatForce, arrivalSpeed*profile.StrikeDuration()))
		pad = routing.NewAnyFacingPreKickWaypoint(position, launchTime, &arrivalSpeed, nil)
	}

	return &DirectedKickPlan{
		Intercept:           in,
		BallPath:            path,
		DistancePlot:        in.Plot,
		InterceptModifier:   r3.Sub(in.Space, ball.Space),
		DesiredBallVelocity: desired,
		PlannedKickForce:    force,
		LaunchPad:           pad,
		EasyKickAllowed:     profile.IsForward,
	}, true
}

// angledFacing is the heading for an angled strike: the kick direction
// rotated by deviation toward whichever side the car is already on.
func angledFacing(c car.CarData, contact, flatForce r2.Vec, deviation float64) r2.Vec {
	toCar := r2.Sub(geom.Flatten(c.Position), contact)
	side := geom.CorrectionAngle(flatForce, toCar)
	// Coming in from the left of the kick line means heading clockwise of it.
	if side > 0 {
		return geom.RotateFlat(geom.Unit2(flatForce), -deviation)
	}
	return geom.RotateFlat(geom.Unit2(flatForce), deviation)
}
