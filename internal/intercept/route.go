package intercept

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/aerial"
	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/routing"
	"github.com/banshee-data/strikeplanner/internal/strike"
)

const (
	// DefaultKickClearance is the gap kept between the ball surface and the
	// aim point, against the kick direction.
	DefaultKickClearance = 1.5
	// DefaultRouteSlack is how late a route may finish relative to the
	// intercept and still be accepted.
	DefaultRouteSlack = 0.030
)

// RouteSearch configures RouteAwareIntercept.
type RouteSearch struct {
	Predicate StrikePredicate
	ProfileFn RouteProfileSelector
	Strategy  KickStrategy
	Planner   KickPlanner
	// Clearance is the aim point's distance from the ball surface.
	Clearance float64
	// Slack is how many seconds after the intercept the route may finish.
	Slack float64
}

// NewRouteSearch returns a search for strategy with the default planner,
// profile selection and tolerances.
func NewRouteSearch(strategy KickStrategy) RouteSearch {
	return RouteSearch{
		Predicate: AcceptAllStrikes,
		ProfileFn: ByApproach,
		Strategy:  strategy,
		Planner:   DirectedKickPlanner{},
		Clearance: DefaultKickClearance,
		Slack:     DefaultRouteSlack,
	}
}

// RouteAwareIntercept scans path like FilteredIntercept, but aims each
// candidate behind the ball along the strategy's kick direction and only
// accepts a candidate once a full route to it finishes in time. Slices the
// strategy has no direction for are skipped. The first admissible candidate
// whose route is late ends the search with no result.
func RouteAwareIntercept(c car.CarData, path *physics.BallPath, plot *carpredict.DistancePlot, search RouteSearch) (*PrecisionPlan, bool) {
	if search.Strategy == nil {
		return nil, false
	}
	if search.Predicate == nil {
		search.Predicate = AcceptAllStrikes
	}
	if search.ProfileFn == nil {
		search.ProfileFn = ByApproach
	}
	if search.Planner == nil {
		search.Planner = DirectedKickPlanner{}
	}

	myPosition := geom.Flatten(c.Position)
	var (
		firstMomentInRange float64
		inRange            bool
		failurePeriod      float64
		failureRecorded    bool
	)
	for i, slice := range path.SlicesFrom(c.Time) {
		kickDir, ok := search.Strategy.KickDirection(c, slice.Space)
		if !ok {
			continue
		}

		modifier := geom.ScaledToMagnitude(kickDir, -(arena.BallRadius + search.Clearance))
		target := geom.SpaceTime{Space: r3.Add(slice.Space, modifier), Time: slice.Time}
		toIntercept := r2.Sub(geom.Flatten(target.Space), myPosition)

		profile := search.ProfileFn(target.Space, geom.Flatten(kickDir), c)

		// Angled strikes defer their turn cost until a route exists.
		orient := 0.0
		if profile.IsForward {
			orient = carpredict.OrientDuration(c, target.Space)
		}
		dts, ok := plot.MotionAfterStrike(target.Time-c.Time-orient, profile)
		if !ok {
			diagf("player %d: reachability undefined at t=%.3f, abandoning route search", c.PlayerIndex, target.Time)
			return nil, false
		}

		deficiency := r2.Norm(toIntercept) - dts.Distance
		tracef("player %d: route slice %d t=%.3f deficiency=%.3f", c.PlayerIndex, i, target.Time, deficiency)
		if deficiency > 0 {
			continue
		}
		if !inRange {
			inRange = true
			firstMomentInRange = target.Time
		}
		if !search.Predicate(c, target, profile) {
			continue
		}
		if !failureRecorded {
			failureRecorded = true
			failurePeriod = target.Time - firstMomentInRange
		}

		in := &Intercept{
			Space:                         target.Space,
			Time:                          target.Time,
			AirBoost:                      strike.BoostNeeded(target.Space.Z),
			Profile:                       profile,
			Plot:                          plot,
			SpatialPredicateFailurePeriod: failurePeriod,
			BallSlice:                     slice,
			AccelSlice:                    dts,
		}

		kickPlan, ok := search.Planner.PlanKick(in, path, c, search.Strategy)
		if !ok {
			opsf("player %d: kick planner rejected intercept at t=%.3f", c.PlayerIndex, in.Time)
			return nil, false
		}
		steer, ok := kickPlan.LaunchPad.PlanRoute(c, kickPlan.DistancePlot)
		if !ok {
			diagf("player %d: launch pad out of reach for t=%.3f", c.PlayerIndex, in.Time)
			return nil, false
		}

		strikeSeconds := strikeDuration(c, kickPlan, toIntercept)
		padPosition := kickPlan.LaunchPad.Position()
		steer.Route.WithPart(routing.StrikeRoutePart{From: padPosition, Target: kickPlan.Intercept.Space, Seconds: strikeSeconds})

		postRoute := (in.Time - c.Time) - steer.Route.Duration()
		if postRoute >= -search.Slack {
			diagf("player %d: precision plan at t=%.3f via %s", c.PlayerIndex, in.Time, steer.Route)
			return &PrecisionPlan{Kick: kickPlan, Steer: steer}, true
		}
		diagf("player %d: route late by %.3fs, abandoning route search", c.PlayerIndex, -postRoute)
		return nil, false
	}
	return nil, false
}

// strikeDuration is the time from the launch pad to contact. Aerials with a
// known arrival speed are timed with a course correction from the pad;
// everything else uses the profile's own duration.
func strikeDuration(c car.CarData, plan *DirectedKickPlan, toIntercept r2.Vec) float64 {
	pad := plan.LaunchPad
	speed, hasSpeed := pad.ExpectedSpeed()
	if plan.Intercept.Profile.Style != strike.StyleAerial || !hasSpeed {
		return plan.Intercept.Profile.StrikeDuration()
	}

	orientation := c.Orientation
	if facing, ok := pad.Facing(); ok {
		orientation = car.FlatOrientation(geom.WithZ(facing, 0))
	}
	slice := car.CarSlice{
		Space:       geom.WithZ(pad.Position(), car.BaseCarZ),
		Velocity:    geom.WithZ(geom.ScaledToMagnitude2(toIntercept, speed), 0),
		Time:        pad.ExpectedTime(),
		Orientation: orientation,
	}
	cc := aerial.CalculateCourseCorrection(slice, plan.Intercept.SpaceTime(), true, 0)
	return aerial.TimeNeeded(cc, orientation)
}
