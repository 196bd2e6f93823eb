package intercept

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/strike"
)

// Intercept is a resolved, reachable and admissible strike target.
type Intercept struct {
	Space r3.Vec
	Time  float64
	// AirBoost is the boost that must be held back for getting airborne.
	AirBoost float64
	Profile  strike.Profile
	Plot     *carpredict.DistancePlot
	// SpatialPredicateFailurePeriod is how long the target had been in
	// range while the admissibility rule kept rejecting it.
	SpatialPredicateFailurePeriod float64
	BallSlice                     physics.BallSlice
	AccelSlice                    carpredict.DistanceTimeSpeed
}

// SpaceTime is the intercept position and time.
func (in *Intercept) SpaceTime() geom.SpaceTime {
	return geom.SpaceTime{Space: in.Space, Time: in.Time}
}

// Predicate decides whether a candidate target is admissible.
type Predicate func(c car.CarData, target geom.SpaceTime) bool

// StrikePredicate is a Predicate that also sees the chosen strike profile.
type StrikePredicate func(c car.CarData, target geom.SpaceTime, profile strike.Profile) bool

// ProfileSelector picks the strike profile for a target height.
type ProfileSelector func(height float64) strike.Profile

// RouteProfileSelector picks the strike profile for a target given the
// direction the ball should be pushed.
type RouteProfileSelector func(target r3.Vec, kickDirection r2.Vec, c car.CarData) strike.Profile

// AcceptAll admits every candidate.
func AcceptAll(car.CarData, geom.SpaceTime) bool { return true }

// AcceptAllStrikes admits every candidate regardless of profile.
func AcceptAllStrikes(car.CarData, geom.SpaceTime, strike.Profile) bool { return true }

// Chip selects the chip profile at every height.
func Chip(float64) strike.Profile { return strike.ChipProfile() }

// RequiredBoost is the boost a strike at target needs on hand. Aerial
// strikes always need the aerial allowance.
func RequiredBoost(target geom.SpaceTime, profile strike.Profile) float64 {
	if profile.Style == strike.StyleAerial {
		return strike.BoostNeededForAerial
	}
	return strike.BoostNeeded(target.Space.Z)
}

// BoostAffordable rejects strikes the car does not have the boost for.
func BoostAffordable(c car.CarData, target geom.SpaceTime, profile strike.Profile) bool {
	return RequiredBoost(target, profile) <= c.Boost
}

// Accessible admits strikes the car can still get off the ground for in
// time. Jump-launched styles are timed by the jump alone; everything else
// goes through strike.IsVerticallyAccessible.
func Accessible(c car.CarData, target geom.SpaceTime, profile strike.Profile) bool {
	switch profile.Style {
	case strike.StyleJumpHit, strike.StyleDiagonalHit, strike.StyleSideHit:
		return strike.IsJumpHitAccessible(c, target)
	}
	return strike.IsVerticallyAccessible(c, target)
}

// ByApproach selects a profile from the target height and the angle between
// the car's approach and the kick direction.
func ByApproach(target r3.Vec, kickDirection r2.Vec, c car.CarData) strike.Profile {
	approach := r2.Sub(geom.Flatten(target), geom.Flatten(c.Position))
	angle := 0.0
	if r2.Norm(approach) > 0 && r2.Norm(kickDirection) > 0 {
		angle = math.Abs(geom.CorrectionAngle(approach, kickDirection))
	}
	return strike.ProfileFor(target.Z, angle)
}

// Options configures FilteredIntercept. The zero value searches for a chip
// at the ball center on flat ground with every candidate admissible.
type Options struct {
	// Offset is added to the ball center to get the aim point.
	Offset    r3.Vec
	Predicate Predicate
	// StrikeFilter, when set, must also admit the candidate.
	StrikeFilter StrikePredicate
	ProfileFn    ProfileSelector
	// PlaneNormal is the surface the car drives on; distance is measured
	// within that plane.
	PlaneNormal r3.Vec
}

func (o Options) withDefaults() Options {
	if o.Predicate == nil {
		o.Predicate = AcceptAll
	}
	if o.ProfileFn == nil {
		o.ProfileFn = Chip
	}
	if o.PlaneNormal == (r3.Vec{}) {
		o.PlaneNormal = geom.Up
	}
	return o
}

// FilteredIntercept scans path, from the car's current time on, for the
// earliest slice the car can reach under plot and that opts admits. The
// accepted moment is refined by interpolating range deficiency between the
// accepted slice and the one before it. The second result is false when no slice qualifies, or when
// the plot cannot answer for a slice.
func FilteredIntercept(c car.CarData, path *physics.BallPath, plot *carpredict.DistancePlot, opts Options) (*Intercept, bool) {
	opts = opts.withDefaults()
	slices := path.SlicesFrom(c.Time)

	var (
		firstMomentInRange float64
		inRange            bool
		prevDeficiency     float64
	)
	for i, slice := range slices {
		target := geom.SpaceTime{Space: r3.Add(slice.Space, opts.Offset), Time: slice.Time}
		profile := opts.ProfileFn(target.Space.Z)

		orient := 0.0
		if profile.IsForward {
			orient = carpredict.OrientDuration(c, target.Space)
		}
		dts, ok := plot.MotionAfterStrike(target.Time-c.Time-orient, profile)
		if !ok {
			diagf("player %d: reachability undefined at t=%.3f, abandoning search", c.PlayerIndex, target.Time)
			return nil, false
		}

		deficiency := geom.FlatDistance(c.Position, target.Space, opts.PlaneNormal) - dts.Distance
		tracef("player %d: slice %d t=%.3f deficiency=%.3f", c.PlayerIndex, i, target.Time, deficiency)

		if deficiency <= 0 {
			if !inRange {
				inRange = true
				firstMomentInRange = target.Time
			}
			if opts.Predicate(c, target) && (opts.StrikeFilter == nil || opts.StrikeFilter(c, target, profile)) {
				tweened := tweenedSlice(path, slices, i, deficiency, prevDeficiency)
				in := &Intercept{
					Space:                         r3.Add(tweened.Space, opts.Offset),
					Time:                          tweened.Time,
					AirBoost:                      strike.BoostNeeded(target.Space.Z),
					Profile:                       profile,
					Plot:                          plot,
					SpatialPredicateFailurePeriod: max(0, tweened.Time-firstMomentInRange),
					BallSlice:                     tweened,
					AccelSlice:                    dts,
				}
				diagf("player %d: intercept at t=%.3f %s", c.PlayerIndex, in.Time, profile.Style)
				return in, true
			}
		}
		prevDeficiency = deficiency
	}
	return nil, false
}

// tweenedSlice resamples the path between slice i-1 and slice i at the
// point where range deficiency crosses zero. The first upcoming slice is
// returned as is, since the one before it is already in the past.
func tweenedSlice(path *physics.BallPath, slices []physics.BallSlice, i int, current, previous float64) physics.BallSlice {
	if i == 0 {
		return slices[0]
	}
	tween := 1.0
	if previous > 0 {
		tween = previous / (previous - current)
	}
	tween = geom.Clamp(tween, 0, 1)

	prevTime := slices[i-1].Time
	moment := prevTime + (slices[i].Time-prevTime)*tween
	if s, ok := path.MotionAt(moment); ok {
		return s
	}
	return slices[i]
}

// Opportunity is the earliest reachable chip at the ball center.
func Opportunity(c car.CarData, path *physics.BallPath, plot *carpredict.DistancePlot) (*Intercept, bool) {
	return FilteredIntercept(c, path, plot, Options{})
}

// OpportunityAssumingMaxAccel builds a flat-out acceleration plot over
// horizonSeconds, spending at most boostBudget on driving, and searches it
// with the given profile selector and predicate (nil admits everything).
// Strikes the car cannot afford the boost for are never returned.
func OpportunityAssumingMaxAccel(c car.CarData, path *physics.BallPath, boostBudget, horizonSeconds float64, profileFn ProfileSelector, predicate Predicate) (*Intercept, bool) {
	plot := carpredict.SimulateAcceleration(c, horizonSeconds, boostBudget)
	return FilteredIntercept(c, path, plot, Options{
		Predicate:    predicate,
		ProfileFn:    profileFn,
		StrikeFilter: BoostAffordable,
	})
}
