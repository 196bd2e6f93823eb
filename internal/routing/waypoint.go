package routing

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// Final-approach plausibility bounds.
const (
	approachWindowEarly   = 0.2  // seconds before the expected time
	approachWindowLate    = 0.05 // seconds after the expected time
	approachMaxDistance   = 10.0
	approachSnapDistance  = 2.0
	approachMaxAngle      = math.Pi / 6
	approachBlowPastAngle = math.Pi * 11 / 12
)

// PreKickWaypoint is the spot (and moment) from which a strike maneuver is
// launched.
type PreKickWaypoint interface {
	Position() r2.Vec
	ExpectedTime() float64
	// ExpectedSpeed is the speed the car should carry through the waypoint,
	// when the waypoint demands one.
	ExpectedSpeed() (float64, bool)
	// Facing is the heading the car must hold at the waypoint, when the
	// waypoint demands one.
	Facing() (r2.Vec, bool)
	// PlanRoute builds the route from the car to the waypoint. The second
	// result is false when the waypoint is out of reach.
	PlanRoute(c car.CarData, plot *carpredict.DistancePlot) (SteerPlan, bool)
	IsPlausibleFinalApproach(c car.CarData) bool
}

type waypoint struct {
	position      r2.Vec
	expectedTime  float64
	expectedSpeed *float64
	waitUntil     *float64
}

func (w waypoint) Position() r2.Vec      { return w.position }
func (w waypoint) ExpectedTime() float64 { return w.expectedTime }

func (w waypoint) ExpectedSpeed() (float64, bool) {
	if w.expectedSpeed == nil {
		return 0, false
	}
	return *w.expectedSpeed, true
}

// plausibleTiming checks the shared distance and timing gates. done is true
// when the answer is already known; otherwise ok is undefined.
func (w waypoint) plausibleTiming(c car.CarData) (ok, done bool) {
	if arena.IsCarOnWall(c) {
		return false, true
	}
	tMinus := w.expectedTime - c.Time
	if tMinus > approachWindowEarly || tMinus < -approachWindowLate {
		return false, true
	}
	distance := r2.Norm(r2.Sub(geom.Flatten(c.Position), w.position))
	if distance > approachMaxDistance {
		return false, true
	}
	if distance < approachSnapDistance {
		// The heading thrashes as the car passes right over the waypoint.
		return true, true
	}
	return false, false
}

func (w waypoint) accelerationPart(c car.CarData, to r2.Vec, plot *carpredict.DistancePlot) (AccelerationRoutePart, bool) {
	from := geom.Flatten(c.Position)
	if w.waitUntil != nil {
		return AccelerationRoutePart{From: from, To: to, Seconds: *w.waitUntil - c.Time}, true
	}
	motion, ok := plot.MotionAfterDistance(r2.Norm(r2.Sub(to, from)))
	if !ok {
		return AccelerationRoutePart{}, false
	}
	return AccelerationRoutePart{From: from, To: to, Seconds: motion.Time}, true
}

// AnyFacingPreKickWaypoint accepts the car arriving from any direction.
type AnyFacingPreKickWaypoint struct {
	waypoint
}

// NewAnyFacingPreKickWaypoint builds a waypoint. expectedSpeed and waitUntil
// may be nil.
func NewAnyFacingPreKickWaypoint(position r2.Vec, expectedTime float64, expectedSpeed, waitUntil *float64) *AnyFacingPreKickWaypoint {
	return &AnyFacingPreKickWaypoint{waypoint{
		position:      position,
		expectedTime:  expectedTime,
		expectedSpeed: expectedSpeed,
		waitUntil:     waitUntil,
	}}
}

// Facing implements PreKickWaypoint; any heading is acceptable.
func (w *AnyFacingPreKickWaypoint) Facing() (r2.Vec, bool) { return r2.Vec{}, false }

// IsPlausibleFinalApproach reports whether the car is arriving at the
// waypoint about on time and roughly pointed at it, or blowing straight
// through it.
func (w *AnyFacingPreKickWaypoint) IsPlausibleFinalApproach(c car.CarData) bool {
	if ok, done := w.plausibleTiming(c); done {
		return ok
	}
	angleError := math.Abs(car.CorrectionAngle(c, geom.WithZ(w.position, 0)))
	approaching := angleError < approachMaxAngle && w.expectedTime > c.Time
	blowingPast := angleError > approachBlowPastAngle
	return approaching || blowingPast
}

// PlanRoute implements PreKickWaypoint. A car that has already driven past
// the waypoint keeps driving straight rather than doubling back.
func (w *AnyFacingPreKickWaypoint) PlanRoute(c car.CarData, plot *carpredict.DistancePlot) (SteerPlan, bool) {
	target := w.position
	if car.HasBlownPast(c, w.position) && w.waitUntil == nil {
		target = r2.Add(geom.Flatten(c.Position), geom.Flatten(c.Orientation.Nose))
	}
	part, ok := w.accelerationPart(c, target, plot)
	if !ok {
		return SteerPlan{}, false
	}
	return SteerPlan{Waypoint: target, Route: NewRoute().WithPart(part)}, true
}

// FacingAndSpeedPreKickWaypoint requires the car to arrive pointing along a
// given heading at a given speed.
type FacingAndSpeedPreKickWaypoint struct {
	waypoint
	facing r2.Vec
}

// NewFacingAndSpeedPreKickWaypoint builds a waypoint. facing is normalized.
func NewFacingAndSpeedPreKickWaypoint(position, facing r2.Vec, expectedTime, expectedSpeed float64, waitUntil *float64) *FacingAndSpeedPreKickWaypoint {
	return &FacingAndSpeedPreKickWaypoint{
		waypoint: waypoint{
			position:      position,
			expectedTime:  expectedTime,
			expectedSpeed: &expectedSpeed,
			waitUntil:     waitUntil,
		},
		facing: geom.Unit2(facing),
	}
}

// Facing implements PreKickWaypoint.
func (w *FacingAndSpeedPreKickWaypoint) Facing() (r2.Vec, bool) { return w.facing, true }

// IsPlausibleFinalApproach additionally requires the car's nose to be
// within the approach angle of the required heading.
func (w *FacingAndSpeedPreKickWaypoint) IsPlausibleFinalApproach(c car.CarData) bool {
	if ok, done := w.plausibleTiming(c); done {
		return ok
	}
	headingError := math.Abs(geom.CorrectionAngle(geom.Flatten(c.Orientation.Nose), w.facing))
	return headingError < approachMaxAngle && w.expectedTime > c.Time
}

// PlanRoute drives to the waypoint and then charges the turn onto the
// required heading.
func (w *FacingAndSpeedPreKickWaypoint) PlanRoute(c car.CarData, plot *carpredict.DistancePlot) (SteerPlan, bool) {
	part, ok := w.accelerationPart(c, w.position, plot)
	if !ok {
		return SteerPlan{}, false
	}
	route := NewRoute().WithPart(part)

	approach := r2.Sub(w.position, geom.Flatten(c.Position))
	if r2.Norm(approach) > 0 {
		turn := math.Abs(geom.CorrectionAngle(approach, w.facing))
		if turn > 0 {
			speed := math.Max(*w.expectedSpeed, 10)
			yawRate := carpredict.Curvature(speed) * speed
			route.WithPart(TurnRoutePart{At: w.position, Facing: w.facing, Seconds: turn / yawRate})
		}
	}
	return SteerPlan{Waypoint: w.position, Route: route}, true
}
