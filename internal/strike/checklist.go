package strike

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// Readiness thresholds.
const (
	LinedUpAngle       = math.Pi / 30
	CloseEnoughSeconds = 4.0
	UprightDot         = 0.99
	// AerialIgnitionSeconds is the launch countdown under which an aerial fires.
	AerialIgnitionSeconds = 0.1
)

// Checklist is a per-frame set of readiness gates. A false result means
// "not yet"; the caller re-evaluates next frame.
type Checklist interface {
	ReadyToLaunch() bool
}

// LaunchChecklist holds the gates shared by every ground-launched style.
type LaunchChecklist struct {
	LinedUp         bool
	CloseEnough     bool
	Upright         bool
	OnTheGround     bool
	TimeForIgnition bool
}

// ReadyToLaunch is the conjunction of the gates.
func (c LaunchChecklist) ReadyToLaunch() bool {
	return c.LinedUp && c.CloseEnough && c.Upright && c.OnTheGround && c.TimeForIgnition
}

func (c LaunchChecklist) String() string {
	return fmt.Sprintf("linedUp=%t closeEnough=%t upright=%t onTheGround=%t ignition=%t",
		c.LinedUp, c.CloseEnough, c.Upright, c.OnTheGround, c.TimeForIgnition)
}

// AerialChecklist adds the boost and traction gates needed for an aerial.
type AerialChecklist struct {
	LaunchChecklist
	HasBoost    bool
	NotSkidding bool
}

// ReadyToLaunch is the conjunction of the gates.
func (c AerialChecklist) ReadyToLaunch() bool {
	return c.LaunchChecklist.ReadyToLaunch() && c.HasBoost && c.NotSkidding
}

func (c AerialChecklist) String() string {
	return fmt.Sprintf("%s hasBoost=%t notSkidding=%t", c.LaunchChecklist, c.HasBoost, c.NotSkidding)
}

// ReadinessFunc evaluates the gates for one car and target under a profile.
type ReadinessFunc func(c car.CarData, target geom.SpaceTime, profile Profile) Checklist

// readiness maps each style to its gate evaluation.
var readiness = map[Style]ReadinessFunc{
	StyleChip:        flipHitReadiness,
	StyleJumpHit:     jumpHitReadiness,
	StyleDiagonalHit: angledHitReadiness,
	StyleSideHit:     angledHitReadiness,
	StyleAerial:      aerialReadiness,
	StyleCustom:      jumpHitReadiness,
}

// CheckReadiness evaluates the gates for the profile's style.
func CheckReadiness(c car.CarData, target geom.SpaceTime, profile Profile) Checklist {
	fn, ok := readiness[profile.Style]
	if !ok {
		fn = jumpHitReadiness
	}
	return fn(c, target, profile)
}

// IsLinedUp reports whether a steering correction is small enough to launch.
func IsLinedUp(correctionAngle float64) bool {
	return math.Abs(correctionAngle) < LinedUpAngle
}

// IsCloseEnough reports whether the intercept is near enough in time to
// start preparing a launch.
func IsCloseEnough(secondsTillIntercept float64) bool {
	return secondsTillIntercept < CloseEnoughSeconds
}

// CheckLaunchReadiness evaluates only the shared gates; TimeForIgnition is
// left false.
func CheckLaunchReadiness(c car.CarData, target geom.SpaceTime) LaunchChecklist {
	secondsTillIntercept := target.Time - c.Time
	return LaunchChecklist{
		LinedUp:     IsLinedUp(car.CorrectionAngle(c, target.Space)),
		CloseEnough: IsCloseEnough(secondsTillIntercept),
		Upright:     r3.Dot(c.Orientation.Roof, geom.Up) > UprightDot,
		OnTheGround: c.HasWheelContact,
	}
}

func flipHitReadiness(c car.CarData, target geom.SpaceTime, profile Profile) Checklist {
	cl := CheckLaunchReadiness(c, target)
	cl.TimeForIgnition = target.Time-c.Time <= profile.StrikeDuration()
	return cl
}

func jumpHitReadiness(c car.CarData, target geom.SpaceTime, profile Profile) Checklist {
	cl := CheckLaunchReadiness(c, target)
	cl.TimeForIgnition = target.Time-c.Time < profile.StrikeDuration()
	return cl
}

// angledHitReadiness treats the car as lined up; the approach angle is
// already baked into the waypoint that got the car here.
func angledHitReadiness(c car.CarData, target geom.SpaceTime, profile Profile) Checklist {
	cl := CheckLaunchReadiness(c, target)
	cl.LinedUp = true
	cl.TimeForIgnition = target.Time-c.Time < profile.StrikeDuration()
	return cl
}

func aerialReadiness(c car.CarData, target geom.SpaceTime, _ Profile) Checklist {
	cl := AerialChecklist{LaunchChecklist: CheckLaunchReadiness(c, target)}
	tMinus := AerialLaunchCountdown(target.Space.Z, target.Time-c.Time)
	cl.TimeForIgnition = tMinus < AerialIgnitionSeconds
	cl.NotSkidding = !car.IsSkidding(c)
	cl.HasBoost = c.Boost >= BoostNeededForAerial
	return cl
}
