// Package aerial computes course corrections for an airborne approach: where
// a car drifting under gravity will end up, how far that is from the target,
// and how long the car needs to fix it.
package aerial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

const (
	// BoostAcceleration is the in-air boost acceleration. A little under the
	// nominal value since the car wiggles while steering.
	BoostAcceleration = 18.0

	// TurnRate is how fast the car can swing its nose in the air, rad/s.
	TurnRate = 5.5

	// MaxTimeForAirDodge is how long after leaving the ground the car still
	// has a dodge available.
	MaxTimeForAirDodge = 1.5

	UpwardVelocityMaintenanceAngle = 0.25
	PitchOvercorrect               = 0.1
)

// CourseCorrection describes how an airborne car must change its motion to
// reach a target.
type CourseCorrection struct {
	// Direction is the unit vector from where the car will drift to, toward
	// the target.
	Direction r3.Vec
	// Correction is the full displacement still to be made up by boosting.
	Correction r3.Vec
	// AverageAccelerationRequired is the constant acceleration that would
	// cover Correction in SecondsToTarget.
	AverageAccelerationRequired float64
	SecondsToTarget             float64
}

// CalculateCourseCorrection projects the car forward under gravity (plus the
// rest of a jump when modelJump is set and the jump is still young) to the
// target time and measures the gap to the target.
func CalculateCourseCorrection(slice car.CarSlice, target geom.SpaceTime, modelJump bool, secondsSinceJump float64) CourseCorrection {
	t := math.Max(target.Time-slice.Time, 1e-3)

	drift := r3.Add(slice.Space, r3.Scale(t, slice.Velocity))
	drift = r3.Add(drift, r3.Vec{Z: -0.5 * car.Gravity * t * t})

	if modelJump {
		roof := slice.Orientation.Roof
		if secondsSinceJump <= 0 {
			drift = r3.Add(drift, r3.Scale(car.JumpImpulse*t, roof))
		}
		if hold := car.JumpHoldSeconds - math.Max(secondsSinceJump, 0); hold > 0 {
			hold = math.Min(hold, t)
			// distance from holding jump for `hold` seconds, then coasting
			lift := car.JumpHoldAccel * hold * (t - hold/2)
			drift = r3.Add(drift, r3.Scale(lift, roof))
		}
	}

	correction := r3.Sub(target.Space, drift)
	return CourseCorrection{
		Direction:                   geom.Unit(correction),
		Correction:                  correction,
		AverageAccelerationRequired: 2 * r3.Norm(correction) / (t * t),
		SecondsToTarget:             t,
	}
}

// TimeNeeded is how long the car needs to point its nose along the
// correction and then boost through it.
func TimeNeeded(cc CourseCorrection, orientation car.Orientation) float64 {
	dist := r3.Norm(cc.Correction)
	if dist == 0 {
		return 0
	}
	turn := math.Acos(geom.Clamp(r3.Dot(orientation.Nose, cc.Direction), -1, 1)) / TurnRate
	boost := math.Sqrt(2 * dist / BoostAcceleration)
	return turn + boost
}

// DesiredNosePitch is the pitch (radians) that points the nose along the
// correction.
func DesiredNosePitch(cc CourseCorrection) float64 {
	return math.Asin(geom.Clamp(cc.Direction.Z, -1, 1))
}

// NosePitch is the current pitch of a nose vector.
func NosePitch(nose r3.Vec) float64 {
	return math.Asin(geom.Clamp(nose.Z, -1, 1))
}

// BlendNosePitch eases from the held pitch toward the desired pitch. The
// desired pitch gets weight min(1, 1/elapsedSeconds), so early in an aerial
// the car snaps to the new pitch and later it moves gradually.
func BlendNosePitch(held, desired, elapsedSeconds float64) float64 {
	w := 1.0
	if elapsedSeconds > 0 {
		w = math.Min(1, 1/elapsedSeconds)
	}
	return desired*w + held*(1-w)
}

// AveragePitchOverFlight estimates the mean pitch over a flight of
// flightSeconds, starting from current and turning toward desired. Short
// flights stay close to the current pitch.
func AveragePitchOverFlight(current, desired, flightSeconds float64) float64 {
	w := 1.0
	if flightSeconds > 0 {
		w = math.Min(1, 1/flightSeconds)
	}
	return current*w + desired*(1-w)
}

// HeightError is how far above (positive) or below the intercept the car
// will be after secondsTillIntercept if it holds its current nose pitch
// while boosting.
func HeightError(c car.CarData, carToIntercept r3.Vec, secondsTillIntercept float64) float64 {
	targetHeight := c.Position.Z + carToIntercept.Z
	t := secondsTillIntercept
	verticalAccel := BoostAcceleration*c.Orientation.Nose.Z - car.Gravity
	resultingHeight := c.Position.Z + c.Velocity.Z*t + 0.5*verticalAccel*t*t
	return resultingHeight - targetHeight
}

// pitchVector is the side-on view of a unit direction: horizontal magnitude
// and height.
func pitchVector(unit r3.Vec) r2.Vec {
	z := geom.Clamp(unit.Z, -1, 1)
	return r2.Vec{X: math.Sqrt(1 - z*z), Y: z}
}

// DesiredVerticalAngle is the climb angle the car should aim its velocity
// at: the angle to the intercept, biased upward to fight gravity and
// overcorrected by the current error. Never steeper than straight up.
func DesiredVerticalAngle(velocity, carToIntercept r3.Vec) float64 {
	horizontal := r2.Vec{X: 1}
	current := geom.CorrectionAngle(horizontal, pitchVector(geom.Unit(velocity)))
	ideal := geom.CorrectionAngle(horizontal, pitchVector(geom.Unit(carToIntercept)))
	angle := ideal + UpwardVelocityMaintenanceAngle + (ideal-current)*PitchOvercorrect
	return math.Min(angle, math.Pi/2)
}
