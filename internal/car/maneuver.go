package car

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/geom"
)

// Kinematic constants in arena units (1 unit = 50 engine units).
const (
	Gravity = 13.0

	// BaseCarZ is the resting height of the car's center above the floor.
	BaseCarZ = 0.3405

	JumpImpulse     = 5.84 // units/s applied on the jump press
	JumpHoldAccel   = 29.2 // units/s² while the button is held
	JumpHoldSeconds = 0.2

	// MashJumpHeight is the highest ball-center height that a held single
	// jump can still touch with the car's nose.
	MashJumpHeight = 5.2

	skidLateralSpeed = 3.0
	skidLateralRatio = 0.3
)

// jumpApexRise is how far a held jump lifts the car's center above BaseCarZ.
var jumpApexRise = func() float64 {
	h, v := holdPhase()
	return h + v*v/(2*Gravity)
}()

// holdPhase returns rise and vertical speed at the end of the jump hold.
func holdPhase() (rise, speed float64) {
	a := JumpHoldAccel - Gravity
	t := JumpHoldSeconds
	return JumpImpulse*t + 0.5*a*t*t, JumpImpulse + a*t
}

// SecondsForMashJumpHeight returns how long after pressing and holding jump
// the car's center reaches height. The second result is false when the height
// cannot be reached by jumping alone.
func SecondsForMashJumpHeight(height float64) (float64, bool) {
	rise := height - BaseCarZ
	if rise <= 0 {
		return 0, true
	}
	if rise > jumpApexRise {
		return 0, false
	}

	holdRise, holdSpeed := holdPhase()
	if rise <= holdRise {
		a := JumpHoldAccel - Gravity
		// rise = v0 t + a t²/2
		disc := JumpImpulse*JumpImpulse + 2*a*rise
		return (-JumpImpulse + math.Sqrt(disc)) / a, true
	}

	remaining := rise - holdRise
	disc := holdSpeed*holdSpeed - 2*Gravity*remaining
	if disc < 0 {
		disc = 0
	}
	return JumpHoldSeconds + (holdSpeed-math.Sqrt(disc))/Gravity, true
}

// IsSkidding reports whether the car is sliding sideways on its wheels.
func IsSkidding(c CarData) bool {
	lateral := math.Abs(r3.Dot(c.Velocity, c.Orientation.Right))
	forward := math.Abs(c.ForwardSpeed())
	return lateral > skidLateralSpeed && lateral > skidLateralRatio*forward
}

// CorrectionAngle is the signed ground-plane steering angle from the car's
// nose to target.
func CorrectionAngle(c CarData, target r3.Vec) float64 {
	toTarget := geom.Flatten(r3.Sub(target, c.Position))
	return geom.CorrectionAngle(geom.Flatten(c.Orientation.Nose), toTarget)
}

// HasBlownPast reports whether target is behind the car and the car is
// moving away from it.
func HasBlownPast(c CarData, target r2.Vec) bool {
	toTarget := r2.Sub(target, geom.Flatten(c.Position))
	return r2.Dot(geom.Flatten(c.Velocity), toTarget) < 0 &&
		r2.Dot(geom.Flatten(c.Orientation.Nose), toTarget) < 0
}
