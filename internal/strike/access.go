package strike

import (
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// lateSlackSeconds is how far past ignition a maneuver may still be started.
const lateSlackSeconds = 0.1

// AerialLaunchCountdown is the time left before an aerial toward a target at
// height must ignite to arrive by secondsTillIntercept.
func AerialLaunchCountdown(height, secondsTillIntercept float64) float64 {
	expectedAerialSeconds := (height - car.BaseCarZ) / AerialRiseRate
	return secondsTillIntercept - expectedAerialSeconds
}

// ExpectedSecondsForSuperJump is the climb time of a boosted jump to height.
func ExpectedSecondsForSuperJump(height float64) float64 {
	return (height - car.BaseCarZ) / SuperJumpRiseRate
}

// BoostBudget is the boost a car can spend on driving while keeping enough
// in reserve for an aerial.
func BoostBudget(c car.CarData) float64 {
	return c.Boost - BoostNeededForAerial - boostReserve
}

// IsVerticallyAccessible reports whether the car has time to rise to the
// target, by jumping for low targets or by aerial when it has the boost.
func IsVerticallyAccessible(c car.CarData, target geom.SpaceTime) bool {
	secondsTillIntercept := target.Time - c.Time

	if target.Space.Z < NeedsAerialThreshold {
		tMinus := secondsTillIntercept - JumpHitProfile(target.Space.Z).StrikeDuration()
		return tMinus >= -lateSlackSeconds
	}

	if c.Boost > BoostNeededForAerial {
		return AerialLaunchCountdown(target.Space.Z, secondsTillIntercept) >= -lateSlackSeconds
	}
	return false
}

// IsJumpHitAccessible reports whether a straight jump can reach the target
// in time.
func IsJumpHitAccessible(c car.CarData, target geom.SpaceTime) bool {
	if target.Space.Z > JumpHitMaxHeight {
		return false
	}
	tMinus := target.Time - c.Time - JumpHitProfile(target.Space.Z).PreDodgeSeconds
	return tMinus >= -lateSlackSeconds
}
