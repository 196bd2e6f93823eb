package intercept

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/aerial"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/strike"
)

const (
	// airDodgePitch is the steepest average nose pitch at which a final
	// dodge still adds useful ground speed.
	airDodgePitch = 0.5
	// airDodgePostSeconds and airDodgeSpeedBoost model that dodge.
	airDodgePostSeconds = 0.15
	airDodgeSpeedBoost  = 10.0

	initialFinesse = -100.0

	// heightErrorPitchStep is how far the nose is tipped against a height
	// error, radians.
	heightErrorPitchStep = 0.3
)

// airStrikeProfile is the in-flight strike for a flight of duration seconds
// starting timeSinceLaunch after takeoff at the given average pitch. Already
// airborne, so no hang time is modeled; a shallow flight that ends while the
// dodge is still available finishes with one.
func airStrikeProfile(timeSinceLaunch, duration, pitch float64) strike.Profile {
	if timeSinceLaunch+duration < aerial.MaxTimeForAirDodge && pitch < airDodgePitch {
		return strike.CustomProfile(0, airDodgePostSeconds, airDodgeSpeedBoost, strike.StyleAerial)
	}
	return strike.CustomProfile(0, 0, 0, strike.StyleAerial)
}

// AerialIntercept searches path for a target an airborne (or launching) car
// can still reach, aiming at ball center plus offset. launchTime is when the
// aerial began. Each slice re-estimates the nose pitch the car will hold on
// the way, simulates boosting at that pitch, and then checks how much spare
// time the course correction leaves. A slice is taken when there is spare
// time, or when spare time has started shrinking.
func AerialIntercept(c car.CarData, path *physics.BallPath, offset r3.Vec, launchTime float64) (*Intercept, bool) {
	timeSinceLaunch := c.Time - launchTime
	prevFinesse := initialFinesse
	currentPitch := aerial.NosePitch(c.Orientation.Nose)

	for _, slice := range path.SlicesFrom(c.Time) {
		target := geom.SpaceTime{Space: r3.Add(slice.Space, offset), Time: slice.Time}
		duration := slice.Time - c.Time

		cc := aerial.CalculateCourseCorrection(car.SliceOf(c), target, c.HasWheelContact, timeSinceLaunch)
		avgPitch := aerial.AveragePitchOverFlight(currentPitch, aerial.DesiredNosePitch(cc), duration)
		plot := carpredict.SimulateAirAcceleration(c, duration, math.Cos(avgPitch))

		dts, ok := plot.MotionAfterStrike(duration, airStrikeProfile(timeSinceLaunch, duration, avgPitch))
		if !ok {
			diagf("player %d: air reachability undefined at t=%.3f", c.PlayerIndex, target.Time)
			return nil, false
		}
		if dts.Distance <= geom.FlatDistance(c.Position, target.Space, geom.Up) {
			continue
		}

		correction := aerial.CalculateCourseCorrection(car.SliceOf(c), target, false, timeSinceLaunch)
		finesse := target.Time - c.Time - aerial.TimeNeeded(correction, c.Orientation)
		tracef("player %d: aerial finesse %.3f at t=%.3f", c.PlayerIndex, finesse, target.Time)
		if finesse > 0 || finesse < prevFinesse {
			return &Intercept{
				Space:      target.Space,
				Time:       target.Time,
				Profile:    strike.ChipProfile(),
				Plot:       plot,
				BallSlice:  slice,
				AccelSlice: dts,
			}, true
		}
		prevFinesse = finesse
	}
	return nil, false
}

// AerialGuidance is one frame of in-flight steering toward an aerial
// intercept.
type AerialGuidance struct {
	// Intercept is the refined intercept, nil when the blended pitch no
	// longer reaches it.
	Intercept *Intercept
	// HeldPitch is the blended nose pitch. Feed it back in next frame.
	HeldPitch float64
	// HeightError is how far above the intercept the car arrives if it
	// keeps boosting at its current nose pitch.
	HeightError float64
	// NosePitch is the pitch to steer the nose toward this frame.
	NosePitch float64
	// VerticalAngle is the climb angle to steer the velocity toward.
	VerticalAngle float64
}

// RefineAerial re-checks an aerial intercept for the current frame. The
// pitch the course correction asks for is blended into heldPitch, the air
// acceleration is simulated again at the blended pitch and the intercept is
// kept only while that still covers the flat distance to it. Calling it
// every frame with the previous HeldPitch settles on a stable pitch.
func RefineAerial(c car.CarData, in *Intercept, heldPitch, launchTime float64) (AerialGuidance, bool) {
	elapsed := c.Time - launchTime
	duration := in.Time - c.Time
	toIntercept := r3.Sub(in.Space, c.Position)

	cc := aerial.CalculateCourseCorrection(car.SliceOf(c), in.SpaceTime(), false, elapsed)
	pitch := aerial.BlendNosePitch(heldPitch, aerial.DesiredNosePitch(cc), elapsed)
	heightError := aerial.HeightError(c, toIntercept, duration)

	nose := aerial.NosePitch(c.Orientation.Nose)
	switch {
	case heightError > 0:
		nose -= heightErrorPitchStep
	case heightError < 0:
		nose += heightErrorPitchStep
	}

	g := AerialGuidance{
		HeldPitch:     pitch,
		HeightError:   heightError,
		NosePitch:     nose,
		VerticalAngle: aerial.DesiredVerticalAngle(c.Velocity, toIntercept),
	}
	if duration < 0 {
		return g, false
	}

	plot := carpredict.SimulateAirAcceleration(c, duration, math.Cos(pitch))
	dts, ok := plot.MotionAfterStrike(duration, airStrikeProfile(elapsed, duration, pitch))
	if !ok || dts.Distance < geom.FlatDistance(c.Position, in.Space, geom.Up) {
		diagf("player %d: aerial at t=%.3f out of reach at pitch %.2f", c.PlayerIndex, in.Time, pitch)
		return g, false
	}

	refined := *in
	refined.Plot = plot
	refined.AccelSlice = dts
	g.Intercept = &refined
	tracef("player %d: aerial pitch %.3f height error %.2f", c.PlayerIndex, pitch, heightError)
	return g, true
}
