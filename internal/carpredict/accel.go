package carpredict

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// Drive constants in arena units.
const (
	MaxSpeed          = 46.0   // with boost
	MaxThrottleSpeed  = 28.2   // without boost
	BoostAcceleration = 19.833 // units/s² from boost alone
	BoostPerSecond    = 33.3   // boost units consumed per second of boosting

	// DefaultHorizon is how far ahead SimulateAcceleration looks when the
	// caller has no better budget.
	DefaultHorizon = 4.0
	// StepSeconds is the integration step; one simulation frame.
	StepSeconds = 1.0 / 60

	// minTurnSpeed stands in for speed when estimating how fast a slow car
	// can swing its nose around.
	minTurnSpeed = 10.0
)

var (
	// throttleCurve maps speed to acceleration from the throttle alone.
	throttleCurve = mustFit(
		[]float64{0, 28.0, MaxThrottleSpeed, MaxSpeed},
		[]float64{32.0, 3.2, 0, 0},
	)
	// curvatureCurve maps speed to the tightest turn curvature (1/units).
	curvatureCurve = mustFit(
		[]float64{0, 10, 20, 30, 35, MaxSpeed},
		[]float64{0.345, 0.199, 0.1175, 0.06875, 0.055, 0.044},
	)
)

func mustFit(xs, ys []float64) interp.PiecewiseLinear {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		panic(err)
	}
	return pl
}

// ThrottleAcceleration is the forward acceleration from full throttle at speed.
func ThrottleAcceleration(speed float64) float64 {
	if speed >= MaxSpeed {
		return 0
	}
	return throttleCurve.Predict(math.Max(speed, 0))
}

// Curvature is the tightest turn curvature available at speed.
func Curvature(speed float64) float64 {
	return curvatureCurve.Predict(geom.Clamp(speed, 0, MaxSpeed))
}

// SimulateAcceleration integrates full throttle, plus boost while
// boostBudget lasts, from the car's current forward speed for horizonSeconds.
func SimulateAcceleration(c car.CarData, horizonSeconds, boostBudget float64) *DistancePlot {
	speed := math.Max(c.ForwardSpeed(), 0)
	return integrate(speed, horizonSeconds, boostBudget, func(v float64, boosting bool) float64 {
		a := ThrottleAcceleration(v)
		if boosting {
			a += BoostAcceleration
		}
		return a
	})
}

// SimulateAirAcceleration integrates boost along the nose of an airborne car.
// horizontalPitchFactor is the cosine of the nose pitch: the share of boost
// that pushes the car along the ground plane.
func SimulateAirAcceleration(c car.CarData, horizonSeconds, horizontalPitchFactor float64) *DistancePlot {
	flat := geom.Flatten(c.Velocity)
	speed := math.Hypot(flat.X, flat.Y)
	factor := geom.Clamp(horizontalPitchFactor, 0, 1)
	return integrate(speed, horizonSeconds, c.Boost, func(_ float64, boosting bool) float64 {
		if !boosting {
			return 0
		}
		return BoostAcceleration * factor
	})
}

func integrate(speed, horizonSeconds, boostBudget float64, accel func(speed float64, boosting bool) float64) *DistancePlot {
	steps := max(int(math.Round(horizonSeconds/StepSeconds)), 1)
	total := math.Max(horizonSeconds, StepSeconds)
	dt := total / float64(steps)
	samples := make([]DistanceTimeSpeed, 0, steps+1)
	samples = append(samples, DistanceTimeSpeed{Speed: speed})

	distance, boost := 0.0, boostBudget
	for i := 1; i <= steps; i++ {
		boosting := boost > 0 && speed < MaxSpeed
		next := math.Min(speed+accel(speed, boosting)*dt, MaxSpeed)
		distance += (speed + next) / 2 * dt
		speed = next
		if boosting {
			boost -= BoostPerSecond * dt
		}
		samples = append(samples, DistanceTimeSpeed{
			Distance: distance,
			Time:     total * float64(i) / float64(steps),
			Speed:    speed,
		})
	}

	plot, err := NewDistancePlot(samples)
	if err != nil {
		// integrate always produces increasing time and distance.
		panic(err)
	}
	return plot
}

// OrientDuration estimates how long the car needs to swing its nose toward
// target at its current speed.
func OrientDuration(c car.CarData, target r3.Vec) float64 {
	angle := math.Abs(car.CorrectionAngle(c, target))
	speed := math.Max(math.Abs(c.ForwardSpeed()), minTurnSpeed)
	yawRate := Curvature(speed) * speed
	return angle / yawRate
}
