// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/physics"
)

// SliceStep is the spacing of fixture ball paths: one simulation frame.
const SliceStep = 1.0 / 60

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CarAtRest is an upright car on the floor at (x, y) facing facing, with a
// full tank and wheels down.
func CarAtRest(x, y float64, facing r3.Vec) car.CarData {
	return car.CarData{
		Position:        r3.Vec{X: x, Y: y, Z: car.BaseCarZ},
		Orientation:     car.FlatOrientation(facing),
		Boost:           100,
		HasWheelContact: true,
	}
}

// BallPathFunc samples position and velocity at seconds after the start.
type BallPathFunc func(seconds float64) (position, velocity r3.Vec)

// SampledBallPath builds a path from fn, sampled every SliceStep from start
// for horizon seconds.
func SampledBallPath(t testing.TB, start, horizon float64, fn BallPathFunc) *physics.BallPath {
	t.Helper()
	steps := int(horizon/SliceStep + 0.5)
	slices := make([]physics.BallSlice, 0, steps+1)
	for i := 0; i <= steps; i++ {
		elapsed := float64(i) * SliceStep
		pos, vel := fn(elapsed)
		slices = append(slices, physics.BallSlice{Space: pos, Velocity: vel, Time: start + elapsed})
	}
	path, err := physics.NewBallPath(slices)
	if err != nil {
		t.Fatalf("building ball path: %v", err)
	}
	return path
}

// StationaryBallPath is a ball resting on the floor at (x, y).
func StationaryBallPath(t testing.TB, x, y, horizon float64) *physics.BallPath {
	t.Helper()
	rest := r3.Vec{X: x, Y: y, Z: arena.BallRadius}
	return SampledBallPath(t, 0, horizon, func(float64) (r3.Vec, r3.Vec) {
		return rest, r3.Vec{}
	})
}

// HoveringBallPath is a ball fixed in the air at position.
func HoveringBallPath(t testing.TB, position r3.Vec, horizon float64) *physics.BallPath {
	t.Helper()
	return SampledBallPath(t, 0, horizon, func(float64) (r3.Vec, r3.Vec) {
		return position, r3.Vec{}
	})
}

// RollingBallPath is a ball rolling along the floor from start at constant
// flat velocity.
func RollingBallPath(t testing.TB, start, velocity r3.Vec, horizon float64) *physics.BallPath {
	t.Helper()
	start.Z = arena.BallRadius
	velocity.Z = 0
	return SampledBallPath(t, 0, horizon, func(s float64) (r3.Vec, r3.Vec) {
		return r3.Add(start, r3.Scale(s, velocity)), velocity
	})
}

// StraightLinePredictor is a predictor that ignores gravity and walls and
// carries the ball along its starting velocity.
var StraightLinePredictor = physics.PredictorFunc(func(start physics.BallSlice, horizon float64) (*physics.BallPath, error) {
	steps := int(horizon/SliceStep + 0.5)
	slices := make([]physics.BallSlice, 0, steps+1)
	for i := 0; i <= steps; i++ {
		elapsed := float64(i) * SliceStep
		slices = append(slices, physics.BallSlice{
			Space:    r3.Add(start.Space, r3.Scale(elapsed, start.Velocity)),
			Velocity: start.Velocity,
			Spin:     start.Spin,
			Time:     start.Time + elapsed,
		})
	}
	return physics.NewBallPath(slices)
})
