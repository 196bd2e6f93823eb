package kick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/intercept"
)

var (
	_ intercept.KickStrategy = TowardPoint{}
	_ intercept.KickStrategy = WallRebound{}
)

func carAt(x, y float64) car.CarData {
	return car.CarData{
		Position:    r3.Vec{X: x, Y: y, Z: car.BaseCarZ},
		Orientation: car.FlatOrientation(r3.Vec{Y: 1}),
	}
}

func TestTowardPoint(t *testing.T) {
	t.Parallel()

	k := TowardEnemyGoal(car.TeamBlue)
	assert.Equal(t, GoalCenter(car.TeamOrange), k.Target)
	assert.Equal(t, r3.Vec{Y: -arena.BackWall}, GoalCenter(car.TeamBlue))

	dir, ok := k.KickDirection(carAt(0, -20), r3.Vec{Z: 5})
	require.True(t, ok)
	assert.InDelta(t, 1.0, dir.Y, 1e-12)
	assert.Zero(t, dir.Z, "kicks stay flat")

	tests := []struct {
		name string
		car  car.CarData
		want bool
	}{
		{"behind the ball", carAt(0, -20), true},
		{"beside the ball", carAt(20, 0), true},
		{"in front of the ball", carAt(0, 20), false},
		{"on the ball", carAt(0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, k.LooksViable(tt.car, r3.Vec{}))
		})
	}

	_, ok = TowardPoint{Target: r3.Vec{X: 1, Z: 9}}.KickDirection(carAt(0, 0), r3.Vec{X: 1})
	assert.False(t, ok, "ball already under the target")
}

func TestFirstPlaneBreak(t *testing.T) {
	t.Parallel()

	hit, ok := FirstPlaneBreak(r3.Vec{Z: 5}, r3.Vec{X: 1}, arena.WallPlanes())
	require.True(t, ok)
	assert.InDelta(t, arena.SideWall, hit.Position.X, 1e-6)
	assert.Equal(t, r3.Vec{X: -1}, hit.Normal)

	_, ok = FirstPlaneBreak(r3.Vec{}, r3.Vec{Z: 1}, arena.WallPlanes())
	assert.False(t, ok, "straight up never meets a wall")

	corner, ok := FirstPlaneBreak(r3.Vec{}, r3.Vec{X: 1, Y: 1.25}, arena.WallPlanes())
	require.True(t, ok)
	assert.InDelta(t, 0.0, geom.NewPlane(corner.Normal, corner.Position).Distance(corner.Position), 1e-9)
	assert.Negative(t, corner.Normal.X)
	assert.Negative(t, corner.Normal.Y)
}

func TestWallRebound(t *testing.T) {
	t.Parallel()

	var k WallRebound
	assert.True(t, k.LooksViable(car.CarData{}, r3.Vec{}))

	dir, ok := k.KickDirection(carAt(-10, 0), r3.Vec{})
	require.True(t, ok)
	assert.InDelta(t, 1.0, dir.X, 1e-12, "ball is driven into the +X side wall")

	dir, ok = k.KickDirection(carAt(0, 0), r3.Vec{})
	require.True(t, ok)
	assert.InDelta(t, 1.0, dir.Y, 1e-12, "falls back to the car's nose")
}
