package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
)

func TestNewBallPathValidation(t *testing.T) {
	t.Parallel()

	_, err := NewBallPath(nil)
	assert.Error(t, err)

	_, err = NewBallPath([]BallSlice{{Time: 1}, {Time: 1}})
	assert.Error(t, err, "equal times are rejected")

	_, err = NewBallPath([]BallSlice{{Time: 1}, {Time: 0.5}})
	assert.Error(t, err)

	path, err := NewBallPath([]BallSlice{{Time: 1}})
	require.NoError(t, err)
	assert.Equal(t, path.StartPoint(), path.EndPoint())
}

func TestSlicesFrom(t *testing.T) {
	t.Parallel()

	path, err := NewBallPath([]BallSlice{{Time: 0}, {Time: 0.5}, {Time: 1}})
	require.NoError(t, err)

	assert.Len(t, path.SlicesFrom(-1), 3)
	assert.Len(t, path.SlicesFrom(0.5), 2, "a slice at t is kept")
	upcoming := path.SlicesFrom(0.515)
	require.Len(t, upcoming, 1)
	assert.Equal(t, 1.0, upcoming[0].Time)
	assert.Empty(t, path.SlicesFrom(2))
}

func TestMotionAt(t *testing.T) {
	t.Parallel()

	path, err := NewBallPath([]BallSlice{
		{Space: r3.Vec{X: 0}, Velocity: r3.Vec{X: 10}, Time: 0},
		{Space: r3.Vec{X: 10}, Velocity: r3.Vec{X: 20}, Time: 1},
		{Space: r3.Vec{X: 30}, Velocity: r3.Vec{X: 20}, Time: 2},
	})
	require.NoError(t, err)

	m, ok := path.MotionAt(0.25)
	require.True(t, ok)
	assert.InDelta(t, 2.5, m.Space.X, 1e-12)
	assert.InDelta(t, 12.5, m.Velocity.X, 1e-12)
	assert.InDelta(t, 0.25, m.Time, 1e-12)

	m, ok = path.MotionAt(1.5)
	require.True(t, ok)
	assert.InDelta(t, 20.0, m.Space.X, 1e-12)

	m, ok = path.MotionAt(2)
	require.True(t, ok)
	assert.Equal(t, path.EndPoint(), m)

	_, ok = path.MotionAt(-0.1)
	assert.False(t, ok)
	_, ok = path.MotionAt(2.1)
	assert.False(t, ok)
}

func TestMotionAfterWallBounce(t *testing.T) {
	t.Parallel()

	path, err := NewBallPath([]BallSlice{
		{Velocity: r3.Vec{X: 10}, Time: 0},
		{Velocity: r3.Vec{X: 10}, Time: 0.1},
		{Velocity: r3.Vec{X: -6}, Time: 0.2},
		{Velocity: r3.Vec{X: -6}, Time: 0.3},
		{Velocity: r3.Vec{Y: 6}, Time: 0.4},
	})
	require.NoError(t, err)

	first, ok := path.MotionAfterWallBounce(1)
	require.True(t, ok)
	assert.InDelta(t, 0.2, first.Time, 1e-12)

	_, ok = path.MotionAfterWallBounce(2)
	assert.False(t, ok, "second bounce lands on the final slice")

	_, ok = path.MotionAfterWallBounce(0)
	assert.False(t, ok)
}

func TestLanding(t *testing.T) {
	t.Parallel()

	path, err := NewBallPath([]BallSlice{
		{Space: r3.Vec{Z: 5}, Velocity: r3.Vec{Z: -5}, Time: 0},
		{Space: r3.Vec{Z: 2}, Velocity: r3.Vec{Z: -8}, Time: 0.5},
		{Space: r3.Vec{Z: 2.5}, Velocity: r3.Vec{Z: 4}, Time: 1},
		{Space: r3.Vec{Z: 3}, Velocity: r3.Vec{Z: 2}, Time: 1.5},
	})
	require.NoError(t, err)

	land, ok := path.Landing(0)
	require.True(t, ok)
	assert.InDelta(t, 0.5, land.Time, 1e-12, "the lower of the two slices wins")
	assert.InDelta(t, arena.BallRadius, land.Space.Z, 1e-12)

	_, ok = path.Landing(1.2)
	assert.False(t, ok)
}

func TestBallisticPredictor(t *testing.T) {
	t.Parallel()

	p := NewBallisticPredictor()

	t.Run("resting ball stays put", func(t *testing.T) {
		start := BallSlice{Space: r3.Vec{X: 10, Z: arena.BallRadius}}
		path, err := p.Predict(start, 2)
		require.NoError(t, err)
		end := path.EndPoint()
		assert.True(t, scalar.EqualWithinAbs(end.Space.X, 10, 1e-9))
		assert.True(t, scalar.EqualWithinAbs(end.Space.Z, arena.BallRadius, 1e-6))
		assert.InDelta(t, 2.0, end.Time, 1e-9)
	})

	t.Run("dropped ball bounces off the floor", func(t *testing.T) {
		start := BallSlice{Space: r3.Vec{Z: 15}}
		path, err := p.Predict(start, 4)
		require.NoError(t, err)
		land, ok := path.Landing(0)
		require.True(t, ok)
		assert.Greater(t, land.Time, 1.0)
		for _, s := range path.Slices() {
			assert.GreaterOrEqual(t, s.Space.Z, arena.BallRadius-1e-9)
		}
	})

	t.Run("rolling ball rebounds from the side wall", func(t *testing.T) {
		start := BallSlice{Space: r3.Vec{X: 60, Z: arena.BallRadius}, Velocity: r3.Vec{X: 40}}
		path, err := p.Predict(start, 3)
		require.NoError(t, err)
		after, ok := path.MotionAfterWallBounce(1)
		require.True(t, ok)
		assert.Less(t, after.Velocity.X, 0.0)
		for _, s := range path.Slices() {
			assert.Less(t, s.Space.X, arena.SideWall)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := p.Predict(BallSlice{}, 0)
		assert.Error(t, err)
		_, err = p.Predict(BallSlice{Space: r3.Vec{X: math.NaN()}}, 1)
		assert.Error(t, err)
	})

	t.Run("deterministic", func(t *testing.T) {
		start := BallSlice{Space: r3.Vec{X: -20, Y: 30, Z: 8}, Velocity: r3.Vec{X: 15, Y: -25, Z: 10}}
		a, err := p.Predict(start, 5)
		require.NoError(t, err)
		b, err := p.Predict(start, 5)
		require.NoError(t, err)
		assert.Equal(t, a.Slices(), b.Slices())
	})
}
