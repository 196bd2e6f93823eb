package intercept

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/aerial"
	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/routing"
	"github.com/banshee-data/strikeplanner/internal/strike"
	"github.com/banshee-data/strikeplanner/internal/testutil"
)

func straightOn(height float64) strike.Profile { return strike.ProfileFor(height, 0) }

func TestFilteredInterceptStationaryBall(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	c.Boost = 0
	path := testutil.StationaryBallPath(t, 10, 0, 5)
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, 0)

	in, ok := FilteredIntercept(c, path, plot, Options{ProfileFn: Chip})
	require.True(t, ok)

	ball := path.StartPoint().Space
	assert.InDelta(t, ball.X, in.Space.X, 1e-9)
	assert.InDelta(t, ball.Y, in.Space.Y, 1e-9)
	assert.InDelta(t, ball.Z, in.Space.Z, 1e-9)

	want, ok := plot.MotionAfterDistance(10)
	require.True(t, ok)
	assert.InDelta(t, want.Time, in.Time, testutil.SliceStep)
	assert.Equal(t, strike.StyleChip, in.Profile.Style)
	assert.Zero(t, in.AirBoost)
	assert.Zero(t, in.SpatialPredicateFailurePeriod)
	assert.Same(t, plot, in.Plot)
	assert.Equal(t, in.Time, in.BallSlice.Time)
	assert.Equal(t, geom.SpaceTime{Space: in.Space, Time: in.Time}, in.SpaceTime())
}

func TestFilteredInterceptEarliestFeasible(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	path := testutil.RollingBallPath(t, r3.Vec{X: 30, Y: 10}, r3.Vec{X: -5}, 5)
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, strike.BoostBudget(c))

	in, ok := Opportunity(c, path, plot)
	require.True(t, ok)

	slices := path.Slices()
	first := -1
	for i, s := range slices {
		orient := carpredict.OrientDuration(c, s.Space)
		dts, ok := plot.MotionAfterStrike(s.Time-c.Time-orient, strike.ChipProfile())
		require.True(t, ok)
		if geom.FlatDistance(c.Position, s.Space, geom.Up)-dts.Distance <= 0 {
			first = i
			break
		}
	}
	require.Positive(t, first)
	assert.GreaterOrEqual(t, in.Time, slices[first-1].Time)
	assert.LessOrEqual(t, in.Time, slices[first].Time)
}

func TestFilteredInterceptDeterministic(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(-5, -20, r3.Vec{X: 1, Y: 1})
	path := testutil.RollingBallPath(t, r3.Vec{X: 15, Y: 5}, r3.Vec{X: -3, Y: 4}, 5)
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, strike.BoostBudget(c))
	opts := Options{ProfileFn: straightOn, Offset: r3.Vec{Z: 0.5}}

	a, okA := FilteredIntercept(c, path, plot, opts)
	b, okB := FilteredIntercept(c, path, plot, opts)
	require.True(t, okA)
	require.Equal(t, okA, okB)

	diff := cmp.Diff(a, b,
		cmpopts.IgnoreFields(Intercept{}, "Plot"),
		cmpopts.EquateApprox(0, 1e-12))
	assert.Empty(t, diff)
	assert.Same(t, a.Plot, b.Plot)
}

func TestOpportunityAssumingMaxAccelRespectsBoost(t *testing.T) {
	t.Parallel()

	path := testutil.HoveringBallPath(t, r3.Vec{X: 10, Z: 12}, 5)

	t.Run("empty tank finds no aerial", func(t *testing.T) {
		c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
		c.Boost = 0
		in, ok := OpportunityAssumingMaxAccel(c, path, 0, carpredict.DefaultHorizon, straightOn, nil)
		assert.False(t, ok)
		assert.Nil(t, in)
	})

	t.Run("full tank flies", func(t *testing.T) {
		c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
		in, ok := OpportunityAssumingMaxAccel(c, path, strike.BoostBudget(c), carpredict.DefaultHorizon, straightOn, nil)
		require.True(t, ok)
		assert.Equal(t, strike.StyleAerial, in.Profile.Style)
		assert.Equal(t, strike.BoostNeededForAerial, in.AirBoost)
	})
}

func TestFilteredInterceptPredicate(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	path := testutil.StationaryBallPath(t, 10, 0, 5)
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, 0)

	early, ok := Opportunity(c, path, plot)
	require.True(t, ok)

	late, ok := FilteredIntercept(c, path, plot, Options{
		Predicate: func(_ car.CarData, st geom.SpaceTime) bool { return st.Time > 2.5 },
	})
	require.True(t, ok)
	assert.InDelta(t, 2.5, late.Time, testutil.SliceStep)
	assert.InDelta(t, late.Time-early.Time, late.SpatialPredicateFailurePeriod, testutil.SliceStep)

	_, ok = FilteredIntercept(c, path, plot, Options{
		Predicate: func(car.CarData, geom.SpaceTime) bool { return false },
	})
	assert.False(t, ok)
}

func TestFilteredInterceptOffsetAndPlane(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, strike.BoostBudget(c))

	t.Run("offset shifts the aim point", func(t *testing.T) {
		path := testutil.StationaryBallPath(t, 10, 0, 5)
		in, ok := FilteredIntercept(c, path, plot, Options{Offset: r3.Vec{X: -2}})
		require.True(t, ok)
		assert.InDelta(t, 8.0, in.Space.X, 1e-9)
		assert.InDelta(t, 10.0, in.BallSlice.Space.X, 1e-9)
	})

	t.Run("distance is measured in the driving plane", func(t *testing.T) {
		path := testutil.HoveringBallPath(t, r3.Vec{Z: 20}, 5)
		floor, ok := FilteredIntercept(c, path, plot, Options{})
		require.True(t, ok)
		assert.Zero(t, floor.Time, "directly overhead is zero ground distance")

		wall, ok := FilteredIntercept(c, path, plot, Options{PlaneNormal: r3.Vec{X: 1}})
		require.True(t, ok)
		assert.Greater(t, wall.Time, 0.5)
	})
}

func TestFilteredInterceptAbortsPastPlotHorizon(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	plot := carpredict.SimulateAcceleration(c, 0.5, 0)
	path := testutil.StationaryBallPath(t, 40, 0, 5)

	in, ok := FilteredIntercept(c, path, plot, Options{})
	assert.False(t, ok)
	assert.Nil(t, in)
}

func TestFilteredInterceptSkipsPastSlices(t *testing.T) {
	t.Parallel()

	// The path was predicted at t=0 and is reused for a frame between
	// slice boundaries.
	path := testutil.SampledBallPath(t, 0, 2, func(float64) (r3.Vec, r3.Vec) {
		return r3.Vec{X: 0.05, Z: arena.BallRadius}, r3.Vec{}
	})
	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	c.Velocity = r3.Vec{X: 40}
	c.Time = 0.515
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, 0)

	in, ok := FilteredIntercept(c, path, plot, Options{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, in.Time, c.Time)
	assert.GreaterOrEqual(t, in.BallSlice.Time, c.Time)
	assert.InDelta(t, 0.5+testutil.SliceStep, in.Time, 1e-9, "first upcoming slice")
}

func TestAccessible(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	broke := c
	broke.Boost = 0
	low := geom.SpaceTime{Space: r3.Vec{Z: 2}, Time: 2}
	high := geom.SpaceTime{Space: r3.Vec{Z: 12}, Time: 3}
	tooSoon := geom.SpaceTime{Space: r3.Vec{Z: 4}, Time: 0.01}

	tests := []struct {
		name    string
		c       car.CarData
		target  geom.SpaceTime
		profile strike.Profile
		want    bool
	}{
		{"jump hit with time to spare", c, low, strike.JumpHitProfile(2), true},
		{"side hit with no time to jump", c, tooSoon, strike.SideHitProfile(4), false},
		{"aerial with boost", c, high, strike.AerialProfile(), true},
		{"aerial without boost", broke, high, strike.AerialProfile(), false},
		{"chip at ground height", broke, low, strike.ChipProfile(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accessible(tt.c, tt.target, tt.profile))
		})
	}
}

func TestTweenedSlice(t *testing.T) {
	t.Parallel()

	path := testutil.RollingBallPath(t, r3.Vec{}, r3.Vec{X: 6}, 1)
	slices := path.Slices()

	assert.Equal(t, slices[0], tweenedSlice(path, slices, 0, -1, 5))
	whole := tweenedSlice(path, slices, 3, -1, 0)
	assert.InDelta(t, slices[3].Time, whole.Time, 1e-12, "previous already in range")
	assert.InDelta(t, slices[3].Space.X, whole.Space.X, 1e-9)

	mid := tweenedSlice(path, slices, 3, -1, 1)
	assert.InDelta(t, (slices[2].Time+slices[3].Time)/2, mid.Time, 1e-12)
	assert.InDelta(t, (slices[2].Space.X+slices[3].Space.X)/2, mid.Space.X, 1e-9)
}

type pushToward struct {
	dir    r3.Vec
	ok     bool
	viable bool
}

func (p pushToward) KickDirection(car.CarData, r3.Vec) (r3.Vec, bool) { return p.dir, p.ok }
func (p pushToward) LooksViable(car.CarData, r3.Vec) bool             { return p.viable }

func TestRouteAwareIntercept(t *testing.T) {
	t.Parallel()

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	c.Boost = 0
	path := testutil.StationaryBallPath(t, 20, 0, 5)
	plot := carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, 0)
	forward := pushToward{dir: r3.Vec{X: 1}, ok: true, viable: true}

	t.Run("plans a route that arrives in time", func(t *testing.T) {
		plan, ok := RouteAwareIntercept(c, path, plot, NewRouteSearch(forward))
		require.True(t, ok)

		in := plan.Kick.Intercept
		assert.InDelta(t, 20-(arena.BallRadius+DefaultKickClearance), in.Space.X, 1e-9)
		assert.Equal(t, strike.StyleChip, in.Profile.Style)
		assert.IsType(t, (*routing.AnyFacingPreKickWaypoint)(nil), plan.Kick.LaunchPad)

		parts := plan.Steer.Route.Parts()
		require.NotEmpty(t, parts)
		last := parts[len(parts)-1]
		assert.InDelta(t, in.Profile.StrikeDuration(), last.Duration(), 1e-12)
		assert.LessOrEqual(t, plan.Steer.Route.Duration(), in.Time-c.Time+DefaultRouteSlack)
		assert.True(t, plan.Kick.EasyKickAllowed)
	})

	t.Run("slices without a kick direction are skipped", func(t *testing.T) {
		calls := 0
		search := NewRouteSearch(pushToward{})
		search.Planner = KickPlannerFunc(func(*Intercept, *physics.BallPath, car.CarData, KickStrategy) (*DirectedKickPlan, bool) {
			calls++
			return nil, false
		})
		_, ok := RouteAwareIntercept(c, path, plot, search)
		assert.False(t, ok)
		assert.Zero(t, calls)
	})

	t.Run("a late route ends the search", func(t *testing.T) {
		calls := 0
		search := NewRouteSearch(forward)
		search.Planner = KickPlannerFunc(func(in *Intercept, p *physics.BallPath, c car.CarData, s KickStrategy) (*DirectedKickPlan, bool) {
			calls++
			plan, ok := DirectedKickPlanner{}.PlanKick(in, p, c, s)
			require.True(t, ok)
			wait := in.Time + 1
			plan.LaunchPad = routing.NewAnyFacingPreKickWaypoint(plan.LaunchPad.Position(), in.Time, nil, &wait)
			return plan, true
		})
		_, ok := RouteAwareIntercept(c, path, plot, search)
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("planner failure ends the search", func(t *testing.T) {
		_, ok := RouteAwareIntercept(c, path, plot, NewRouteSearch(pushToward{dir: r3.Vec{X: 1}, ok: true}))
		assert.False(t, ok, "strategy says the kick is not viable")
	})

	t.Run("no strategy", func(t *testing.T) {
		_, ok := RouteAwareIntercept(c, path, plot, RouteSearch{})
		assert.False(t, ok)
	})
}

func TestAerialIntercept(t *testing.T) {
	t.Parallel()

	t.Run("boosts forward onto a ball ahead of the drift", func(t *testing.T) {
		c := car.CarData{
			Position:    r3.Vec{Z: 10},
			Velocity:    r3.Vec{X: 10},
			Orientation: car.FlatOrientation(r3.Vec{X: 1}),
			Boost:       100,
		}
		path := testutil.SampledBallPath(t, 0, 3, func(s float64) (r3.Vec, r3.Vec) {
			return r3.Vec{X: 10*s + 2, Z: 10 - 0.5*car.Gravity*s*s}, r3.Vec{X: 10, Z: -car.Gravity * s}
		})

		in, ok := AerialIntercept(c, path, r3.Vec{}, -0.2)
		require.True(t, ok)
		assert.InDelta(t, math.Sqrt(2*2/18.0), in.Time, testutil.SliceStep+1e-6)
		assert.Greater(t, in.Time, math.Sqrt(2*2/18.0))
		assert.Equal(t, strike.StyleChip, in.Profile.Style)
		assert.Zero(t, in.AirBoost)
		assert.Zero(t, in.SpatialPredicateFailurePeriod)
		assert.Equal(t, in.BallSlice.Space, in.Space)
	})

	t.Run("grounded car without boost cannot reach", func(t *testing.T) {
		c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
		c.Boost = 0
		path := testutil.HoveringBallPath(t, r3.Vec{X: 30, Z: 8}, 3)
		_, ok := AerialIntercept(c, path, r3.Vec{}, 0)
		assert.False(t, ok)
	})
}

func TestRefineAerial(t *testing.T) {
	t.Parallel()

	flying := func() car.CarData {
		return car.CarData{
			Position:    r3.Vec{Z: 10},
			Velocity:    r3.Vec{X: 10},
			Orientation: car.FlatOrientation(r3.Vec{X: 1}),
			Boost:       100,
			Time:        2,
		}
	}
	target := func(space r3.Vec, seconds float64) *Intercept {
		slice := physics.BallSlice{Space: space, Time: 2 + seconds}
		return &Intercept{Space: space, Time: slice.Time, Profile: strike.ChipProfile(), BallSlice: slice}
	}

	t.Run("reachable target keeps the intercept", func(t *testing.T) {
		c := flying()
		in := target(r3.Vec{X: 4, Z: 10}, 1)

		g, ok := RefineAerial(c, in, 0.2, 0)
		require.True(t, ok)
		require.NotNil(t, g.Intercept)
		assert.NotSame(t, in, g.Intercept)
		assert.Equal(t, in.SpaceTime(), g.Intercept.SpaceTime())
		assert.GreaterOrEqual(t, g.Intercept.AccelSlice.Distance, 4.0)

		cc := aerial.CalculateCourseCorrection(car.SliceOf(c), in.SpaceTime(), false, 2)
		assert.InDelta(t, (0.2+aerial.DesiredNosePitch(cc))/2, g.HeldPitch, 1e-12, "blended halfway after two seconds")
	})

	t.Run("nose tips against the height error", func(t *testing.T) {
		c := flying()
		in := target(r3.Vec{X: 4, Z: 10}, 1)

		g, _ := RefineAerial(c, in, 0, 0)
		// Flat nose, so gravity leaves the car below the target.
		assert.Less(t, g.HeightError, 0.0)
		assert.InDelta(t, heightErrorPitchStep, g.NosePitch, 1e-12)
		assert.Greater(t, g.VerticalAngle, 0.0)
	})

	t.Run("out of reach", func(t *testing.T) {
		c := flying()
		in := target(r3.Vec{X: 100, Z: 10}, 0.5)

		g, ok := RefineAerial(c, in, 0, 0)
		assert.False(t, ok)
		assert.Nil(t, g.Intercept)
	})

	t.Run("intercept already passed", func(t *testing.T) {
		c := flying()
		in := target(r3.Vec{X: 4, Z: 10}, -0.5)

		_, ok := RefineAerial(c, in, 0, 0)
		assert.False(t, ok)
	})
}

func TestBoostAffordable(t *testing.T) {
	t.Parallel()

	low := geom.SpaceTime{Space: r3.Vec{Z: 1}}
	high := geom.SpaceTime{Space: r3.Vec{Z: 8}}
	broke := car.CarData{}
	rich := car.CarData{Boost: 50}

	assert.True(t, BoostAffordable(broke, low, strike.ChipProfile()))
	assert.False(t, BoostAffordable(broke, high, strike.ChipProfile()))
	assert.False(t, BoostAffordable(broke, low, strike.AerialProfile()), "aerials always need boost")
	assert.True(t, BoostAffordable(rich, high, strike.AerialProfile()))
}

func TestDebugStreams(t *testing.T) {
	var diag bytes.Buffer
	SetLogWriters(nil, &diag, nil)
	defer SetLogWriters(nil, nil, nil)

	c := testutil.CarAtRest(0, 0, r3.Vec{X: 1})
	path := testutil.StationaryBallPath(t, 10, 0, 5)
	_, ok := Opportunity(c, path, carpredict.SimulateAcceleration(c, carpredict.DefaultHorizon, 0))
	require.True(t, ok)
	assert.Contains(t, diag.String(), "[intercept] ")
	assert.Contains(t, diag.String(), "intercept at")
}
