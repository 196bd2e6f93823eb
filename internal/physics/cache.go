package physics

import (
	"errors"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/geom"
)

// CacheOptions tunes a TrajectoryCache.
type CacheOptions struct {
	// HorizonSeconds is how far ahead each fresh prediction looks.
	HorizonSeconds float64
	// Capacity bounds the number of memoized paths.
	Capacity int

	// A previous path is reused only while its prediction for the new start
	// time stays within these drifts of the observed state.
	PositionTolerance       float64
	PlanarPositionTolerance float64
	VelocityTolerance       float64
	PlanarVelocityTolerance float64

	// MinRemainingSeconds is the least horizon a reused path must still
	// cover past the new start time.
	MinRemainingSeconds float64

	// KeyQuantum is the rounding step applied to each start-state component
	// before it is used as a memo key.
	KeyQuantum float64
}

// DefaultCacheOptions returns the tuning the planner ships with.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		HorizonSeconds:          5.0,
		Capacity:                10,
		PositionTolerance:       0.3,
		PlanarPositionTolerance: 0.1,
		VelocityTolerance:       0.3,
		PlanarVelocityTolerance: 0.1,
		MinRemainingSeconds:     1.0,
		KeyQuantum:              1e-3,
	}
}

// Validate checks that the options describe a usable cache.
func (o CacheOptions) Validate() error {
	var errs []error
	if o.HorizonSeconds <= 0 {
		errs = append(errs, errors.New("horizon must be positive"))
	}
	if o.Capacity <= 0 {
		errs = append(errs, errors.New("capacity must be positive"))
	}
	if o.KeyQuantum <= 0 {
		errs = append(errs, errors.New("key quantum must be positive"))
	}
	if o.PositionTolerance < 0 || o.PlanarPositionTolerance < 0 ||
		o.VelocityTolerance < 0 || o.PlanarVelocityTolerance < 0 {
		errs = append(errs, errors.New("tolerances must not be negative"))
	}
	if o.MinRemainingSeconds < 0 || o.MinRemainingSeconds > o.HorizonSeconds {
		errs = append(errs, errors.New("min remaining seconds must lie within the horizon"))
	}
	return errors.Join(errs...)
}

// StateKey is a start state rounded to the cache's key quantum, so that
// states differing only by floating-point noise share an entry.
type StateKey struct {
	Position r3.Vec
	Velocity r3.Vec
	Spin     r3.Vec
	Time     float64
}

func quantize(v, quantum float64) float64 {
	return math.Round(v/quantum) * quantum
}

func quantizeVec(v r3.Vec, quantum float64) r3.Vec {
	return r3.Vec{X: quantize(v.X, quantum), Y: quantize(v.Y, quantum), Z: quantize(v.Z, quantum)}
}

// KeyOf rounds a start state into a memo key.
func KeyOf(s BallSlice, quantum float64) StateKey {
	return StateKey{
		Position: quantizeVec(s.Space, quantum),
		Velocity: quantizeVec(s.Velocity, quantum),
		Spin:     quantizeVec(s.Spin, quantum),
		Time:     quantize(s.Time, quantum),
	}
}

// CacheStats counts how each Simulate call was satisfied.
type CacheStats struct {
	Reuses     int
	MemoHits   int
	Recomputes int
	Evictions  int
	Failures   int
}

// TrajectoryCache holds the current predicted ball path of one session and
// a small LRU of recent predictions.
type TrajectoryCache struct {
	predictor Predictor
	opts      CacheOptions

	// mu serializes the reuse decision, recomputation and the current write.
	mu      sync.Mutex
	current *BallPath
	stats   CacheStats
	// purging is set while Reset empties the memo, so those removals are
	// not counted as evictions.
	purging bool

	// paths is internally synchronized; committed entries may be read
	// without holding mu.
	paths *lru.Cache[StateKey, *BallPath]
}

// NewTrajectoryCache builds a cache around predictor.
func NewTrajectoryCache(predictor Predictor, opts CacheOptions) (*TrajectoryCache, error) {
	if predictor == nil {
		return nil, errors.New("trajectory cache needs a predictor")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &TrajectoryCache{predictor: predictor, opts: opts}
	paths, err := lru.NewWithEvict[StateKey, *BallPath](opts.Capacity, func(StateKey, *BallPath) {
		if !c.purging {
			c.stats.Evictions++
		}
	})
	if err != nil {
		return nil, err
	}
	c.paths = paths
	diagf("trajectory cache: capacity=%d horizon=%.2fs quantum=%g", opts.Capacity, opts.HorizonSeconds, opts.KeyQuantum)
	return c, nil
}

// Options returns the cache's tuning.
func (c *TrajectoryCache) Options() CacheOptions {
	return c.opts
}

// Simulate returns the predicted path for start. The previous path is
// returned unchanged when it still covers start and its prediction for that
// moment agrees with start; otherwise a fresh path is predicted (or taken
// from the memo) and becomes current.
func (c *TrajectoryCache) Simulate(start BallSlice) (*BallPath, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.reusable(c.current, start) {
		c.stats.Reuses++
		tracef("reuse path from t=%.3f at t=%.3f", c.current.StartPoint().Time, start.Time)
		return c.current, nil
	}

	path, err := c.predictLocked(start)
	if err != nil {
		return nil, err
	}
	c.current = path
	return path, nil
}

// Predict returns a memoized or fresh path for start without touching the
// current path.
func (c *TrajectoryCache) Predict(start BallSlice) (*BallPath, error) {
	if path, ok := c.paths.Get(KeyOf(start, c.opts.KeyQuantum)); ok {
		c.mu.Lock()
		c.stats.MemoHits++
		c.mu.Unlock()
		return path, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.predictLocked(start)
}

// predictLocked must be called with mu held.
func (c *TrajectoryCache) predictLocked(start BallSlice) (*BallPath, error) {
	key := KeyOf(start, c.opts.KeyQuantum)
	if path, ok := c.paths.Get(key); ok {
		c.stats.MemoHits++
		return path, nil
	}

	path, err := c.predictor.Predict(start, c.opts.HorizonSeconds)
	if err == nil && (path == nil || path.Len() == 0) {
		err = errEmptyPath
	}
	if err != nil {
		c.stats.Failures++
		opsf("prediction failed at t=%.3f: %v", start.Time, err)
		return nil, &PredictionError{Start: start, Err: err}
	}
	c.stats.Recomputes++
	c.paths.Add(key, path)
	tracef("recompute path from t=%.3f (%d slices)", start.Time, path.Len())
	return path, nil
}

func (c *TrajectoryCache) reusable(prev *BallPath, start BallSlice) bool {
	if prev.EndPoint().Time-start.Time < c.opts.MinRemainingSeconds {
		return false
	}
	predicted, ok := prev.MotionAt(start.Time)
	if !ok {
		return false
	}
	return withinDrift(predicted.Space, start.Space, c.opts.PositionTolerance, c.opts.PlanarPositionTolerance) &&
		withinDrift(predicted.Velocity, start.Velocity, c.opts.VelocityTolerance, c.opts.PlanarVelocityTolerance)
}

// withinDrift reports whether b stays strictly within abs of a in 3D and
// within planar of a on the ground plane.
func withinDrift(a, b r3.Vec, abs, planar float64) bool {
	drift := r3.Norm(r3.Sub(a, b))
	flat := geom.FlatDistance(a, b, geom.Up)
	return drift < abs && flat < planar
}

// Current returns the path most recently produced by Simulate, or nil.
func (c *TrajectoryCache) Current() *BallPath {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stats returns a snapshot of the counters.
func (c *TrajectoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len is the number of memoized paths.
func (c *TrajectoryCache) Len() int {
	return c.paths.Len()
}

// Reset forgets the current path and every memoized path.
func (c *TrajectoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.purging = true
	c.paths.Purge()
	c.purging = false
}
