package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical strike tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/strike.defaults.json"

// Kick strategy names accepted by kick_strategy.
const (
	KickStrategyGoal = "goal"
	KickStrategyWall = "wall"
	KickStrategyNone = "none"
)

// StrikeTuning is the root configuration for the strike planner. Every field
// is optional; the Get* methods fall back to built-in defaults.
type StrikeTuning struct {
	// Ball prediction
	PredictionHorizonSeconds *float64 `json:"prediction_horizon_seconds,omitempty"`
	SliceStepSeconds         *float64 `json:"slice_step_seconds,omitempty"`

	// Trajectory cache
	CacheCapacity                *int     `json:"cache_capacity,omitempty"`
	ReusePositionTolerance       *float64 `json:"reuse_position_tolerance,omitempty"`
	ReusePlanarPositionTolerance *float64 `json:"reuse_planar_position_tolerance,omitempty"`
	ReuseVelocityTolerance       *float64 `json:"reuse_velocity_tolerance,omitempty"`
	ReusePlanarVelocityTolerance *float64 `json:"reuse_planar_velocity_tolerance,omitempty"`
	ReuseMinRemainingSeconds     *float64 `json:"reuse_min_remaining_seconds,omitempty"`
	CacheKeyQuantum              *float64 `json:"cache_key_quantum,omitempty"`

	// Intercept search
	AccelHorizonSeconds *float64 `json:"accel_horizon_seconds,omitempty"`
	RouteSlack          *string  `json:"route_slack,omitempty"` // duration string like "30ms"
	KickClearance       *float64 `json:"kick_clearance,omitempty"`
	KickStrategy        *string  `json:"kick_strategy,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyStrikeTuning returns a StrikeTuning with all fields set to nil.
// Use LoadStrikeTuning to load actual values from the defaults file.
func EmptyStrikeTuning() *StrikeTuning {
	return &StrikeTuning{}
}

// maxTuningBytes bounds the tuning file; a real one is well under 1KB.
const maxTuningBytes = 64 * 1024

// LoadStrikeTuning reads a strike tuning JSON file. Omitted fields keep their
// built-in defaults, so a file only needs the values it changes. Unknown
// field names are rejected so a misspelt tolerance is not silently ignored.
func LoadStrikeTuning(path string) (*StrikeTuning, error) {
	path = filepath.Clean(path)
	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("strike tuning %s: expected a .json file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open strike tuning: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat strike tuning: %w", err)
	}
	if info.Size() > maxTuningBytes {
		return nil, fmt.Errorf("strike tuning %s is %d bytes, limit is %d", path, info.Size(), maxTuningBytes)
	}

	cfg := EmptyStrikeTuning()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode strike tuning %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strike tuning %s: %w", path, err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, looking in the working
// directory and then in each parent until the repository root is found.
// It panics when no defaults file exists; it is meant for tests and tools
// run from inside the repository.
func MustLoadDefaultConfig() *StrikeTuning {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("strike tuning defaults: %v", err))
	}
	for {
		candidate := filepath.Join(dir, DefaultConfigPath)
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := LoadStrikeTuning(candidate)
			if err != nil {
				panic(err)
			}
			return cfg
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("strike tuning defaults: " + DefaultConfigPath + " not found above the working directory")
		}
		dir = parent
	}
}

// Validate checks each set field and the relations between the effective
// values, so a file that only sets prediction_horizon_seconds is still
// checked against the default slice step.
func (c *StrikeTuning) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"prediction_horizon_seconds", c.PredictionHorizonSeconds},
		{"slice_step_seconds", c.SliceStepSeconds},
		{"reuse_position_tolerance", c.ReusePositionTolerance},
		{"reuse_planar_position_tolerance", c.ReusePlanarPositionTolerance},
		{"reuse_velocity_tolerance", c.ReuseVelocityTolerance},
		{"reuse_planar_velocity_tolerance", c.ReusePlanarVelocityTolerance},
		{"cache_key_quantum", c.CacheKeyQuantum},
		{"accel_horizon_seconds", c.AccelHorizonSeconds},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	if c.CacheCapacity != nil && *c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be at least 1, got %d", *c.CacheCapacity)
	}
	if c.ReuseMinRemainingSeconds != nil && *c.ReuseMinRemainingSeconds < 0 {
		return fmt.Errorf("reuse_min_remaining_seconds must be non-negative, got %f", *c.ReuseMinRemainingSeconds)
	}
	if c.KickClearance != nil && *c.KickClearance < 0 {
		return fmt.Errorf("kick_clearance must be non-negative, got %f", *c.KickClearance)
	}

	// A prediction must hold at least two slices for tweening and reuse.
	if step, horizon := c.GetSliceStepSeconds(), c.GetPredictionHorizonSeconds(); step >= horizon {
		return fmt.Errorf("slice_step_seconds (%g) must be shorter than prediction_horizon_seconds (%g)", step, horizon)
	}
	// Reuse needs the cached path to outlast the frame being evaluated.
	if remaining, horizon := c.GetReuseMinRemainingSeconds(), c.GetPredictionHorizonSeconds(); remaining >= horizon {
		return fmt.Errorf("reuse_min_remaining_seconds (%g) must be shorter than prediction_horizon_seconds (%g)", remaining, horizon)
	}

	if c.RouteSlack != nil && *c.RouteSlack != "" {
		if _, err := time.ParseDuration(*c.RouteSlack); err != nil {
			return fmt.Errorf("invalid route_slack '%s': %w", *c.RouteSlack, err)
		}
	}

	if c.KickStrategy != nil {
		switch *c.KickStrategy {
		case KickStrategyGoal, KickStrategyWall, KickStrategyNone:
		default:
			return fmt.Errorf("kick_strategy must be one of %q, %q, %q, got %q",
				KickStrategyGoal, KickStrategyWall, KickStrategyNone, *c.KickStrategy)
		}
	}

	return nil
}

// GetPredictionHorizonSeconds returns the prediction_horizon_seconds value or the default.
func (c *StrikeTuning) GetPredictionHorizonSeconds() float64 {
	if c.PredictionHorizonSeconds == nil {
		return 5.0
	}
	return *c.PredictionHorizonSeconds
}

// GetSliceStepSeconds returns the slice_step_seconds value or the default.
func (c *StrikeTuning) GetSliceStepSeconds() float64 {
	if c.SliceStepSeconds == nil {
		return 1.0 / 60
	}
	return *c.SliceStepSeconds
}

// GetCacheCapacity returns the cache_capacity value or the default.
func (c *StrikeTuning) GetCacheCapacity() int {
	if c.CacheCapacity == nil {
		return 10
	}
	return *c.CacheCapacity
}

// GetReusePositionTolerance returns the reuse_position_tolerance value or the default.
func (c *StrikeTuning) GetReusePositionTolerance() float64 {
	if c.ReusePositionTolerance == nil {
		return 0.3
	}
	return *c.ReusePositionTolerance
}

// GetReusePlanarPositionTolerance returns the reuse_planar_position_tolerance value or the default.
func (c *StrikeTuning) GetReusePlanarPositionTolerance() float64 {
	if c.ReusePlanarPositionTolerance == nil {
		return 0.1
	}
	return *c.ReusePlanarPositionTolerance
}

// GetReuseVelocityTolerance returns the reuse_velocity_tolerance value or the default.
func (c *StrikeTuning) GetReuseVelocityTolerance() float64 {
	if c.ReuseVelocityTolerance == nil {
		return 0.3
	}
	return *c.ReuseVelocityTolerance
}

// GetReusePlanarVelocityTolerance returns the reuse_planar_velocity_tolerance value or the default.
func (c *StrikeTuning) GetReusePlanarVelocityTolerance() float64 {
	if c.ReusePlanarVelocityTolerance == nil {
		return 0.1
	}
	return *c.ReusePlanarVelocityTolerance
}

// GetReuseMinRemainingSeconds returns the reuse_min_remaining_seconds value or the default.
func (c *StrikeTuning) GetReuseMinRemainingSeconds() float64 {
	if c.ReuseMinRemainingSeconds == nil {
		return 1.0
	}
	return *c.ReuseMinRemainingSeconds
}

// GetCacheKeyQuantum returns the cache_key_quantum value or the default.
func (c *StrikeTuning) GetCacheKeyQuantum() float64 {
	if c.CacheKeyQuantum == nil {
		return 1e-3
	}
	return *c.CacheKeyQuantum
}

// GetAccelHorizonSeconds returns the accel_horizon_seconds value or the default.
func (c *StrikeTuning) GetAccelHorizonSeconds() float64 {
	if c.AccelHorizonSeconds == nil {
		return 4.0
	}
	return *c.AccelHorizonSeconds
}

// GetRouteSlack parses and returns the RouteSlack as a time.Duration.
func (c *StrikeTuning) GetRouteSlack() time.Duration {
	if c.RouteSlack == nil || *c.RouteSlack == "" {
		return 30 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.RouteSlack)
	if err != nil {
		return 30 * time.Millisecond // default on parse error
	}
	return d
}

// GetKickClearance returns the kick_clearance value or the default.
func (c *StrikeTuning) GetKickClearance() float64 {
	if c.KickClearance == nil {
		return 1.5
	}
	return *c.KickClearance
}

// GetKickStrategy returns the kick_strategy value or the default.
func (c *StrikeTuning) GetKickStrategy() string {
	if c.KickStrategy == nil {
		return KickStrategyGoal
	}
	return *c.KickStrategy
}
