package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/strikeplanner/internal/testutil"
)

func TestEmptyStrikeTuningUsesDefaults(t *testing.T) {
	cfg := EmptyStrikeTuning()

	if got := cfg.GetPredictionHorizonSeconds(); got != 5.0 {
		t.Errorf("GetPredictionHorizonSeconds() = %v, want 5.0", got)
	}
	if got := cfg.GetSliceStepSeconds(); got != 1.0/60 {
		t.Errorf("GetSliceStepSeconds() = %v, want 1/60", got)
	}
	if got := cfg.GetCacheCapacity(); got != 10 {
		t.Errorf("GetCacheCapacity() = %v, want 10", got)
	}
	if got := cfg.GetReusePositionTolerance(); got != 0.3 {
		t.Errorf("GetReusePositionTolerance() = %v, want 0.3", got)
	}
	if got := cfg.GetReusePlanarPositionTolerance(); got != 0.1 {
		t.Errorf("GetReusePlanarPositionTolerance() = %v, want 0.1", got)
	}
	if got := cfg.GetReuseVelocityTolerance(); got != 0.3 {
		t.Errorf("GetReuseVelocityTolerance() = %v, want 0.3", got)
	}
	if got := cfg.GetReusePlanarVelocityTolerance(); got != 0.1 {
		t.Errorf("GetReusePlanarVelocityTolerance() = %v, want 0.1", got)
	}
	if got := cfg.GetReuseMinRemainingSeconds(); got != 1.0 {
		t.Errorf("GetReuseMinRemainingSeconds() = %v, want 1.0", got)
	}
	if got := cfg.GetCacheKeyQuantum(); got != 1e-3 {
		t.Errorf("GetCacheKeyQuantum() = %v, want 1e-3", got)
	}
	if got := cfg.GetAccelHorizonSeconds(); got != 4.0 {
		t.Errorf("GetAccelHorizonSeconds() = %v, want 4.0", got)
	}
	if got := cfg.GetRouteSlack(); got != 30*time.Millisecond {
		t.Errorf("GetRouteSlack() = %v, want 30ms", got)
	}
	if got := cfg.GetKickClearance(); got != 1.5 {
		t.Errorf("GetKickClearance() = %v, want 1.5", got)
	}
	if got := cfg.GetKickStrategy(); got != KickStrategyGoal {
		t.Errorf("GetKickStrategy() = %q, want %q", got, KickStrategyGoal)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyStrikeTuning()

	// The defaults file and the built-in fallbacks must agree.
	if cfg.GetPredictionHorizonSeconds() != empty.GetPredictionHorizonSeconds() {
		t.Errorf("prediction horizon: file %v, fallback %v", cfg.GetPredictionHorizonSeconds(), empty.GetPredictionHorizonSeconds())
	}
	if cfg.GetCacheCapacity() != empty.GetCacheCapacity() {
		t.Errorf("cache capacity: file %v, fallback %v", cfg.GetCacheCapacity(), empty.GetCacheCapacity())
	}
	if cfg.GetRouteSlack() != empty.GetRouteSlack() {
		t.Errorf("route slack: file %v, fallback %v", cfg.GetRouteSlack(), empty.GetRouteSlack())
	}
	if cfg.GetKickStrategy() != empty.GetKickStrategy() {
		t.Errorf("kick strategy: file %q, fallback %q", cfg.GetKickStrategy(), empty.GetKickStrategy())
	}
	if cfg.PredictionHorizonSeconds == nil || cfg.CacheKeyQuantum == nil {
		t.Error("defaults file should set every field")
	}
}

func TestLoadStrikeTuning(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strike.json")

	configJSON := `{
		"prediction_horizon_seconds": 3.0,
		"cache_capacity": 4,
		"route_slack": "50ms",
		"kick_strategy": "wall"
	}`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadStrikeTuning(configPath)
	testutil.AssertNoError(t, err)

	if got := cfg.GetPredictionHorizonSeconds(); got != 3.0 {
		t.Errorf("Expected horizon 3.0, got %v", got)
	}
	if got := cfg.GetCacheCapacity(); got != 4 {
		t.Errorf("Expected capacity 4, got %v", got)
	}
	if got := cfg.GetRouteSlack(); got != 50*time.Millisecond {
		t.Errorf("Expected route slack 50ms, got %v", got)
	}
	if got := cfg.GetKickStrategy(); got != KickStrategyWall {
		t.Errorf("Expected kick strategy wall, got %q", got)
	}

	// Fields omitted from the file keep their defaults
	if got := cfg.GetKickClearance(); got != 1.5 {
		t.Errorf("Expected default kick clearance 1.5, got %v", got)
	}
}

func TestLoadStrikeTuningMissing(t *testing.T) {
	_, err := LoadStrikeTuning(filepath.Join(t.TempDir(), "missing.json"))
	testutil.AssertError(t, err)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestLoadStrikeTuningWrongExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strike.yaml")
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadStrikeTuning(configPath)
	testutil.AssertError(t, err)
}

func TestLoadStrikeTuningInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strike.json")
	if err := os.WriteFile(configPath, []byte(`{"cache_capacity": `), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadStrikeTuning(configPath)
	testutil.AssertError(t, err)
}

func TestLoadStrikeTuningInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strike.json")
	if err := os.WriteFile(configPath, []byte(`{"cache_capacity": 0}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadStrikeTuning(configPath)
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "cache_capacity") {
		t.Errorf("error should name the offending field: %v", err)
	}
}

func TestLoadStrikeTuningUnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strike.json")
	if err := os.WriteFile(configPath, []byte(`{"reuse_positon_tolerance": 0.5}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadStrikeTuning(configPath)
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "reuse_positon_tolerance") {
		t.Errorf("error should name the unknown field: %v", err)
	}
}

func TestLoadStrikeTuningTooLarge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strike.json")
	padded := `{"kick_strategy": "goal"` + strings.Repeat(" ", maxTuningBytes) + `}`
	if err := os.WriteFile(configPath, []byte(padded), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadStrikeTuning(configPath)
	testutil.AssertError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *StrikeTuning
		wantErr bool
	}{
		{
			name:    "empty config",
			cfg:     EmptyStrikeTuning(),
			wantErr: false,
		},
		{
			name: "valid overrides",
			cfg: &StrikeTuning{
				PredictionHorizonSeconds: ptrFloat64(4),
				SliceStepSeconds:         ptrFloat64(0.02),
				CacheCapacity:            ptrInt(2),
				RouteSlack:               ptrString("10ms"),
				KickStrategy:             ptrString(KickStrategyNone),
			},
			wantErr: false,
		},
		{
			name:    "zero horizon",
			cfg:     &StrikeTuning{PredictionHorizonSeconds: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative key quantum",
			cfg:     &StrikeTuning{CacheKeyQuantum: ptrFloat64(-1e-3)},
			wantErr: true,
		},
		{
			name:    "zero capacity",
			cfg:     &StrikeTuning{CacheCapacity: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative min remaining",
			cfg:     &StrikeTuning{ReuseMinRemainingSeconds: ptrFloat64(-0.5)},
			wantErr: true,
		},
		{
			name:    "zero min remaining",
			cfg:     &StrikeTuning{ReuseMinRemainingSeconds: ptrFloat64(0)},
			wantErr: false,
		},
		{
			name:    "negative clearance",
			cfg:     &StrikeTuning{KickClearance: ptrFloat64(-1)},
			wantErr: true,
		},
		{
			name: "step longer than horizon",
			cfg: &StrikeTuning{
				PredictionHorizonSeconds: ptrFloat64(0.5),
				SliceStepSeconds:         ptrFloat64(1),
			},
			wantErr: true,
		},
		{
			name:    "horizon shorter than default min remaining",
			cfg:     &StrikeTuning{PredictionHorizonSeconds: ptrFloat64(0.8)},
			wantErr: true,
		},
		{
			name:    "step longer than default horizon",
			cfg:     &StrikeTuning{SliceStepSeconds: ptrFloat64(6)},
			wantErr: true,
		},
		{
			name:    "bad route slack",
			cfg:     &StrikeTuning{RouteSlack: ptrString("soon")},
			wantErr: true,
		},
		{
			name:    "unknown kick strategy",
			cfg:     &StrikeTuning{KickStrategy: ptrString("dribble")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetRouteSlack(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  time.Duration
	}{
		{"nil", nil, 30 * time.Millisecond},
		{"empty", ptrString(""), 30 * time.Millisecond},
		{"set", ptrString("75ms"), 75 * time.Millisecond},
		{"unparseable", ptrString("later"), 30 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &StrikeTuning{RouteSlack: tt.value}
			if got := cfg.GetRouteSlack(); got != tt.want {
				t.Errorf("GetRouteSlack() = %v, want %v", got, tt.want)
			}
		})
	}
}
