package physics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
)

// ErrPredictionFailed matches every PredictionError via errors.Is.
var ErrPredictionFailed = errors.New("ball prediction failed")

// PredictionError reports that the trajectory predictor could not produce a
// path. Callers skip the current frame and try again on the next.
type PredictionError struct {
	Start BallSlice
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("ball prediction failed from t=%.3f pos=(%.2f, %.2f, %.2f): %v",
		e.Start.Time, e.Start.Space.X, e.Start.Space.Y, e.Start.Space.Z, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// Is matches ErrPredictionFailed.
func (e *PredictionError) Is(target error) bool {
	return target == ErrPredictionFailed
}

// Predictor produces a ball path covering horizon seconds from start.
// Implementations must be deterministic.
type Predictor interface {
	Predict(start BallSlice, horizon float64) (*BallPath, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(start BallSlice, horizon float64) (*BallPath, error)

// Predict calls f.
func (f PredictorFunc) Predict(start BallSlice, horizon float64) (*BallPath, error) {
	return f(start, horizon)
}

// Ballistic model constants.
const (
	// DefaultStepSeconds is the integration step, two simulation ticks.
	DefaultStepSeconds = 1.0 / 60
	ballDrag           = 0.0305 // fraction of velocity lost per second
	ballMaxSpeed       = 120.0
	restitution        = 0.6
	// surfaceFriction is the fraction of tangential speed kept on bounce.
	surfaceFriction = 0.713
	// settleSpeed is the normal speed under which a bounce becomes a roll.
	settleSpeed = 0.5
	spinDecay   = 0.99
)

// BallisticPredictor integrates gravity and drag and bounces the ball off the
// arena planes. It is the reference predictor used when no engine-backed
// predictor is plugged in.
type BallisticPredictor struct {
	StepSeconds float64
}

// NewBallisticPredictor returns a predictor with the default step.
func NewBallisticPredictor() *BallisticPredictor {
	return &BallisticPredictor{StepSeconds: DefaultStepSeconds}
}

// Predict implements Predictor.
func (b *BallisticPredictor) Predict(start BallSlice, horizon float64) (*BallPath, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %.3f", horizon)
	}
	if !finite(start.Space) || !finite(start.Velocity) || !finite(start.Spin) || math.IsNaN(start.Time) {
		return nil, errors.New("start state is not finite")
	}
	step := b.StepSeconds
	if step <= 0 {
		step = DefaultStepSeconds
	}

	steps := int(math.Ceil(horizon/step - 1e-9))
	slices := make([]BallSlice, 0, steps+1)
	slices = append(slices, start)

	cur := start
	for i := 1; i <= steps; i++ {
		cur = b.advance(cur, step)
		cur.Time = start.Time + float64(i)*step
		slices = append(slices, cur)
	}
	return NewBallPath(slices)
}

func (b *BallisticPredictor) advance(s BallSlice, dt float64) BallSlice {
	v := r3.Add(s.Velocity, r3.Vec{Z: -arena.Gravity * dt})
	v = r3.Scale(1-ballDrag*dt, v)
	if speed := r3.Norm(v); speed > ballMaxSpeed {
		v = r3.Scale(ballMaxSpeed/speed, v)
	}
	next := r3.Add(s.Space, r3.Scale(dt, v))

	// The surface the ball is flying toward wins at seams; otherwise fall
	// back to whatever surface is closest.
	contact := arena.BouncePlane(s.Space, v)
	if contact.Distance(next) >= arena.BallRadius {
		contact = arena.NearestPlane(next)
	}
	if d := contact.Distance(next); d < arena.BallRadius {
		n := contact.Normal
		vn := r3.Dot(v, n)
		if vn < 0 {
			tangent := r3.Sub(v, r3.Scale(vn, n))
			if bounce := -vn * restitution; bounce < settleSpeed {
				// too slow to bounce; roll along the surface
				v = tangent
			} else {
				v = r3.Add(r3.Scale(surfaceFriction, tangent), r3.Scale(bounce, n))
			}
		}
		next = r3.Add(next, r3.Scale(arena.BallRadius-d, n))
	}

	return BallSlice{
		Space:    next,
		Velocity: v,
		Spin:     r3.Scale(spinDecay, s.Spin),
	}
}

func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
