package physics

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// BallSlice is the ball state at one moment. Time is absolute seconds.
type BallSlice struct {
	Space    r3.Vec
	Velocity r3.Vec
	Spin     r3.Vec
	Time     float64
}

// SpaceTime drops the velocity and spin.
func (s BallSlice) SpaceTime() geom.SpaceTime {
	return geom.SpaceTime{Space: s.Space, Time: s.Time}
}

// BallPath is a finite predicted trajectory with strictly increasing slice
// times. It is read-only once built.
type BallPath struct {
	slices []BallSlice
}

var errEmptyPath = errors.New("ball path has no slices")

// NewBallPath validates and wraps slices. The slice is copied.
func NewBallPath(slices []BallSlice) (*BallPath, error) {
	if len(slices) == 0 {
		return nil, errEmptyPath
	}
	for i := 1; i < len(slices); i++ {
		if slices[i].Time <= slices[i-1].Time {
			return nil, fmt.Errorf("slice %d at t=%.4f is not after t=%.4f", i, slices[i].Time, slices[i-1].Time)
		}
	}
	return &BallPath{slices: append([]BallSlice(nil), slices...)}, nil
}

// Slices returns the recorded slices. Callers must not modify them.
func (p *BallPath) Slices() []BallSlice {
	return p.slices
}

// SlicesFrom returns the slices at or after t. A reused path still holds
// slices from before the current frame; searches start here instead.
func (p *BallPath) SlicesFrom(t float64) []BallSlice {
	first := sort.Search(len(p.slices), func(i int) bool { return p.slices[i].Time >= t })
	return p.slices[first:]
}

// Len is the number of recorded slices.
func (p *BallPath) Len() int {
	return len(p.slices)
}

// StartPoint is the first recorded slice.
func (p *BallPath) StartPoint() BallSlice {
	return p.slices[0]
}

// EndPoint is the last recorded slice.
func (p *BallPath) EndPoint() BallSlice {
	return p.slices[len(p.slices)-1]
}

// MotionAt resamples the path at time t by linear interpolation between the
// bracketing slices. The second result is false outside the recorded span.
func (p *BallPath) MotionAt(t float64) (BallSlice, bool) {
	first, last := p.StartPoint(), p.EndPoint()
	if t < first.Time || t > last.Time {
		return BallSlice{}, false
	}
	// index of the first slice strictly after t
	next := sort.Search(len(p.slices), func(i int) bool { return p.slices[i].Time > t })
	if next == len(p.slices) {
		return last, true
	}
	if next == 0 {
		return first, true
	}

	cur, nxt := p.slices[next-1], p.slices[next]
	tween := (t - cur.Time) / (nxt.Time - cur.Time)
	return BallSlice{
		Space:    r3.Add(cur.Space, r3.Scale(tween, r3.Sub(nxt.Space, cur.Space))),
		Velocity: r3.Add(r3.Scale(1-tween, cur.Velocity), r3.Scale(tween, nxt.Velocity)),
		Spin:     cur.Spin,
		Time:     t,
	}, true
}

// MotionAfterWallBounce returns the first slice after the n-th wall bounce,
// counting from 1. The second result is false if the path has fewer bounces
// or the bounce lands on the final slice.
func (p *BallPath) MotionAfterWallBounce(n int) (BallSlice, bool) {
	if n <= 0 {
		return BallSlice{}, false
	}
	bounces := 0
	for i := 1; i < len(p.slices); i++ {
		if isWallBounce(p.slices[i-1].Velocity, p.slices[i].Velocity) {
			bounces++
		}
		if bounces == n {
			if i == len(p.slices)-1 {
				return BallSlice{}, false
			}
			return p.slices[i], true
		}
	}
	return BallSlice{}, false
}

func isWallBounce(prev, cur r3.Vec) bool {
	if r3.Norm2(cur) < 0.01 {
		return false
	}
	prevFlat, curFlat := geom.Flatten(prev), geom.Flatten(cur)
	prevSpeed := r2.Norm(prevFlat)
	if prevSpeed == 0 {
		return false
	}
	if r2.Norm(curFlat)/prevSpeed < 0.5 {
		return true
	}
	return r2.Dot(geom.Unit2(prevFlat), geom.Unit2(curFlat)) < 0.95
}

// Landing returns where the ball next bounces off the floor at or after
// time after, with the height snapped to resting ball height. The second
// result is false if no floor bounce is found before the final slice.
func (p *BallPath) Landing(after float64) (BallSlice, bool) {
	for i := 1; i < len(p.slices); i++ {
		cur := p.slices[i]
		if cur.Time < after {
			continue
		}
		prev := p.slices[i-1]
		if !(prev.Velocity.Z < 0 && cur.Velocity.Z > 0) {
			continue
		}
		if i == len(p.slices)-1 {
			return BallSlice{}, false
		}
		// Keep whichever slice sat closer to the floor.
		bounce := cur
		if prev.Space.Z < cur.Space.Z {
			bounce.Space = prev.Space
			bounce.Time = prev.Time
		}
		bounce.Space.Z = arena.BallRadius
		return bounce, true
	}
	return BallSlice{}, false
}
