// Package carpredict models how far a car can travel in a given time: a
// sampled distance/speed curve built by forward-integrating the car's
// acceleration, and queries over that curve that account for the final
// strike maneuver.
package carpredict

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/strikeplanner/internal/strike"
)

// DistanceTimeSpeed is one point of motion: flat distance covered, elapsed
// seconds and speed at that moment.
type DistanceTimeSpeed struct {
	Distance float64
	Time     float64
	Speed    float64
}

// DistancePlot is the reachable-distance curve of one car snapshot. It is
// immutable once built.
type DistancePlot struct {
	samples []DistanceTimeSpeed

	distanceByTime interp.PiecewiseLinear
	speedByTime    interp.PiecewiseLinear
	timeByDistance interp.PiecewiseLinear
}

var errTooFewSamples = errors.New("distance plot needs at least two samples")

// NewDistancePlot builds a plot from samples ordered by strictly increasing
// time, starting at elapsed time zero.
func NewDistancePlot(samples []DistanceTimeSpeed) (*DistancePlot, error) {
	if len(samples) < 2 {
		return nil, errTooFewSamples
	}
	if samples[0].Time != 0 {
		return nil, fmt.Errorf("distance plot must start at time 0, got %.3f", samples[0].Time)
	}

	times := make([]float64, len(samples))
	distances := make([]float64, len(samples))
	speeds := make([]float64, len(samples))
	for i, s := range samples {
		if i > 0 {
			if s.Time <= samples[i-1].Time {
				return nil, fmt.Errorf("sample %d: time %.4f not after %.4f", i, s.Time, samples[i-1].Time)
			}
			if s.Distance < samples[i-1].Distance {
				return nil, fmt.Errorf("sample %d: distance decreases", i)
			}
		}
		times[i], distances[i], speeds[i] = s.Time, s.Distance, s.Speed
	}

	p := &DistancePlot{samples: append([]DistanceTimeSpeed(nil), samples...)}
	if err := p.distanceByTime.Fit(times, distances); err != nil {
		return nil, fmt.Errorf("fit distance: %w", err)
	}
	if err := p.speedByTime.Fit(times, speeds); err != nil {
		return nil, fmt.Errorf("fit speed: %w", err)
	}

	// The inverse only uses samples where the car actually moved.
	invD := []float64{distances[0]}
	invT := []float64{times[0]}
	for i := 1; i < len(samples); i++ {
		if distances[i] > invD[len(invD)-1] {
			invD = append(invD, distances[i])
			invT = append(invT, times[i])
		}
	}
	if len(invD) < 2 {
		// A car that never moves can only reach zero distance.
		invD = append(invD, invD[0]+1e-9)
		invT = append(invT, times[len(times)-1])
	}
	if err := p.timeByDistance.Fit(invD, invT); err != nil {
		return nil, fmt.Errorf("fit inverse: %w", err)
	}
	return p, nil
}

// Samples returns a copy of the underlying samples.
func (p *DistancePlot) Samples() []DistanceTimeSpeed {
	return append([]DistanceTimeSpeed(nil), p.samples...)
}

// Horizon is the longest elapsed time the plot answers for.
func (p *DistancePlot) Horizon() float64 {
	return p.samples[len(p.samples)-1].Time
}

// StartSpeed is the car's speed at elapsed time zero.
func (p *DistancePlot) StartSpeed() float64 {
	return p.samples[0].Speed
}

// MaxDistance is the distance covered by the horizon.
func (p *DistancePlot) MaxDistance() float64 {
	return p.samples[len(p.samples)-1].Distance
}

// MotionAfterDuration returns the motion after driving flat out for seconds.
// Non-positive durations give zero distance at the starting speed. The second
// result is false past the horizon.
func (p *DistancePlot) MotionAfterDuration(seconds float64) (DistanceTimeSpeed, bool) {
	if seconds <= 0 {
		return DistanceTimeSpeed{Time: 0, Speed: p.StartSpeed()}, true
	}
	if seconds > p.Horizon() {
		return DistanceTimeSpeed{}, false
	}
	return DistanceTimeSpeed{
		Distance: p.distanceByTime.Predict(seconds),
		Time:     seconds,
		Speed:    p.speedByTime.Predict(seconds),
	}, true
}

// MotionAfterStrike returns the motion after seconds when the last part of
// that time is spent on the strike maneuver. The car drives flat out until
// the strike starts, holds its approach speed until the dodge and gains the
// profile's speed boost after it, never passing MaxSpeed. A strike longer
// than the available time is cut short.
func (p *DistancePlot) MotionAfterStrike(seconds float64, profile strike.Profile) (DistanceTimeSpeed, bool) {
	strikeSeconds := profile.StrikeDuration()
	driveSeconds := seconds - strikeSeconds
	approach, ok := p.MotionAfterDuration(driveSeconds)
	if !ok {
		return DistanceTimeSpeed{}, false
	}
	if strikeSeconds <= 0 || seconds <= 0 {
		return approach, true
	}

	remaining := seconds - approach.Time
	pre := min(profile.PreDodgeSeconds, remaining)
	post := min(profile.PostDodgeSeconds, remaining-pre)

	speed := approach.Speed
	distance := approach.Distance + speed*pre
	if post > 0 {
		speed = math.Min(speed+profile.SpeedBoost, MaxSpeed)
		distance += speed * post
	}
	return DistanceTimeSpeed{Distance: distance, Time: seconds, Speed: speed}, true
}

// MotionAfterDistance is the inverse query: the motion at the moment the car
// has covered distance. The second result is false when the plot never gets
// that far.
func (p *DistancePlot) MotionAfterDistance(distance float64) (DistanceTimeSpeed, bool) {
	if distance <= 0 {
		return DistanceTimeSpeed{Speed: p.StartSpeed()}, true
	}
	if distance > p.MaxDistance() {
		return DistanceTimeSpeed{}, false
	}
	t := p.timeByDistance.Predict(distance)
	return DistanceTimeSpeed{
		Distance: distance,
		Time:     t,
		Speed:    p.speedByTime.Predict(t),
	}, true
}
