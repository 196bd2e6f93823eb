package main

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/carpredict"
	"github.com/banshee-data/strikeplanner/internal/geom"
	"github.com/banshee-data/strikeplanner/internal/monitoring"
	"github.com/banshee-data/strikeplanner/internal/physics"
	"github.com/banshee-data/strikeplanner/internal/session"
)

// scenario is the evolving state of one car chasing the ball.
type scenario struct {
	car  car.CarData
	ball physics.BallSlice
}

func scenarioFromFlags() (*scenario, error) {
	bp, err := parseVec(*ballPos)
	if err != nil {
		return nil, fmt.Errorf("-ball-pos: %w", err)
	}
	bv, err := parseVec(*ballVel)
	if err != nil {
		return nil, fmt.Errorf("-ball-vel: %w", err)
	}
	cp, err := parseVec(*carPos)
	if err != nil {
		return nil, fmt.Errorf("-car-pos: %w", err)
	}
	cv, err := parseVec(*carVel)
	if err != nil {
		return nil, fmt.Errorf("-car-vel: %w", err)
	}
	t := car.Team(*team)
	if t != car.TeamBlue && t != car.TeamOrange {
		return nil, fmt.Errorf("-team: unknown team %q", *team)
	}
	return newScenario(t, cp, cv, bp, bv, *boost), nil
}

func newScenario(team car.Team, carPos, carVel, ballPos, ballVel r3.Vec, boost float64) *scenario {
	facing := r3.Sub(ballPos, carPos)
	if r2.Norm(geom.Flatten(carVel)) > 0 {
		facing = carVel
	}
	return &scenario{
		car: car.CarData{
			Team:            team,
			Position:        carPos,
			Velocity:        carVel,
			Orientation:     car.FlatOrientation(facing),
			Boost:           geom.Clamp(boost, 0, 100),
			HasWheelContact: true,
		},
		ball: physics.BallSlice{Space: ballPos, Velocity: ballVel},
	}
}

// run evaluates frames frames dt apart. The ball follows its own predicted
// path; the car drives straight at the current intercept at the speed its
// reachability plot allows. A ball that crosses a goal line is a goal: the
// session is reset and the ball is placed back at kickoff.
func (sc *scenario) run(s *session.Session, frames int, dt float64) (string, error) {
	var (
		first     *session.Decision
		last      *session.Decision
		skipped   int
		evaluated int
		goals     int
	)
	for i := 0; i < frames; i++ {
		d, err := s.Evaluate(session.Frame{Car: sc.car, Ball: sc.ball})
		if err != nil {
			if !session.IsPredictionFailure(err) {
				return "", err
			}
			monitoring.PlayerLogf(sc.car.PlayerIndex, "frame %d skipped: %v", i, err)
			skipped++
			continue
		}
		evaluated++
		if first == nil && d.Feasible() {
			first = d
		}
		last = d
		logDecision(i, d)

		if err := s.Renderer().Flush(); err != nil {
			return "", fmt.Errorf("flush frame %d: %w", i, err)
		}
		if err := sc.advance(d, dt); err != nil {
			return "", fmt.Errorf("advance frame %d: %w", i, err)
		}
		if arena.IsBehindGoalLine(sc.ball.Space) {
			goals++
			monitoring.Logf("goal at t=%.3f, back to kickoff", sc.ball.Time)
			s.Reset()
			sc.ball = kickoff(sc.ball.Time)
		}
	}

	if last == nil {
		return "", errors.New("no frame could be evaluated")
	}
	summary := fmt.Sprintf("evaluated %d frames (%d skipped)", evaluated, skipped)
	if first != nil {
		summary += fmt.Sprintf(", first intercept t=%.3f at (%.1f, %.1f, %.1f) %s",
			first.Intercept.Time, first.Intercept.Space.X, first.Intercept.Space.Y, first.Intercept.Space.Z, first.Intercept.Profile.Style)
	} else {
		summary += ", ball never reachable"
	}
	if goals > 0 {
		summary += fmt.Sprintf(", goals scored: %d", goals)
	}
	return summary, nil
}

// kickoff is the ball at rest on the center spot.
func kickoff(t float64) physics.BallSlice {
	return physics.BallSlice{Space: r3.Vec{Z: arena.BallRadius}, Time: t}
}

func logDecision(frame int, d *session.Decision) {
	if !d.Feasible() {
		monitoring.PlayerLogf(d.PlayerIndex, "frame %d t=%.3f: no intercept", frame, d.Time)
		return
	}
	in := d.Intercept
	line := fmt.Sprintf("frame %d t=%.3f: intercept t=%.3f style=%s boost=%.0f ready=%t",
		frame, d.Time, in.Time, in.Profile.Style, in.AirBoost, d.ReadyToLaunch())
	if d.Plan != nil {
		line += " route=" + d.Plan.Steer.Route.String()
	}
	monitoring.PlayerLogf(d.PlayerIndex, "%s", line)
}

func (sc *scenario) advance(d *session.Decision, dt float64) error {
	next, ok := d.Path.MotionAt(sc.ball.Time + dt)
	if !ok {
		next = d.Path.EndPoint()
		next.Time = sc.ball.Time + dt
	}
	sc.ball = next

	c := &sc.car
	c.Time += dt
	if !d.Feasible() {
		c.Position = r3.Add(c.Position, r3.Scale(dt, c.Velocity))
		return nil
	}

	toTarget := geom.Flatten(r3.Sub(d.Intercept.Space, c.Position))
	motion, ok := d.Intercept.Plot.MotionAfterDuration(dt)
	if !ok {
		return fmt.Errorf("plot shorter than %.3fs", dt)
	}
	if remaining := r2.Norm(toTarget); remaining > 0 {
		heading := geom.Unit2(toTarget)
		c.Position = r3.Add(c.Position, geom.WithZ(r2.Scale(min(motion.Distance, remaining), heading), 0))
		c.Velocity = geom.WithZ(r2.Scale(motion.Speed, heading), 0)
		c.Orientation = car.FlatOrientation(geom.WithZ(heading, 0))
	}
	// The plot boosts until the tank is empty.
	c.Boost = max(c.Boost-dt*carpredict.BoostPerSecond, 0)
	return nil
}
