// Package routing describes how a car gets from where it is to where a strike
// begins: a route made of timed parts, and the pre-kick waypoints that
// synthesize such routes.
package routing

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// RoutePart is one timed leg of a route.
type RoutePart interface {
	Start() r2.Vec
	End() r2.Vec
	Duration() float64
	fmt.Stringer
}

// AccelerationRoutePart drives flat out from From to To.
type AccelerationRoutePart struct {
	From, To r2.Vec
	Seconds  float64
}

func (p AccelerationRoutePart) Start() r2.Vec     { return p.From }
func (p AccelerationRoutePart) End() r2.Vec       { return p.To }
func (p AccelerationRoutePart) Duration() float64 { return p.Seconds }
func (p AccelerationRoutePart) String() string {
	return fmt.Sprintf("accelerate %.1fs", p.Seconds)
}

// TurnRoutePart swings the car around at a point to face a new heading.
type TurnRoutePart struct {
	At      r2.Vec
	Facing  r2.Vec
	Seconds float64
}

func (p TurnRoutePart) Start() r2.Vec     { return p.At }
func (p TurnRoutePart) End() r2.Vec       { return p.At }
func (p TurnRoutePart) Duration() float64 { return p.Seconds }
func (p TurnRoutePart) String() string {
	return fmt.Sprintf("turn %.1fs", p.Seconds)
}

// StrikeRoutePart is the final maneuver from the launch pad into the ball.
type StrikeRoutePart struct {
	From    r2.Vec
	Target  r3.Vec
	Seconds float64
}

func (p StrikeRoutePart) Start() r2.Vec     { return p.From }
func (p StrikeRoutePart) End() r2.Vec       { return r2.Vec{X: p.Target.X, Y: p.Target.Y} }
func (p StrikeRoutePart) Duration() float64 { return p.Seconds }
func (p StrikeRoutePart) String() string {
	return fmt.Sprintf("strike %.2fs", p.Seconds)
}

// Route is an ordered list of parts.
type Route struct {
	parts []RoutePart
}

// NewRoute returns an empty route.
func NewRoute() *Route {
	return &Route{}
}

// WithPart appends part and returns the route for chaining.
func (r *Route) WithPart(part RoutePart) *Route {
	r.parts = append(r.parts, part)
	return r
}

// Parts returns a copy of the parts in order.
func (r *Route) Parts() []RoutePart {
	return append([]RoutePart(nil), r.parts...)
}

// Duration is the total time of all parts.
func (r *Route) Duration() float64 {
	var total float64
	for _, p := range r.parts {
		total += p.Duration()
	}
	return total
}

func (r *Route) String() string {
	names := make([]string, len(r.parts))
	for i, p := range r.parts {
		names[i] = p.String()
	}
	return strings.Join(names, " -> ")
}

// SteerPlan is where to steer right now, plus the route that steering
// follows.
type SteerPlan struct {
	Waypoint r2.Vec
	Route    *Route
}
