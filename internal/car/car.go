// Package car holds the per-frame kinematic snapshot of a car and the small
// maneuver model (jump timing, skid detection, steering angles) that the
// strike planner consumes.
package car

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/geom"
)

// Team identifies which goal a car defends.
type Team string

const (
	TeamBlue   Team = "blue"
	TeamOrange Team = "orange"
)

// Orientation is the car's body frame expressed in world coordinates.
type Orientation struct {
	Nose  r3.Vec // forward
	Roof  r3.Vec // up out of the roof
	Right r3.Vec
}

// NewOrientation builds an orthonormal body frame from a nose and roof
// direction. The roof is re-orthogonalized against the nose.
func NewOrientation(nose, roof r3.Vec) Orientation {
	n := geom.Unit(nose)
	rf := geom.Unit(geom.ProjectToPlane(roof, n))
	return Orientation{
		Nose:  n,
		Roof:  rf,
		Right: r3.Cross(n, rf),
	}
}

// FlatOrientation is an upright car facing along the given ground direction.
func FlatOrientation(facing r3.Vec) Orientation {
	facing.Z = 0
	return NewOrientation(facing, geom.Up)
}

// CarData is the snapshot of one car for one simulation frame.
type CarData struct {
	PlayerIndex     int
	Team            Team
	Position        r3.Vec
	Velocity        r3.Vec
	Spin            r3.Vec
	Orientation     Orientation
	Boost           float64 // 0..100
	HasWheelContact bool
	Time            float64 // seconds
}

// CarSlice is the reduced kinematic state used by predictive models.
type CarSlice struct {
	Space       r3.Vec
	Velocity    r3.Vec
	Time        float64
	Orientation Orientation
}

// SliceOf extracts the kinematic slice of a car snapshot.
func SliceOf(c CarData) CarSlice {
	return CarSlice{
		Space:       c.Position,
		Velocity:    c.Velocity,
		Time:        c.Time,
		Orientation: c.Orientation,
	}
}

// ForwardSpeed is the velocity component along the nose.
func (c CarData) ForwardSpeed() float64 {
	return r3.Dot(c.Velocity, c.Orientation.Nose)
}
