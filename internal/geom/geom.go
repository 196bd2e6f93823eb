// Package geom holds the small vector vocabulary shared by the strike
// planner: positions paired with time, planes, and flat (ground-projected)
// measurements. Vectors are gonum r3/r2 values.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Up is the world up axis.
var Up = r3.Vec{Z: 1}

// SpaceTime is a position paired with an absolute simulation time (seconds).
type SpaceTime struct {
	Space r3.Vec
	Time  float64
}

// Plane is a surface described by a unit normal and any point on it.
type Plane struct {
	Normal   r3.Vec
	Position r3.Vec
}

// NewPlane builds a plane, normalizing the supplied normal.
func NewPlane(normal, position r3.Vec) Plane {
	return Plane{Normal: Unit(normal), Position: position}
}

// Distance returns the signed distance from the plane to p. Points on the
// normal side are positive.
func (p Plane) Distance(point r3.Vec) float64 {
	return r3.Dot(r3.Sub(point, p.Position), p.Normal)
}

// PlaneIntersection returns where the segment from origin to origin+segment
// crosses the plane. The second result is false when the segment is parallel
// to the plane or does not reach it.
func PlaneIntersection(plane Plane, origin, segment r3.Vec) (r3.Vec, bool) {
	denom := r3.Dot(plane.Normal, segment)
	if math.Abs(denom) < 1e-9 {
		return r3.Vec{}, false
	}
	t := r3.Dot(plane.Normal, r3.Sub(plane.Position, origin)) / denom
	if t < 0 || t > 1 {
		return r3.Vec{}, false
	}
	return r3.Add(origin, r3.Scale(t, segment)), true
}

// Unit returns v scaled to length one, or the zero vector when v has no length.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// ScaledToMagnitude returns v pointing the same way with the given length.
func ScaledToMagnitude(v r3.Vec, magnitude float64) r3.Vec {
	return r3.Scale(magnitude, Unit(v))
}

// Project returns the component of v along onto.
func Project(v, onto r3.Vec) r3.Vec {
	n2 := r3.Norm2(onto)
	if n2 == 0 {
		return r3.Vec{}
	}
	return r3.Scale(r3.Dot(v, onto)/n2, onto)
}

// ProjectToPlane removes the component of v along normal.
func ProjectToPlane(v, normal r3.Vec) r3.Vec {
	return r3.Sub(v, Project(v, normal))
}

// FlatDistance measures the distance between a and b after projecting out
// the given plane normal. A world-up normal gives ground distance; a wall
// normal gives distance along the wall surface.
func FlatDistance(a, b, normal r3.Vec) float64 {
	return r3.Norm(ProjectToPlane(r3.Sub(b, a), normal))
}

// Flatten drops the z component.
func Flatten(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}

// WithZ lifts a flat vector back into 3D.
func WithZ(v r2.Vec, z float64) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: z}
}

// Unit2 is the flat counterpart of Unit.
func Unit2(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}

// ScaledToMagnitude2 is the flat counterpart of ScaledToMagnitude.
func ScaledToMagnitude2(v r2.Vec, magnitude float64) r2.Vec {
	return r2.Scale(magnitude, Unit2(v))
}

// CorrectionAngle returns the signed angle (radians, in (-π, π]) that rotates
// current onto ideal. Positive is counter-clockwise.
func CorrectionAngle(current, ideal r2.Vec) float64 {
	currentRad := math.Atan2(current.Y, current.X)
	idealRad := math.Atan2(ideal.Y, ideal.X)
	return WrapAngle(idealRad - currentRad)
}

// WrapAngle folds an angle into (-π, π].
func WrapAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}

// RotateFlat rotates v counter-clockwise by angle radians.
func RotateFlat(v r2.Vec, angle float64) r2.Vec {
	sin, cos := math.Sincos(angle)
	return r2.Vec{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
