// Package arena models the fixed collision geometry of the playing volume:
// floor, side walls, ceiling, beveled corners and back walls.
//
// The plane set is built once at package initialization and never mutated,
// so every query here is safe to call concurrently.
package arena

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// Dimensions in arena units.
const (
	SideWall   = 81.92
	BackWall   = 102.4
	Ceiling    = 40.88
	Gravity    = car.Gravity
	BallRadius = 1.8555

	// CornerBevel is how far the 45° corner walls cut in from where the
	// rectangular corner would be.
	CornerBevel = 11.8

	// GoalExtent is the half-width of the goal mouth.
	GoalExtent = 17.8555

	// bounceRayLength comfortably exceeds any distance inside the arena.
	bounceRayLength = 500.0

	nearWallDistance  = 2.0
	onWallRoofZ       = 0.05
	floorEdgeDistance = 6.0
)

// CornerAngleCenter is where the corner bevel lines meet the axis-aligned
// walls, in the positive quadrant.
var CornerAngleCenter = r2.Vec{X: SideWall - CornerBevel, Y: BackWall - CornerBevel}

var (
	// majorPlanes: floor, side walls, ceiling, then the four corners.
	majorPlanes []geom.Plane
	// backWallPlanes are kept separate so the seam with the corners has no
	// duplicated surfaces.
	backWallPlanes []geom.Plane
	allPlanes      []geom.Plane
)

func init() {
	cx, cy := CornerAngleCenter.X, CornerAngleCenter.Y
	majorPlanes = []geom.Plane{
		Floor(),
		geom.NewPlane(r3.Vec{X: 1}, r3.Vec{X: -SideWall}),
		geom.NewPlane(r3.Vec{X: -1}, r3.Vec{X: SideWall}),
		geom.NewPlane(r3.Vec{Z: -1}, r3.Vec{Z: Ceiling}),
		geom.NewPlane(r3.Vec{X: 1, Y: 1}, r3.Vec{X: -cx, Y: -cy}),
		geom.NewPlane(r3.Vec{X: -1, Y: 1}, r3.Vec{X: cx, Y: -cy}),
		geom.NewPlane(r3.Vec{X: 1, Y: -1}, r3.Vec{X: -cx, Y: cy}),
		geom.NewPlane(r3.Vec{X: -1, Y: -1}, r3.Vec{X: cx, Y: cy}),
	}
	backWallPlanes = []geom.Plane{
		geom.NewPlane(r3.Vec{Y: 1}, r3.Vec{Y: -BackWall}),
		geom.NewPlane(r3.Vec{Y: -1}, r3.Vec{Y: BackWall}),
	}
	allPlanes = append(append([]geom.Plane{}, majorPlanes...), backWallPlanes...)
}

// Floor returns the floor plane.
func Floor() geom.Plane {
	return geom.NewPlane(geom.Up, r3.Vec{})
}

// Planes returns every arena plane in search order: floor, side walls,
// ceiling, corners, back walls.
func Planes() []geom.Plane {
	return append([]geom.Plane(nil), allPlanes...)
}

// WallPlanes returns the vertical surfaces: side walls, corners, back walls.
func WallPlanes() []geom.Plane {
	walls := make([]geom.Plane, 0, len(allPlanes))
	for _, p := range allPlanes {
		if p.Normal.Z == 0 {
			walls = append(walls, p)
		}
	}
	return walls
}

// DistanceFromWall is the smallest horizontal margin to a side wall, back
// wall or corner bevel. It is negative outside the playing volume.
func DistanceFromWall(position r3.Vec) float64 {
	ax, ay := math.Abs(position.X), math.Abs(position.Y)
	sideWall := SideWall - ax
	backWall := BackWall - ay
	diagonal := CornerAngleCenter.X + CornerAngleCenter.Y - ax - ay
	return math.Min(math.Min(sideWall, backWall), diagonal)
}

// IsInBounds reports whether position is more than buffer inside the walls.
func IsInBounds(position r3.Vec, buffer float64) bool {
	return DistanceFromWall(position) > buffer
}

// IsInBoundsBall reports whether a ball centered at position is clear of the walls.
func IsInBoundsBall(position r3.Vec) bool {
	return IsInBounds(position, BallRadius)
}

// IsBehindGoalLine reports whether position lies past either back wall.
func IsBehindGoalLine(position r3.Vec) bool {
	return math.Abs(position.Y) > BackWall
}

// NearestPlane returns the plane with the smallest signed distance to
// position. The first plane wins a tie.
func NearestPlane(position r3.Vec) geom.Plane {
	best := allPlanes[0]
	bestDistance := best.Distance(position)
	for _, p := range allPlanes[1:] {
		if d := p.Distance(position); d < bestDistance {
			best, bestDistance = p, d
		}
	}
	return best
}

// BouncePlane returns the first surface a body leaving origin along
// direction would meet. When nothing is hit (zero direction) the floor is
// returned.
func BouncePlane(origin, direction r3.Vec) geom.Plane {
	ray := geom.ScaledToMagnitude(direction, bounceRayLength)
	best := allPlanes[0]
	bestDistance := math.MaxFloat64
	for _, p := range allPlanes {
		hit, ok := geom.PlaneIntersection(p, origin, ray)
		if !ok {
			continue
		}
		d := r3.Norm(r3.Sub(hit, origin))
		if d > 0 && d < bestDistance {
			best, bestDistance = p, d
		}
	}
	return best
}

// IsCarNearWall reports whether the car is within a couple of units of a wall.
func IsCarNearWall(c car.CarData) bool {
	return DistanceFromWall(c.Position) < nearWallDistance
}

// IsCarOnWall reports whether the car is driving on a wall surface.
func IsCarOnWall(c car.CarData) bool {
	return c.HasWheelContact && IsCarNearWall(c) && math.Abs(c.Orientation.Roof.Z) < onWallRoofZ
}

// IsNearFloorEdge reports whether position is outside the goal mouth and
// close to where the floor curves up into a side wall.
func IsNearFloorEdge(position r3.Vec) bool {
	return math.Abs(position.X) > GoalExtent && DistanceFromWall(position)+position.Z < floorEdgeDistance
}
