// Package kick holds the strategies that decide which way a ball should be
// pushed. Each strategy satisfies intercept.KickStrategy.
package kick

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/strikeplanner/internal/arena"
	"github.com/banshee-data/strikeplanner/internal/car"
	"github.com/banshee-data/strikeplanner/internal/geom"
)

// rayLength is far longer than any line across the arena.
const rayLength = 10000.0

// maxBacktrack is the widest angle between the car's approach to the ball
// and the kick direction that still reads as pushing the ball forward.
const maxBacktrack = 3 * math.Pi / 4

// GoalCenter is the center of the goal mouth team defends, on the floor.
func GoalCenter(team car.Team) r3.Vec {
	if team == car.TeamOrange {
		return r3.Vec{Y: arena.BackWall}
	}
	return r3.Vec{Y: -arena.BackWall}
}

// TowardPoint pushes the ball along the ground toward Target.
type TowardPoint struct {
	Target r3.Vec
}

// TowardEnemyGoal aims at the goal the given team attacks.
func TowardEnemyGoal(team car.Team) TowardPoint {
	enemy := car.TeamOrange
	if team == car.TeamOrange {
		enemy = car.TeamBlue
	}
	return TowardPoint{Target: GoalCenter(enemy)}
}

// KickDirection is the flat unit vector from the ball to the target.
func (k TowardPoint) KickDirection(_ car.CarData, ballPosition r3.Vec) (r3.Vec, bool) {
	flat := geom.Flatten(r3.Sub(k.Target, ballPosition))
	if r2.Norm(flat) == 0 {
		return r3.Vec{}, false
	}
	return geom.WithZ(geom.Unit2(flat), 0), true
}

// LooksViable rejects kicks that would have the car turn back on itself.
func (k TowardPoint) LooksViable(c car.CarData, ballPosition r3.Vec) bool {
	dir, ok := k.KickDirection(c, ballPosition)
	if !ok {
		return false
	}
	approach := geom.Flatten(r3.Sub(ballPosition, c.Position))
	if r2.Norm(approach) == 0 {
		return true
	}
	return math.Abs(geom.CorrectionAngle(approach, geom.Flatten(dir))) < maxBacktrack
}

// Impact is where a ray breaks through a surface.
type Impact struct {
	Position r3.Vec
	Normal   r3.Vec
}

// FirstPlaneBreak casts a ray from origin along direction and returns the
// nearest plane it crosses.
func FirstPlaneBreak(origin, direction r3.Vec, planes []geom.Plane) (Impact, bool) {
	segment := r3.Scale(rayLength, geom.Unit(direction))
	closest := math.MaxFloat64
	var (
		impact Impact
		found  bool
	)
	for _, p := range planes {
		spot, ok := geom.PlaneIntersection(p, origin, segment)
		if !ok {
			continue
		}
		if d := r3.Norm2(r3.Sub(spot, origin)); d < closest {
			closest = d
			impact = Impact{Position: spot, Normal: p.Normal}
			found = true
		}
	}
	return impact, found
}

// WallRebound drives the ball square into whichever wall lies ahead of it
// along the car's line through the ball, so it comes straight back off the
// wall.
type WallRebound struct{}

// KickDirection implements intercept.KickStrategy.
func (WallRebound) KickDirection(c car.CarData, ballPosition r3.Vec) (r3.Vec, bool) {
	toBall := geom.Flatten(r3.Sub(ballPosition, c.Position))
	if r2.Norm(toBall) == 0 {
		toBall = geom.Flatten(c.Orientation.Nose)
	}
	hit, ok := FirstPlaneBreak(ballPosition, geom.WithZ(toBall, 0), arena.WallPlanes())
	if !ok {
		return r3.Vec{}, false
	}
	return r3.Scale(-1, hit.Normal), true
}

// LooksViable implements intercept.KickStrategy. Every wall is fair game.
func (WallRebound) LooksViable(car.CarData, r3.Vec) bool { return true }
