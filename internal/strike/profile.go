// Package strike describes the final-approach maneuver styles, the rules that
// pick one for a target, and the per-frame readiness gates for committing to
// the maneuver.
package strike

import (
	"math"

	"github.com/banshee-data/strikeplanner/internal/car"
)

// Style is the closed set of final-approach maneuvers.
type Style string

const (
	StyleChip        Style = "chip"
	StyleJumpHit     Style = "jump_hit"
	StyleDiagonalHit Style = "diagonal_hit"
	StyleSideHit     Style = "side_hit"
	StyleAerial      Style = "aerial"
	StyleCustom      Style = "custom"
)

// Styles lists every style in declaration order.
var Styles = []Style{StyleChip, StyleJumpHit, StyleDiagonalHit, StyleSideHit, StyleAerial, StyleCustom}

// Height and rate thresholds in arena units.
const (
	FlipHitMaxHeight     = 3.2
	NeedsAerialThreshold = car.MashJumpHeight
	JumpHitMaxHeight     = NeedsAerialThreshold
	AerialRiseRate       = 5.0  // units/s climbed during an aerial
	SuperJumpRiseRate    = 11.0 // units/s climbed during a boosted jump
	BoostNeededForAerial = 20.0

	// HoverStrikeMaxHeight is where the straight-on rule switches from the
	// low hover strike to a full aerial.
	HoverStrikeMaxHeight = 10.0

	// fallbackJumpSeconds is used when a jump cannot reach the height alone.
	fallbackJumpSeconds = 0.8
	// noseTiltFactor lowers the height a jump must reach, since the nose
	// tilts up while airborne.
	noseTiltFactor = 0.7
	jumpSpeedBoost = 10.0
	jumpPostDodge  = 0.15
	boostReserve   = 5.0
)

// Profile is one concrete final-approach maneuver. Durations are seconds.
type Profile struct {
	Style Style
	// PreDodgeSeconds is the time between ignition and the dodge.
	PreDodgeSeconds float64
	// PostDodgeSeconds is the time between the dodge and contact.
	PostDodgeSeconds float64
	// SpeedBoost is the extra flat speed gained from the maneuver.
	SpeedBoost float64
	// IsForward is true for straight drive-in approaches whose turn cost can
	// be charged up front. Angled and airborne approaches defer it.
	IsForward bool
}

// NewProfile builds a profile with the forward flag implied by style.
func NewProfile(style Style, preDodge, speedBoost, postDodge float64) Profile {
	return Profile{
		Style:            style,
		PreDodgeSeconds:  preDodge,
		PostDodgeSeconds: postDodge,
		SpeedBoost:       speedBoost,
		IsForward:        style == StyleChip || style == StyleJumpHit,
	}
}

// StrikeDuration is the total time from ignition to contact.
func (p Profile) StrikeDuration() float64 {
	return p.PreDodgeSeconds + p.PostDodgeSeconds
}

// ChipProfile drives straight through the ball with no dodge.
func ChipProfile() Profile {
	return NewProfile(StyleChip, 0, 0, 0)
}

// FlipHitProfile is the straight-on front flip into a low ball.
func FlipHitProfile() Profile {
	return NewProfile(StyleChip, 0, jumpSpeedBoost, jumpPostDodge)
}

// AerialProfile is the default full aerial; its timing is resolved later by
// course correction.
func AerialProfile() Profile {
	return NewProfile(StyleAerial, 0, 0, 0)
}

// CustomProfile builds an arbitrary profile, typically for in-flight strikes.
func CustomProfile(preDodge, postDodge, speedBoost float64, style Style) Profile {
	return NewProfile(style, preDodge, speedBoost, postDodge)
}

func jumpSeconds(height float64) float64 {
	if secs, ok := car.SecondsForMashJumpHeight(height); ok {
		return secs
	}
	return fallbackJumpSeconds
}

// JumpHitProfile is a straight jump into a ball at height.
func JumpHitProfile(height float64) Profile {
	return NewProfile(StyleJumpHit, jumpSeconds(height*noseTiltFactor), jumpSpeedBoost, jumpPostDodge)
}

// DiagonalHitProfile is a jump with a diagonal dodge into a ball at height.
func DiagonalHitProfile(height float64) Profile {
	return NewProfile(StyleDiagonalHit, jumpSeconds(height*noseTiltFactor), jumpSpeedBoost, jumpPostDodge)
}

// SideHitProfile is a jump with a side dodge. The nose does not tilt toward
// the ball, so the full height is used.
func SideHitProfile(height float64) Profile {
	return NewProfile(StyleSideHit, jumpSeconds(height), jumpSpeedBoost, jumpPostDodge)
}

// IsFlipHitAccessible reports whether a front flip reaches height.
func IsFlipHitAccessible(height float64) bool {
	return height <= FlipHitMaxHeight
}

// StraightOnProfile picks the maneuver for a target directly ahead.
func StraightOnProfile(height float64) Profile {
	switch {
	case IsFlipHitAccessible(height):
		return FlipHitProfile()
	case height < JumpHitMaxHeight:
		return JumpHitProfile(height)
	case height > HoverStrikeMaxHeight:
		return AerialProfile()
	default:
		return NewProfile(StyleAerial, 0, jumpSpeedBoost, 0.25)
	}
}

// ProfileFor selects a profile from target height and the approach angle
// (radians in [0, π]) between the car's heading and the target.
func ProfileFor(height, approachAngle float64) Profile {
	if approachAngle < math.Pi/8 {
		return StraightOnProfile(height)
	}
	if height < JumpHitMaxHeight {
		if approachAngle < 3*math.Pi/8 {
			return DiagonalHitProfile(height)
		}
		return SideHitProfile(height)
	}
	return AerialProfile()
}

// BoostNeeded is the supplemental boost a target at height demands.
func BoostNeeded(height float64) float64 {
	if height > NeedsAerialThreshold {
		return BoostNeededForAerial
	}
	return 0
}
