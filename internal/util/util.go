// Package util provides small helpers shared across the robot subsystems.
package util

import "math"

// SpeedTiers holds the three-bucket speed ratio policy used by every
// autonomous movement operation. Remaining distance/time/angle is
// compared against the far and medium thresholds (in the unit native to
// the operation) and the matching ratio is applied to the commanded
// speed, so movement slows as the target approaches.
type SpeedTiers struct {
	FarThreshold    float64
	MediumThreshold float64
	FarRatio        float64
	MediumRatio     float64
	NearRatio       float64
}

// Ratio returns the speed multiplier for the given remaining magnitude.
// The sign of remaining is ignored; the caller owns direction.
func (t SpeedTiers) Ratio(remaining float64) float64 {
	r := math.Abs(remaining)
	switch {
	case r > t.FarThreshold:
		return t.FarRatio
	case r > t.MediumThreshold:
		return t.MediumRatio
	default:
		return t.NearRatio
	}
}

// TieredRatio is the free-function form of SpeedTiers.Ratio.
func TieredRatio(remaining, farThreshold, mediumThreshold, far, medium, near float64) float64 {
	return SpeedTiers{
		FarThreshold:    farThreshold,
		MediumThreshold: mediumThreshold,
		FarRatio:        far,
		MediumRatio:     medium,
		NearRatio:       near,
	}.Ratio(remaining)
}

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RateLimit moves current toward target by at most maxDelta per call.
// Used to smooth teleop acceleration so the robot does not tip.
func RateLimit(current, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return target
	}
	delta := target - current
	if math.Abs(delta) <= maxDelta {
		return target
	}
	if delta < 0 {
		return current - maxDelta
	}
	return current + maxDelta
}
