// Package geometry provides the planar joint-angle math used by the form scorers.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// DegenerateAngle is returned when an angle cannot be measured because one of
// the arms has zero length or a coordinate is not finite.
const DegenerateAngle = 0.0

const (
	straightAngle = 180.0
	fullTurn      = 360.0
)

// Angle returns the interior angle at vertex b, in degrees, formed by the rays
// b->a and b->c. The result is always in [0, 180], and DegenerateAngle when
// the angle cannot be measured. Callers that grade the result use Measure.
func Angle(a, b, c r2.Vec) float64 {
	deg, _ := Measure(a, b, c)
	return deg
}

// Measure is Angle with an explicit flag. ok is false when an arm has zero
// length or a coordinate is not finite; the angle is then DegenerateAngle
// and must not be graded.
func Measure(a, b, c r2.Vec) (deg float64, ok bool) {
	if !finite(a) || !finite(b) || !finite(c) {
		return DegenerateAngle, false
	}
	ba := r2.Sub(a, b)
	bc := r2.Sub(c, b)
	if r2.Norm(ba) == 0 || r2.Norm(bc) == 0 {
		return DegenerateAngle, false
	}

	radians := math.Atan2(bc.Y, bc.X) - math.Atan2(ba.Y, ba.X)
	deg = math.Abs(radians * straightAngle / math.Pi)
	if deg > straightAngle {
		deg = fullTurn - deg
	}
	return deg, true
}

// DeviationFromVertical returns the angle in degrees between the segment
// top->bottom and a plumb line hanging from top. Image coordinates grow
// downwards, so "down" is +Y. ok is false when top and bottom coincide.
func DeviationFromVertical(top, bottom r2.Vec) (deg float64, ok bool) {
	plumb := r2.Add(top, r2.Vec{X: 0, Y: 1})
	return Measure(bottom, top, plumb)
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
