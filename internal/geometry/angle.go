// Package geometry provides joint-angle helpers over normalized 2-D points.
package geometry

import "math"

// Point is a 2-D point in normalized frame coordinates.
type Point struct {
	X float64
	Y float64
}

// Angle returns the angle at vertex between the rays to a and b, in degrees,
// in [0, 360). Coincident points are not rejected; the result is then
// deterministic but meaningless.
func Angle(a, vertex, b Point) float64 {
	rad := math.Atan2(b.Y-vertex.Y, b.X-vertex.X) - math.Atan2(a.Y-vertex.Y, a.X-vertex.X)
	deg := rad * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// Interior folds Angle into [0, 180] so the result does not depend on which
// way the subject faces.
func Interior(a, vertex, b Point) float64 {
	deg := Angle(a, vertex, b)
	if deg > 180 {
		return 360 - deg
	}
	return deg
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
