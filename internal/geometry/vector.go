package geometry

import "github.com/georepo-validation/internal/domain"

// Vector is a 2D vertex in map units.
type Vector struct {
	X float64
	Y float64
}

// EqualsExact reports whether both coordinate deltas are within tolerance.
// The tolerance is an absolute epsilon in map units; callers pick a value
// appropriate to the coordinate system (typically degrees for EPSG:4326).
func (v Vector) EqualsExact(other Vector, tolerance float64) bool {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx <= tolerance && dy <= tolerance
}

// Point converts the vector to a domain point.
func (v Vector) Point() domain.Point {
	return domain.Point{X: v.X, Y: v.Y}
}
