// Package geometry implements the detector containment predicate the
// field and drift packages treat as an external collaborator
// (spec.md S6): "outside_detector". Grounded on
// original_source/detector_geometry.c.
package geometry

import "math"

// Geometry is the detector's physical envelope, in millimeters.
type Geometry struct {
	XtalLength      float64 // z extent
	XtalRadius      float64 // r extent
	TopBulletRadius float64
	PCRadius        float64
	PCLength        float64
	TaperLength     float64
}

// Point is a cylindrical-coordinate sample point, (r, phi ignored, z).
// Phi is irrelevant because the system is axisymmetric; callers holding
// Cartesian (x, y, z) coordinates convert them with FromXYZ.
type Point struct {
	R float64
	Z float64
}

// FromXYZ builds a cylindrical Point from Cartesian coordinates.
func FromXYZ(x, y, z float64) Point {
	return Point{R: math.Hypot(x, y), Z: z}
}

// OutsideDetector reports whether pt lies outside the physical crystal
// volume: below z=0 or at/above the top, beyond the outer radius, inside
// the top bulletization cutoff, inside the point-contact volume, or
// inside the 45-degree bottom taper.
func (g Geometry) OutsideDetector(pt Point) bool {
	if pt.Z >= g.XtalLength || pt.Z < 0 {
		return true
	}
	if pt.R > g.XtalRadius {
		return true
	}
	br := g.TopBulletRadius
	if br > 0 && pt.Z > g.XtalLength-br {
		dz := pt.Z - (g.XtalLength - br)
		if disc := br*br - dz*dz; disc >= 0 && pt.R > (g.XtalRadius-br)+math.Sqrt(disc) {
			return true
		}
	}
	if g.PCRadius > 0 && pt.Z <= g.PCLength && pt.R <= g.PCRadius {
		return true
	}
	if g.TaperLength > 0 && pt.Z < g.TaperLength && pt.R > g.XtalRadius-g.TaperLength+pt.Z {
		return true
	}
	return false
}
