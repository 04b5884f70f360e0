package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func plainGeometry() Geometry {
	return Geometry{
		XtalLength: 80.0,
		XtalRadius: 35.0,
		PCLength:   1.5,
		PCRadius:   2.5,
	}
}

func TestOutsideDetectorBeyondTopOrBelowZero(t *testing.T) {
	g := plainGeometry()
	assert.True(t, g.OutsideDetector(Point{R: 10, Z: -0.1}))
	assert.True(t, g.OutsideDetector(Point{R: 10, Z: g.XtalLength}))
	assert.False(t, g.OutsideDetector(Point{R: 10, Z: 0}))
}

func TestOutsideDetectorBeyondOuterRadius(t *testing.T) {
	g := plainGeometry()
	assert.True(t, g.OutsideDetector(Point{R: g.XtalRadius + 1, Z: 40}))
	assert.False(t, g.OutsideDetector(Point{R: g.XtalRadius, Z: 40}))
}

func TestOutsideDetectorInsidePointContactVolume(t *testing.T) {
	g := plainGeometry()
	assert.True(t, g.OutsideDetector(Point{R: 1.0, Z: 0.5}))
	assert.False(t, g.OutsideDetector(Point{R: g.PCRadius + 0.1, Z: 0.5}))
	assert.False(t, g.OutsideDetector(Point{R: 1.0, Z: g.PCLength + 0.1}))
}

func TestOutsideDetectorTopBulletCutoff(t *testing.T) {
	g := plainGeometry()
	g.TopBulletRadius = 5.0

	// Near the flat part of the crystal top, well within the bullet band,
	// but still inside the reduced radius: must stay inside.
	inside := Point{R: g.XtalRadius - g.TopBulletRadius, Z: g.XtalLength - 0.5}
	assert.False(t, g.OutsideDetector(inside))

	// Far out in r at the very top z: falls outside the bullet's rounded
	// corner.
	outside := Point{R: g.XtalRadius, Z: g.XtalLength - 0.1}
	assert.True(t, g.OutsideDetector(outside))
}

func TestOutsideDetectorBulletTangentPoint(t *testing.T) {
	g := plainGeometry()
	g.TopBulletRadius = 5.0

	// At dz == br the discriminant is exactly 0, so the allowed radius
	// collapses to XtalRadius-br with no sqrt term added.
	tangentZ := g.XtalLength - g.TopBulletRadius + g.TopBulletRadius
	inside := Point{R: g.XtalRadius - g.TopBulletRadius, Z: tangentZ - 0.01}
	assert.False(t, g.OutsideDetector(inside))
}

func TestOutsideDetectorTaper(t *testing.T) {
	g := plainGeometry()
	g.TaperLength = 10.0

	// At z=0 the taper excludes everything past XtalRadius-TaperLength in r.
	assert.True(t, g.OutsideDetector(Point{R: g.XtalLength, Z: 0}))
	assert.False(t, g.OutsideDetector(Point{R: 10.0, Z: 0}))
}

func TestFromXYZComputesRadius(t *testing.T) {
	pt := FromXYZ(3, 4, 10)
	assert.Equal(t, 5.0, pt.R)
	assert.Equal(t, 10.0, pt.Z)
}
