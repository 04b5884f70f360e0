package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseParams(L, R, LC, RC int) ClassifyParams {
	return ClassifyParams{L: L, R: R, LC: LC, RC: RC, RO: R, Bias: 100}
}

func TestClassifyOuterContactPinned(t *testing.T) {
	g := New(10, 10, 1.0)
	Classify(g, baseParams(10, 10, 2, 2))
	assert.Equal(t, FixedContact, g.Cells[g.Idx(10, 5)].Kind)
	assert.Equal(t, 100.0, g.Cells[g.Idx(10, 5)].Fixed)
	assert.Equal(t, FixedContact, g.Cells[g.Idx(5, 10)].Kind)
}

func TestClassifyPointContactPinned(t *testing.T) {
	g := New(10, 10, 1.0)
	Classify(g, baseParams(10, 10, 2, 2))
	assert.Equal(t, FixedContact, g.Cells[g.Idx(1, 1)].Kind)
	assert.Equal(t, 0.0, g.Cells[g.Idx(1, 1)].Fixed)
}

func TestClassifyWeightingPinsOppositeValues(t *testing.T) {
	g := New(10, 10, 1.0)
	p := baseParams(10, 10, 2, 2)
	classify(g, p, WeightingSolve)
	assert.Equal(t, 0.0, g.Cells[g.Idx(10, 5)].Fixed)
	assert.Equal(t, 1.0, g.Cells[g.Idx(1, 1)].Fixed)
}

func TestClassifyBulkInterior(t *testing.T) {
	g := New(10, 10, 1.0)
	Classify(g, baseParams(10, 10, 2, 2))
	assert.Equal(t, Bulk, g.Cells[g.Idx(5, 5)].Kind)
}

func TestRadialEdgeWeight(t *testing.T) {
	p := baseParams(10, 10, 2, 2)
	p.DRC = -0.2
	f, ok := radialEdge(5, 2, p)
	assert.True(t, ok)
	assert.InDelta(t, 5.0, f, 1e-9)
}

func TestRadialEdgeBelowThresholdSkipped(t *testing.T) {
	p := baseParams(10, 10, 2, 2)
	p.DRC = 0.01
	_, ok := radialEdge(5, 2, p)
	assert.False(t, ok)
}

func TestClassifyReducesVFractionOnRadialEdge(t *testing.T) {
	g := New(10, 10, 1.0)
	for i := range g.VFraction {
		g.VFraction[i] = 1.0
	}
	p := baseParams(10, 10, 2, 2)
	p.DRC = -0.2
	Classify(g, p)

	i := g.Idx(5, 2)
	assert.Equal(t, EdgeR, g.Cells[i].Kind)
	assert.InDelta(t, 0.4, g.VFraction[i], 1e-9, "vfraction should be reduced by 2|dRC| on the radial edge")
}

func TestClassifyWeightingDownsamplesUndepletedMap(t *testing.T) {
	g := New(4, 4, 2.0)
	p := baseParams(4, 4, 1, 1)
	mapStride := 9
	undepleted := make([]bool, mapStride*9)
	undepleted[2*mapStride+4] = true // finest-grid (z=2,r=4) region flagged

	ClassifyWeighting(g, p, undepleted, mapStride, 2)
	assert.Equal(t, Pinched, g.Cells[g.Idx(1, 2)].Kind)
}
