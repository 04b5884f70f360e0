package drift

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/driftvel"
	"github.com/mjdsim/gedet/pkg/geometry"
)

// uniformField is a synthetic FieldSource for integrator tests: a
// constant drift field pointing toward z=0 (the point contact) with a
// weighting potential that rises linearly from 0 at the outer contact
// to 1 at the point contact.
type uniformField struct {
	geom       geometry.Geometry
	zAtOuter   float64
	driftSpeed float64
}

func (f *uniformField) DriftVelocity(pt geometry.Point, q float64) (driftvel.Vector, error) {
	if f.geom.OutsideDetector(pt) {
		return driftvel.Vector{}, detecterr.ErrOutsideDetector
	}
	sign := 1.0
	if q < 0 {
		sign = -1.0
	}
	return driftvel.Vector{Z: -sign * f.driftSpeed}, nil
}

func (f *uniformField) Wpotential(pt geometry.Point) (float64, error) {
	if f.geom.OutsideDetector(pt) {
		return 0, detecterr.ErrOutsideDetector
	}
	w := 1 - pt.Z/f.zAtOuter
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	return w, nil
}

func testParams(geom geometry.Geometry) Params {
	return Params{
		Geom:   geom,
		Field:  &uniformField{geom: geom, zAtOuter: geom.XtalLength, driftSpeed: 0.05},
		DtCalc: 1.0,
		TCalc:  500,
	}
}

func TestCarrierCollectsToPC(t *testing.T) {
	assert.True(t, Hole.CollectsToPC(false))
	assert.False(t, Electron.CollectsToPC(false))
	assert.True(t, Electron.CollectsToPC(true))
	assert.False(t, Hole.CollectsToPC(true))
}

func TestIntegrateProducesNonzeroSignal(t *testing.T) {
	geom := geometry.Geometry{XtalLength: 20, XtalRadius: 20}
	p := testParams(geom)
	signal := make([]float64, p.TCalc)
	traj := NewTrajectory(p.TCalc)

	out, err := Integrate(p, geometry.Point{R: 5, Z: 15}, Hole, signal, traj)
	require.NoError(t, err)
	assert.Greater(t, out.Steps, 0)
	assert.Greater(t, traj.N, 0)

	var sum float64
	for _, s := range signal {
		sum += s
	}
	assert.NotEqual(t, 0.0, sum)
}

func TestIntegrateOutsideDetectorTerminatesViaTailPhase(t *testing.T) {
	geom := geometry.Geometry{XtalLength: 20, XtalRadius: 20}
	p := testParams(geom)
	signal := make([]float64, p.TCalc)

	out, err := Integrate(p, geometry.Point{R: 5, Z: 19.99}, Hole, signal, nil)
	require.NoError(t, err)
	assert.Greater(t, out.Steps, 0)
}

func TestMakeSignalFailsOnHoleFailureOnly(t *testing.T) {
	geom := geometry.Geometry{XtalLength: 20, XtalRadius: 20}
	p := testParams(geom)
	p.Field = &alwaysFailField{}

	signalCalc := make([]float64, p.TCalc)
	signalOut := make([]float64, 50)

	err := MakeSignal(p, geometry.Point{R: 5, Z: 15}, 50, 30, 10, signalCalc, signalOut, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, detecterr.ErrHoleDriftFailure))
}

type alwaysFailField struct{}

func (alwaysFailField) DriftVelocity(pt geometry.Point, q float64) (driftvel.Vector, error) {
	return driftvel.Vector{}, detecterr.ErrOutsideDetector
}
func (alwaysFailField) Wpotential(pt geometry.Point) (float64, error) { return 0, nil }

func TestIntegrateDiffusionOnlyGrowsForCollectingCarrier(t *testing.T) {
	geom := geometry.Geometry{XtalLength: 20, XtalRadius: 20}
	p := testParams(geom)
	p.UseDiffusion = true
	p.CloudSize0 = 0.1
	p.XtalTempK = 77

	signal := make([]float64, p.TCalc)
	// Hole collects to PC for p-type (IsNType false, the default here).
	holeOut, err := Integrate(p, geometry.Point{R: 5, Z: 15}, Hole, signal, nil)
	require.NoError(t, err)
	assert.Greater(t, holeOut.FinalSigma2, p.CloudSize0*p.CloudSize0,
		"diffusion should grow sigma2 past its seed for the PC-collecting carrier")

	electronOut, err := Integrate(p, geometry.Point{R: 5, Z: 15}, Electron, signal, nil)
	require.NoError(t, err)
	assert.Equal(t, p.CloudSize0*p.CloudSize0, electronOut.FinalSigma2,
		"diffusion accumulation is gated on collects2pc, matching the original")
}

func TestAccumulateChargeCumulativeSum(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	accumulateCharge(s)
	assert.Equal(t, []float64{1, 3, 6, 10}, s)
}

func TestDownsampleAverages(t *testing.T) {
	in := []float64{1, 1, 3, 3, 5, 5}
	out := make([]float64, 3)
	downsample(in, out, 3)
	assert.InDeltaSlice(t, []float64{1, 3, 5}, out, 1e-9)
}

func TestRCIntegrateZeroTauPassesThroughShifted(t *testing.T) {
	in := []float64{10, 20, 30}
	out := make([]float64, 3)
	rcIntegrate(in, out, 0, 10)
	assert.Equal(t, []float64{0, 10, 20}, out)
}

func TestRCIntegrateAliasSafe(t *testing.T) {
	buf := []float64{10, 10, 10, 10}
	rcIntegrate(buf, buf, 30, 10)
	assert.Equal(t, 0.0, buf[0])
	for i := 1; i < len(buf); i++ {
		assert.Greater(t, buf[i], 0.0)
	}
}

func TestRCIntegrateConvergesTowardInput(t *testing.T) {
	in := make([]float64, 200)
	for i := range in {
		in[i] = 5
	}
	out := make([]float64, 200)
	rcIntegrate(in, out, 30, 10)
	assert.InDelta(t, 5.0, out[len(out)-1], 0.1)
}
