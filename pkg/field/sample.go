package field

import (
	"math"

	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/driftvel"
	"github.com/mjdsim/gedet/pkg/geometry"
	"github.com/mjdsim/gedet/pkg/grid"
)

// Sampler exposes the two "consumed from fields module" operations
// spec.md S6 names: drift_velocity and wpotential, implemented as
// bilinear interpolation over the converged bias/weighting grids.
type Sampler struct {
	Bias, Weighting *grid.Grid
	Velocities      *driftvel.Table
}

// NewSampler builds a Sampler from a completed Result and a loaded
// drift-velocity table.
func NewSampler(res *Result, vel *driftvel.Table) *Sampler {
	return &Sampler{Bias: res.Bias, Weighting: res.Weighting, Velocities: vel}
}

// DriftVelocity returns the drift velocity at pt for a carrier of
// charge sign q, by interpolating the bias grid's E field and looking
// it up in the velocity table. Returns a wrapped detecterr.ErrOutsideDetector
// if pt falls outside the tabulated field grid, matching spec.md S4.5
// step 1's "drift_velocity fails" status.
func (s *Sampler) DriftVelocity(pt geometry.Point, q float64) (driftvel.Vector, error) {
	e, err := interpolateField(s.Bias, pt)
	if err != nil {
		return driftvel.Vector{}, err
	}
	return s.Velocities.Velocity(e, q)
}

// Wpotential returns the weighting potential at pt, in [0,1].
func (s *Sampler) Wpotential(pt geometry.Point) (float64, error) {
	return interpolateScalar(s.Weighting, pt)
}

// interpolateField bilinearly interpolates (E_r, E_z) at pt from g's
// per-cell central-difference estimate.
func interpolateField(g *grid.Grid, pt geometry.Point) (driftvel.Vector, error) {
	z0, r0, tz, tr, err := cellFraction(g, pt)
	if err != nil {
		return driftvel.Vector{}, err
	}
	dcm := 0.1 * g.Step
	v := g.Old()

	erAt := func(z, r int) float64 { return centralDiffR(v, g, z, r, dcm) }
	ezAt := func(z, r int) float64 { return centralDiffZ(v, g, z, r, dcm) }

	z1, r1 := clampIdx(z0+1, g.L), clampIdx(r0+1, g.R)
	er := bilinear(erAt(z0, r0), erAt(z0, r1), erAt(z1, r0), erAt(z1, r1), tz, tr)
	ez := bilinear(ezAt(z0, r0), ezAt(z0, r1), ezAt(z1, r0), ezAt(z1, r1), tz, tr)
	return driftvel.Vector{R: er, Z: ez}, nil
}

func interpolateScalar(g *grid.Grid, pt geometry.Point) (float64, error) {
	z0, r0, tz, tr, err := cellFraction(g, pt)
	if err != nil {
		return 0, err
	}
	v := g.Old()
	z1, r1 := clampIdx(z0+1, g.L), clampIdx(r0+1, g.R)
	return bilinear(v[g.Idx(z0, r0)], v[g.Idx(z0, r1)], v[g.Idx(z1, r0)], v[g.Idx(z1, r1)], tz, tr), nil
}

func cellFraction(g *grid.Grid, pt geometry.Point) (z0, r0 int, tz, tr float64, err error) {
	zf := pt.Z / g.Step
	rf := pt.R / g.Step
	if zf < 0 || zf > float64(g.L) || rf < 0 || rf > float64(g.R) {
		return 0, 0, 0, 0, detecterr.ErrOutsideDetector
	}
	z0 = int(math.Floor(zf))
	r0 = int(math.Floor(rf))
	tz = zf - float64(z0)
	tr = rf - float64(r0)
	return z0, r0, tz, tr, nil
}

func clampIdx(i, max int) int {
	if i > max {
		return max
	}
	return i
}

func bilinear(v00, v01, v10, v11, tz, tr float64) float64 {
	top := v00*(1-tr) + v01*tr
	bot := v10*(1-tr) + v11*tr
	return top*(1-tz) + bot*tz
}
