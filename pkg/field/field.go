// Package field drives the full field-solver pipeline described in
// spec.md S4.4: bias solve with space charge, the undepleted-region
// map, the weighting-potential solve, the two capacitance estimates,
// and E-field export by central differences. Grounded on
// original_source/mjd_fieldgen.c's main() control flow.
package field

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mjdsim/gedet/internal/consts"
	"github.com/mjdsim/gedet/pkg/config"
	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/geometry"
	"github.com/mjdsim/gedet/pkg/grid"
)

// UndepletedMap records, for one grid resolution, which cells the bias
// solve found undepleted ('*') or pinched off from the contact ('B').
// Grounded on mjd_fieldgen.c's char undepleted[R+1][L+1] array
// (lines 460-493).
type UndepletedMap struct {
	L, R   int
	Stride int // L+1
	Marks  []byte // '.' depleted, '*' undepleted, 'B' pinch-off, indexed r*Stride+z
}

func newUndepletedMap(L, R int) *UndepletedMap {
	m := &UndepletedMap{L: L, R: R, Stride: L + 1}
	m.Marks = make([]byte, (R+1)*m.Stride)
	for i := range m.Marks {
		m.Marks[i] = '.'
	}
	return m
}

func (m *UndepletedMap) idx(z, r int) int { return r*m.Stride + z }

func (m *UndepletedMap) set(z, r int, mark byte) { m.Marks[m.idx(z, r)] = mark }

// Pinched reports whether (z, r) is flagged undepleted or pinch-off —
// the predicate ClassifyWeighting consults to build Pinched cells.
func (m *UndepletedMap) Pinched(z, r int) bool {
	c := m.Marks[m.idx(z, r)]
	return c == '*' || c == 'B'
}

// AsBoolSlice renders the map as the []bool grid.ClassifyWeighting
// expects, indexed by z*stride+r to match grid.Grid's own layout.
func (m *UndepletedMap) AsBoolSlice() (flags []bool, stride int) {
	stride = m.R + 1
	flags = make([]bool, (m.L+1)*stride)
	for z := 0; z <= m.L; z++ {
		for r := 0; r <= m.R; r++ {
			flags[z*stride+r] = m.Pinched(z, r)
		}
	}
	return flags, stride
}

// Lines renders the map in the original tool's '.'/'*'/'B' text format,
// one line per r, for undepleted.txt.
func (m *UndepletedMap) Lines() []string {
	lines := make([]string, m.R+1)
	for r := 0; r <= m.R; r++ {
		buf := make([]byte, m.L+1)
		for z := 0; z <= m.L; z++ {
			buf[z] = m.Marks[m.idx(z, r)]
		}
		lines[r] = string(buf)
	}
	return lines
}

// stepGeometry describes the detector in grid-step units at a particular
// grid resolution, derived from a physical geometry.Geometry and a
// config.Config's impurity/PC/ditch parameters.
type stepGeometry struct {
	grid.ClassifyParams
}

func toStepGeometry(g geometry.Geometry, cfg *config.Config, step float64) stepGeometry {
	round := func(mm float64) int { return int(mm/step + 0.5) }
	p := grid.ClassifyParams{
		L:  round(g.XtalLength),
		R:  round(g.XtalRadius),
		LC: round(g.PCLength),
		RC: round(g.PCRadius),
		RO: round(g.XtalRadius),
	}
	if g.TaperLength > 0 {
		p.LT = round(g.TaperLength)
	}
	if cfg.DitchDepth > 0 {
		p.LO = round(cfg.DitchDepth)
		p.WO = round(cfg.DitchThickness)
	}
	p.DRC = g.PCRadius/step - float64(p.RC)
	p.DLC = g.PCLength/step - float64(p.LC)
	return stepGeometry{p}
}

// Solver owns the logger and verbosity gate used across a solve run.
type Solver struct {
	Log       *log.Logger
	Verbosity config.Verbosity
}

// NewSolver builds a Solver that writes to the given logger at the
// given verbosity, mirroring the teacher's direct-to-stdout diagnostic style.
func NewSolver(out *log.Logger, v config.Verbosity) *Solver {
	return &Solver{Log: out, Verbosity: v}
}

func (s *Solver) tellNormal(format string, args ...interface{}) {
	if s.Verbosity >= config.Normal {
		s.Log.Printf(format, args...)
	}
}

func (s *Solver) tellChatty(format string, args ...interface{}) {
	if s.Verbosity >= config.Chatty {
		s.Log.Printf(format, args...)
	}
}

// Result bundles everything the orchestrator and exporters need after
// a full field-solver pipeline run.
type Result struct {
	Bias         *grid.Grid
	Weighting    *grid.Grid
	Step         float64 // finest grid spacing, mm
	Undepleted   *UndepletedMap // coarsest-level snapshot, for undepleted.txt
	Capacitance  float64        // pF, volume-integral estimate
	CapacitanceP float64        // pF, perimeter estimate (fully-depleted only)
	FullyDepleted bool
	BubbleVoltage float64
	NType        bool
}

// Solve runs the complete pipeline: bias solve with space charge,
// undepleted-map capture, weighting-potential solve, and the two
// capacitance estimates.
func (s *Solver) Solve(geom geometry.Geometry, cfg *config.Config) (*Result, error) {
	bias, impurityZ0, impurityGrad := cfg.NormalizedBias()
	levels := grid.Levels(geom.XtalLength, geom.XtalRadius, cfg.XtalGrid)

	biasGrid, coarseMap, fineMap, bubbleV, err := s.solveBiasLadder(geom, cfg, levels, bias, impurityZ0, impurityGrad)
	if err != nil {
		return nil, err
	}

	wpGrid, err := s.solveWeightingLadder(geom, cfg, levels, fineMap)
	if err != nil {
		return nil, err
	}

	cap1, cap2, fullyDepleted := capacitance(wpGrid, toStepGeometry(geom, cfg, cfg.XtalGrid).ClassifyParams)

	return &Result{
		Bias: biasGrid, Weighting: wpGrid, Step: cfg.XtalGrid,
		Undepleted: coarseMap, Capacitance: cap1, CapacitanceP: cap2,
		FullyDepleted: fullyDepleted, BubbleVoltage: bubbleV, NType: cfg.IsNType(),
	}, nil
}

func (s *Solver) solveBiasLadder(geom geometry.Geometry, cfg *config.Config, levels []float64, bias, z0, grad float64) (finest *grid.Grid, coarseMap, fineMap *UndepletedMap, bubbleV float64, err error) {
	maxIts := cfg.MaxIterations
	var prev *grid.Grid

	for istep, step := range levels {
		sg := toStepGeometry(geom, cfg, step)
		sg.Bias = bias
		g := grid.New(sg.L, sg.R, step)
		fillUniformEps(g, consts.EpsilonGe)
		grid.Classify(g, sg.ClassifyParams)

		if istep == 0 {
			grid.SeedBias(g, bias)
		} else {
			grid.Prolongate(g, prev)
		}

		its := maxIts
		if istep > 0 {
			its /= consts.MaxIterationsShrinkFactor
		}

		mm := 0.1 * grad * step
		um := newUndepletedMap(sg.L, sg.R)
		var res grid.SweepResult
		converged := false
		for it := 0; it < its; it++ {
			res = grid.Sweep(g, grid.SweepParams{Mode: grid.BiasSolve, N0: z0, MM: mm})
			if res.HadBubble && res.BubbleV > bubbleV {
				bubbleV = res.BubbleV
			}
			markUndepleted(um, g, res.Clamped)
			if res.MaxDiff < consts.FieldConvergenceThreshold {
				converged = true
				break
			}
		}
		if !converged {
			s.Log.Printf("warning: %v", fmt.Errorf("%w: bias solve grid level %d (step %.4g mm) after %d iterations, max diff %.3g",
				detecterr.ErrNonconvergence, istep, step, its, res.MaxDiff))
		} else {
			s.tellNormal("bias solve level %d (grid %.4g mm): converged, max diff %.3g", istep, step, res.MaxDiff)
		}

		if istep == 0 {
			coarseMap = um
			s.LogAxisProfile(g)
		}
		fineMap = um
		prev = g
		finest = g
	}

	return finest, coarseMap, fineMap, bubbleV, nil
}

func (s *Solver) solveWeightingLadder(geom geometry.Geometry, cfg *config.Config, levels []float64, fineMap *UndepletedMap) (*grid.Grid, error) {
	maxIts := cfg.MaxIterations
	var prev *grid.Grid
	finestFlags, finestStride := fineMap.AsBoolSlice()
	finestStep := levels[len(levels)-1]

	var finest *grid.Grid
	for istep, step := range levels {
		sg := toStepGeometry(geom, cfg, step)
		g := grid.New(sg.L, sg.R, step)
		fillUniformEps(g, consts.EpsilonGe)

		gridfact := int(step/finestStep + 0.5)
		grid.ClassifyWeighting(g, sg.ClassifyParams, finestFlags, finestStride, gridfact)

		if istep == 0 {
			grid.SeedWeighting(g)
		} else {
			grid.Prolongate(g, prev)
		}

		its := maxIts
		if istep > 0 {
			its /= consts.MaxIterationsShrinkFactor
		}

		var res grid.SweepResult
		converged := false
		for it := 0; it < its; it++ {
			res = grid.Sweep(g, grid.SweepParams{Mode: grid.WeightingSolve})
			if res.MaxDiff < consts.WeightingConvergenceThreshold {
				converged = true
				break
			}
		}
		if !converged {
			s.Log.Printf("warning: %v", fmt.Errorf("%w: weighting solve grid level %d (step %.4g mm) after %d iterations, max diff %.3g",
				detecterr.ErrNonconvergence, istep, step, its, res.MaxDiff))
		} else {
			s.tellNormal("weighting solve level %d (grid %.4g mm): converged, max diff %.3g", istep, step, res.MaxDiff)
		}
		prev = g
		finest = g
	}
	return finest, nil
}

func fillUniformEps(g *grid.Grid, eps float64) {
	for i := range g.Eps {
		g.Eps[i] = eps
		g.EpsR[i] = eps
		g.EpsZ[i] = eps
		g.VFraction[i] = 1.0
	}
}

// markUndepleted flags cells the relaxation pass clamped this sweep —
// to 0 (fully undepleted) or to a bubble value (pinch-off) — as '*',
// matching the original's undepleted[r][z]='*' condition in both the
// <=0 and <min branches (mjd_fieldgen.c). A cell previously marked '*'
// whose potential has since risen clearly above zero is flagged 'B',
// the pinch-off transition.
func markUndepleted(m *UndepletedMap, g *grid.Grid, clamped []bool) {
	v := g.New()
	for z := 0; z <= g.L; z++ {
		for r := 0; r <= g.R; r++ {
			i := g.Idx(z, r)
			if g.VFraction[i] <= 0.45 {
				continue
			}
			switch {
			case clamped[i]:
				m.set(z, r, '*')
			case m.Marks[m.idx(z, r)] == '*' && v[i] > 0.001:
				m.set(z, r, 'B')
			}
		}
	}
}

// LogAxisProfile prints the potential along r=0 and z=0, the
// SUPPLEMENTED-FEATURES axis diagnostic recovered from
// mjd_fieldgen.c lines 510-530.
func (s *Solver) LogAxisProfile(g *grid.Grid) {
	if s.Verbosity < config.Normal {
		return
	}
	s.tellNormal("potential along r=0 axis:")
	for z := 0; z <= g.L; z += max(1, g.L/20) {
		s.tellNormal("  z=%-4d v=%.4f", z, g.At(z, 0))
	}
	s.tellNormal("potential along z=0 axis:")
	for r := 0; r <= g.R; r += max(1, g.R/20) {
		s.tellNormal("  r=%-4d v=%.4f", r, g.At(0, r))
	}
}

// capacitance computes the two estimates from spec.md S4.4 step 4 over
// the converged weighting-potential grid, grounded on
// mjd_fieldgen.c lines 877-908.
func capacitance(g *grid.Grid, p grid.ClassifyParams) (volumeEst, perimeterEst float64, fullyDepleted bool) {
	v := g.Old()
	step := g.Step
	dcm := 0.1 * step // mm to cm

	// Per-cell |grad W|^2 * r and |grad W| * r accumulate row by row,
	// then floats.Sum reduces each row — replacing the original's
	// scalar running-sum accumulation with gonum's vectorized reduction.
	eSq := make([]float64, g.R)
	ePerim := make([]float64, g.R)
	var esum, esum2 float64
	fullyDepleted = true
	for z := 0; z < g.L; z++ {
		for r := 0; r < g.R; r++ {
			i := g.Idx(z, r)
			var er float64
			if r > 0 {
				er = (v[i] - v[g.Idx(z, r+1)]) / dcm
			}
			ez := (v[i] - v[g.Idx(z+1, r)]) / dcm
			eSq[r] = (er*er + ez*ez) * float64(r)

			ePerim[r] = 0
			if (r == p.RC && z <= p.LC) || (r <= p.RC && z == p.LC) {
				ePerim[r] = math.Sqrt(er*er+ez*ez) * float64(r)
			}
			if g.Cells[i].Kind == grid.Pinched {
				fullyDepleted = false
			}
		}
		esum += floats.Sum(eSq)
		esum2 += floats.Sum(ePerim)
	}
	esum *= 2.0 * math.Pi * 0.01 * consts.Epsilon0PFperMM * step * step * step
	esum2 *= 2.0 * math.Pi * consts.Epsilon0PFperMM * step * step * step
	return esum, esum2, fullyDepleted
}
