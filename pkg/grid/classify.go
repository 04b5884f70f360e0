package grid

import "math"

// SolveMode selects which boundary values the classifier pins: the bias
// solve (field grid, space charge active) or the weighting-potential
// solve (PC=1, outer=0, no space charge, with pinched-cell handling).
type SolveMode int

const (
	BiasSolve SolveMode = iota
	WeightingSolve
)

// ClassifyParams carries the geometry-in-grid-units values the
// classifier needs, all as counts of grid steps (not mm), per spec.md
// S4.1.
type ClassifyParams struct {
	L, R int // crystal extent in grid steps
	LC   int // PC length in grid steps
	RC   int // PC radius in grid steps
	LT   int // taper length in grid steps
	RO   int // outer radius in grid steps (== R, kept distinct for the wrap-around rule)
	LO   int // ditch depth in grid steps
	WO   int // ditch thickness in grid steps
	DRC  float64
	DLC  float64

	Bias float64 // already sign-normalized
}

// Classify fills g.Cells for the bias (field) solve: outer HV contact,
// point-contact interior, vacuum ditch, sub-pixel PC edges, and bulk.
// Grounded on original_source/mjd_fieldgen.c lines 305-372.
func Classify(g *Grid, p ClassifyParams) {
	classify(g, p, BiasSolve)
}

// ClassifyWeighting fills g.Cells for the weighting-potential solve:
// the same boundary geometry with PC pinned to 1 and the outer contact
// pinned to 0, plus Pinched cells drawn from an undepleted map computed
// by the prior bias solve. When this grid's resolution is coarser than
// the map's, the caller passes gridfact = round(thisGrid/mapGrid) and
// cell (z, r) reads map entry (z*gridfact, r*gridfact)
// (SUPPLEMENTED FEATURES item 2).
func ClassifyWeighting(g *Grid, p ClassifyParams, undepleted []bool, mapStride, gridfact int) {
	classify(g, p, WeightingSolve)
	if undepleted == nil {
		return
	}
	if gridfact < 1 {
		gridfact = 1
	}
	for z := 0; z <= g.L; z++ {
		for r := 0; r <= g.R; r++ {
			i := g.Idx(z, r)
			if g.Cells[i].Kind != Bulk {
				continue
			}
			mz := z * gridfact
			mr := r * gridfact
			mi := mz*mapStride + mr
			if mi >= 0 && mi < len(undepleted) && undepleted[mi] {
				g.Cells[i] = Cell{Kind: Pinched}
			}
		}
	}
}

func classify(g *Grid, p ClassifyParams, mode SolveMode) {
	outerValue, pcValue := p.Bias, 0.0
	if mode == WeightingSolve {
		outerValue, pcValue = 0.0, 1.0
	}

	for z := 0; z <= g.L; z++ {
		for r := 0; r <= g.R; r++ {
			i := g.Idx(z, r)

			switch {
			case isOuterContact(z, r, p):
				g.SetFixed(z, r, outerValue)
				continue
			case z <= p.LC && r <= p.RC:
				g.SetFixed(z, r, pcValue)
				continue
			}

			cell := Cell{Kind: Bulk}
			ditch := inDitch(z, r, p)

			if fRC, ok := radialEdge(z, r, p); ok {
				cell.Kind = EdgeR
				cell.FRC = fRC
				// Cells on the sub-pixel radial PC edge also reduce
				// their vfraction by 2|dRC| (spec.md S4.1;
				// mjd_fieldgen.c: vfraction[z][r] *= -2.0*dRC).
				g.VFraction[i] *= 2.0 * math.Abs(p.DRC)
			}
			if flc, ok := axialEdge(z, r, p); ok {
				if cell.Kind == EdgeR {
					cell.Kind = EdgeCorner
				} else {
					cell.Kind = EdgeZ
				}
				cell.FLC = flc
			}

			g.Cells[i] = cell
			if ditch {
				g.Eps[i] = 1.0
				g.VFraction[i] = 0.0
			}
		}
	}
}

func isOuterContact(z, r int, p ClassifyParams) bool {
	if z == p.L || r == p.R {
		return true
	}
	if p.LT > 0 && r >= z+p.R-p.LT {
		return true
	}
	if z == 0 && r >= p.RO {
		return true
	}
	return false
}

func inDitch(z, r int, p ClassifyParams) bool {
	if p.LO <= 0 || p.WO <= 0 {
		return false
	}
	return z < p.LO && r > p.RO-p.WO-1 && r < p.RO
}

// radialEdge reports whether (z, r) sits on the sub-pixel radial PC
// edge and, if so, its edge interpolation weight fRC. The caller
// separately reduces vfraction by 2|dRC| for these cells.
func radialEdge(z, r int, p ClassifyParams) (fRC float64, ok bool) {
	if math.Abs(p.DRC) < 0.05 {
		return 0, false
	}
	if p.DRC < 0 && r == p.RC {
		return -1.0 / p.DRC, true
	}
	if p.DRC > 0 && r == p.RC+1 {
		return 1.0 / (1.0 - p.DRC), true
	}
	return 0, false
}

func axialEdge(z, r int, p ClassifyParams) (fLC float64, ok bool) {
	if math.Abs(p.DLC) < 0.05 {
		return 0, false
	}
	if p.DLC < 0 && z == p.LC {
		return -1.0 / p.DLC, true
	}
	if p.DLC > 0 && z == p.LC+1 {
		return 1.0 / (1.0 - p.DLC), true
	}
	return 0, false
}
