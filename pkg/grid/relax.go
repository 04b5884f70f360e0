package grid

import "math"

// SweepResult reports the convergence metrics and bias-solve side
// effects of one relaxation sweep.
type SweepResult struct {
	MaxDiff   float64
	SumDiff   float64
	BubbleV   float64 // first overshoot-clamped value seen this sweep, 0 if none
	HadBubble bool
	// Clamped flags, by cell index, every bias-solve cell whose potential
	// was clamped this sweep (to 0 or to a bubble value) — the original's
	// undepleted[r][z]='*' condition, recorded here instead of re-derived
	// from the swept buffer. Only populated in BiasSolve mode.
	Clamped []bool
}

// SweepParams carries the per-sweep constants that depend on solve mode
// and impurity profile (spec.md S4.2).
type SweepParams struct {
	Mode SolveMode
	N0   float64 // impurity concentration at z=0, grid units
	MM   float64 // 0.1 * M * grid, precomputed once per level
}

// Sweep performs one Jacobi-style relaxation pass over every non-fixed
// cell, reading from g.Old() and writing to g.New(), then swaps the
// buffers. Grounded on original_source/mjd_fieldgen.c lines 374-484
// (bias solve) and 747-874 (weighting solve, pinched-cell handling).
func Sweep(g *Grid, p SweepParams) SweepResult {
	old, new_ := g.Old(), g.New()

	var pinchedSumV, pinchedSumEps float64
	var res SweepResult
	if p.Mode == BiasSolve {
		res.Clamped = make([]bool, len(g.Cells))
	}

	for z := 0; z <= g.L; z++ {
		for r := 0; r <= g.R; r++ {
			i := g.Idx(z, r)
			cell := g.Cells[i]
			if cell.Kind == FixedContact {
				new_[i] = old[i]
				continue
			}

			sumEV, sumE := stencilSum(g, old, z, r, cell)

			vMean := sumEV / sumE
			vNew := vMean

			if p.Mode == BiasSolve {
				eOverE := 4.0 * 0.7072 * g.Step * g.Step
				impurity := p.N0 + p.MM*float64(z)
				vNew = vMean + g.VFraction[i]*impurity*eOverE
			}

			if cell.Kind == Pinched {
				pinchedSumV += sumEV
				pinchedSumEps += sumE
				new_[i] = old[i] // placeholder; overwritten below
				continue
			}

			if p.Mode == BiasSolve {
				vNew = clampBias(vNew, minNeighbor(old, g, z, r), &res, i)
			}

			diff := math.Abs(vNew - old[i])
			if diff > res.MaxDiff {
				res.MaxDiff = diff
			}
			res.SumDiff += diff
			new_[i] = vNew
		}
	}

	if pinchedSumEps != 0 {
		pinchedMean := pinchedSumV / pinchedSumEps
		for z := 0; z <= g.L; z++ {
			for r := 0; r <= g.R; r++ {
				i := g.Idx(z, r)
				if g.Cells[i].Kind != Pinched {
					continue
				}
				diff := math.Abs(pinchedMean - old[i])
				if diff > res.MaxDiff {
					res.MaxDiff = diff
				}
				res.SumDiff += diff
				new_[i] = pinchedMean
			}
		}
	}

	g.Swap()
	return res
}

// stencilSum computes the face-weighted neighbor sum and its
// coefficient total for cell (z, r), honoring r=0/z=0 reflection and
// sub-pixel edge interpolation.
func stencilSum(g *Grid, v []float64, z, r int, cell Cell) (sumEV, sumE float64) {
	i := g.Idx(z, r)
	epsR, epsZ := g.EpsR[i], g.EpsZ[i]

	// +z neighbor.
	if z < g.L {
		sumEV += epsZ * v[g.Idx(z+1, r)]
		sumE += epsZ
	}

	// +r neighbor, radial weight s1. fRC applies only to the inner
	// (r-1) term below, never this one (spec.md S4.2;
	// mjd_fieldgen.c's bulk==1 branch leaves the +r term unweighted).
	s1 := g.S1(r)
	if r < g.R {
		sumEV += epsR * s1 * v[g.Idx(z, r+1)]
		sumE += epsR * s1
	}

	// -z neighbor, or reflection at z=0.
	if z > 0 {
		epsZm := g.EpsZ[g.Idx(z-1, r)]
		if cell.Kind == EdgeZ || cell.Kind == EdgeCorner {
			sumEV += epsZm * cell.FLC * v[g.Idx(z-1, r)]
			sumE += epsZm * cell.FLC
		} else {
			sumEV += epsZm * v[g.Idx(z-1, r)]
			sumE += epsZm
		}
	} else {
		// reflecting boundary: mirror z=1 back onto z=0.
		sumEV += epsZ * v[g.Idx(1, r)]
		sumE += epsZ
	}

	// -r neighbor, radial weight s2, or reflection at r=0.
	s2 := g.S2(r)
	if r > 0 {
		epsRm := g.EpsR[g.Idx(z, r-1)]
		if cell.Kind == EdgeR || cell.Kind == EdgeCorner {
			sumEV += epsRm * s2 * cell.FRC * v[g.Idx(z, r-1)]
			sumE += epsRm * s2 * cell.FRC
		} else {
			sumEV += epsRm * s2 * v[g.Idx(z, r-1)]
			sumE += epsRm * s2
		}

		if cell.Kind == EdgeCorner {
			// Corner correction: an EdgeZ cell sitting directly above an
			// EdgeR cell restores both weights with an extra term on the
			// -r contribution (mjd_fieldgen.c's combined bulk==3 case).
			corr := epsRm * s2 * (cell.FRC - 1.0)
			sumEV += corr * v[g.Idx(z, r-1)]
			sumE += corr
		}
	}
	// s2(0) == 0, so the r=0 reflection term naturally vanishes without
	// a special case.

	return sumEV, sumE
}

func minNeighbor(v []float64, g *Grid, z, r int) float64 {
	min := math.Inf(1)
	consider := func(i int) {
		if v[i] < min {
			min = v[i]
		}
	}
	if z < g.L {
		consider(g.Idx(z+1, r))
	}
	if r < g.R {
		consider(g.Idx(z, r+1))
	}
	if z > 0 {
		consider(g.Idx(z-1, r))
	}
	if r > 0 {
		consider(g.Idx(z, r-1))
	}
	return min
}

func clampBias(vNew, minNeighbor float64, res *SweepResult, i int) float64 {
	switch {
	case vNew < 0:
		res.Clamped[i] = true
		return 0
	case vNew < minNeighbor:
		bubble := minNeighbor + 0.1
		if !res.HadBubble {
			res.BubbleV = bubble
			res.HadBubble = true
		}
		res.Clamped[i] = true
		return bubble
	default:
		return vNew
	}
}
