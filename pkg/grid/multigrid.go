package grid

import "math"

// Levels computes the multigrid ladder of grid spacings (coarsest
// first, target last) from the crystal's characteristic size, per
// spec.md S4.3. Grounded on original_source/mjd_fieldgen.c lines
// 206-269 (bias solve ladder, reused identically for the WP solve at
// lines 603-635).
func Levels(xtalLength, xtalRadius, targetGrid float64) []float64 {
	c := math.Sqrt(xtalLength * xtalRadius)
	i := 1 + int(math.Floor((c/targetGrid)/100.0))

	switch {
	case i < 2:
		return []float64{targetGrid}
	case i < 6:
		return []float64{float64(i) * targetGrid, targetGrid}
	default:
		j := int(math.Ceil(float64(i) / 5.0))
		i = j * 5 // re-round so both coarser levels are integer multiples of j*target
		return []float64{float64(i) * targetGrid, float64(j) * targetGrid, targetGrid}
	}
}

// Prolongate bilinearly interpolates src's converged potential onto
// dst's "old" buffer. src and dst may have different step sizes but
// must share the same physical extent.
func Prolongate(dst, src *Grid) {
	srcV := src.Old()
	dstV := dst.Old()
	ratioZ := float64(src.L) / float64(dst.L)
	ratioR := float64(src.R) / float64(dst.R)

	for z := 0; z <= dst.L; z++ {
		sz := float64(z) * ratioZ
		z0 := int(math.Floor(sz))
		z1 := z0 + 1
		tz := sz - float64(z0)
		if z1 > src.L {
			z1 = src.L
			tz = 0
		}
		for r := 0; r <= dst.R; r++ {
			i := dst.Idx(z, r)
			if dst.Cells[i].Kind == FixedContact {
				continue
			}
			sr := float64(r) * ratioR
			r0 := int(math.Floor(sr))
			r1 := r0 + 1
			tr := sr - float64(r0)
			if r1 > src.R {
				r1 = src.R
				tr = 0
			}

			v00 := srcV[src.Idx(z0, r0)]
			v01 := srcV[src.Idx(z0, r1)]
			v10 := srcV[src.Idx(z1, r0)]
			v11 := srcV[src.Idx(z1, r1)]

			top := v00*(1-tr) + v01*tr
			bot := v10*(1-tr) + v11*tr
			dstV[i] = top*(1-tz) + bot*tz
		}
	}
}

// SeedBias fills the coarsest bias-solve grid with the linear ramp
// v(z,r) = a + (bias-a)*r/R, a = bias*z/L.
func SeedBias(g *Grid, bias float64) {
	g.Fill(func(z, r int) float64 {
		a := bias * float64(z) / float64(g.L)
		return a + (bias-a)*float64(r)/float64(g.R)
	})
}

// SeedWeighting fills the coarsest WP-solve grid with a smooth,
// roughly 1/r-like seed inside the crystal, 1 inside the point contact
// (the point-contact cells are already pinned by ClassifyWeighting and
// untouched by Fill).
func SeedWeighting(g *Grid) {
	g.Fill(func(z, r int) float64 {
		if r == 0 {
			return 1.0
		}
		return 1.0 / (1.0 + float64(r))
	})
}
