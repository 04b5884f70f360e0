// Package grid implements the cylindrically symmetric (r, z) lattice the
// field solver relaxes on: per-cell classification, permittivity, and the
// double-buffered potential array. Grounded on the flat-buffer design
// called for in spec.md S9 ("Manual 2-D arrays of pointers") and on the
// allocation/indexing pattern of the teacher's pkg/matrix/circuit.go
// (owned backing arrays, explicit bounds checks, a Clear/reset method).
package grid

// Kind tags a cell's role in the relaxation kernel. Unlike the original
// source's -1/0/1/2/3 integers, the numeric values here are an
// implementation detail only; callers switch on Kind, not on its
// underlying int.
type Kind uint8

const (
	// Bulk is a normal dielectric cell updated every sweep.
	Bulk Kind = iota
	// FixedContact is pinned to Cell.Fixed and never updated.
	FixedContact
	// EdgeR is a bulk cell adjacent to a point-contact radial edge that
	// doesn't fall on a pixel center; Cell.FRC carries the interpolation
	// weight.
	EdgeR
	// EdgeZ is the z-axis analog of EdgeR, using Cell.FLC.
	EdgeZ
	// EdgeCorner is a cell that is simultaneously an EdgeZ cell and sits
	// directly above an EdgeR cell; both FRC and FLC apply, with a
	// correction term (see relax.go).
	EdgeCorner
	// Pinched marks a bulk cell in a region identified as undepleted and
	// electrically isolated from the biased contact (weighting-potential
	// solve only); its value is tied to the mean of its depleted
	// neighbors rather than relaxed individually.
	Pinched
)

// Cell carries a classification tag plus whatever parameters that tag
// needs.
type Cell struct {
	Kind  Kind
	Fixed float64 // Dirichlet value, when Kind == FixedContact
	FRC   float64 // radial edge interpolation weight, EdgeR/EdgeCorner
	FLC   float64 // z edge interpolation weight, EdgeZ/EdgeCorner
}

// Grid is one refinement level's lattice: z in [0, L], r in [0, R],
// stored as flat row-major buffers indexed by idx(z, r) = z*stride + r.
type Grid struct {
	L, R   int
	Step   float64 // physical spacing (dr = dz), mm
	stride int

	old, new []float64 // potential double buffer
	parity   bool      // true: "old" is buffer A; false: "old" is buffer B

	Eps, EpsR, EpsZ []float64 // permittivity, and r/z face averages
	VFraction       []float64
	Cells           []Cell

	s1, s2 []float64 // per-r cylindrical stencil weights
}

// New allocates a grid of size (L+1) x (R+1).
func New(L, R int, step float64) *Grid {
	stride := R + 1
	n := (L + 1) * stride
	g := &Grid{
		L: L, R: R, Step: step, stride: stride,
		old: make([]float64, n), new: make([]float64, n),
		Eps: make([]float64, n), EpsR: make([]float64, n), EpsZ: make([]float64, n),
		VFraction: make([]float64, n),
		Cells:     make([]Cell, n),
		s1:        make([]float64, R+1),
		s2:        make([]float64, R+1),
	}
	g.s1[0] = 2.0
	g.s2[0] = 0.0
	for r := 1; r <= R; r++ {
		g.s1[r] = 1.0 + 0.5/float64(r)
		g.s2[r] = 1.0 - 0.5/float64(r)
	}
	return g
}

// Idx returns the flat index for (z, r). Callers in the hot relaxation
// loop inline this themselves; it's exported for tests and tooling.
func (g *Grid) Idx(z, r int) int { return z*g.stride + r }

// Old and New return the current read/write potential buffers. They
// alias the grid's two owned backing arrays; the identities swap every
// call to Swap.
func (g *Grid) Old() []float64 {
	if g.parity {
		return g.old
	}
	return g.new
}

func (g *Grid) New() []float64 {
	if g.parity {
		return g.new
	}
	return g.old
}

// Swap flips which buffer is "old" vs "new" for the next sweep.
func (g *Grid) Swap() { g.parity = !g.parity }

// S1 and S2 return the cylindrical stencil weights for r+1 and r-1
// neighbors respectively (s1(0)=2, s2(0)=0, the r=0 reflection case).
func (g *Grid) S1(r int) float64 { return g.s1[r] }
func (g *Grid) S2(r int) float64 { return g.s2[r] }

// SetFixed writes a Dirichlet value into both buffers at (z, r), so it
// reads the same regardless of which buffer is "old" when relaxation
// starts.
func (g *Grid) SetFixed(z, r int, value float64) {
	i := g.Idx(z, r)
	g.old[i] = value
	g.new[i] = value
	g.Cells[i] = Cell{Kind: FixedContact, Fixed: value}
}

// Fill initializes the "old" buffer (the one relaxation reads from
// first) with a seed function of (z, r) in grid units, leaving fixed
// cells untouched.
func (g *Grid) Fill(seed func(z, r int) float64) {
	old := g.Old()
	for z := 0; z <= g.L; z++ {
		for r := 0; r <= g.R; r++ {
			i := g.Idx(z, r)
			if g.Cells[i].Kind == FixedContact {
				continue
			}
			old[i] = seed(z, r)
		}
	}
}

// At returns the potential at (z, r) from whichever buffer currently
// holds the converged/latest values (the "old" buffer right after a
// sweep completes and Swap has been called, since Swap makes the
// just-written buffer the new "old").
func (g *Grid) At(z, r int) float64 { return g.Old()[g.Idx(z, r)] }
