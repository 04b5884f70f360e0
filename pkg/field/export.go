package field

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/grid"
)

// WriteFieldFile writes potential, |E|, E_r, E_z at every (r, z) cell
// of g using central differences (forward/backward at the boundaries).
// For n-type material the sign convention is flipped back before
// serialization, per spec.md S4.4 step 5. Grounded on
// mjd_fieldgen.c lines 550-580.
func WriteFieldFile(path string, g *grid.Grid, nType bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", detecterr.ErrFieldFile, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, "## r (mm), z (mm), V (V),  E (V/cm), E_r (V/cm), E_z (V/cm)")
	sign := 1.0
	if nType {
		sign = -1.0
	}
	v := g.Old()
	dcm := 0.1 * g.Step

	for r := 0; r <= g.R; r++ {
		for z := 0; z <= g.L; z++ {
			i := g.Idx(z, r)
			er := centralDiffR(v, g, z, r, dcm)
			ez := centralDiffZ(v, g, z, r, dcm)
			fmt.Fprintf(w, "%7.2f %7.2f %7.1f %7.1f %7.1f %7.1f\n",
				float64(r)*g.Step, float64(z)*g.Step, sign*v[i],
				math.Hypot(er, ez), er, ez)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteFieldFileMirrored is the "-w 2" variant (SUPPLEMENTED FEATURES
// item 3): it mirrors the +r/-r columns so the output can be plotted
// as a full cross-section instead of a single radial half.
func WriteFieldFileMirrored(path string, g *grid.Grid, nType bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", detecterr.ErrFieldFile, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, "## r (mm), z (mm), V (V),  E (V/cm), E_r (V/cm), E_z (V/cm)")
	sign := 1.0
	if nType {
		sign = -1.0
	}
	v := g.Old()
	dcm := 0.1 * g.Step

	for r := g.R; r >= 0; r-- {
		for z := 0; z <= g.L; z++ {
			i := g.Idx(z, r)
			er := centralDiffR(v, g, z, r, dcm)
			ez := centralDiffZ(v, g, z, r, dcm)
			fmt.Fprintf(w, "%7.2f %7.2f %7.1f %7.1f %7.1f %7.1f\n",
				-float64(r)*g.Step, float64(z)*g.Step, sign*v[i],
				math.Hypot(er, ez), -er, ez)
		}
	}
	for r := 0; r <= g.R; r++ {
		for z := 0; z <= g.L; z++ {
			i := g.Idx(z, r)
			er := centralDiffR(v, g, z, r, dcm)
			ez := centralDiffZ(v, g, z, r, dcm)
			fmt.Fprintf(w, "%7.2f %7.2f %7.1f %7.1f %7.1f %7.1f\n",
				float64(r)*g.Step, float64(z)*g.Step, sign*v[i],
				math.Hypot(er, ez), er, ez)
		}
	}
	return nil
}

func centralDiffR(v []float64, g *grid.Grid, z, r int, dcm float64) float64 {
	switch {
	case r == 0:
		return 0
	case r == g.R:
		return (v[g.Idx(z, r-1)] - v[g.Idx(z, r)]) / dcm
	default:
		return (v[g.Idx(z, r-1)] - v[g.Idx(z, r+1)]) / (2 * dcm)
	}
}

func centralDiffZ(v []float64, g *grid.Grid, z, r int, dcm float64) float64 {
	switch {
	case z == 0:
		return (v[g.Idx(z, r)] - v[g.Idx(z+1, r)]) / dcm
	case z == g.L:
		return (v[g.Idx(z-1, r)] - v[g.Idx(z, r)]) / dcm
	default:
		return (v[g.Idx(z-1, r)] - v[g.Idx(z+1, r)]) / (2 * dcm)
	}
}

// WriteWeightingFile writes r, z, WP for every cell of g.
func WriteWeightingFile(path string, g *grid.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", detecterr.ErrFieldFile, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, "## r (mm), z (mm), WP")
	v := g.Old()
	for r := 0; r <= g.R; r++ {
		for z := 0; z <= g.L; z++ {
			fmt.Fprintf(w, "%7.2f %7.2f %10.6f\n", float64(r)*g.Step, float64(z)*g.Step, v[g.Idx(z, r)])
		}
	}
	return nil
}

// WriteUndepletedFile writes the '.'/'*'/'B' text snapshot, one line
// per r.
func WriteUndepletedFile(path string, m *UndepletedMap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", detecterr.ErrFieldFile, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, line := range m.Lines() {
		fmt.Fprintln(w, line)
	}
	return nil
}
