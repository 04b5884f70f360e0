// Package driftvel implements the crystallographic drift-velocity lookup
// the field/drift core treats as an external collaborator (spec.md S6):
// drift_velocity(pt, q) -> v. It is grounded on the <100>/<110>/<111>
// electron/hole velocity table described by original_source/mjd_siggen.h's
// "struct velocity_lookup", loaded from CSV via gocsv (pkg/gocsv is not in
// the original C program, which reads a bespoke text table; CSV is this
// port's equivalent external format).
package driftvel

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/interp"
)

// Entry is one row of the velocity lookup table: drift velocities along
// the <100>, <110>, <111> crystal axes, in mm/ns, for electrons and holes,
// tabulated against the local E-field magnitude (V/cm), plus anisotropic
// correction coefficients for the Sigma-valley/Jacoboni-style angular
// model.
type Entry struct {
	EField float64 `csv:"e_field"` // V/cm
	E100   float64 `csv:"e100"`
	E110   float64 `csv:"e110"`
	E111   float64 `csv:"e111"`
	H100   float64 `csv:"h100"`
	H110   float64 `csv:"h110"`
	H111   float64 `csv:"h111"`
	Ea     float64 `csv:"ea"`
	Eb     float64 `csv:"eb"`
	Ec     float64 `csv:"ec"`
	Ebp    float64 `csv:"ebp"`
	Ecp    float64 `csv:"ecp"`
	Ha     float64 `csv:"ha"`
	Hb     float64 `csv:"hb"`
	Hc     float64 `csv:"hc"`
	Hbp    float64 `csv:"hbp"`
	Hcp    float64 `csv:"hcp"`
	HCorr  float64 `csv:"hcorr"`
	ECorr  float64 `csv:"ecorr"`
}

// Vector is a 2-D (r, z) velocity or field sample, mm/ns or V/cm.
type Vector struct {
	R, Z float64
}

func (v Vector) Length() float64 { return math.Hypot(v.R, v.Z) }

// Table is an interpolated drift-velocity model over the E-field
// magnitude, with the crystal's <100> axis assumed aligned with z (a
// common simplification for PPC-style coaxial detectors).
type Table struct {
	entries    []Entry
	e100, e110 *interp.PiecewiseLinear
	h100, h110 *interp.PiecewiseLinear
}

// LoadCSV reads a velocity lookup table from a CSV file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("driftvel: opening %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	if err := gocsv.Unmarshal(f, &entries); err != nil {
		return nil, fmt.Errorf("driftvel: parsing %s: %w", path, err)
	}
	return NewTable(entries)
}

// NewTable builds an interpolated table from entries, which must be
// sorted or will be sorted in place by increasing EField.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) < 2 {
		return nil, fmt.Errorf("driftvel: need at least 2 table rows, got %d", len(entries))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EField < entries[j].EField })

	xs := make([]float64, len(entries))
	e100 := make([]float64, len(entries))
	e110 := make([]float64, len(entries))
	h100 := make([]float64, len(entries))
	h110 := make([]float64, len(entries))
	for i, e := range entries {
		xs[i] = e.EField
		e100[i] = e.E100
		e110[i] = e.E110
		h100[i] = e.H100
		h110[i] = e.H110
	}

	t := &Table{entries: entries}
	var err error
	if t.e100, err = fitPiecewise(xs, e100); err != nil {
		return nil, err
	}
	if t.e110, err = fitPiecewise(xs, e110); err != nil {
		return nil, err
	}
	if t.h100, err = fitPiecewise(xs, h100); err != nil {
		return nil, err
	}
	if t.h110, err = fitPiecewise(xs, h110); err != nil {
		return nil, err
	}
	return t, nil
}

func fitPiecewise(xs, ys []float64) (*interp.PiecewiseLinear, error) {
	pl := new(interp.PiecewiseLinear)
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("driftvel: fitting interpolant: %w", err)
	}
	return pl, nil
}

func (t *Table) clampedMag(mag float64) float64 {
	lo, hi := t.entries[0].EField, t.entries[len(t.entries)-1].EField
	if mag < lo {
		return lo
	}
	if mag > hi {
		return hi
	}
	return mag
}

// Velocity returns the drift velocity for a carrier of charge sign q
// (positive = hole, negative = electron) sitting in electric field e.
// The angular dependence blends the <100> (along z, here approximated as
// aligned with the cylindrical z axis) and <110> (along r) velocity
// curves by direction cosine, a simplified stand-in for the full
// Jacoboni-style anisotropic model the original fields.c implements from
// the ea/eb/ec/ha/hb/hc coefficients (not retrievable from this port's
// CSV-based table without the single-crystal orientation convention the
// original hardware calibration encodes).
func (t *Table) Velocity(e Vector, q float64) (Vector, error) {
	mag := e.Length()
	if mag < 1e-9 {
		return Vector{}, nil
	}
	clamped := t.clampedMag(mag)

	var v100, v110 float64
	if q > 0 {
		v100 = t.h100.Predict(clamped)
		v110 = t.h110.Predict(clamped)
	} else {
		v100 = t.e100.Predict(clamped)
		v110 = t.e110.Predict(clamped)
	}

	cosZ := math.Abs(e.Z) / mag
	cosR := math.Abs(e.R) / mag
	speed := v100*cosZ + v110*cosR

	sign := 1.0
	if q < 0 {
		sign = -1.0
	}
	return Vector{R: sign * speed * e.R / mag, Z: sign * speed * e.Z / mag}, nil
}
