// Package drift implements the single-carrier drift integrator and the
// signal assembler built on top of it (spec.md S4.5, S4.6). Grounded
// on original_source/calc_signal.c's make_signal/drift_path control
// flow and rc_integrate.
package drift

import (
	"errors"
	"fmt"

	"github.com/mjdsim/gedet/internal/consts"
	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/driftvel"
	"github.com/mjdsim/gedet/pkg/geometry"
)

// FieldSource is the "consumed from fields module" interface spec.md S6
// names: drift_velocity and wpotential. Implemented by *field.Sampler;
// kept as an interface here so the integrator can be tested against a
// synthetic field without building a full grid solve.
type FieldSource interface {
	DriftVelocity(pt geometry.Point, q float64) (driftvel.Vector, error)
	Wpotential(pt geometry.Point) (float64, error)
}

// Carrier is the charge sign a drifting particle carries: Electron
// collects where the weighting potential asymptotes to 0, Hole where it
// asymptotes to 1 for p-type material (flipped for n-type, see
// CollectsToPC).
type Carrier float64

const (
	Electron Carrier = consts.ElectronCharge
	Hole     Carrier = consts.HoleCharge
)

// CollectsToPC reports whether this carrier's weighting potential
// asymptotes to 1 (collects at the point contact) given the impurity
// polarity. Holes collect to the PC when impurity_z0<0 (p-type),
// electrons when impurity_z0>0 (n-type) — spec.md S4.5.
func (c Carrier) CollectsToPC(isNType bool) bool {
	if isNType {
		return c == Electron
	}
	return c == Hole
}

// Trajectory holds one carrier's recorded path, reused across calls per
// spec.md S5 ("trajectory buffers are owned by the orchestrator and
// reused... each call zero-initializes them").
type Trajectory struct {
	R, Z []float64
	N    int
}

func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{R: make([]float64, capacity), Z: make([]float64, capacity)}
}

func (t *Trajectory) reset() { t.N = 0 }

func (t *Trajectory) record(pt geometry.Point) {
	if t.N >= len(t.R) {
		return
	}
	t.R[t.N] = pt.R
	t.Z[t.N] = pt.Z
	t.N++
}

// Params carries the per-step constants an integration run needs.
type Params struct {
	Geom         geometry.Geometry
	Field        FieldSource
	DtCalc       float64 // ns
	TCalc        int
	CloudSize0   float64 // mm, initial FWHM-like sigma seed
	CloudSlope   float64
	UseDiffusion bool
	XtalTempK    float64
	IsNType      bool
}

// Outcome reports the final state of one Integrate call: the number of
// field-grid steps tracked, and the final speed/variance the signal
// assembler's diffusion convolution needs to pick its Gaussian span
// (spec.md S4.6 step 3).
type Outcome struct {
	Steps       int
	FinalSpeed  float64
	FinalSigma2 float64
}

// Integrate drifts one carrier from p0 and accumulates its Ramo
// contribution into signal (length >= TCalc). traj, if non-nil, is
// reset and filled with the trajectory for diagnostics.
func Integrate(p Params, p0 geometry.Point, carrier Carrier, signal []float64, traj *Trajectory) (Outcome, error) {
	if traj != nil {
		traj.reset()
	}
	q := float64(carrier)

	pt := p0
	var prevW float64
	var sigma2 float64
	var prevSpeed, speed float64
	var lastV driftvel.Vector
	haveLastV := false
	collects := carrier.CollectsToPC(p.IsNType)

	t := 0
	for ; t < p.TCalc-1; t++ {
		v, verr := p.Field.DriftVelocity(pt, q)
		if verr != nil {
			if errors.Is(verr, detecterr.ErrOutsideDetector) {
				break // field-grid exit: proceed to tail phase
			}
			return Outcome{Steps: t}, verr
		}
		lastV, haveLastV = v, true

		if traj != nil {
			traj.record(pt)
		}

		speed = v.Length()
		switch {
		case t == 1:
			sigma2 = p.CloudSize0 * p.CloudSize0
		case t >= 2 && p.UseDiffusion && collects:
			// Scales by the ratio of this step's speed to the *previous*
			// step's, so the variance telescopes step to step rather than
			// against a single fixed reference speed (spec.md S4.5 step 4;
			// calc_signal.c: vel0 = vel1; vel1 = vector_length(v); ...
			// *(vel1*vel1)/(vel0*vel0) ...). Gated on collects2pc, matching
			// the original, which only tracks diffusion for the carrier
			// that collects at the point contact.
			d := diffusionCoeff(carrier, p.DtCalc, p.XtalTempK)
			ratio := speed / prevSpeed
			sigma2 = sigma2*ratio*ratio + d
		}
		prevSpeed = speed

		w, werr := p.Field.Wpotential(pt)
		if werr != nil {
			return Outcome{Steps: t}, wrapHoleDriftFailure(carrier, werr)
		}

		if t > 0 {
			signal[t] += q * (w - prevW)
		}

		dw := w - prevW
		prevW = w

		pt = geometry.Point{R: pt.R + v.R*p.DtCalc, Z: pt.Z + v.Z*p.DtCalc}

		if w >= consts.WeightingPinchOffThreshold && dw < consts.WeightingPinchOffStep {
			return Outcome{Steps: t + 1, FinalSpeed: speed, FinalSigma2: sigma2}, nil
		}
	}

	if !haveLastV {
		return Outcome{Steps: t}, nil
	}

	steps, err := tailPhase(p, pt, lastV, carrier, prevW, t, signal, traj)
	return Outcome{Steps: steps, FinalSpeed: speed, FinalSigma2: sigma2}, err
}

func wrapHoleDriftFailure(carrier Carrier, werr error) error {
	if carrier == Hole {
		return fmt.Errorf("%w: %v", detecterr.ErrHoleDriftFailure, werr)
	}
	return werr
}

// tailPhase extends drift along the last known velocity until the
// point exits the detector volume (at most TCalc-t additional steps),
// smearing W linearly to its asymptote across the remaining steps.
func tailPhase(p Params, pt geometry.Point, lastV driftvel.Vector, carrier Carrier, prevW float64, t int, signal []float64, traj *Trajectory) (int, error) {
	remaining := p.TCalc - t
	if remaining <= 0 {
		return t, nil
	}

	n := 0
	cursor := pt
	for n < remaining {
		if p.Geom.OutsideDetector(geometry.Point{R: cursor.R, Z: cursor.Z}) {
			break
		}
		cursor = geometry.Point{R: cursor.R + lastV.R*p.DtCalc, Z: cursor.Z + lastV.Z*p.DtCalc}
		if traj != nil {
			traj.record(cursor)
		}
		n++
	}
	if n == 0 {
		n = 1
	}

	asymptote := 0.0
	if carrier.CollectsToPC(p.IsNType) {
		asymptote = 1.0
	}
	dw := (asymptote - prevW) / float64(n)

	q := float64(carrier)
	for k := 0; k < n && t+k < len(signal); k++ {
		signal[t+k] += q * dw
	}

	if carrier == Hole && t == 0 {
		return 0, detecterr.ErrHoleDriftFailure
	}
	return t + n, nil
}

func diffusionCoeff(carrier Carrier, dt, tempK float64) float64 {
	a := consts.DiffusionCoeffElectronPrefactor
	if carrier == Hole {
		a = consts.DiffusionCoeffHolePrefactor
	}
	if tempK <= 0 {
		tempK = consts.RefTempK
	}
	return a * dt * consts.RefTempK / tempK
}
