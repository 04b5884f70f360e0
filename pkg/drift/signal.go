package drift

import (
	"fmt"
	"math"

	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/geometry"
)

// MakeSignal runs the full assembler pipeline of spec.md S4.6 for one
// event: drift both carriers, accumulate charge, convolve with
// diffusion, down-sample, and RC-shape. signalCalc must have length
// TCalc; signalOut is filled with NTStepsOut samples.
func MakeSignal(p Params, p0 geometry.Point, ntStepsOut int, preampTau, dtOut float64, signalCalc, signalOut []float64, eTraj, hTraj *Trajectory) error {
	for i := range signalCalc {
		signalCalc[i] = 0
	}

	// Electron-drift failure is tolerated: the signal is emitted with
	// holes only (spec.md S4.6 step 1).
	eOutcome, _ := Integrate(p, p0, Electron, signalCalc, eTraj)

	hOutcome, hErr := Integrate(p, p0, Hole, signalCalc, hTraj)
	if hErr != nil {
		return fmt.Errorf("%w: %v", detecterr.ErrHoleDriftFailure, hErr)
	}
	if hOutcome.Steps == 0 {
		return fmt.Errorf("%w: hole drift produced zero usable steps", detecterr.ErrHoleDriftFailure)
	}

	accumulateCharge(signalCalc)

	finalSigma2 := hOutcome.FinalSigma2
	finalSpeed := hOutcome.FinalSpeed
	if eOutcome.FinalSigma2 > finalSigma2 {
		finalSigma2 = eOutcome.FinalSigma2
	}
	if eOutcome.FinalSpeed > finalSpeed {
		finalSpeed = eOutcome.FinalSpeed
	}

	if p.CloudSize0 > 0.001 || p.UseDiffusion {
		convolveDiffusion(signalCalc, p.DtCalc, finalSigma2, finalSpeed)
	}

	downsample(signalCalc, signalOut, ntStepsOut)
	rcIntegrate(signalOut, signalOut, preampTau, dtOut)
	return nil
}

// accumulateCharge converts induced current into induced charge via a
// running cumulative sum, in place.
func accumulateCharge(signal []float64) {
	for i := 1; i < len(signal); i++ {
		signal[i] += signal[i-1]
	}
}

// convolveDiffusion applies the truncated double-loop Gaussian
// broadening of spec.md S4.6 step 3, grounded on calc_signal.c's
// diffusion pass. The stride l = max(1, dtSpan/5) is a deliberate
// speed/accuracy tradeoff carried over from the original: evaluating
// every lag would be 5x the work for a negligible change to a kernel
// that's already smooth over a handful of samples.
func convolveDiffusion(signal []float64, dtCalc, sigmaFinal2, speedFinal float64) {
	if speedFinal <= 0 {
		return
	}
	sigmaFinal := math.Sqrt(sigmaFinal2)
	dtSpan := int(math.Ceil(1.5 + sigmaFinal/(dtCalc*speedFinal)))
	if dtSpan <= 1 {
		return
	}

	w := float64(dtSpan) / 2.355
	l := dtSpan / 5
	if l < 1 {
		l = 1
	}

	n := len(signal)
	tmp := make([]float64, n)
	sum := make([]float64, n)
	for i := range tmp {
		tmp[i] = signal[i]
		sum[i] = 1
	}

	for k := l; k < 2*dtSpan; k += l {
		y := math.Exp(-float64(k*k) / (w * w))
		for j := 0; j+k < n; j++ {
			tmp[j] += signal[j+k] * y
			sum[j] += y
		}
		for j := 0; j+k < n; j++ {
			tmp[j+k] += signal[j] * y
			sum[j+k] += y
		}
	}

	for j := range signal {
		signal[j] = tmp[j] / sum[j]
	}
}

// downsample averages compF = len(in)/len(out) consecutive samples of
// in into each sample of out.
func downsample(in, out []float64, ntStepsOut int) {
	compF := len(in) / ntStepsOut
	if compF < 1 {
		compF = 1
	}
	for j := 0; j < ntStepsOut && j < len(out); j++ {
		var sum float64
		base := j * compF
		for i := 0; i < compF && base+i < len(in); i++ {
			sum += in[base+i]
		}
		out[j] = sum / float64(compF)
	}
}

// rcIntegrate applies single-pole RC shaping: y[0]=0, y[j] = y[j-1] +
// (x[j-1]-y[j-1])/tau, tau = preampTau/dtOut. Safe when in and out
// alias the same backing array (the common case: callers pass the same
// slice for both) by reading in[j] before out[j] is written in the
// same iteration, matching calc_signal.c's rc_integrate contract.
func rcIntegrate(in, out []float64, preampTau, dtOut float64) {
	n := len(out)
	if n == 0 {
		return
	}
	tau := preampTau / dtOut

	if tau < 1 {
		prevX := in[0]
		out[0] = 0
		for j := 1; j < n; j++ {
			nextX := in[j]
			out[j] = prevX
			prevX = nextX
		}
		return
	}

	prevX := in[0]
	prevY := 0.0
	out[0] = 0
	for j := 1; j < n; j++ {
		nextX := in[j]
		y := prevY + (prevX-prevY)/tau
		out[j] = y
		prevX = nextX
		prevY = y
	}
}
