// Package detector implements the top-level orchestrator: init, solve,
// and per-point signal calculation, owning the reusable trajectory
// buffers spec.md S4.7/S5 call for. Grounded on
// original_source/calc_signal.c's signal_calc_init/get_signal/
// drift_path_e/drift_path_h.
package detector

import (
	"errors"
	"fmt"
	"log"

	"github.com/mjdsim/gedet/pkg/config"
	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/drift"
	"github.com/mjdsim/gedet/pkg/driftvel"
	"github.com/mjdsim/gedet/pkg/field"
	"github.com/mjdsim/gedet/pkg/geometry"
)

// Status mirrors get_signal's return convention: a negative value
// signals failure, +1 success.
type Status int

const (
	StatusOutsideDetector Status = -1
	StatusHoleFailure     Status = -2
	StatusOK              Status = 1
)

// Detector bundles a solved field, a velocity table, and the owned
// trajectory/signal buffers reused across GetSignal calls.
type Detector struct {
	Config   *config.Config
	Geometry geometry.Geometry
	Result   *field.Result
	Sampler  *field.Sampler

	signalCalc []float64
	eTraj      *drift.Trajectory
	hTraj      *drift.Trajectory

	log *log.Logger
}

// Init runs signal_calc_init: build the config-derived geometry, run
// the field solver, wrap the already-loaded velocity table in a
// sampler, and allocate the trajectory buffers.
func Init(cfg *config.Config, vel *driftvel.Table, logger *log.Logger) (*Detector, error) {
	geom := geometry.Geometry{
		XtalLength:      cfg.XtalLength,
		XtalRadius:      cfg.XtalRadius,
		TopBulletRadius: cfg.TopBulletRadius,
		PCLength:        cfg.PCLength,
		PCRadius:        cfg.PCRadius,
		TaperLength:     cfg.TaperLength,
	}

	solver := field.NewSolver(logger, cfg.Verbosity)
	result, err := solver.Solve(geom, cfg)
	if err != nil {
		return nil, err
	}

	sampler := field.NewSampler(result, vel)

	return &Detector{
		Config: cfg, Geometry: geom, Result: result, Sampler: sampler,
		signalCalc: make([]float64, cfg.TimeStepsCalc),
		eTraj:      drift.NewTrajectory(cfg.TimeStepsCalc),
		hTraj:      drift.NewTrajectory(cfg.TimeStepsCalc),
		log:        logger,
	}, nil
}

// GetSignal computes the induced-charge signal for a single starting
// point, writing NTStepsOut samples into out. Returns the get_signal
// status convention.
func (d *Detector) GetSignal(pt geometry.Point, out []float64) (Status, error) {
	if d.Geometry.OutsideDetector(pt) {
		return StatusOutsideDetector, nil
	}

	p := drift.Params{
		Geom:         d.Geometry,
		Field:        d.Sampler,
		DtCalc:       d.Config.StepTimeCalc,
		TCalc:        d.Config.TimeStepsCalc,
		CloudSize0:   cloudSizeAt(d.Config, pt),
		CloudSlope:   d.Config.CloudSizeSlope,
		UseDiffusion: d.Config.UseDiffusion,
		XtalTempK:    d.Config.XtalTemp,
		IsNType:      d.Config.IsNType(),
	}

	err := drift.MakeSignal(p, pt, d.Config.NTStepsOut, d.Config.PreampTau, d.Config.StepTimeOut,
		d.signalCalc, out, d.eTraj, d.hTraj)
	if err != nil {
		if errors.Is(err, detecterr.ErrHoleDriftFailure) {
			return StatusHoleFailure, fmt.Errorf("get signal at %+v: %w", pt, err)
		}
		return StatusHoleFailure, err
	}
	return StatusOK, nil
}

// cloudSizeAt applies the configured cloud-size depth slope to the
// base charge-cloud size at the carrier's starting z.
func cloudSizeAt(cfg *config.Config, pt geometry.Point) float64 {
	size := cfg.ChargeCloudSize + cfg.CloudSizeSlope*pt.Z
	if size < 0 {
		size = 0
	}
	return size
}

// DriftPathElectron and DriftPathHole expose the last call's
// trajectory arrays for diagnostics, mirroring drift_path_e/
// drift_path_h.
func (d *Detector) DriftPathElectron() ([]driftvel.Vector, int) { return trajToVectors(d.eTraj) }
func (d *Detector) DriftPathHole() ([]driftvel.Vector, int)     { return trajToVectors(d.hTraj) }

func trajToVectors(t *drift.Trajectory) ([]driftvel.Vector, int) {
	out := make([]driftvel.Vector, t.N)
	for i := 0; i < t.N; i++ {
		out[i] = driftvel.Vector{R: t.R[i], Z: t.Z[i]}
	}
	return out, t.N
}
