// Command gedet solves the field and signal problem for a germanium
// detector setup file and reports the computed capacitance and signal
// waveform, mirroring the CLI surface of the original mjd_fieldgen/
// siggen tools (spec.md S6/S4.7).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mjdsim/gedet/pkg/config"
	"github.com/mjdsim/gedet/pkg/detector"
	"github.com/mjdsim/gedet/pkg/driftvel"
	"github.com/mjdsim/gedet/pkg/field"
	"github.com/mjdsim/gedet/pkg/geometry"
	"github.com/mjdsim/gedet/pkg/util"
)

func main() {
	configPath := flag.String("c", "", "detector setup config file (required)")
	bias := flag.Float64("b", 0, "override xtal_HV bias voltage, volts (0 = use config value)")
	writeField := flag.Int("w", 1, "field file output: 0=skip, 1=write, 2=write mirrored +-r")
	writePoint := flag.Int("p", 0, "compute a signal at a single point: 0=skip, 1=at r=0, z=xtal_length/2")
	velocityPath := flag.String("vel", "", "drift-velocity lookup table CSV (required if -p 1)")

	flag.Parse()

	logger := log.New(os.Stdout, "", 0)

	if err := run(logger, *configPath, *bias, *writeField, *writePoint, *velocityPath); err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, configPath string, biasOverride float64, writeField, writePoint int, velocityPath string) error {
	if configPath == "" {
		return fmt.Errorf("missing required -c <config> flag")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if biasOverride != 0 {
		cfg.XtalHV = biasOverride
	}

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
		return err
	}

	logger.Printf("Calculated capacitance at %.0f V: %s", cfg.XtalHV, util.FormatValueFactor(result.Capacitance*1e-12, "F"))
	if result.FullyDepleted {
		logger.Printf("Alternative calculation of capacitance: %s", util.FormatValueFactor(result.CapacitanceP*1e-12, "F"))
	}
	logger.Printf("Will use %s for signal calculation, output at %s",
		util.FormatGridSteps(cfg.TimeStepsCalc, cfg.StepTimeCalc, "ns"),
		util.FormatGridSteps(cfg.NTStepsOut, cfg.StepTimeOut, "ns"))
	if result.BubbleVoltage > 0 {
		logger.Printf("warning: pinch-off/bubble voltage detected: %.3f V", result.BubbleVoltage)
	}

	if writeField != 0 && cfg.FieldName != "" {
		var werr error
		if writeField == 2 {
			werr = field.WriteFieldFileMirrored(cfg.FieldName, result.Bias, result.NType)
		} else {
			werr = field.WriteFieldFile(cfg.FieldName, result.Bias, result.NType)
		}
		if werr != nil {
			return werr
		}
		logger.Printf("Writing electric field data to file %s", cfg.FieldName)
	}

	if cfg.WriteWP != 0 && cfg.WPName != "" {
		if err := field.WriteWeightingFile(cfg.WPName, result.Weighting); err != nil {
			return err
		}
		logger.Printf("Writing weighting potential to file %s", cfg.WPName)
	}

	if result.Undepleted != nil {
		if err := field.WriteUndepletedFile("undepleted.txt", result.Undepleted); err != nil {
			return err
		}
	}

	if writePoint == 0 {
		return nil
	}

	if velocityPath == "" {
		return fmt.Errorf("-p 1 requires -vel <velocity_table.csv>")
	}
	vel, err := driftvel.LoadCSV(velocityPath)
	if err != nil {
		return err
	}

	det, err := detector.Init(cfg, vel, logger)
	if err != nil {
		return err
	}
	pt := geometry.Point{R: 0, Z: cfg.XtalLength / 2}
	signalOut := make([]float64, cfg.NTStepsOut)
	status, err := det.GetSignal(pt, signalOut)
	if err != nil {
		return err
	}
	logger.Printf("get_signal at %+v: status=%d", pt, status)
	for i, v := range signalOut {
		logger.Printf("%5d %10.6f", i, v)
	}
	return nil
}
