// Package config loads the detector setup file: geometry, impurity
// profile, grid size, bias voltage, and signal-calculation time bases.
//
// The file format is the native "key value" config used by the siggen/
// fieldgen family this package is modeled on: one parameter per line,
// blank lines and lines starting with '#' ignored.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mjdsim/gedet/pkg/detecterr"
)

// Verbosity gates diagnostic output, mirroring the original TERSE/NORMAL/
// CHATTY levels.
type Verbosity int

const (
	Terse Verbosity = iota
	Normal
	Chatty
)

// Config holds every parameter the field solver, drift integrator, and
// signal assembler need, as read from a setup file.
type Config struct {
	Verbosity Verbosity

	// Geometry, all in millimeters.
	XtalLength         float64
	XtalRadius         float64
	TopBulletRadius    float64
	BottomBulletRadius float64
	PCLength           float64
	PCRadius           float64
	TaperLength        float64
	WrapAroundRadius   float64
	DitchDepth         float64
	DitchThickness     float64
	LiThickness        float64

	// Field solve.
	XtalGrid         float64 // dr = dz, mm
	ImpurityZ0       float64 // 1e10 cm^-3 at z=0
	ImpurityGradient float64 // 1e10 cm^-4
	XtalHV           float64 // bias voltage
	MaxIterations    int
	WriteField       int // 0: skip, 1: write, 2: write mirrored +-r (diagnostic)
	WriteWP          int // 0: skip, 1: write

	// File names.
	DriftName string
	FieldName string
	WPName    string

	// Signal calculation.
	XtalTemp        float64 // K
	PreampTau       float64 // ns
	TimeStepsCalc   int
	StepTimeCalc    float64 // ns
	StepTimeOut     float64 // ns
	ChargeCloudSize float64 // mm FWHM
	CloudSizeSlope  float64
	UseDiffusion    bool

	// NTStepsOut is derived: TimeStepsCalc / round(StepTimeOut/StepTimeCalc).
	NTStepsOut int
}

var fieldSetters = map[string]func(*Config, string) error{
	"verbosity_level":     setInt(func(c *Config, v int) { c.Verbosity = Verbosity(v) }),
	"xtal_length":         setFloat(func(c *Config, v float64) { c.XtalLength = v }),
	"xtal_radius":         setFloat(func(c *Config, v float64) { c.XtalRadius = v }),
	"top_bullet_radius":   setFloat(func(c *Config, v float64) { c.TopBulletRadius = v }),
	"bottom_bullet_radius": setFloat(func(c *Config, v float64) { c.BottomBulletRadius = v }),
	"pc_length":           setFloat(func(c *Config, v float64) { c.PCLength = v }),
	"pc_radius":           setFloat(func(c *Config, v float64) { c.PCRadius = v }),
	"taper_length":        setFloat(func(c *Config, v float64) { c.TaperLength = v }),
	"wrap_around_radius":  setFloat(func(c *Config, v float64) { c.WrapAroundRadius = v }),
	"ditch_depth":         setFloat(func(c *Config, v float64) { c.DitchDepth = v }),
	"ditch_thickness":     setFloat(func(c *Config, v float64) { c.DitchThickness = v }),
	"Li_thickness":        setFloat(func(c *Config, v float64) { c.LiThickness = v }),
	"xtal_grid":           setFloat(func(c *Config, v float64) { c.XtalGrid = v }),
	"impurity_z0":         setFloat(func(c *Config, v float64) { c.ImpurityZ0 = v }),
	"impurity_gradient":   setFloat(func(c *Config, v float64) { c.ImpurityGradient = v }),
	"xtal_HV":             setFloat(func(c *Config, v float64) { c.XtalHV = v }),
	"max_iterations":      setInt(func(c *Config, v int) { c.MaxIterations = v }),
	"write_field":         setInt(func(c *Config, v int) { c.WriteField = v }),
	"write_WP":            setInt(func(c *Config, v int) { c.WriteWP = v }),
	"drift_name":          setString(func(c *Config, v string) { c.DriftName = v }),
	"field_name":          setString(func(c *Config, v string) { c.FieldName = v }),
	"wp_name":             setString(func(c *Config, v string) { c.WPName = v }),
	"xtal_temp":           setFloat(func(c *Config, v float64) { c.XtalTemp = v }),
	"preamp_tau":          setFloat(func(c *Config, v float64) { c.PreampTau = v }),
	"time_steps_calc":     setInt(func(c *Config, v int) { c.TimeStepsCalc = v }),
	"step_time_calc":      setFloat(func(c *Config, v float64) { c.StepTimeCalc = v }),
	"step_time_out":       setFloat(func(c *Config, v float64) { c.StepTimeOut = v }),
	"charge_cloud_size":   setFloat(func(c *Config, v float64) { c.ChargeCloudSize = v }),
	"cloud_size_slope":    setFloat(func(c *Config, v float64) { c.CloudSizeSlope = v }),
	"use_diffusion":       setInt(func(c *Config, v int) { c.UseDiffusion = v != 0 }),
}

func setFloat(f func(*Config, float64)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		f(c, v)
		return nil
	}
}

func setInt(f func(*Config, int)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		f(c, v)
		return nil
	}
}

func setString(f func(*Config, string)) func(*Config, string) error {
	return func(c *Config, raw string) error {
		f(c, raw)
		return nil
	}
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", detecterr.ErrConfig, path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a config from r.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected \"key value\", got %q", detecterr.ErrConfig, lineNo, line)
		}
		key, value := fields[0], fields[1]
		setter, ok := fieldSetters[key]
		if !ok {
			continue // unrecognized keys are ignored, matching the original's tolerant reader
		}
		if err := setter(cfg, value); err != nil {
			return nil, fmt.Errorf("%w: line %d: key %q: %v", detecterr.ErrConfig, lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", detecterr.ErrConfig, err)
	}

	if cfg.XtalGrid < 0.001 {
		cfg.XtalGrid = 0.5
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 50000
	}
	if cfg.TimeStepsCalc <= 0 {
		cfg.TimeStepsCalc = 8000
	}
	if cfg.StepTimeCalc <= 0 {
		cfg.StepTimeCalc = 1.0
	}
	if cfg.StepTimeOut <= 0 {
		cfg.StepTimeOut = cfg.StepTimeCalc
	}
	ratio := int(cfg.StepTimeOut/cfg.StepTimeCalc + 0.5)
	if ratio < 1 {
		ratio = 1
	}
	cfg.NTStepsOut = cfg.TimeStepsCalc / ratio

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants the parser alone can't enforce.
func (c *Config) Validate() error {
	if c.XtalLength <= 0 || c.XtalRadius <= 0 {
		return fmt.Errorf("%w: xtal_length and xtal_radius must be positive", detecterr.ErrConfig)
	}
	if (c.XtalHV < 0 && c.ImpurityZ0 < 0) || (c.XtalHV > 0 && c.ImpurityZ0 > 0) {
		return fmt.Errorf("%w: bias voltage and impurity concentration must have opposite sign", detecterr.ErrConfig)
	}
	if c.NTStepsOut <= 0 {
		return fmt.Errorf("%w: derived output time-step count must be positive", detecterr.ErrConfig)
	}
	return nil
}

// IsNType reports whether the impurity profile describes n-type material
// (positive net donor density at z=0).
func (c *Config) IsNType() bool {
	return c.ImpurityZ0 > 0
}

// NormalizedBias returns (bias, impurityZ0, impurityGradient) with polarity
// flipped for n-type material, so every internally stored potential stays
// non-negative; export paths flip the sign back (spec.md S3, S4.4 step 5).
func (c *Config) NormalizedBias() (bias, impurityZ0, impurityGradient float64) {
	if c.IsNType() {
		return -c.XtalHV, -c.ImpurityZ0, -c.ImpurityGradient
	}
	return c.XtalHV, c.ImpurityZ0, c.ImpurityGradient
}
