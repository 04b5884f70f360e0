// Package consts holds physical constants and fixed numeric parameters used
// across the field solver and drift/signal packages.
package consts

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)

	// EpsilonGe is the relative permittivity of germanium used inside the
	// crystal bulk; the vacuum ditch uses relative permittivity 1.
	EpsilonGe = 16.0

	// Epsilon0PFperMM is vacuum permittivity expressed in pF/mm, folded
	// together with EpsilonGe into the capacitance integral prefactor
	// (8.85 pF/m x 16 / 1000, converted to mm).
	Epsilon0PFperMM = 8.85 * EpsilonGe / 1000.0

	// SpaceChargeFactor is e/epsilon0, expressed per mm^2 of pixel area at
	// grid=1mm; the relaxation kernel scales it by grid^2 per call.
	SpaceChargeFactor = 0.7072 * 4.0

	// DefaultMaxIterations bounds a single relaxation level when the config
	// does not override it.
	DefaultMaxIterations = 50000

	// MaxIterationsShrinkFactor divides the iteration cap after the first
	// (coarsest) multi-grid level has converged.
	MaxIterationsShrinkFactor = 2

	// FieldConvergenceThreshold is the max-|delta-V| stopping criterion for
	// the biased-potential solve.
	FieldConvergenceThreshold = 1e-9

	// WeightingConvergenceThreshold is the (tighter) stopping criterion for
	// the weighting-potential solve.
	WeightingConvergenceThreshold = 1e-10

	// RefTempK is the reference temperature for drift-velocity corrections.
	RefTempK = 77.0
	MinTempK = 77.0
	MaxTempK = 110.0

	// DiffusionCoeffHolePrefactor and DiffusionCoeffElectronPrefactor are the per-step
	// diffusion coefficient prefactors for holes/electrons in germanium at
	// 77K (Jacoboni et al., Phys. Rev. B24, 2 (1981) 1014-1026), to be
	// scaled by step_time_calc*77/T.
	DiffusionCoeffHolePrefactor     = 2.9e-4
	DiffusionCoeffElectronPrefactor = 3.7e-4

	// WeightingPinchOffThreshold and WeightingPinchOffStep gate the
	// "collected" early-exit during drift: WP close enough to 1 and no
	// longer climbing.
	WeightingPinchOffThreshold = 0.999
	WeightingPinchOffStep      = 2e-4

	// SubPixelEdgeTolerance is the minimum offset (in grid units) from a
	// pixel center before a point-contact edge needs sub-pixel interpolation.
	SubPixelEdgeTolerance = 0.05

	// HoleCharge and ElectronCharge are the signed carrier charges used
	// throughout the drift integrator (in units of e).
	HoleCharge     = 1.0
	ElectronCharge = -1.0
)
