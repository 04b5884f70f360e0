// Package detecterr defines the error taxonomy shared by the config,
// field-solver, and drift/signal packages, per the detector's error
// handling design: every fallible operation returns a status, and the
// orchestrator is the only place user-visible messages are assembled.
package detecterr

import "errors"

// Sentinel errors identifying the taxonomy. Wrap with fmt.Errorf("...: %w", Err)
// at the point of failure so errors.Is/errors.As keep working through
// intermediate layers.
var (
	// ErrConfig marks an unreadable or semantically invalid config file.
	ErrConfig = errors.New("config error")

	// ErrAlloc marks failure to obtain the working arrays a grid level needs.
	ErrAlloc = errors.New("allocation error")

	// ErrFieldFile marks failure to open/write a field, WP, or undepleted
	// output file.
	ErrFieldFile = errors.New("field file error")

	// ErrNonconvergence marks an iteration cap reached before the
	// convergence threshold; callers treat this as a warning and still use
	// the best-effort result, per spec.md S7.
	ErrNonconvergence = errors.New("relaxation did not converge")

	// ErrOutsideDetector marks a point outside the tabulated field grid or
	// the detector volume. GetSignal does not return it for an outside
	// start point; it reports that case as a status, without writing
	// signal_out.
	ErrOutsideDetector = errors.New("point is outside detector")

	// ErrHoleDriftFailure marks a WP lookup that succeeded for velocity but
	// failed in the Ramo step, or a hole drift with zero usable steps.
	ErrHoleDriftFailure = errors.New("hole drift failed")

	// ErrExceededTimeSteps marks a trajectory that did not terminate within
	// the configured number of calculation steps; fatal only when the
	// carrier required to collect could not finish.
	ErrExceededTimeSteps = errors.New("exceeded configured time steps")
)
