// Package util provides small formatting helpers shared by the CLI and
// diagnostic output paths.
package util

import (
	"fmt"
	"math"
)

// FormatValueFactor renders value with an SI prefix appropriate to its
// magnitude, e.g. FormatValueFactor(2.5e-12, "F") -> "2.500 pF".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatGridSteps renders a step count alongside its physical step size,
// e.g. "2000 steps x 1.00 ns".
func FormatGridSteps(steps int, stepSize float64, unit string) string {
	return fmt.Sprintf("%d steps x %.2f %s", steps, stepSize, unit)
}
