// Package diagnostics exports the drift-path trajectory arrays
// (spec.md S6: "dpath... emitted as diagnostic output, not used in the
// signal") to CSV via gocsv.
package diagnostics

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/mjdsim/gedet/pkg/driftvel"
)

// PathRow is one trajectory sample, tagged for gocsv marshaling.
type PathRow struct {
	Step int     `csv:"step"`
	R    float64 `csv:"r_mm"`
	Z    float64 `csv:"z_mm"`
}

// WriteDriftPath writes path[:n] to a CSV file at path.
func WriteDriftPath(outPath string, path []driftvel.Vector, n int) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("diagnostics: creating %s: %w", outPath, err)
	}
	defer f.Close()

	rows := make([]PathRow, n)
	for i := 0; i < n; i++ {
		rows[i] = PathRow{Step: i, R: path[i].R, Z: path[i].Z}
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("diagnostics: writing %s: %w", outPath, err)
	}
	return nil
}
