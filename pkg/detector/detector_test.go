package detector

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjdsim/gedet/pkg/config"
	"github.com/mjdsim/gedet/pkg/detecterr"
	"github.com/mjdsim/gedet/pkg/driftvel"
	"github.com/mjdsim/gedet/pkg/geometry"
)

func smallConfig() *config.Config {
	return &config.Config{
		XtalGrid:        2.0,
		XtalLength:      20,
		XtalRadius:      20,
		PCLength:        2,
		PCRadius:        2,
		XtalHV:          -100,
		ImpurityZ0:      1.0,
		MaxIterations:   500,
		TimeStepsCalc:   200,
		StepTimeCalc:    1.0,
		StepTimeOut:     1.0,
		NTStepsOut:      200,
		PreampTau:       50,
		ChargeCloudSize: 0,
		XtalTemp:        77,
	}
}

func flatVelocityTable(t *testing.T) *driftvel.Table {
	t.Helper()
	entries := []driftvel.Entry{
		{EField: 100, E100: 0.02, E110: 0.02, H100: 0.015, H110: 0.015},
		{EField: 10000, E100: 0.09, E110: 0.09, H100: 0.07, H110: 0.07},
	}
	table, err := driftvel.NewTable(entries)
	require.NoError(t, err)
	return table
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func TestInitBuildsSolvedDetector(t *testing.T) {
	vel := flatVelocityTable(t)
	det, err := Init(smallConfig(), vel, testLogger())
	require.NoError(t, err)
	require.NotNil(t, det.Result)
	require.NotNil(t, det.Sampler)
	assert.Len(t, det.signalCalc, smallConfig().TimeStepsCalc)
}

func TestGetSignalOutsideDetectorReturnsStatusWithoutError(t *testing.T) {
	vel := flatVelocityTable(t)
	cfg := smallConfig()
	det, err := Init(cfg, vel, testLogger())
	require.NoError(t, err)

	out := make([]float64, cfg.NTStepsOut)
	status, err := det.GetSignal(geometry.Point{R: 0, Z: -5}, out)
	require.NoError(t, err)
	assert.Equal(t, StatusOutsideDetector, status)
}

func TestGetSignalInsideDetectorProducesSignalOrExpectedFailure(t *testing.T) {
	vel := flatVelocityTable(t)
	cfg := smallConfig()
	det, err := Init(cfg, vel, testLogger())
	require.NoError(t, err)

	out := make([]float64, cfg.NTStepsOut)
	pt := geometry.Point{R: 5, Z: 10}
	status, err := det.GetSignal(pt, out)
	if err != nil {
		assert.ErrorIs(t, err, detecterr.ErrHoleDriftFailure)
		assert.Equal(t, StatusHoleFailure, status)
		return
	}
	assert.Equal(t, StatusOK, status)
}

func TestDriftPathAccessorsReportZeroBeforeAnyCall(t *testing.T) {
	vel := flatVelocityTable(t)
	det, err := Init(smallConfig(), vel, testLogger())
	require.NoError(t, err)

	path, n := det.DriftPathElectron()
	assert.Equal(t, 0, n)
	assert.Len(t, path, 0)
}

func TestCloudSizeAtAppliesSlopeAndClampsNonNegative(t *testing.T) {
	cfg := smallConfig()
	cfg.ChargeCloudSize = 0.1
	cfg.CloudSizeSlope = -0.01

	sizeNearTop := cloudSizeAt(cfg, geometry.Point{Z: 0})
	sizeDeep := cloudSizeAt(cfg, geometry.Point{Z: 50})
	assert.InDelta(t, 0.1, sizeNearTop, 1e-9)
	assert.Equal(t, 0.0, sizeDeep, "cloud size must clamp at zero, never go negative")
}
