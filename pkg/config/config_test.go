package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjdsim/gedet/pkg/detecterr"
)

func validBody() string {
	return strings.TrimSpace(`
# n-type setup, bias negative so its sign is opposite to impurity_z0
verbosity_level 1
xtal_length 80.0
xtal_radius 35.0
pc_length 1.5
pc_radius 2.5
xtal_grid 0.5
impurity_z0 1.0
xtal_HV -3000
time_steps_calc 4000
step_time_calc 1.0
step_time_out 10.0
some_unknown_future_key 42
`)
}

func TestParseFillsDefaultsAndDerivesNTStepsOut(t *testing.T) {
	cfg, err := Parse(strings.NewReader(validBody()))
	require.NoError(t, err)

	assert.Equal(t, 80.0, cfg.XtalLength)
	assert.Equal(t, 35.0, cfg.XtalRadius)
	assert.Equal(t, -3000.0, cfg.XtalHV)
	assert.Equal(t, 50000, cfg.MaxIterations, "unset max_iterations should fall back to default")
	assert.Equal(t, 400, cfg.NTStepsOut, "4000 calc steps / (10ns/1ns) ratio = 400")
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader(validBody()))
	assert.NoError(t, err, "an unrecognized key must not fail the parse")
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("xtal_length\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, detecterr.ErrConfig)
}

func TestParseRejectsBadNumericValue(t *testing.T) {
	_, err := Parse(strings.NewReader("xtal_length notanumber\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, detecterr.ErrConfig))
}

func TestValidateRejectsNonPositiveGeometry(t *testing.T) {
	cfg := &Config{XtalLength: 0, XtalRadius: 35, NTStepsOut: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, detecterr.ErrConfig)
}

func TestValidateRejectsSameSignBiasAndImpurity(t *testing.T) {
	cfg := &Config{XtalLength: 80, XtalRadius: 35, XtalHV: 3000, ImpurityZ0: 1.0, NTStepsOut: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opposite sign")
}

func TestValidateAcceptsOppositeSignBiasAndImpurity(t *testing.T) {
	cfg := &Config{XtalLength: 80, XtalRadius: 35, XtalHV: -3000, ImpurityZ0: 1.0, NTStepsOut: 1}
	assert.NoError(t, cfg.Validate())
}

func TestIsNTypeFollowsImpurityZ0Sign(t *testing.T) {
	assert.True(t, (&Config{ImpurityZ0: 1.0}).IsNType())
	assert.False(t, (&Config{ImpurityZ0: -1.0}).IsNType())
}

func TestNormalizedBiasFlipsSignForNType(t *testing.T) {
	cfg := &Config{XtalHV: 3000, ImpurityZ0: 1.0, ImpurityGradient: 0.05}
	bias, z0, grad := cfg.NormalizedBias()
	assert.Equal(t, -3000.0, bias)
	assert.Equal(t, -1.0, z0)
	assert.Equal(t, -0.05, grad)
}

func TestNormalizedBiasPassesThroughForPType(t *testing.T) {
	cfg := &Config{XtalHV: -3000, ImpurityZ0: -1.0, ImpurityGradient: -0.05}
	bias, z0, grad := cfg.NormalizedBias()
	assert.Equal(t, -3000.0, bias)
	assert.Equal(t, -1.0, z0)
	assert.Equal(t, -0.05, grad)
}
