package driftvel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{EField: 2000, E100: 0.090, E110: 0.085, H100: 0.070, H110: 0.065},
		{EField: 500, E100: 0.040, E110: 0.038, H100: 0.030, H110: 0.028},
		{EField: 1000, E100: 0.065, E110: 0.060, H100: 0.050, H110: 0.047},
	}
}

func TestNewTableRejectsTooFewRows(t *testing.T) {
	_, err := NewTable([]Entry{{EField: 100}})
	assert.Error(t, err)
}

func TestNewTableSortsByEField(t *testing.T) {
	table, err := NewTable(sampleEntries())
	require.NoError(t, err)
	require.Len(t, table.entries, 3)
	assert.Equal(t, 500.0, table.entries[0].EField)
	assert.Equal(t, 1000.0, table.entries[1].EField)
	assert.Equal(t, 2000.0, table.entries[2].EField)
}

func TestVelocityZeroFieldReturnsZeroVector(t *testing.T) {
	table, err := NewTable(sampleEntries())
	require.NoError(t, err)
	v, err := table.Velocity(Vector{R: 0, Z: 0}, -1)
	require.NoError(t, err)
	assert.Equal(t, Vector{}, v)
}

func TestVelocityElectronPointsOppositeField(t *testing.T) {
	table, err := NewTable(sampleEntries())
	require.NoError(t, err)
	v, err := table.Velocity(Vector{R: 0, Z: 1000}, -1)
	require.NoError(t, err)
	assert.Less(t, v.Z, 0.0, "electrons drift opposite the field direction")
}

func TestVelocityHolePointsWithField(t *testing.T) {
	table, err := NewTable(sampleEntries())
	require.NoError(t, err)
	v, err := table.Velocity(Vector{R: 0, Z: 1000}, 1)
	require.NoError(t, err)
	assert.Greater(t, v.Z, 0.0, "holes drift along the field direction")
}

func TestVelocityClampsOutOfRangeField(t *testing.T) {
	table, err := NewTable(sampleEntries())
	require.NoError(t, err)

	low, err := table.Velocity(Vector{R: 0, Z: 1}, -1)
	require.NoError(t, err)
	atLo, err := table.Velocity(Vector{R: 0, Z: 500}, -1)
	require.NoError(t, err)
	assert.InDelta(t, atLo.Length(), low.Length(), 1e-9, "fields below the table range clamp to the lowest entry")

	high, err := table.Velocity(Vector{R: 0, Z: 1e6}, -1)
	require.NoError(t, err)
	atHi, err := table.Velocity(Vector{R: 0, Z: 2000}, -1)
	require.NoError(t, err)
	assert.InDelta(t, atHi.Length(), high.Length(), 1e-9, "fields above the table range clamp to the highest entry")
}

func TestVectorLength(t *testing.T) {
	assert.Equal(t, 5.0, Vector{R: 3, Z: 4}.Length())
}
