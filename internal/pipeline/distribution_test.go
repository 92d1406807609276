package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confectionary-dashboard/internal/models"
)

func TestDistributions(t *testing.T) {
	var raw []models.SalesRecord
	for i := 1; i <= 10; i++ {
		raw = append(raw, sale(day(2000, time.January, i), "Wales", "Fudge", i, float64(10*i), float64(i)))
	}

	dists, err := Distributions(Enrich(raw, nil), 5)
	require.NoError(t, err)
	require.Len(t, dists, 4)

	fields := make([]string, len(dists))
	for i, d := range dists {
		fields[i] = d.Field
	}
	assert.Equal(t, []string{"units_sold", "revenue", "profit", "profit_margin"}, fields)

	units := dists[0]
	assert.Equal(t, 10, units.Count)
	assert.InDelta(t, 5.5, units.Mean, 1e-12)
	assert.InDelta(t, 5.5, units.Median, 1e-12)
	assert.Equal(t, 1.0, units.Min)
	assert.Equal(t, 10.0, units.Max)
	assert.LessOrEqual(t, units.Q25, units.Median)
	assert.GreaterOrEqual(t, units.Q75, units.Median)

	require.Len(t, units.Histogram, 5)
	total := 0
	for _, bin := range units.Histogram {
		total += bin.Count
	}
	assert.Equal(t, 10, total, "every value lands in a bin, including the maximum")
	assert.Equal(t, 1.0, units.Histogram[0].Lower)
	assert.Equal(t, 10.0, units.Histogram[4].Upper)

	// Every row has a 10% margin.
	margin := dists[3]
	assert.InDelta(t, 0.1, margin.Mean, 1e-12)
	require.Len(t, margin.Histogram, 1)
	assert.Equal(t, 10, margin.Histogram[0].Count)
}

func TestDistributions_Empty(t *testing.T) {
	dists, err := Distributions(nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, dists)
	assert.Empty(t, dists)
}

func TestDistributions_DefaultBins(t *testing.T) {
	raw := []models.SalesRecord{
		sale(day(2000, time.January, 1), "Wales", "Fudge", 1, 10, 1),
		sale(day(2000, time.January, 2), "Wales", "Fudge", 100, 1000, 500),
	}

	dists, err := Distributions(Enrich(raw, nil), 0)
	require.NoError(t, err)
	assert.Len(t, dists[0].Histogram, DefaultBins)
}

func TestDistributions_SmallTables(t *testing.T) {
	tests := []struct {
		n        int
		q25, q75 float64
	}{
		{1, 1, 1},
		{2, 1, 1.5},
		{3, 1, 2.25},
		{4, 1, 3},
	}

	for _, tt := range tests {
		var raw []models.SalesRecord
		for i := 1; i <= tt.n; i++ {
			raw = append(raw, sale(day(2000, time.January, i), "Wales", "Fudge", i, float64(10*i), float64(i)))
		}

		dists, err := Distributions(Enrich(raw, nil), 5)
		require.NoError(t, err, "n=%d", tt.n)
		require.Len(t, dists, 4)

		units := dists[0]
		assert.Equal(t, tt.n, units.Count)
		assert.InDelta(t, tt.q25, units.Q25, 1e-12, "n=%d", tt.n)
		assert.InDelta(t, tt.q75, units.Q75, 1e-12, "n=%d", tt.n)
		assert.LessOrEqual(t, units.Min, units.Q25)
		assert.GreaterOrEqual(t, units.Max, units.Q75)
	}
}
