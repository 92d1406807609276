package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare_EndToEnd(t *testing.T) {
	path := writeTempFile(t, "sales.csv", csvHeader+
		"05/01/2000,Scotland,Choclate Chunk,10,75,25,100\n"+
		"12/02/2000,Scotland,Chocolate Chunk,5,47,13,60\n"+
		"20/01/2000,Wales,Fudge,8,72,8,80\n"+
		"garbage,Wales,Fudge,100,1,1,1000\n")

	table, err := Prepare(path, DefaultAliases())
	require.NoError(t, err)
	require.Len(t, table.Records, 3)
	assert.Equal(t, path, table.Source)
	assert.Equal(t, 1, table.Report.Dropped[DropInvalidDate])

	regional := byRegion(RegionalSummary(table.Records))
	require.Len(t, regional, 2)
	require.Contains(t, regional, "Scotland")
	require.Contains(t, regional, "Wales")

	scotland, wales := regional["Scotland"], regional["Wales"]
	assert.Equal(t, 15, scotland.UnitsSold)
	assert.InDelta(t, 160.0, scotland.Revenue, 1e-9)
	assert.InDelta(t, 38.0, scotland.Profit, 1e-9)
	assert.InDelta(t, 0.2375, scotland.ProfitMargin, 1e-12)

	assert.Equal(t, 8, wales.UnitsSold)
	assert.InDelta(t, 80.0, wales.Revenue, 1e-9)
	assert.InDelta(t, 8.0, wales.Profit, 1e-9)
	assert.InDelta(t, 0.1, wales.ProfitMargin, 1e-12)

	products := make(map[string]int)
	for _, r := range ProductSummary(table.Records) {
		products[r.Product] = r.UnitsSold
	}
	assert.Equal(t, map[string]int{"Chocolate Chunk": 15, "Fudge": 8}, products)

	// The unparseable row would dominate every total if it leaked through.
	for _, r := range RegionProductMatrix(table.Records) {
		assert.Less(t, r.Revenue, 1000.0)
	}
	var units int
	for _, m := range MonthlyTrends(table.Records) {
		units += m.UnitsSold
	}
	assert.Equal(t, 23, units)
}

func TestPrepare_SourceError(t *testing.T) {
	table, err := Prepare("does-not-exist.xlsx", DefaultAliases())
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}
