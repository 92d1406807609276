package pipeline

import (
	"confectionary-dashboard/internal/models"
)

// The aggregations below return groups in the order they are first seen in
// the input. They never sort; presentation code does that on a copy.

type groupKey struct {
	region  string
	product string
}

func RegionalSummary(records []models.SalesRecord) []models.SummaryRow {
	return summarize(records, func(rec models.SalesRecord) groupKey {
		return groupKey{region: rec.Region}
	})
}

func ProductSummary(records []models.SalesRecord) []models.SummaryRow {
	return summarize(records, func(rec models.SalesRecord) groupKey {
		return groupKey{product: rec.CanonicalProduct}
	})
}

// RegionProductMatrix has one row per observed (region, product) pair.
// Pairs that never occur are absent, not zero-filled.
func RegionProductMatrix(records []models.SalesRecord) []models.SummaryRow {
	return summarize(records, func(rec models.SalesRecord) groupKey {
		return groupKey{region: rec.Region, product: rec.CanonicalProduct}
	})
}

// summarize sums units, revenue and profit per key and recomputes the margin
// from the sums, not from an average of row margins.
func summarize(records []models.SalesRecord, keyOf func(models.SalesRecord) groupKey) []models.SummaryRow {
	index := make(map[groupKey]int)
	rows := make([]models.SummaryRow, 0)

	for _, rec := range records {
		key := keyOf(rec)
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, models.SummaryRow{Region: key.region, Product: key.product})
		}
		rows[i].UnitsSold += rec.UnitsSold
		rows[i].Revenue += rec.Revenue
		rows[i].Profit += rec.Profit
	}

	for i := range rows {
		rows[i].ProfitMargin = rows[i].Profit / rows[i].Revenue
	}
	return rows
}

type monthKey struct {
	period int // year*12 + month
	region string
}

// MonthlyTrends sums units per (month, region). Each record falls in exactly
// one bucket, labelled with the last day of its month.
func MonthlyTrends(records []models.SalesRecord) []models.MonthlyUnits {
	index := make(map[monthKey]int)
	rows := make([]models.MonthlyUnits, 0)

	for _, rec := range records {
		key := monthKey{
			period: rec.Date.Year()*12 + int(rec.Date.Month()),
			region: rec.Region,
		}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, models.MonthlyUnits{Month: monthEnd(rec.Date), Region: rec.Region})
		}
		rows[i].UnitsSold += rec.UnitsSold
	}
	return rows
}
