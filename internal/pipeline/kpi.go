package pipeline

import (
	"maps"
	"slices"

	"github.com/montanaflynn/stats"

	"confectionary-dashboard/internal/models"
)

// ComputeKPIs totals the headline figures. AvgProfitMargin is the plain mean
// of row margins shown on the KPI card; OverallMargin is the margin of sums.
func ComputeKPIs(records []models.SalesRecord) models.KPIs {
	k := models.KPIs{RecordCount: len(records)}
	if len(records) == 0 {
		return k
	}

	margins := make([]float64, 0, len(records))
	for _, rec := range records {
		k.TotalUnits += rec.UnitsSold
		k.TotalRevenue += rec.Revenue
		k.TotalProfit += rec.Profit
		margins = append(margins, rec.ProfitMargin)
	}

	if mean, err := stats.Mean(margins); err == nil {
		k.AvgProfitMargin = mean
	}
	k.OverallMargin = k.TotalProfit / k.TotalRevenue
	return k
}

// Options lists the values a user can filter on.
func Options(records []models.SalesRecord) models.FilterOptions {
	regions := make(map[string]struct{})
	products := make(map[string]struct{})
	var opts models.FilterOptions

	for i, rec := range records {
		regions[rec.Region] = struct{}{}
		products[rec.CanonicalProduct] = struct{}{}
		if i == 0 || rec.Date.Before(opts.MinDate) {
			opts.MinDate = rec.Date
		}
		if i == 0 || rec.Date.After(opts.MaxDate) {
			opts.MaxDate = rec.Date
		}
	}

	opts.Regions = append([]string{}, slices.Sorted(maps.Keys(regions))...)
	opts.Products = append([]string{}, slices.Sorted(maps.Keys(products))...)
	return opts
}
