package pipeline

import (
	"fmt"
	"time"

	"confectionary-dashboard/internal/models"
)

// DeriveFeatures returns a copy of records with calendar fields and
// financial ratios filled in. Cleaning guarantees UnitsSold and Revenue are
// positive, so the divisions are always defined.
func DeriveFeatures(records []models.SalesRecord) []models.SalesRecord {
	out := make([]models.SalesRecord, len(records))
	for i, rec := range records {
		month := rec.Date.Month()
		rec.Year = rec.Date.Year()
		rec.Month = int(month)
		rec.MonthName = month.String()[:3]
		rec.Quarter = quarterLabel(rec.Date)

		units := float64(rec.UnitsSold)
		rec.ProfitMargin = rec.Profit / rec.Revenue
		rec.RevenuePerUnit = rec.Revenue / units
		rec.CostPerUnit = rec.Cost / units
		rec.ProfitPerUnit = rec.Profit / units
		out[i] = rec
	}
	return out
}

func quarterLabel(t time.Time) string {
	return fmt.Sprintf("%d Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// monthEnd is the last calendar day of t's month.
func monthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}
