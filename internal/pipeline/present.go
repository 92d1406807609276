package pipeline

import (
	"cmp"
	"maps"
	"slices"

	"confectionary-dashboard/internal/models"
)

// SortByProfitDesc returns a copy of rows ordered by descending profit. Ties
// keep their input order.
func SortByProfitDesc(rows []models.SummaryRow) []models.SummaryRow {
	out := append(make([]models.SummaryRow, 0, len(rows)), rows...)
	slices.SortStableFunc(out, func(a, b models.SummaryRow) int {
		return cmp.Compare(b.Profit, a.Profit)
	})
	return out
}

// PivotMargins lays the sparse region x product matrix out as a grid with
// sorted axes. Pairs missing from the matrix stay nil.
func PivotMargins(matrix []models.SummaryRow) models.MarginGrid {
	regionSet := make(map[string]struct{})
	productSet := make(map[string]struct{})
	for _, row := range matrix {
		regionSet[row.Region] = struct{}{}
		productSet[row.Product] = struct{}{}
	}

	grid := models.MarginGrid{
		Regions:  append([]string{}, slices.Sorted(maps.Keys(regionSet))...),
		Products: append([]string{}, slices.Sorted(maps.Keys(productSet))...),
	}

	regionIdx := make(map[string]int, len(grid.Regions))
	for i, r := range grid.Regions {
		regionIdx[r] = i
	}
	productIdx := make(map[string]int, len(grid.Products))
	for i, p := range grid.Products {
		productIdx[p] = i
	}

	grid.Cells = make([][]*float64, len(grid.Products))
	for i := range grid.Cells {
		grid.Cells[i] = make([]*float64, len(grid.Regions))
	}
	for _, row := range matrix {
		margin := row.ProfitMargin
		grid.Cells[productIdx[row.Product]][regionIdx[row.Region]] = &margin
	}
	return grid
}
