// Package templates renders the dashboard as templ components. Every
// fragment carries a stable id so SSE patches can replace it in place.
package templates

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/a-h/templ"

	"confectionary-dashboard/internal/models"
)

// Element ids targeted by SSE patches.
const (
	KPICardsID = "kpi-cards"
	RegionalID = "regional-content"
	ProductsID = "products-content"
	MatrixID   = "matrix-content"
	MonthlyID  = "monthly-content"
	ReportID   = "load-report"
)

// htmlWriter stops writing after the first error so components can emit
// markup without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(h)
		return h.err
	})
}

// EmptyState replaces a panel whose filter matched no rows.
func EmptyState(id, message string) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<div id="%s" class="panel-body empty-state">`, templ.EscapeString(id))
		h.raw(`<p>`)
		h.text(message)
		h.raw(`</p></div>`)
	})
}

func KPICards(k models.KPIs) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<div id="%s" class="kpi-grid">`, KPICardsID)
		card := func(label, value string) {
			h.raw(`<div class="kpi-card"><span class="kpi-label">`)
			h.text(label)
			h.raw(`</span><span class="kpi-value">`)
			h.text(value)
			h.raw(`</span></div>`)
		}
		card("Records", Int(k.RecordCount))
		card("Units Sold", Int(k.TotalUnits))
		card("Revenue", Money(k.TotalRevenue))
		card("Profit", Money(k.TotalProfit))
		card("Avg Profit Margin", Percent(k.AvgProfitMargin))
		card("Overall Margin", Percent(k.OverallMargin))
		h.raw(`</div>`)
	})
}

// SummaryColumns picks the label columns of a summary table.
type SummaryColumns struct {
	Region  bool
	Product bool
}

// SummaryTable draws grouped totals with a revenue bar scaled to the largest
// row. Rows are drawn in the order given.
func SummaryTable(id, title string, rows []models.SummaryRow, cols SummaryColumns) templ.Component {
	return component(func(h *htmlWriter) {
		maxRevenue := 0.0
		for _, r := range rows {
			maxRevenue = max(maxRevenue, r.Revenue)
		}

		h.rawf(`<div id="%s" class="panel-body">`, templ.EscapeString(id))
		h.raw(`<h3>`)
		h.text(title)
		h.raw(`</h3><table class="modern-table"><thead><tr>`)
		if cols.Region {
			h.raw(`<th>Region</th>`)
		}
		if cols.Product {
			h.raw(`<th>Product</th>`)
		}
		h.raw(`<th>Units Sold</th><th>Revenue</th><th>Profit</th><th>Profit Margin</th><th></th></tr></thead><tbody>`)

		for _, r := range rows {
			h.raw(`<tr>`)
			if cols.Region {
				h.raw(`<td>`)
				h.text(labelOrUnknown(r.Region))
				h.raw(`</td>`)
			}
			if cols.Product {
				h.raw(`<td>`)
				h.text(labelOrUnknown(r.Product))
				h.raw(`</td>`)
			}
			h.raw(`<td class="num">`)
			h.text(Int(r.UnitsSold))
			h.raw(`</td><td class="num">`)
			h.text(Money(r.Revenue))
			h.raw(`</td><td class="num`)
			if r.Profit < 0 {
				h.raw(` loss`)
			}
			h.raw(`">`)
			h.text(Money(r.Profit))
			h.raw(`</td><td class="num">`)
			h.text(Percent(r.ProfitMargin))
			h.raw(`</td>`)

			width := 0.0
			if maxRevenue > 0 {
				width = r.Revenue / maxRevenue * 100
			}
			h.rawf(`<td class="bar-cell"><span class="bar" style="width:%.1f%%"></span></td>`, width)
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

// MarginHeatmap draws the product x region margin grid. Pairs with no sales
// are left blank rather than shown as zero.
func MarginHeatmap(grid models.MarginGrid) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<div id="%s" class="panel-body">`, MatrixID)
		h.raw(`<h3>Profit Margin by Product and Region</h3><table class="heatmap"><thead><tr><th>Product</th>`)
		for _, region := range grid.Regions {
			h.raw(`<th>`)
			h.text(labelOrUnknown(region))
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)

		for i, product := range grid.Products {
			h.raw(`<tr><th>`)
			h.text(labelOrUnknown(product))
			h.raw(`</th>`)
			for _, cell := range grid.Cells[i] {
				if cell == nil {
					h.raw(`<td class="heat-empty"></td>`)
					continue
				}
				h.rawf(`<td style="background:%s">`, heatColor(*cell))
				h.text(Percent(*cell))
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

// heatColor maps margins from -50% (red) through 0 to +50% (green).
func heatColor(margin float64) string {
	t := (min(max(margin, -0.5), 0.5) + 0.5)
	return fmt.Sprintf("hsl(%.0f, 65%%, 80%%)", t*120)
}

// MonthlyPanel pivots monthly units into one row per month and one column
// per region.
func MonthlyPanel(rows []models.MonthlyUnits) templ.Component {
	return component(func(h *htmlWriter) {
		units := make(map[time.Time]map[string]int)
		regionSet := make(map[string]struct{})
		for _, r := range rows {
			if units[r.Month] == nil {
				units[r.Month] = make(map[string]int)
			}
			units[r.Month][r.Region] += r.UnitsSold
			regionSet[r.Region] = struct{}{}
		}
		months := slices.SortedFunc(maps.Keys(units), func(a, b time.Time) int { return a.Compare(b) })
		regions := slices.SortedFunc(maps.Keys(regionSet), cmp.Compare[string])

		h.rawf(`<div id="%s" class="panel-body">`, MonthlyID)
		h.raw(`<h3>Monthly Units Sold by Region</h3><table class="modern-table"><thead><tr><th>Month</th>`)
		for _, region := range regions {
			h.raw(`<th>`)
			h.text(labelOrUnknown(region))
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, month := range months {
			h.raw(`<tr><td>`)
			h.text(month.Format("Jan 2006"))
			h.raw(`</td>`)
			for _, region := range regions {
				h.raw(`<td class="num">`)
				if n, ok := units[month][region]; ok {
					h.text(Int(n))
				}
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

// LoadReport summarises what cleaning removed from the source file.
func LoadReport(rowsRead, rowsKept int, dropped map[string]int) templ.Component {
	return component(func(h *htmlWriter) {
		h.rawf(`<div id="%s" class="load-report">`, ReportID)
		h.text(printer.Sprintf("%d of %d rows kept", rowsKept, rowsRead))
		for _, reason := range slices.Sorted(maps.Keys(dropped)) {
			if dropped[reason] == 0 {
				continue
			}
			h.raw(` <span class="badge">`)
			h.text(printer.Sprintf("%s: %d", reason, dropped[reason]))
			h.raw(`</span>`)
		}
		h.raw(`</div>`)
	})
}

func labelOrUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
