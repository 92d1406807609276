package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/pipeline"
)

const sortProfit = "profit"

var summaryKinds = []string{"regional", "products", "matrix", "monthly"}

func newSummaryCommand(opts *options) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "summary <regional|products|matrix|monthly>",
		Short: "Print a grouped sales summary",
		Long: `Print units, revenue, profit and margin grouped by region, by product, by
region and product, or units per region per month.

Rows come out in the order groups first appear in the file unless --sort
profit is given.`,
		Example: `  confectionary summary regional
  confectionary summary products --sort profit --format csv
  confectionary summary monthly --region Scotland --from 2000-01-01 --to 2000-06-30`,
		ValidArgs: summaryKinds,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sortBy != "" && sortBy != sortProfit {
				return fmt.Errorf("unknown sort %q, only %q is supported", sortBy, sortProfit)
			}

			records, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var out tabular
			switch args[0] {
			case "regional":
				out = summaryTable("Sales by Region", sortRows(pipeline.RegionalSummary(records), sortBy), true, false)
			case "products":
				out = summaryTable("Sales by Product", sortRows(pipeline.ProductSummary(records), sortBy), false, true)
			case "matrix":
				out = summaryTable("Sales by Region and Product", sortRows(pipeline.RegionProductMatrix(records), sortBy), true, true)
			case "monthly":
				out = monthlyTable(pipeline.MonthlyTrends(records))
			}
			return render(cmd.OutOrStdout(), opts.format, out)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort rows, highest first (profit)")
	return cmd
}

func sortRows(rows []models.SummaryRow, sortBy string) []models.SummaryRow {
	if sortBy == sortProfit {
		return pipeline.SortByProfitDesc(rows)
	}
	return rows
}

func summaryTable(title string, rows []models.SummaryRow, byRegion, byProduct bool) tabular {
	var header table.Row
	if byRegion {
		header = append(header, "Region")
	}
	if byProduct {
		header = append(header, "Product")
	}
	header = append(header, "Units Sold", "Revenue", "Profit", "Margin")

	t := tabular{title: title, header: header, data: rows}
	for _, row := range rows {
		var r table.Row
		if byRegion {
			r = append(r, row.Region)
		}
		if byProduct {
			r = append(r, row.Product)
		}
		t.rows = append(t.rows, append(r, row.UnitsSold, money(row.Revenue), money(row.Profit), percent(row.ProfitMargin)))
	}
	return t
}

func monthlyTable(rows []models.MonthlyUnits) tabular {
	t := tabular{
		title:  "Units by Month",
		header: table.Row{"Month", "Region", "Units Sold"},
		data:   rows,
	}
	for _, row := range rows {
		t.rows = append(t.rows, table.Row{row.Month.Format("2006-01"), row.Region, row.UnitsSold})
	}
	return t
}
