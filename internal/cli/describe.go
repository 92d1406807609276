package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/pipeline"
)

func newDescribeCommand(opts *options) *cobra.Command {
	var bins int

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print headline KPIs and distribution statistics",
		Long: `Print the record count, totals and margins of the filtered table, followed by
count, mean, median, spread and quartiles for units sold, revenue, profit and
profit margin. JSON output also carries the histograms.`,
		Example: `  confectionary describe
  confectionary describe --product Fudge --format json --bins 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			dists, err := pipeline.Distributions(records, bins)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format,
				kpiTable(pipeline.ComputeKPIs(records)),
				distributionTable(dists))
		},
	}

	cmd.Flags().IntVar(&bins, "bins", pipeline.DefaultBins, "Histogram bins for JSON output")
	return cmd
}

func kpiTable(k models.KPIs) tabular {
	return tabular{
		key:    "kpis",
		title:  "Headline KPIs",
		header: table.Row{"Records", "Units Sold", "Revenue", "Profit", "Avg Margin", "Overall Margin"},
		rows: []table.Row{{
			k.RecordCount, k.TotalUnits, money(k.TotalRevenue), money(k.TotalProfit),
			percent(k.AvgProfitMargin), percent(k.OverallMargin),
		}},
		data: k,
	}
}

func distributionTable(dists []models.Distribution) tabular {
	t := tabular{
		key:    "distributions",
		title:  "Distributions",
		header: table.Row{"Field", "Count", "Mean", "Median", "Std Dev", "Min", "Q25", "Q75", "Max"},
		data:   dists,
	}
	for _, d := range dists {
		t.rows = append(t.rows, table.Row{
			d.Field, d.Count, decimal(d.Mean), decimal(d.Median), decimal(d.StdDev),
			decimal(d.Min), decimal(d.Q25), decimal(d.Q75), decimal(d.Max),
		})
	}
	return t
}
