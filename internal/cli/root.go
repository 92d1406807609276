// Package cli provides the command-line interface for the sales pipeline.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/pipeline"
)

// Version is set at build time.
var Version = "1.0.0"

const defaultFile = "confectionary.xlsx"

// options holds the flags shared by every subcommand.
type options struct {
	file     string
	regions  []string
	products []string
	from     string
	to       string
	format   string
}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "confectionary",
		Short: "Confectionary sales pipeline",
		Long: `confectionary loads a sales spreadsheet, cleans and enriches it, and prints
the summaries the web dashboard shows.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", fileFromEnv(), "Sales spreadsheet (.xlsx or .csv)")
	flags.StringSliceVar(&opts.regions, "region", nil, "Only include these regions (repeatable)")
	flags.StringSliceVar(&opts.products, "product", nil, "Only include these products, canonical names (repeatable)")
	flags.StringVar(&opts.from, "from", "", "First day to include (YYYY-MM-DD)")
	flags.StringVar(&opts.to, "to", "", "Last day to include (YYYY-MM-DD)")
	flags.StringVarP(&opts.format, "format", "o", formatTable, "Output format (table|json|csv)")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newSummaryCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func fileFromEnv() string {
	if file := os.Getenv("DATA_FILE"); file != "" {
		return file
	}
	return defaultFile
}

// load runs the pipeline for --file and applies the filter flags. The load
// report goes to stderr when rows were dropped.
func (o *options) load(stderr io.Writer) ([]models.SalesRecord, error) {
	if !validFormat(o.format) {
		return nil, fmt.Errorf("unknown format %q, want one of %v", o.format, formats)
	}

	filter, err := pipeline.NewFilter(o.regions, o.products, o.from, o.to)
	if err != nil {
		return nil, err
	}

	table, err := pipeline.Prepare(o.file, pipeline.DefaultAliases())
	if err != nil {
		return nil, err
	}

	if dropped := table.Report.RowsDropped(); dropped > 0 {
		_, _ = fmt.Fprintf(stderr, "%s: kept %d of %d rows, dropped %d\n",
			table.Source, table.Report.RowsKept, table.Report.RowsRead, dropped)
	}
	return filter.Apply(table.Records), nil
}
