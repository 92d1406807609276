package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/pipeline"
)

const salesCSV = "Date,Country(UK),Confectionary,Units Sold,Cost(£),Profit(£),Revenue(£)\n" +
	"01/01/2000,Scotland,Fudge,10,70,30,100\n" +
	"15/01/2000,Scotland,Choclate Chunk,5,40,10,50\n" +
	"03/02/2000,Wales,Fudge,8,20,60,80\n" +
	"someday,Wales,Fudge,1,1,1,2\n"

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

// run executes the root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "confectionary", cmd.Use)
	for _, flag := range []string{"file", "region", "product", "from", "to", "format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"summary", "describe", "version"})
}

func TestSummary_Table(t *testing.T) {
	file := writeSales(t)

	stdout, stderr, err := run(t, "summary", "regional", "--file", file)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Sales by Region")
	assert.Contains(t, stdout, "Scotland")
	assert.Contains(t, stdout, "£150.00")
	assert.Contains(t, stdout, "26.7%")
	assert.Contains(t, stdout, "(2 rows)")
	assert.Contains(t, stdout, "Wales")

	assert.Contains(t, stderr, "kept 3 of 4 rows, dropped 1")
}

func TestSummary_SortByProfit(t *testing.T) {
	file := writeSales(t)

	stdout, _, err := run(t, "summary", "regional", "--file", file, "--sort", "profit")
	require.NoError(t, err)
	assert.Less(t, strings.Index(stdout, "Wales"), strings.Index(stdout, "Scotland"))
}

func TestSummary_JSON(t *testing.T) {
	file := writeSales(t)

	stdout, _, err := run(t, "summary", "products", "--file", file, "--format", "json")
	require.NoError(t, err)

	var rows []models.SummaryRow
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)
	byProduct := make(map[string]models.SummaryRow, len(rows))
	for _, r := range rows {
		byProduct[r.Product] = r
	}
	require.Contains(t, byProduct, "Fudge")
	assert.Equal(t, 18, byProduct["Fudge"].UnitsSold)
	assert.InDelta(t, 0.5, byProduct["Fudge"].ProfitMargin, 1e-9)
	assert.Contains(t, byProduct, "Chocolate Chunk", "product names are normalized")
}

func TestSummary_CSV(t *testing.T) {
	file := writeSales(t)

	stdout, _, err := run(t, "summary", "matrix", "--file", file, "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1:], "Scotland,Fudge,10,100,30,0.3")
	assert.Contains(t, lines[1:], "Wales,Fudge,8,80,60,0.75")
}

func TestSummary_Monthly(t *testing.T) {
	file := writeSales(t)

	stdout, _, err := run(t, "summary", "monthly", "--file", file, "--format", "csv")
	require.NoError(t, err)

	assert.Contains(t, stdout, "2000-01,Scotland,15")
	assert.Contains(t, stdout, "2000-02,Wales,8")
}

func TestSummary_Filters(t *testing.T) {
	file := writeSales(t)

	stdout, _, err := run(t, "summary", "regional", "--file", file, "--region", "Wales")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wales")
	assert.NotContains(t, stdout, "Scotland")

	stdout, _, err = run(t, "summary", "products", "--file", file, "--from", "2000-02-01")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Chocolate Chunk")

	stdout, _, err = run(t, "summary", "regional", "--file", file, "--region", "Atlantis")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(0 rows)")
}

func TestDescribe(t *testing.T) {
	file := writeSales(t)

	stdout, _, err := run(t, "describe", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Headline KPIs")
	assert.Contains(t, stdout, "Distributions")
	assert.Contains(t, stdout, "profit_margin")
	assert.Contains(t, stdout, "£230.00")

	stdout, _, err = run(t, "describe", "--file", file, "--format", "json", "--bins", "4")
	require.NoError(t, err)

	var out struct {
		KPIs          models.KPIs           `json:"kpis"`
		Distributions []models.Distribution `json:"distributions"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 3, out.KPIs.RecordCount)
	assert.Equal(t, 23, out.KPIs.TotalUnits)
	require.Len(t, out.Distributions, 4)
	assert.Len(t, out.Distributions[0].Histogram, 4)
}

func TestCommandErrors(t *testing.T) {
	file := writeSales(t)

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"missing file", []string{"summary", "regional", "--file", filepath.Join(t.TempDir(), "none.csv")}, pipeline.ErrSourceNotFound},
		{"reversed dates", []string{"describe", "--file", file, "--from", "2000-02-01", "--to", "2000-01-01"}, pipeline.ErrInvalidFilter},
		{"unknown kind", []string{"summary", "yearly", "--file", file}, nil},
		{"no kind", []string{"summary", "--file", file}, nil},
		{"unknown sort", []string{"summary", "regional", "--file", file, "--sort", "units"}, nil},
		{"unknown format", []string{"summary", "regional", "--file", file, "--format", "xml"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestFileFromEnv(t *testing.T) {
	t.Setenv("DATA_FILE", writeSales(t))

	stdout, _, err := run(t, "summary", "regional")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scotland")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "confectionary v"+Version+"\n", stdout)
}
