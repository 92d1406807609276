package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

var formats = []string{formatTable, formatJSON, formatCSV}

func validFormat(format string) bool {
	return slices.Contains(formats, format)
}

// Cell types decide how a value prints in a table. CSV always gets the raw
// number.
type (
	money   float64
	percent float64
	decimal float64
)

// tabular is one titled table of output. data is what JSON output encodes,
// under key when several tables are printed together.
type tabular struct {
	key    string
	title  string
	header table.Row
	rows   []table.Row
	data   any
}

func render(w io.Writer, format string, tables ...tabular) error {
	switch format {
	case formatJSON:
		return renderJSON(w, tables)
	case formatCSV:
		for i, t := range tables {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			newWriter(w, t, csvCell).RenderCSV()
		}
		return nil
	default:
		for i, t := range tables {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			renderTable(w, t)
		}
		return nil
	}
}

func renderTable(w io.Writer, t tabular) {
	if len(t.rows) == 0 {
		if t.title != "" {
			_, _ = fmt.Fprintln(w, t.title)
		}
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	tw := newWriter(w, t, tableCell)
	tw.SetStyle(table.StyleLight)
	if t.title != "" {
		tw.SetTitle(t.title)
	}

	var configs []table.ColumnConfig
	for i, cell := range t.rows[0] {
		if isNumeric(cell) {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	tw.SetColumnConfigs(configs)

	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(t.rows))
}

// renderJSON writes a single table's data as is and several tables as one
// object.
func renderJSON(w io.Writer, tables []tabular) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(tables) == 1 {
		return enc.Encode(tables[0].data)
	}

	out := make(map[string]any, len(tables))
	for _, t := range tables {
		out[t.key] = t.data
	}
	return enc.Encode(out)
}

func newWriter(w io.Writer, t tabular, format func(any) any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(t.header)
	for _, row := range t.rows {
		formatted := make(table.Row, len(row))
		for i, cell := range row {
			formatted[i] = format(cell)
		}
		tw.AppendRow(formatted)
	}
	return tw
}

func tableCell(v any) any {
	switch v := v.(type) {
	case money:
		return "£" + strconv.FormatFloat(float64(v), 'f', 2, 64)
	case percent:
		return strconv.FormatFloat(float64(v)*100, 'f', 1, 64) + "%"
	case decimal:
		return strconv.FormatFloat(float64(v), 'f', 2, 64)
	default:
		return v
	}
}

func csvCell(v any) any {
	switch v := v.(type) {
	case money:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case percent:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case decimal:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	default:
		return v
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case money, percent, decimal, int, float64:
		return true
	}
	return false
}
