package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source column names. They must match the header row exactly.
const (
	ColDate    = "Date"
	ColRegion  = "Country(UK)"
	ColProduct = "Confectionary"
	ColUnits   = "Units Sold"
	ColCost    = "Cost(£)"
	ColProfit  = "Profit(£)"
	ColRevenue = "Revenue(£)"
)

var requiredColumns = []string{ColDate, ColRegion, ColProduct, ColUnits, ColCost, ColProfit, ColRevenue}

// sheet is the raw cell text of a source file plus the column positions of
// the required fields.
type sheet struct {
	columns map[string]int
	rows    [][]string

	// Workbook date cells arrive as serial day numbers.
	serialDates bool
	date1904    bool
}

func (s *sheet) cell(row []string, column string) string {
	idx := s.columns[column]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readSource(path string) (*sheet, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrMalformedSource, path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrMalformedSource, ext)
	}
}

// readWorkbook reads the first sheet of an Excel workbook. Raw cell values
// are used so numbers and dates are not passed through display formats.
func readWorkbook(path string) (*sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformedSource, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedSource)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedSource, sheets[0], err)
	}

	s, err := newSheet(rows)
	if err != nil {
		return nil, err
	}
	s.serialDates = true
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}
	return s, nil
}

func readCSV(path string) (*sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	return parseCSV(file)
}

func parseCSV(r io.Reader) (*sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// A stray quote inside a label is data, not a broken file.
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrMalformedSource, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return newSheet(rows)
}

func newSheet(rows [][]string) (*sheet, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedSource)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, fmt.Sprintf("%q", col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMalformedSource, strings.Join(missing, ", "))
	}

	return &sheet{columns: columns, rows: rows[1:]}, nil
}
