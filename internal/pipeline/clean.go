package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"confectionary-dashboard/internal/models"
)

type DropReason string

const (
	DropInvalidDate    DropReason = "invalid_date"
	DropInvalidNumeric DropReason = "invalid_numeric"
	DropNonPositive    DropReason = "non_positive"
)

// LoadReport counts what happened to the rows of one source file.
type LoadReport struct {
	Source   string             `json:"source"`
	RowsRead int                `json:"rows_read"`
	RowsKept int                `json:"rows_kept"`
	Dropped  map[DropReason]int `json:"dropped"`
}

func (r LoadReport) RowsDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Day-first layouts tried in order. Single-digit day/month elements also
// accept two digits.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2-1-2006 15:04:05",
	"2/1/06",
	"2-1-06",
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// LoadAndClean reads the source file and keeps only rows with a valid date,
// numeric core fields, positive units and positive revenue. Negative profit
// is kept. Bad rows are counted in the report, never returned as errors.
func LoadAndClean(path string) ([]models.SalesRecord, LoadReport, error) {
	report := LoadReport{Source: path, Dropped: make(map[DropReason]int)}

	s, err := readSource(path)
	if err != nil {
		return nil, report, err
	}

	records := cleanRows(s, &report)
	return records, report, nil
}

func cleanRows(s *sheet, report *LoadReport) []models.SalesRecord {
	records := make([]models.SalesRecord, 0, len(s.rows))
	for _, row := range s.rows {
		if isBlank(row) {
			continue
		}
		report.RowsRead++

		rec, reason, ok := cleanRow(s, row)
		if !ok {
			report.Dropped[reason]++
			continue
		}
		records = append(records, rec)
	}
	report.RowsKept = len(records)
	return records
}

func cleanRow(s *sheet, row []string) (models.SalesRecord, DropReason, bool) {
	date, ok := parseDate(s.cell(row, ColDate), s.serialDates, s.date1904)
	if !ok {
		return models.SalesRecord{}, DropInvalidDate, false
	}

	units, unitsOK := parseUnits(s.cell(row, ColUnits))
	cost, costOK := parseNumber(s.cell(row, ColCost))
	profit, profitOK := parseNumber(s.cell(row, ColProfit))
	revenue, revenueOK := parseNumber(s.cell(row, ColRevenue))
	if !unitsOK || !costOK || !profitOK || !revenueOK {
		return models.SalesRecord{}, DropInvalidNumeric, false
	}

	if units <= 0 || revenue <= 0 {
		return models.SalesRecord{}, DropNonPositive, false
	}

	return models.SalesRecord{
		Date:      date,
		Region:    strings.TrimSpace(s.cell(row, ColRegion)),
		Product:   strings.TrimSpace(s.cell(row, ColProduct)),
		UnitsSold: units,
		Cost:      cost,
		Revenue:   revenue,
		Profit:    profit,
	}, "", true
}

func parseDate(raw string, serial, date1904 bool) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if serial {
		if days, err := strconv.ParseFloat(value, 64); err == nil {
			if days <= 0 || math.IsNaN(days) || math.IsInf(days, 0) {
				return time.Time{}, false
			}
			t, err := excelize.ExcelDateToTime(days, date1904)
			if err != nil {
				return time.Time{}, false
			}
			return t.UTC(), true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumber(raw string) (float64, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseUnits accepts whole numbers only, including "12.0" from workbooks.
func parseUnits(raw string) (int, bool) {
	f, ok := parseNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
