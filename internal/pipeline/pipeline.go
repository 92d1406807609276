// Package pipeline turns a confectionary sales spreadsheet into an enriched
// table and the grouped summaries the dashboard draws.
//
// Stages run strictly in order: LoadAndClean, Normalize, DeriveFeatures, then
// any of the aggregation functions. Every stage returns new slices and keeps
// no state between calls, so the result is a pure function of the source
// file and can be cached by the caller.
package pipeline

import "confectionary-dashboard/internal/models"

// Table is the enriched, read-only output of Prepare.
type Table struct {
	Source  string
	Records []models.SalesRecord
	Report  LoadReport
}

// Prepare runs load, normalization and feature derivation for one file.
func Prepare(path string, aliases Aliases) (*Table, error) {
	records, report, err := LoadAndClean(path)
	if err != nil {
		return nil, err
	}
	return &Table{
		Source:  path,
		Records: Enrich(records, aliases),
		Report:  report,
	}, nil
}

// Enrich applies normalization and feature derivation to already-clean
// records.
func Enrich(records []models.SalesRecord, aliases Aliases) []models.SalesRecord {
	return DeriveFeatures(Normalize(records, aliases))
}
