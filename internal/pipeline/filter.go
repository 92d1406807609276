package pipeline

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"confectionary-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

// Filter selects a subset of the enriched table. Empty Regions or Products
// match everything; From and To are inclusive calendar dates and a zero value
// leaves that side open.
type Filter struct {
	Regions  []string  `json:"regions,omitempty"`
	Products []string  `json:"products,omitempty"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

func (f Filter) IsZero() bool {
	return len(f.Regions) == 0 && len(f.Products) == 0 && f.From.IsZero() && f.To.IsZero()
}

func (f Filter) Matches(rec models.SalesRecord) bool {
	if len(f.Regions) > 0 && !slices.Contains(f.Regions, rec.Region) {
		return false
	}
	if len(f.Products) > 0 && !slices.Contains(f.Products, rec.CanonicalProduct) {
		return false
	}
	day := calendarDay(rec.Date)
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	return true
}

// Apply returns the matching records as a new slice. The input is never
// modified, so many filters can run over one shared table.
func (f Filter) Apply(records []models.SalesRecord) []models.SalesRecord {
	out := make([]models.SalesRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ParseFilter reads repeatable region and product parameters and from/to
// dates in YYYY-MM-DD form.
func ParseFilter(values url.Values) (Filter, error) {
	return NewFilter(values["region"], values["product"], values.Get("from"), values.Get("to"))
}

func NewFilter(regions, products []string, from, to string) (Filter, error) {
	f := Filter{
		Regions:  compact(regions),
		Products: compact(products),
	}

	var err error
	if f.From, err = parseFilterDate("from", from); err != nil {
		return Filter{}, err
	}
	if f.To, err = parseFilterDate("to", to); err != nil {
		return Filter{}, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return Filter{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter, from, to)
	}
	return f, nil
}

func parseFilterDate(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s date %q must be YYYY-MM-DD", ErrInvalidFilter, name, value)
	}
	return t, nil
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
