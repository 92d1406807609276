package pipeline

import (
	"fmt"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"confectionary-dashboard/internal/models"
)

const DefaultBins = 30

type distributionField struct {
	name  string
	value func(models.SalesRecord) float64
}

var distributionFields = []distributionField{
	{"units_sold", func(r models.SalesRecord) float64 { return float64(r.UnitsSold) }},
	{"revenue", func(r models.SalesRecord) float64 { return r.Revenue }},
	{"profit", func(r models.SalesRecord) float64 { return r.Profit }},
	{"profit_margin", func(r models.SalesRecord) float64 { return r.ProfitMargin }},
}

// Distributions describes units, revenue, profit and margin with summary
// statistics and an equal-width histogram. An empty table yields no
// distributions.
func Distributions(records []models.SalesRecord, bins int) ([]models.Distribution, error) {
	out := make([]models.Distribution, 0, len(distributionFields))
	if len(records) == 0 {
		return out, nil
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	values := make([]float64, len(records))
	for _, field := range distributionFields {
		for i, rec := range records {
			values[i] = field.value(rec)
		}
		d, err := describe(field.name, values, bins)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", field.name, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func describe(name string, values []float64, bins int) (models.Distribution, error) {
	d := models.Distribution{Field: name, Count: len(values)}

	var err error
	if d.Mean, err = stats.Mean(values); err != nil {
		return d, err
	}
	if d.Median, err = stats.Median(values); err != nil {
		return d, err
	}
	if d.StdDev, err = stats.StandardDeviation(values); err != nil {
		return d, err
	}
	if d.Min, err = stats.Min(values); err != nil {
		return d, err
	}
	if d.Max, err = stats.Max(values); err != nil {
		return d, err
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	d.Q25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	d.Q75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	d.Histogram = histogram(sorted, d.Min, d.Max, bins)
	return d, nil
}

// histogram bins sorted values into equal-width buckets over [lo, hi]. The
// top divider is nudged above hi because the last bucket is half-open.
func histogram(sorted []float64, lo, hi float64, bins int) []models.HistogramBin {
	var dividers []float64
	if lo == hi {
		dividers = []float64{lo, math.Nextafter(hi, math.Inf(1))}
	} else {
		dividers = floats.Span(make([]float64, bins+1), lo, hi)
		dividers[bins] = math.Nextafter(hi, math.Inf(1))
	}

	counts := stat.Histogram(nil, dividers, sorted, nil)
	out := make([]models.HistogramBin, len(counts))
	for i, c := range counts {
		out[i] = models.HistogramBin{Lower: dividers[i], Upper: dividers[i+1], Count: int(c)}
	}
	out[len(out)-1].Upper = hi
	return out
}
