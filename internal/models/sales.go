package models

import "time"

// SalesRecord is one row of the enriched sales table. The first block of
// fields comes from the source file; CanonicalProduct is set by
// normalization and the remaining fields by feature derivation.
type SalesRecord struct {
	Date      time.Time `json:"date"`
	Region    string    `json:"region"`
	Product   string    `json:"product"`
	UnitsSold int       `json:"units_sold"`
	Cost      float64   `json:"cost"`
	Revenue   float64   `json:"revenue"`
	Profit    float64   `json:"profit"`

	CanonicalProduct string `json:"canonical_product"`

	Year           int     `json:"year"`
	Month          int     `json:"month"`
	MonthName      string  `json:"month_name"`
	Quarter        string  `json:"quarter"`
	ProfitMargin   float64 `json:"profit_margin"`
	RevenuePerUnit float64 `json:"revenue_per_unit"`
	CostPerUnit    float64 `json:"cost_per_unit"`
	ProfitPerUnit  float64 `json:"profit_per_unit"`
}

// SummaryRow holds summed metrics for one group. Region and Product are the
// group key; the one not used by a grouping is left empty.
type SummaryRow struct {
	Region       string  `json:"region,omitempty"`
	Product      string  `json:"product,omitempty"`
	UnitsSold    int     `json:"units_sold"`
	Revenue      float64 `json:"revenue"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// MonthlyUnits is units sold for one region in one calendar month. Month is
// the last day of that month.
type MonthlyUnits struct {
	Month     time.Time `json:"month"`
	Region    string    `json:"region"`
	UnitsSold int       `json:"units_sold"`
}

type KPIs struct {
	RecordCount     int     `json:"record_count"`
	TotalUnits      int     `json:"total_units"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalProfit     float64 `json:"total_profit"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
	OverallMargin   float64 `json:"overall_margin"`
}

type FilterOptions struct {
	Regions  []string  `json:"regions"`
	Products []string  `json:"products"`
	MinDate  time.Time `json:"min_date"`
	MaxDate  time.Time `json:"max_date"`
}

// MarginGrid is the region x product matrix pivoted for a heatmap. Cells is
// indexed [product][region]; a nil cell means the pair was never observed.
type MarginGrid struct {
	Products []string     `json:"products"`
	Regions  []string     `json:"regions"`
	Cells    [][]*float64 `json:"cells"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type Distribution struct {
	Field     string         `json:"field"`
	Count     int            `json:"count"`
	Mean      float64        `json:"mean"`
	Median    float64        `json:"median"`
	StdDev    float64        `json:"std_dev"`
	Min       float64        `json:"min"`
	Max       float64        `json:"max"`
	Q25       float64        `json:"q25"`
	Q75       float64        `json:"q75"`
	Histogram []HistogramBin `json:"histogram"`
}
