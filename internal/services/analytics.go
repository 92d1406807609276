package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/observability"
	"confectionary-dashboard/internal/pipeline"
)

// memorySource labels tables handed over with SetData.
const memorySource = "memory"

// ErrNotLoaded is returned by queries made before any data was loaded.
var ErrNotLoaded = errors.New("no sales data loaded")

// View is everything the dashboard draws for one filter.
type View struct {
	Filter   pipeline.Filter       `json:"filter"`
	KPIs     models.KPIs           `json:"kpis"`
	Regional []models.SummaryRow   `json:"regional"`
	Products []models.SummaryRow   `json:"products"`
	Matrix   []models.SummaryRow   `json:"matrix"`
	Heatmap  models.MarginGrid     `json:"heatmap"`
	Monthly  []models.MonthlyUnits `json:"monthly"`
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(a *Analytics) { a.metrics = metrics }
}

func WithAliases(aliases pipeline.Aliases) Option {
	return func(a *Analytics) { a.aliases = aliases }
}

func WithHistogramBins(bins int) Option {
	return func(a *Analytics) { a.bins = bins }
}

// sourceKey identifies one version of a source file. A changed size or
// modification time means the table has to be rebuilt.
type sourceKey struct {
	path    string
	size    int64
	modTime int64
}

func (k sourceKey) String() string {
	return fmt.Sprintf("%s|%d|%d", k.path, k.size, k.modTime)
}

type loadedTable struct {
	table    *pipeline.Table
	options  models.FilterOptions
	loadedAt time.Time
	inMemory bool
}

// Analytics holds the enriched table the dashboard reads. Tables are built
// once per distinct source file and shared read-only between requests.
type Analytics struct {
	mu      sync.RWMutex
	current *loadedTable
	cache   map[sourceKey]*loadedTable

	group     singleflight.Group
	loads     atomic.Int64
	cacheHits atomic.Int64

	aliases pipeline.Aliases
	bins    int
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewAnalytics(opts ...Option) (*Analytics, error) {
	a := &Analytics{
		cache:   make(map[sourceKey]*loadedTable),
		aliases: pipeline.DefaultAliases(),
		bins:    pipeline.DefaultBins,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.aliases.Validate(); err != nil {
		return nil, fmt.Errorf("product aliases: %w", err)
	}
	return a, nil
}

// SetData replaces the table with already-clean records. Used by tests and
// callers that load data themselves.
func (a *Analytics) SetData(records []models.SalesRecord) {
	enriched := pipeline.Enrich(records, a.aliases)
	lt := &loadedTable{
		table: &pipeline.Table{
			Source:  memorySource,
			Records: enriched,
			Report: pipeline.LoadReport{
				Source:   memorySource,
				RowsRead: len(records),
				RowsKept: len(records),
				Dropped:  map[pipeline.DropReason]int{},
			},
		},
		options:  pipeline.Options(enriched),
		loadedAt: time.Now(),
		inMemory: true,
	}

	a.mu.Lock()
	a.current = lt
	a.mu.Unlock()
}

// LoadFromFile makes path the current source. Loading a file version that was
// seen before reuses the earlier table; concurrent loads of the same version
// share one pipeline run.
func (a *Analytics) LoadFromFile(ctx context.Context, path string) error {
	key, err := keyFor(path)
	if err != nil {
		a.recordLoad(observability.LoadResultError)
		return err
	}

	a.mu.Lock()
	if lt, ok := a.cache[key]; ok {
		a.current = lt
		a.mu.Unlock()
		a.cacheHits.Add(1)
		a.recordLoad(observability.LoadResultCached)
		a.logger.Info("sales data served from cache", "source", path, "records", len(lt.table.Records))
		return nil
	}
	a.mu.Unlock()

	v, err, _ := a.group.Do(key.String(), func() (any, error) {
		return a.build(ctx, path)
	})
	if err != nil {
		a.recordLoad(observability.LoadResultError)
		return err
	}
	lt := v.(*loadedTable)

	a.mu.Lock()
	for k := range a.cache {
		if k.path == key.path && k != key {
			delete(a.cache, k)
		}
	}
	a.cache[key] = lt
	a.current = lt
	a.mu.Unlock()

	a.loads.Add(1)
	a.recordLoad(observability.LoadResultLoaded)
	return nil
}

// Reload rebuilds the current source even if it has not changed.
func (a *Analytics) Reload(ctx context.Context) error {
	a.mu.Lock()
	if a.current == nil || a.current.inMemory {
		a.mu.Unlock()
		return fmt.Errorf("reload: %w", ErrNotLoaded)
	}
	path := a.current.table.Source
	for k := range a.cache {
		if k.path == path {
			delete(a.cache, k)
		}
	}
	a.mu.Unlock()

	return a.LoadFromFile(ctx, path)
}

func (a *Analytics) build(ctx context.Context, path string) (*loadedTable, error) {
	ctx, span := observability.StartSpanWithLogger(ctx, a.logger, "pipeline.prepare")
	defer span.Finish()
	span.SetTag("source", path)

	start := time.Now()

	done := a.stage(ctx, "load_and_clean")
	records, report, err := pipeline.LoadAndClean(path)
	done(err)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}

	done = a.stage(ctx, "normalize")
	records = pipeline.Normalize(records, a.aliases)
	done(nil)

	done = a.stage(ctx, "derive_features")
	records = pipeline.DeriveFeatures(records)
	done(nil)

	dropped := make(map[string]int, len(report.Dropped))
	for reason, n := range report.Dropped {
		dropped[string(reason)] = n
	}
	if a.metrics != nil {
		a.metrics.RecordRows(report.RowsRead, report.RowsKept, dropped)
	}

	a.logger.Info("sales data loaded",
		"source", path,
		"rows_read", report.RowsRead,
		"rows_kept", report.RowsKept,
		"rows_dropped", report.RowsDropped(),
		"dropped_by_reason", dropped,
		"duration", time.Since(start),
	)

	return &loadedTable{
		table:    &pipeline.Table{Source: path, Records: records, Report: report},
		options:  pipeline.Options(records),
		loadedAt: time.Now(),
	}, nil
}

// stage opens a span for one pipeline step. The returned func closes it with
// the step's outcome and records the duration.
func (a *Analytics) stage(ctx context.Context, name string) func(error) {
	_, span := observability.StartSpan(ctx, "pipeline."+name)
	start := time.Now()

	return func(err error) {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()

		if a.metrics != nil {
			a.metrics.ObserveStage(name, time.Since(start))
		}
	}
}

func keyFor(path string) (sourceKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sourceKey{}, fmt.Errorf("%w: %s", pipeline.ErrSourceNotFound, path)
		}
		return sourceKey{}, fmt.Errorf("stat source: %w", err)
	}
	return sourceKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}, nil
}

func (a *Analytics) recordLoad(result string) {
	if a.metrics != nil {
		a.metrics.RecordLoad(result)
	}
}

func (a *Analytics) snapshot() (*loadedTable, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return nil, ErrNotLoaded
	}
	return a.current, nil
}

// Records returns the full enriched table. The slice is shared and must not
// be modified.
func (a *Analytics) Records() []models.SalesRecord {
	lt, err := a.snapshot()
	if err != nil {
		return []models.SalesRecord{}
	}
	return lt.table.Records
}

func (a *Analytics) Report() pipeline.LoadReport {
	lt, err := a.snapshot()
	if err != nil {
		return pipeline.LoadReport{Dropped: map[pipeline.DropReason]int{}}
	}
	return lt.table.Report
}

func (a *Analytics) Options() (models.FilterOptions, error) {
	lt, err := a.snapshot()
	if err != nil {
		return models.FilterOptions{}, err
	}
	return lt.options, nil
}

// View filters the table and computes KPIs and every summary concurrently.
func (a *Analytics) View(ctx context.Context, filter pipeline.Filter) (*View, error) {
	lt, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	records := filter.Apply(lt.table.Records)
	view := &View{Filter: filter}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		view.KPIs = pipeline.ComputeKPIs(records)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		view.Regional = pipeline.RegionalSummary(records)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		view.Products = pipeline.ProductSummary(records)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		view.Matrix = pipeline.RegionProductMatrix(records)
		view.Heatmap = pipeline.PivotMargins(view.Matrix)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		view.Monthly = pipeline.MonthlyTrends(records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute view: %w", err)
	}
	return view, nil
}

func (a *Analytics) Distributions(filter pipeline.Filter) ([]models.Distribution, error) {
	lt, err := a.snapshot()
	if err != nil {
		return nil, err
	}
	return pipeline.Distributions(filter.Apply(lt.table.Records), a.bins)
}

// Stats reports what is loaded, for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"loaded":        a.current != nil,
		"loads":         a.loads.Load(),
		"cache_hits":    a.cacheHits.Load(),
		"cache_entries": len(a.cache),
	}
	if a.current == nil {
		return stats
	}

	report := a.current.table.Report
	stats["source"] = a.current.table.Source
	stats["loaded_at"] = a.current.loadedAt
	stats["record_count"] = len(a.current.table.Records)
	stats["rows_read"] = report.RowsRead
	stats["rows_dropped"] = report.RowsDropped()
	stats["dropped"] = report.Dropped
	stats["regions"] = len(a.current.options.Regions)
	stats["products"] = len(a.current.options.Products)
	return stats
}
