package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"confectionary-dashboard/internal/config"
	"confectionary-dashboard/internal/middleware"
	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/observability"
	"confectionary-dashboard/internal/pipeline"
	"confectionary-dashboard/internal/server"
	"confectionary-dashboard/internal/services"
	"confectionary-dashboard/internal/ui/templates"
)

const (
	renderTimeout   = 10 * time.Second
	dataLoadTimeout = 60 * time.Second
	cacheMaxAge     = "no-cache"
)

// filterOptioner is the part of the analytics service the page needs.
type filterOptioner interface {
	Options() (models.FilterOptions, error)
}

// dashboardHandler renders the page shell with the filter choices of the
// loaded table. Without data the page still renders with empty selects.
func dashboardHandler(analytics filterOptioner, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		opts, err := analytics.Options()
		if err != nil {
			logger.Warn("dashboard rendered without data", "error", err)
		}

		w.Header().Set("Cache-Control", cacheMaxAge)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(opts).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// middlewares returns the request chain in the order it runs.
func middlewares(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) []middleware.Middleware {
	return []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger),
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	metrics := observability.NewMetrics()
	analytics, err := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithMetrics(metrics),
		services.WithHistogramBins(cfg.Data.HistogramBins),
	)
	if err != nil {
		logger.Error("failed to create analytics service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dataLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromFile(ctx, cfg.Data.File); err != nil {
		if pipeline.IsSourceError(err) {
			logger.Error("sales file cannot be used", "file", cfg.Data.File, "error", err)
		} else {
			logger.Error("failed to load sales data", "file", cfg.Data.File, "error", err)
		}
		os.Exit(1)
	}
	report := analytics.Report()
	logger.Info("sales data ready",
		"duration", time.Since(start),
		"rows_read", report.RowsRead,
		"rows_kept", report.RowsKept,
	)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, logger),
	}

	srv := server.NewServer(analytics, logger, metrics, templateHandlers, middlewares(cfg, logger, metrics)...)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
