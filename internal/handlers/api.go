package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"confectionary-dashboard/internal/errors"
	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/pipeline"
	"confectionary-dashboard/internal/services"
)

const (
	cacheControl = "public, max-age=300"
	version      = "1.0.0"
)

// Analytics is the read side of services.Analytics the handlers need.
type Analytics interface {
	View(ctx context.Context, filter pipeline.Filter) (*services.View, error)
	Options() (models.FilterOptions, error)
	Distributions(filter pipeline.Filter) ([]models.Distribution, error)
	Report() pipeline.LoadReport
	Stats() map[string]any
	Reload(ctx context.Context) error
}

type APIHandlers struct {
	analytics Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// toAppError maps service and pipeline failures onto HTTP errors.
func toAppError(err error) *errors.AppError {
	if stderrors.Is(err, services.ErrNotLoaded) {
		return errors.ServiceUnavailable("Sales data is not loaded")
	}
	return errors.FromPipeline(err)
}

// view parses the filter query and computes the filtered view. On failure
// the error response has already been written.
func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (*services.View, bool) {
	filter, err := pipeline.ParseFilter(r.URL.Query())
	if err != nil {
		errors.WriteError(w, r, h.logger, toAppError(err))
		return nil, false
	}

	view, err := h.analytics.View(r.Context(), filter)
	if err != nil {
		errors.WriteError(w, r, h.logger, toAppError(err))
		return nil, false
	}
	return view, true
}

func (h *APIHandlers) writeCached(w http.ResponseWriter, r *http.Request, data any) {
	errors.WriteSuccessWithHeaders(w, r, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// sorted honours ?sort=profit. Without it rows keep first-seen order.
func sorted(r *http.Request, rows []models.SummaryRow) []models.SummaryRow {
	if r.URL.Query().Get("sort") == "profit" {
		return pipeline.SortByProfitDesc(rows)
	}
	return rows
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	if view, ok := h.view(w, r); ok {
		h.writeCached(w, r, view.KPIs)
	}
}

func (h *APIHandlers) HandleRegional(w http.ResponseWriter, r *http.Request) {
	if view, ok := h.view(w, r); ok {
		h.writeCached(w, r, sorted(r, view.Regional))
	}
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	if view, ok := h.view(w, r); ok {
		h.writeCached(w, r, sorted(r, view.Products))
	}
}

func (h *APIHandlers) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	if view, ok := h.view(w, r); ok {
		h.writeCached(w, r, sorted(r, view.Matrix))
	}
}

func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	if view, ok := h.view(w, r); ok {
		h.writeCached(w, r, view.Heatmap)
	}
}

func (h *APIHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	if view, ok := h.view(w, r); ok {
		h.writeCached(w, r, view.Monthly)
	}
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.Options()
	if err != nil {
		errors.WriteError(w, r, h.logger, toAppError(err))
		return
	}
	h.writeCached(w, r, opts)
}

func (h *APIHandlers) HandleDistributions(w http.ResponseWriter, r *http.Request) {
	filter, err := pipeline.ParseFilter(r.URL.Query())
	if err != nil {
		errors.WriteError(w, r, h.logger, toAppError(err))
		return
	}

	dists, err := h.analytics.Distributions(filter)
	if err != nil {
		errors.WriteError(w, r, h.logger, toAppError(err))
		return
	}
	h.writeCached(w, r, dists)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if _, err := h.analytics.Options(); err != nil {
		status = "degraded"
	}

	errors.WriteSuccess(w, r, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}

// HandleReload re-reads the source file. The previous table stays in place
// if the new load fails.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.Reload(r.Context()); err != nil {
		errors.WriteError(w, r, h.logger, toAppError(err))
		return
	}

	h.logger.Info("sales data reloaded")
	errors.WriteSuccess(w, r, h.analytics.Report())
}
