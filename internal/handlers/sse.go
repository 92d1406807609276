package handlers

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/pipeline"
	"confectionary-dashboard/internal/services"
	"confectionary-dashboard/internal/ui/templates"
)

const (
	noMatchMessage   = "No sales match the selected filters."
	notLoadedMessage = "Sales data is not loaded yet."
)

// FilterSignals mirrors the datastar signals bound to the sidebar inputs.
type FilterSignals struct {
	Regions  []string `json:"regions"`
	Products []string `json:"products"`
	From     string   `json:"from"`
	To       string   `json:"to"`
}

func (s FilterSignals) Filter() (pipeline.Filter, error) {
	return pipeline.NewFilter(s.Regions, s.Products, s.From, s.To)
}

type SSEHandlers struct {
	analytics Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// start reads the filter signals and opens the event stream. Signals must be
// read first because opening the stream consumes the request. When the view
// cannot be built, the message is patched into every target and view is nil.
func (h *SSEHandlers) start(w http.ResponseWriter, r *http.Request, targets ...string) (*datastar.ServerSentEventGenerator, *services.View) {
	var signals FilterSignals
	signalErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)
	if signalErr != nil {
		h.logger.Warn("read signals", "error", signalErr)
		h.patchAll(sse, "Could not read the filter settings.", targets)
		return sse, nil
	}

	filter, err := signals.Filter()
	if err != nil {
		h.patchAll(sse, err.Error(), targets)
		return sse, nil
	}

	view, err := h.analytics.View(r.Context(), filter)
	if err != nil {
		message := "Could not compute the dashboard."
		if stderrors.Is(err, services.ErrNotLoaded) {
			message = notLoadedMessage
		} else {
			h.logger.Error("compute view", "error", err)
		}
		h.patchAll(sse, message, targets)
		return sse, nil
	}
	return sse, view
}

func (h *SSEHandlers) patchAll(sse *datastar.ServerSentEventGenerator, message string, targets []string) {
	for _, id := range targets {
		h.patch(sse, templates.EmptyState(id, message))
	}
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, c templ.Component) {
	if err := sse.PatchElementTempl(c); err != nil {
		h.logger.Error("patch elements", "error", err)
	}
}

func (h *SSEHandlers) signals(sse *datastar.ServerSentEventGenerator, data map[string]any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Error("patch signals", "error", err)
	}
}

func summaryPanel(id, title string, rows []models.SummaryRow, cols templates.SummaryColumns) templ.Component {
	if len(rows) == 0 {
		return templates.EmptyState(id, noMatchMessage)
	}
	return templates.SummaryTable(id, title, pipeline.SortByProfitDesc(rows), cols)
}

func kpiPanel(view *services.View) templ.Component {
	if view.KPIs.RecordCount == 0 {
		return templates.EmptyState(templates.KPICardsID, noMatchMessage)
	}
	return templates.KPICards(view.KPIs)
}

func matrixPanel(view *services.View) templ.Component {
	if len(view.Matrix) == 0 {
		return templates.EmptyState(templates.MatrixID, noMatchMessage)
	}
	return templates.MarginHeatmap(view.Heatmap)
}

func monthlyPanel(view *services.View) templ.Component {
	if len(view.Monthly) == 0 {
		return templates.EmptyState(templates.MonthlyID, noMatchMessage)
	}
	return templates.MonthlyPanel(view.Monthly)
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	sse, view := h.start(w, r, templates.KPICardsID)
	if view == nil {
		return
	}
	h.patch(sse, kpiPanel(view))
	h.signals(sse, map[string]any{"recordCount": view.KPIs.RecordCount})
}

func (h *SSEHandlers) HandleRegional(w http.ResponseWriter, r *http.Request) {
	sse, view := h.start(w, r, templates.RegionalID)
	if view == nil {
		return
	}
	h.patch(sse, summaryPanel(templates.RegionalID, "Sales by Region", view.Regional, templates.SummaryColumns{Region: true}))
	h.signals(sse, map[string]any{"regionalData": view.Regional})
}

func (h *SSEHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	sse, view := h.start(w, r, templates.ProductsID)
	if view == nil {
		return
	}
	h.patch(sse, summaryPanel(templates.ProductsID, "Sales by Product", view.Products, templates.SummaryColumns{Product: true}))
	h.signals(sse, map[string]any{"productsData": view.Products})
}

func (h *SSEHandlers) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	sse, view := h.start(w, r, templates.MatrixID)
	if view == nil {
		return
	}
	h.patch(sse, matrixPanel(view))
	h.signals(sse, map[string]any{"heatmapData": view.Heatmap})
}

func (h *SSEHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	sse, view := h.start(w, r, templates.MonthlyID)
	if view == nil {
		return
	}
	h.patch(sse, monthlyPanel(view))
	h.signals(sse, map[string]any{"monthlyData": view.Monthly})
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse, view := h.start(w, r,
		templates.KPICardsID, templates.RegionalID, templates.ProductsID, templates.MatrixID, templates.MonthlyID)
	if view == nil {
		return
	}

	report := h.analytics.Report()
	dropped := make(map[string]int, len(report.Dropped))
	for reason, n := range report.Dropped {
		dropped[string(reason)] = n
	}
	h.patch(sse, templates.LoadReport(report.RowsRead, report.RowsKept, dropped))

	h.patch(sse, kpiPanel(view))
	h.patch(sse, summaryPanel(templates.RegionalID, "Sales by Region", view.Regional, templates.SummaryColumns{Region: true}))
	h.patch(sse, summaryPanel(templates.ProductsID, "Sales by Product", view.Products, templates.SummaryColumns{Product: true}))
	h.patch(sse, matrixPanel(view))
	h.patch(sse, monthlyPanel(view))

	// Send all chart data in one call.
	h.signals(sse, map[string]any{
		"recordCount":  view.KPIs.RecordCount,
		"regionalData": view.Regional,
		"productsData": view.Products,
		"heatmapData":  view.Heatmap,
		"monthlyData":  view.Monthly,
	})
}
