package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"confectionary-dashboard/internal/services"
)

// sseRequest builds a datastar GET request carrying the given signals JSON.
func sseRequest(path, signals string) *http.Request {
	if signals == "" {
		return httptest.NewRequest(http.MethodGet, path, nil)
	}
	return httptest.NewRequest(http.MethodGet, path+"?"+url.Values{"datastar": {signals}}.Encode(), nil)
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics(t)
	logger := testLogger()

	handlers := NewSSEHandlers(analytics, logger)
	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_Endpoints(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []string
	}{
		{"kpis", handlers.HandleKPIs, []string{`id="kpi-cards"`, "recordCount", "£240.00"}},
		{"regional", handlers.HandleRegional, []string{`id="regional-content"`, "<table", "Scotland", "regionalData"}},
		{"products", handlers.HandleProducts, []string{`id="products-content"`, "Chocolate Chunk", "productsData"}},
		{"matrix", handlers.HandleMatrix, []string{`id="matrix-content"`, "heatmap", "heatmapData"}},
		{"monthly", handlers.HandleMonthly, []string{`id="monthly-content"`, "Jan 2000", "monthlyData"}},
		{"refresh-all", handlers.HandleRefreshAll, []string{
			`id="load-report"`, `id="kpi-cards"`, `id="regional-content"`, `id="products-content"`,
			`id="matrix-content"`, `id="monthly-content"`, "regionalData", "monthlyData",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, sseRequest("/sse/"+tt.name, ""))

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
				t.Error("response should contain SSE event format")
			}
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("response should contain %q", want)
				}
			}
		})
	}
}

func TestSSEHandlers_FilterSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRegional(w, sseRequest("/sse/regional", `{"regions":["Wales"],"products":[],"from":"","to":""}`))

	body := w.Body.String()
	if !strings.Contains(body, "Wales") {
		t.Error("filtered region missing")
	}
	if strings.Contains(body, "Scotland") {
		t.Error("region outside the filter was rendered")
	}
}

func TestSSEHandlers_EmptyResult(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRefreshAll(w, sseRequest("/sse/refresh-all", `{"regions":["Atlantis"]}`))

	body := w.Body.String()
	if got := strings.Count(body, noMatchMessage); got != 5 {
		t.Errorf("placeholder count = %d, want one per panel", got)
	}
	if strings.Contains(body, "<table") {
		t.Error("empty result should not render tables")
	}
}

func TestSSEHandlers_InvalidFilter(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleMonthly(w, sseRequest("/sse/monthly", `{"from":"2001-01-01","to":"2000-01-01"}`))

	body := w.Body.String()
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(body, "invalid filter") || !strings.Contains(body, `id="monthly-content"`) {
		t.Errorf("filter error not shown in panel: %s", body)
	}
}

func TestSSEHandlers_BadSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(t), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleKPIs(w, sseRequest("/sse/kpis", `{not json`))

	if !strings.Contains(w.Body.String(), "Could not read the filter settings.") {
		t.Errorf("bad signals not reported: %s", w.Body.String())
	}
}

func TestSSEHandlers_NotLoaded(t *testing.T) {
	a, err := services.NewAnalytics(services.WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	handlers := NewSSEHandlers(a, testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRegional(w, sseRequest("/sse/regional", ""))

	if !strings.Contains(w.Body.String(), notLoadedMessage) {
		t.Errorf("not-loaded placeholder missing: %s", w.Body.String())
	}
}
