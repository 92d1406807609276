package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"confectionary-dashboard/internal/config"
	"confectionary-dashboard/internal/models"
	"confectionary-dashboard/internal/observability"
	"confectionary-dashboard/internal/server"
	"confectionary-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			EnableRateLimit: false,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

// Test helper to create analytics with in-memory sales rows
func newTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a, err := services.NewAnalytics(services.WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	a.SetData([]models.SalesRecord{
		{Date: time.Date(2000, 1, 5, 0, 0, 0, 0, time.UTC), Region: "Scotland", Product: "Choclate Chunk", UnitsSold: 10, Cost: 75, Profit: 25, Revenue: 100},
		{Date: time.Date(2000, 2, 12, 0, 0, 0, 0, time.UTC), Region: "Scotland", Product: "Chocolate Chunk", UnitsSold: 5, Cost: 47, Profit: 13, Revenue: 60},
		{Date: time.Date(2000, 1, 20, 0, 0, 0, 0, time.UTC), Region: "Wales", Product: "Fudge", UnitsSold: 8, Cost: 72, Profit: 8, Revenue: 80},
	})
	return a
}

func newTestServer(t *testing.T, analytics *services.Analytics) *server.Server {
	t.Helper()
	logger := testLogger()
	metrics := observability.NewMetrics()
	templateHandlers := &server.TemplateHandlers{Dashboard: dashboardHandler(analytics, logger)}
	return server.NewServer(analytics, logger, metrics, templateHandlers, middlewares(testConfig(), logger, metrics)...)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, newTestAnalytics(t))

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/kpis", http.StatusOK, "application/json"},
		{"/api/regional", http.StatusOK, "application/json"},
		{"/api/products?sort=profit", http.StatusOK, "application/json"},
		{"/api/matrix", http.StatusOK, "application/json"},
		{"/api/heatmap", http.StatusOK, "application/json"},
		{"/api/monthly", http.StatusOK, "application/json"},
		{"/api/options", http.StatusOK, "application/json"},
		{"/api/distributions", http.StatusOK, "application/json"},
		{"/api/regional?from=yesterday", http.StatusBadRequest, "application/json"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_MiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, newTestAnalytics(t))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	r.Header.Set("Origin", "http://localhost:8084")
	srv.ServeHTTP(w, r)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a request id")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8084" {
		t.Errorf("allow-origin = %q", got)
	}
}

// Test JSON API responses
func TestServer_JSONResponse(t *testing.T) {
	srv := newTestServer(t, newTestAnalytics(t))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/regional", nil)
	srv.ServeHTTP(w, r)

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].([]any)
	if !ok {
		t.Fatalf("expected data array in response")
	}
	if len(data) != 2 {
		t.Fatalf("regions = %d, want 2", len(data))
	}

	var item map[string]any
	for _, row := range data {
		if m, ok := row.(map[string]any); ok && m["region"] == "Scotland" {
			item = m
		}
	}
	if item == nil {
		t.Fatal("no Scotland row in response")
	}
	if units, _ := item["units_sold"].(float64); units != 15 {
		t.Errorf("Scotland units = %v, want 15", item["units_sold"])
	}
	for _, field := range []string{"revenue", "profit", "profit_margin"} {
		if _, has := item[field]; !has {
			t.Errorf("summary row should have %q", field)
		}
	}
}

// Test Server-Sent Events routes
func TestServer_SSERoutes(t *testing.T) {
	srv := newTestServer(t, newTestAnalytics(t))

	sseRoutes := []string{
		"/sse/kpis",
		"/sse/regional",
		"/sse/products",
		"/sse/matrix",
		"/sse/monthly",
		"/sse/refresh-all",
	}

	for _, route := range sseRoutes {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, route, nil)

			srv.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want 'no-cache'", cc)
			}
		})
	}
}

// Test health endpoint
func TestServer_HandleHealth(t *testing.T) {
	srv := newTestServer(t, newTestAnalytics(t))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health JSON: %v", err)
	}

	healthData, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected health data in response")
	}

	if status, ok := healthData["status"].(string); !ok || status != "healthy" {
		t.Errorf("health status = %v, want 'healthy'", healthData["status"])
	}

	if _, ok := healthData["timestamp"]; !ok {
		t.Error("health response should include timestamp")
	}
}

// Test error handling for invalid methods
func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer(t, newTestAnalytics(t))

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/regional", http.StatusMethodNotAllowed},
		{http.MethodPut, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/admin/reload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestServer_ReloadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	csv := "Date,Country(UK),Confectionary,Units Sold,Cost(£),Profit(£),Revenue(£)\n" +
		"01/01/2000,Scotland,Fudge,10,70,30,100\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := services.NewAnalytics(services.WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := a.LoadFromFile(t.Context(), path); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, a)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var response struct {
		Data struct {
			RowsRead int `json:"rows_read"`
			RowsKept int `json:"rows_kept"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response.Data.RowsRead != 1 || response.Data.RowsKept != 1 {
		t.Errorf("report = %+v", response.Data)
	}
}

func TestServer_NotLoaded(t *testing.T) {
	a, err := services.NewAnalytics(services.WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, a)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("dashboard without data status = %d", w.Code)
	}
}

// Test dashboard template rendering
func TestDashboardTemplate(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	dashboardHandler(newTestAnalytics(t), testLogger())(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Confectionary Sales Dashboard") {
		t.Error("dashboard should contain title")
	}

	expected := []string{
		"/sse/refresh-all",
		`id="kpi-cards"`,
		`id="regional-content"`,
		`id="products-content"`,
		`id="matrix-content"`,
		`id="monthly-content"`,
		`value="Chocolate Chunk"`,
		`value="Wales"`,
		`min="2000-01-05"`,
		`max="2000-02-12"`,
	}

	for _, component := range expected {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}
	if strings.Contains(body, "Choclate") {
		t.Error("product aliases should be normalized before listing options")
	}
}
