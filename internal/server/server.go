package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"confectionary-dashboard/internal/handlers"
	"confectionary-dashboard/internal/middleware"
	"confectionary-dashboard/internal/observability"
)

type Server struct {
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer wires every route. Middlewares run inside the router so they
// can see the matched route pattern.
func NewServer(analytics handlers.Analytics, logger *slog.Logger, metrics *observability.Metrics,
	templateHandlers *TemplateHandlers, middlewares ...middleware.Middleware) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	for _, mw := range middlewares {
		s.router.Use(mw)
	}
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics *observability.Metrics) {
	r := s.router

	// Dashboard routes
	r.Get("/", templateHandlers.Dashboard)
	r.Get("/health", s.apiHandlers.HandleHealth)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.apiHandlers.HandleStats)
		r.Post("/reload", s.apiHandlers.HandleReload)
	})

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/kpis", s.apiHandlers.HandleKPIs)
		r.Get("/regional", s.apiHandlers.HandleRegional)
		r.Get("/products", s.apiHandlers.HandleProducts)
		r.Get("/matrix", s.apiHandlers.HandleMatrix)
		r.Get("/heatmap", s.apiHandlers.HandleHeatmap)
		r.Get("/monthly", s.apiHandlers.HandleMonthly)
		r.Get("/options", s.apiHandlers.HandleOptions)
		r.Get("/distributions", s.apiHandlers.HandleDistributions)
	})

	// Datastar SSE endpoints
	r.Route("/sse", func(r chi.Router) {
		r.Get("/kpis", s.sseHandlers.HandleKPIs)
		r.Get("/regional", s.sseHandlers.HandleRegional)
		r.Get("/products", s.sseHandlers.HandleProducts)
		r.Get("/matrix", s.sseHandlers.HandleMatrix)
		r.Get("/monthly", s.sseHandlers.HandleMonthly)
		r.Get("/refresh-all", s.sseHandlers.HandleRefreshAll)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
