package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/interpreter"
	"github.com/opensource-finance/kestrel/internal/routing"
	"github.com/opensource-finance/kestrel/internal/surcharge"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, routingEngine *interpreter.Engine[routing.ConnectorSelection], surchargeEngine *interpreter.Engine[surcharge.SurchargeDecisionConfigs], version string) *Server {
	handler := NewHandler(repo, cache, bus, routingEngine, surchargeEngine, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no merchant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (merchant required)
	router.Route("/", func(r chi.Router) {
		r.Use(MerchantMiddleware)

		// Connector routing
		r.Route("/routing", func(r chi.Router) {
			r.Post("/algorithms", handler.CreateRoutingAlgorithm)
			r.Get("/algorithms", handler.ListRoutingAlgorithms)
			r.Get("/algorithms/{id}", handler.GetRoutingAlgorithm)
			r.Post("/algorithms/{id}/activate", handler.ActivateRoutingAlgorithm)
			r.Post("/evaluate", handler.EvaluateRouting)
		})

		// Surcharge decisions
		r.Route("/surcharge", func(r chi.Router) {
			r.Post("/configs", handler.CreateSurchargeConfig)
			r.Get("/configs", handler.ListSurchargeConfigs)
			r.Get("/configs/{id}", handler.GetSurchargeConfig)
			r.Post("/configs/{id}/activate", handler.ActivateSurchargeConfig)
			r.Post("/evaluate", handler.EvaluateSurcharge)
		})
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
