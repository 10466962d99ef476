package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/asrieldev/secureBank/internal/decision"
	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/indicators"
	"github.com/asrieldev/secureBank/internal/scoring"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *scoring.Engine, rules *indicators.Engine, processor *decision.Processor, version string) *Server {
	handler := NewHandler(repo, cache, bus, engine, rules, processor, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Synchronous scoring
		r.Post("/score", handler.Score)

		// Async ingestion (scored by the worker)
		r.Post("/transactions", handler.IngestTransaction)
		r.Get("/transactions/{id}", handler.GetTransaction)

		// Assessment retrieval
		r.Get("/assessments/{id}", handler.GetAssessment)

		// Alert lifecycle
		r.Get("/alerts", handler.ListAlerts)
		r.Get("/alerts/{id}", handler.GetAlert)
		r.Post("/alerts/{id}/resolve", handler.ResolveAlert)

		// Account registration for history-based features
		r.Post("/accounts", handler.CreateAccount)
		r.Get("/accounts/{id}/transactions", handler.ListAccountTransactions)

		// Reputation scores for locations and IPs
		r.Post("/reputation", handler.SaveReputation)

		// Indicator rule management
		r.Get("/indicators/rules", handler.ListIndicatorRules)
		r.Post("/indicators/rules", handler.CreateIndicatorRule)
		r.Post("/indicators/rules/reload", handler.ReloadIndicatorRules)

		// Model lifecycle
		r.Post("/retrain", handler.Retrain)
		r.Get("/model/metrics", handler.ModelMetrics)
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
