// Package api exposes the analysis and fundamentals services over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"StockLens/internal/analysis"
	"StockLens/internal/collector"
	"StockLens/internal/fundamentals"
	"StockLens/internal/metrics"
	"StockLens/internal/recorder"
)

// SessionResetter starts a new fetch cache session. Implemented by
// scheduler.Scheduler.
type SessionResetter interface {
	ResetSession(trigger string) string
}

// Config holds server dependencies. Metrics, Recorder and Resetter may be nil.
type Config struct {
	Port         int
	Log          zerolog.Logger
	Analyzer     *analysis.Analyzer
	Fundamentals *fundamentals.Service
	Cache        *collector.CachedFetcher
	Resetter     SessionResetter
	Recorder     recorder.Recorder
	Metrics      *metrics.Metrics
	DevMode      bool
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	port   int

	analyzer     *analysis.Analyzer
	fundamentals *fundamentals.Service
	cache        *collector.CachedFetcher
	resetter     SessionResetter
	recorder     recorder.Recorder
	metrics      *metrics.Metrics
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	rec := cfg.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		port:         cfg.Port,
		analyzer:     cfg.Analyzer,
		fundamentals: cfg.Fundamentals,
		cache:        cfg.Cache,
		resetter:     cfg.Resetter,
		recorder:     rec,
		metrics:      cfg.Metrics,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/symbols/{symbol}", func(r chi.Router) {
			r.Get("/prices", s.handlePrices)
			r.Get("/info", s.handleInfo)
			r.Get("/ratios", s.handleRatios)
			r.Get("/dividends", s.handleDividends)
			r.Get("/financials", s.handleFinancials)
			r.Get("/balance-sheet", s.handleBalanceSheet)
			r.Get("/report", s.handleReport)
		})
		r.Get("/compare", s.handleCompare)
		r.Get("/history", s.handleHistory)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/", s.handleCacheStats)
			r.Post("/reset", s.handleCacheReset)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
