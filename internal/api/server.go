package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shoplight/prodsearch/internal/config"
	"github.com/shoplight/prodsearch/internal/metrics"
	"github.com/shoplight/prodsearch/internal/search"
)

// Server exposes the search engine over HTTP.
type Server struct {
	engine   *search.Engine
	settings *config.Settings
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(engine *search.Engine, settings *config.Settings, logger *zap.Logger) *Server {
	return &Server{
		engine:   engine,
		settings: settings,
		logger:   logger,
	}
}

// Router builds the chi router with the full middleware chain. authMiddleware
// may be nil when authentication is disabled.
func (s *Server) Router(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.recoverer())
	r.Use(corsMiddleware())
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Use(metrics.Middleware())

	r.Get("/search", s.handleSearch)
	r.Get("/autocomplete", s.handleAutocomplete)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// recoverer converts panics into JSON 500 responses.
func (s *Server) recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					s.logger.Error("panic in handler",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows browser clients on any origin to call the read-only API.
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, X-API-Key, Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
