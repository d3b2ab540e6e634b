package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// WeatherService is the query and settings surface the API exposes.
type WeatherService interface {
	ReadinessChecker
	Query(ctx context.Context, q domain.QueryParameters) (domain.Response, error)
	Providers() []pipeline.ProviderInfo
	SaveAPIKey(provider, key string) error
	ClearSettings() error
}

// Options tune the history endpoint.
type Options struct {
	// QueryTimeout bounds one history request, including every provider call.
	QueryTimeout time.Duration
	// DefaultYears is used when the request has no "years" parameter.
	DefaultYears int
}

// Server exposes the history API plus health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        WeatherService
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API routes and /healthz, /readyz
// and /metrics.
func NewServer(addr string, svc WeatherService, opts Options, logger *slog.Logger) *Server {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 15 * time.Minute
	}
	if opts.DefaultYears <= 0 {
		opts.DefaultYears = 5
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: opts.QueryTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		opts:   opts,
		logger: logger,
	}

	mux.HandleFunc("GET /api/v1/providers", s.handleProviders)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("PUT /api/v1/settings/api-keys/{provider}", s.handleSaveAPIKey)
	mux.HandleFunc("DELETE /api/v1/settings", s.handleClearSettings)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
