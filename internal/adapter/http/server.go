package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

// EnrichedSource produces the month-joined traffic and weather table.
type EnrichedSource interface {
	Enrich(ctx context.Context) ([]domain.EnrichedRecord, error)
}

var validate = validator.New()

// enrichedQuery holds the accepted query parameters of /api/v1/enriched.
type enrichedQuery struct {
	Season string `validate:"omitempty,oneof=Winter Spring Summer Fall"`
}

// Server exposes health, readiness, metrics, and the enriched table over HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /api/v1/enriched routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, source EnrichedSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/enriched", s.handleEnriched(source))

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

func (s *Server) handleEnriched(source EnrichedSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := enrichedQuery{Season: r.URL.Query().Get("season")}
		if err := validate.Struct(q); err != nil {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": "season must be one of Winter, Spring, Summer, Fall",
			})
			return
		}

		rows, err := source.Enrich(r.Context())
		if err != nil {
			s.logger.Warn("enriched table unavailable", "error", err)
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "enriched table unavailable",
			})
			return
		}

		rows = domain.FilterSeason(rows, domain.Season(q.Season))
		if rows == nil {
			rows = []domain.EnrichedRecord{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, rows)
	}
}
