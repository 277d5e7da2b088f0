// Package api is the HTTP adapter over the query pipeline.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicpulse/civicpulse/internal/model"
)

// maxQueryLength caps incoming queries, in runes, before they reach
// the pipeline.
const maxQueryLength = 500

// Pipeline is the slice of the orchestrator the API consumes.
type Pipeline interface {
	Answer(ctx context.Context, query string) *model.Result
}

// QueryRequest is the POST /v1/query body.
type QueryRequest struct {
	Query string `json:"query"`
}

// errorBody is the JSON shape of a rejected request.
type errorBody struct {
	Error string `json:"error"`
}

// Server wires the HTTP routes to the pipeline.
type Server struct {
	pipeline Pipeline
	logger   *slog.Logger
	router   *mux.Router
}

// NewServer builds the HTTP adapter.
func NewServer(pipeline Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: pipeline,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/v1/query", s.handleQuery).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler exposes the router for the HTTP server and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down within
// the graceful timeout.
func (s *Server) Run(ctx context.Context, cfg model.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleQuery trims and length-caps the incoming query, runs the
// pipeline and returns the structured result. Validation failures are
// the only requests that never reach the pipeline.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "query is required"})
		return
	}
	if runes := []rune(query); len(runes) > maxQueryLength {
		query = strings.TrimSpace(string(runes[:maxQueryLength]))
	}

	start := time.Now()
	result := s.pipeline.Answer(r.Context(), query)
	s.logger.Info("query handled",
		"id", result.ID,
		"intent", string(result.Intent),
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}
