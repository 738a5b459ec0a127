// Package health exposes the ops surface: liveness, metrics and the
// flow history.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minhct/snapflow/internal/flow/runner"
)

// Check probes one dependency (cache, database).
type Check func(ctx context.Context) error

// Server provides HTTP endpoints for health monitoring and flow control.
type Server struct {
	runner *runner.Runner
	server *http.Server
	checks map[string]Check
}

// NewServer creates a new ops server around a runner.
func NewServer(r *runner.Runner, port int, checks map[string]Check) *Server {
	mux := http.NewServeMux()
	s := &Server{
		runner: r,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		checks: checks,
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/history/clear", s.handleClear)
	mux.HandleFunc("/run", s.handleRun)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type depStatus struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	deps := make(map[string]depStatus, len(s.checks))
	healthy := true
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = depStatus{Status: "down", Error: err.Error()}
			healthy = false
		} else {
			deps[name] = depStatus{Status: "up"}
		}
	}

	response := map[string]any{
		"status":       "healthy",
		"runner_state": s.runner.State().String(),
		"dependencies": deps,
	}
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	key, _ := s.runner.LastSuccessCacheKey()
	response := map[string]any{
		"attempts":               s.runner.History(),
		"metrics":                s.runner.Metrics(),
		"last_success_cache_key": key,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.runner.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	ok := s.runner.Run(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadGateway)
	}
	json.NewEncoder(w).Encode(map[string]any{"success": ok})
}
