// Package server exposes the dispatcher's ops HTTP endpoint: a health check
// over the bus and store connections, and read-only routing introspection.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"message-dispatcher/internal/routing"
)

// HealthChecker is anything that can report whether it is usable. Both the
// bus and the KV store satisfy it.
type HealthChecker interface {
	Health() error
}

// Server represents the ops HTTP server.
type Server struct {
	srv *http.Server
}

// New creates an ops server for the given routing configuration and health
// targets. Nil checkers are skipped (a stateless router has no store).
func New(port string, cfg *routing.Config, checkers map[string]HealthChecker) *Server {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthHandler(checkers)).Methods(http.MethodGet)
	r.HandleFunc("/routerz", routerHandler(cfg)).Methods(http.MethodGet)

	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func healthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checkers))
		for name, checker := range checkers {
			if checker == nil {
				continue
			}
			if err := checker.Health(); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
			} else {
				result[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(result)
	}
}

func routerHandler(cfg *routing.Config) http.HandlerFunc {
	summary := map[string]interface{}{
		"router":          cfg.Router,
		"dispatcher_name": cfg.DispatcherName,
		"transport_names": cfg.TransportNames,
		"exposed_names":   cfg.ExposedNames,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// Start starts the server in a goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
