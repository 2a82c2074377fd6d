package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/blescan-node/internal/coordinator"
)

// healthCheckTimeout bounds each component check on /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Handle("/metrics", s.metricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/system", s.handleSystem)
		r.Post("/mode/toggle", s.handleModeToggle)
		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// ComponentHealth is one entry of the health response.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth reports the health of the server and each registered component.
// A failing component degrades the response to 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	components := make([]ComponentHealth, 0, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()

		entry := ComponentHealth{Name: name, Status: "ok"}
		if err != nil {
			entry.Status = "unavailable"
			entry.Error = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		components = append(components, entry)
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

// handleStatus returns the coordinator snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.node.Snapshot())
}

// handleModeToggle behaves like one press of the mode button.
func (s *Server) handleModeToggle(w http.ResponseWriter, r *http.Request) {
	if err := s.node.Post(r.Context(), coordinator.ModeToggleRequested{}); err != nil {
		if errors.Is(err, coordinator.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "node is shutting down")
			return
		}
		s.logger.Warn("mode toggle not queued", "error", err)
		writeInternalError(w, "mode toggle not queued")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
