package api

import (
	"net/http"
	"runtime"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/blescan-node/internal/coordinator"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string               `json:"timestamp"`
	Version       string               `json:"version"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Runtime       RuntimeMetrics       `json:"runtime"`
	WebSocket     WSMetrics            `json:"websocket"`
	Node          coordinator.Snapshot `json:"node"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// handleSystem returns a JSON summary of the process for quick inspection.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Node: s.node.Snapshot(),
	}
	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, metrics)
}

// metricsHandler serves the Prometheus registry, or 404 when none is configured.
func (s *Server) metricsHandler() http.Handler {
	if s.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "metrics are not enabled")
		})
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// registerMetrics adds the API's own collectors to reg.
func (s *Server) registerMetrics(reg prom.Registerer) error {
	return reg.Register(prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "blescan",
		Subsystem: "api",
		Name:      "websocket_clients",
		Help:      "Connected WebSocket clients",
	}, func() float64 {
		if s.hub == nil {
			return 0
		}
		return float64(s.hub.ClientCount())
	}))
}
