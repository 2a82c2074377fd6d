package coordinator

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "blescan"

// Attach outcome labels.
const (
	outcomeSucceeded     = "succeeded"
	outcomeLost          = "lost"
	outcomeRequestFailed = "request_failed"
)

// Telemetry result labels.
const (
	telemetryPublished     = "published"
	telemetryDroppedUplink = "dropped_uplink_down"
	telemetryDroppedMode   = "dropped_provisioning"
	telemetryDroppedQueue  = "dropped_queue_full"
	telemetryFailed        = "failed"
)

// Metrics are the coordinator's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	events             *prom.CounterVec
	droppedEvents      *prom.CounterVec
	attachAttempts     prom.Counter
	attachOutcomes     *prom.CounterVec
	modeTransitions    *prom.CounterVec
	telemetryResults   *prom.CounterVec
	provisioningWrites *prom.CounterVec
	modeGauge          prom.Gauge
	connectivityGauge  prom.Gauge
	attemptGauge       prom.Gauge
	uplinkGauge        prom.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses a fresh private registry.
func NewMetrics(reg prom.Registerer) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		events: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Events processed by the coordinator loop",
		}, []string{"event"}),
		droppedEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_dropped_total",
			Help:      "Events refused because the coordinator queue was full",
		}, []string{"event"}),
		attachAttempts: prom.NewCounter(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attach_attempts_total",
			Help:      "Network attach requests issued",
		}),
		attachOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attach_outcomes_total",
			Help:      "Network attach outcomes",
		}, []string{"outcome"}),
		modeTransitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mode_transitions_total",
			Help:      "Mode transitions by destination mode",
		}, []string{"mode"}),
		telemetryResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discovery_results_total",
			Help:      "Discovered devices by relay result",
		}, []string{"result"}),
		provisioningWrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provisioning_writes_total",
			Help:      "Provisioning writes by slot and result",
		}, []string{"slot", "result"}),
		modeGauge: prom.NewGauge(prom.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "mode",
			Help:      "Operating mode (0 normal, 1 provisioning)",
		}),
		connectivityGauge: prom.NewGauge(prom.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connectivity_state",
			Help:      "Attach state (0 idle, 1 connecting, 2 connected, 3 disconnected)",
		}),
		attemptGauge: prom.NewGauge(prom.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "attach_attempt",
			Help:      "Current consecutive attach attempt",
		}),
		uplinkGauge: prom.NewGauge(prom.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "uplink_connected",
			Help:      "Whether the relay session is up",
		}),
	}
	reg.MustRegister(
		m.events, m.droppedEvents, m.attachAttempts, m.attachOutcomes, m.modeTransitions,
		m.telemetryResults, m.provisioningWrites,
		m.modeGauge, m.connectivityGauge, m.attemptGauge, m.uplinkGauge,
	)
	return m
}

func (m *Metrics) event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

func (m *Metrics) eventDropped(name string) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(name).Inc()
}

func (m *Metrics) attachAttempt() {
	if m == nil {
		return
	}
	m.attachAttempts.Inc()
}

func (m *Metrics) attachOutcome(outcome string) {
	if m == nil {
		return
	}
	m.attachOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) modeTransition(to Mode) {
	if m == nil {
		return
	}
	m.modeTransitions.WithLabelValues(to.String()).Inc()
}

func (m *Metrics) telemetry(result string) {
	if m == nil {
		return
	}
	m.telemetryResults.WithLabelValues(result).Inc()
}

func (m *Metrics) provisioningWrite(slot Slot, ok bool) {
	if m == nil {
		return
	}
	result := "stored"
	if !ok {
		result = "failed"
	}
	m.provisioningWrites.WithLabelValues(string(slot), result).Inc()
}

func (m *Metrics) state(s Snapshot) {
	if m == nil {
		return
	}
	m.modeGauge.Set(float64(s.Mode))
	m.connectivityGauge.Set(float64(s.State))
	m.attemptGauge.Set(float64(s.Attempt))
	uplink := 0.0
	if s.UplinkConnected {
		uplink = 1
	}
	m.uplinkGauge.Set(uplink)
}
