// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements graph.Observer and the engine and server hooks.
type Metrics struct {
	registry *prometheus.Registry

	recomputes    *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	ticks         *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	commands      *prometheus.CounterVec
	clients       prometheus.Gauge
	broadcasts    prometheus.Counter
}

// New registers every collector on a fresh registry, so several engines can
// coexist in one process (and in tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		recomputes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statgraph_node_recomputes_total",
			Help: "Number of times a node recomputed its cached value.",
		}, []string{"node"}),
		invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statgraph_node_invalidations_total",
			Help: "Number of times a node was marked dirty.",
		}, []string{"node"}),
		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statgraph_ticks_total",
			Help: "Engine ticks, by whether anything visible changed.",
		}, []string{"changed"}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "statgraph_tick_duration_seconds",
			Help:    "Duration of engine ticks.",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statgraph_commands_total",
			Help: "Console commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		clients: f.NewGauge(prometheus.GaugeOpts{
			Name: "statgraph_connected_clients",
			Help: "Connected socket.io clients.",
		}),
		broadcasts: f.NewCounter(prometheus.CounterOpts{
			Name: "statgraph_snapshot_broadcasts_total",
			Help: "Snapshots pushed to connected clients.",
		}),
	}
}

// Registry returns the underlying registry, for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Recomputed implements graph.Observer.
func (m *Metrics) Recomputed(id string) { m.recomputes.WithLabelValues(id).Inc() }

// Invalidated implements graph.Observer.
func (m *Metrics) Invalidated(id string) { m.invalidations.WithLabelValues(id).Inc() }

// ObserveTick records one engine tick.
func (m *Metrics) ObserveTick(d time.Duration, changed bool) {
	label := "false"
	if changed {
		label = "true"
	}
	m.ticks.WithLabelValues(label).Inc()
	m.tickDuration.Observe(d.Seconds())
}

// CommandHandled records a console command outcome.
func (m *Metrics) CommandHandled(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// ClientConnected increments the client gauge.
func (m *Metrics) ClientConnected() { m.clients.Inc() }

// ClientDisconnected decrements the client gauge.
func (m *Metrics) ClientDisconnected() { m.clients.Dec() }

// Broadcast counts one snapshot push.
func (m *Metrics) Broadcast() { m.broadcasts.Inc() }
