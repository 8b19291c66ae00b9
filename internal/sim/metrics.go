package sim

import (
	"net/http"

	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes run progress as Prometheus collectors. Each Metrics owns
// its registry so several engines can run in one process.
type Metrics struct {
	registry *prometheus.Registry

	ticks      prometheus.Counter
	events     *prometheus.CounterVec
	missing    prometheus.Gauge
	collisions prometheus.Gauge
	movements  prometheus.Gauge
	visited    prometheus.Gauge
	reserved   prometheus.Gauge
	simSeconds prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "trove_ticks_total",
			Help: "Simulation ticks executed",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trove_events_total",
			Help: "Simulation events by type and color",
		}, []string{"type", "color"}),
		missing: f.NewGauge(prometheus.GaugeOpts{
			Name: "trove_missing_gems",
			Help: "Gems not yet delivered",
		}),
		collisions: f.NewGauge(prometheus.GaugeOpts{
			Name: "trove_collisions",
			Help: "Collisions counted so far",
		}),
		movements: f.NewGauge(prometheus.GaugeOpts{
			Name: "trove_movements",
			Help: "Target decisions made so far",
		}),
		visited: f.NewGauge(prometheus.GaugeOpts{
			Name: "trove_visited_cells",
			Help: "Cells in the visited set",
		}),
		reserved: f.NewGauge(prometheus.GaugeOpts{
			Name: "trove_reserved_gems",
			Help: "Gems currently reserved",
		}),
		simSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "trove_sim_seconds",
			Help: "Simulated seconds elapsed",
		}),
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveEvent(e *blackboard.Event) {
	m.events.WithLabelValues(string(e.Type), string(e.Color)).Inc()
}

// ObserveTick records one tick and the counters at its end.
func (m *Metrics) ObserveTick(s blackboard.Stats) {
	m.ticks.Inc()
	m.missing.Set(float64(s.MissingGems))
	m.collisions.Set(float64(s.Collisions))
	m.movements.Set(float64(s.Movements))
	m.visited.Set(float64(s.Visited))
	m.reserved.Set(float64(s.Reserved))
	m.simSeconds.Set(s.ElapsedSeconds)
}
