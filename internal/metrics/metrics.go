package metrics

import (
	"net/http"

	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the simulation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Detections        *prometheus.CounterVec
	Alerts            *prometheus.CounterVec
	AlertsRead        prometheus.Counter
	SimulationRunning prometheus.Gauge
	SimulationTicks   prometheus.Counter
	Subscribers       prometheus.Gauge
	NotifyFailures    prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry
func New() *Metrics {
	m := &Metrics{
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_detections_total",
			Help: "Detections appended to the log",
		}, []string{"kind"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_alerts_total",
			Help: "Alerts raised",
		}, []string{"kind", "severity"}),
		AlertsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmwatch_alerts_read_total",
			Help: "Alerts transitioned from unread to read",
		}),
		SimulationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_simulation_running",
			Help: "1 while the simulation driver is running",
		}),
		SimulationTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmwatch_simulation_ticks_total",
			Help: "Simulation timer firings",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_state_subscribers",
			Help: "Active state change subscribers",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmwatch_notification_failures_total",
			Help: "Alert notifications that failed on at least one channel",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Detections,
		m.Alerts,
		m.AlertsRead,
		m.SimulationRunning,
		m.SimulationTicks,
		m.Subscribers,
		m.NotifyFailures,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDetection(d models.Detection) {
	if m == nil {
		return
	}
	m.Detections.WithLabelValues(string(d.Kind)).Inc()
}

func (m *Metrics) ObserveAlert(a models.Alert) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
}

func (m *Metrics) ObserveAlertRead() {
	if m == nil {
		return
	}
	m.AlertsRead.Inc()
}

func (m *Metrics) ObserveTick() {
	if m == nil {
		return
	}
	m.SimulationTicks.Inc()
}

func (m *Metrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}

func (m *Metrics) SetSimulationRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.SimulationRunning.Set(1)
	} else {
		m.SimulationRunning.Set(0)
	}
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}
