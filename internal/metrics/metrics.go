// Package metrics provides Prometheus metrics for gridbot
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for gridbot. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	TurnsTotal *prometheus.CounterVec

	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
	BackendUp              prometheus.Gauge

	FreshnessFlaggedStreams prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridbot_turns_total",
			Help: "Dialogue turns by intent and outcome",
		}, []string{"intent", "outcome"}),
		BackendRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridbot_backend_requests_total",
			Help: "Document store requests by operation and status",
		}, []string{"op", "status"}),
		BackendRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridbot_backend_request_duration_seconds",
			Help:    "Duration of document store requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		BackendUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridbot_backend_up",
			Help: "1 when the last scheduled backend probe succeeded",
		}),
		FreshnessFlaggedStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridbot_freshness_flagged_streams",
			Help: "Streams flagged by the last feed freshness check",
		}),
	}
}

func (m *Metrics) ObserveBackend(op string, took time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.BackendRequestsTotal.WithLabelValues(op, status).Inc()
	m.BackendRequestDuration.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) ObserveTurn(intent, outcome string) {
	m.TurnsTotal.WithLabelValues(intent, outcome).Inc()
}

func (m *Metrics) SetBackendUp(up bool) {
	if up {
		m.BackendUp.Set(1)
		return
	}
	m.BackendUp.Set(0)
}

func (m *Metrics) SetFlaggedStreams(n int) {
	m.FreshnessFlaggedStreams.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
