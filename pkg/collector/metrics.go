package collector

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collector's Prometheus registry
type Metrics struct {
	registry *prometheus.Registry
	received *prometheus.CounterVec
	rejected *prometheus.CounterVec
	params   prometheus.Histogram
	stored   prometheus.Gauge
}

// NewMetrics creates a registry with the runtime collectors and the hit counters
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_hits_received_total",
			Help: "Hits received, by hit type",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_hits_rejected_total",
			Help: "Requests rejected, by reason",
		}, []string{"reason"}),
		params: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_hit_params",
			Help:    "Number of parameters per hit",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
		stored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collector_hits_stored",
			Help: "Hits currently held in memory",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.received,
		m.rejected,
		m.params,
		m.stored,
	)
	return m
}

func (m *Metrics) observe(hit Hit, stored int) {
	m.received.WithLabelValues(hit.Type()).Inc()
	m.params.Observe(float64(len(hit.Params)))
	m.stored.Set(float64(stored))
}

func (m *Metrics) reject(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
