package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockmarket"

// Repository operation results
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultExists   = "exists"
	ResultError    = "error"
)

// NewRegistry returns a registry carrying the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Repository records stock repository calls
type Repository struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRepository registers the repository collectors on reg
func NewRepository(reg prometheus.Registerer) *Repository {
	factory := promauto.With(reg)
	return &Repository{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "operations_total",
				Help:      "Total number of stock repository operations",
			},
			[]string{"backend", "operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "operation_duration_seconds",
				Help:      "Latency of stock repository operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
	}
}

// Observe records one finished operation
func (m *Repository) Observe(backend, operation, result string, elapsed time.Duration) {
	m.operations.WithLabelValues(backend, operation, result).Inc()
	m.duration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}

// Hub records notification fan-out
type Hub struct {
	subscribers prometheus.Gauge
	published   *prometheus.CounterVec
	dropped     prometheus.Counter
}

// NewHub registers the notification hub collectors on reg
func NewHub(reg prometheus.Registerer) *Hub {
	factory := promauto.With(reg)
	return &Hub{
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "subscribers",
			Help:      "Current number of notification subscribers",
		}),
		published: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "published_total",
				Help:      "Total number of published stock changes",
			},
			[]string{"type"},
		),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Messages dropped because a subscriber was too slow",
		}),
	}
}

// SetSubscribers sets the current subscriber count
func (m *Hub) SetSubscribers(n int) {
	m.subscribers.Set(float64(n))
}

// Published counts one published message
func (m *Hub) Published(messageType string) {
	m.published.WithLabelValues(messageType).Inc()
}

// Dropped counts one message not delivered to a subscriber
func (m *Hub) Dropped() {
	m.dropped.Inc()
}
