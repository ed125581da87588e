package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtomasi/yangtze/core/pkg/storage"
)

// Metrics holds the API server collectors.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates the HTTP collectors and registers them, together with
// the backend counters of store, on reg.
func NewMetrics(reg prometheus.Registerer, store storage.Backend) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "yangtze",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "yangtze",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration)

	if store != nil {
		labels := prometheus.Labels{"backend": store.Name()}
		reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace:   "yangtze",
				Subsystem:   "storage",
				Name:        "operations_total",
				Help:        "Successful storage operations.",
				ConstLabels: labels,
			}, func() float64 { return float64(store.Metrics().Operations) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace:   "yangtze",
				Subsystem:   "storage",
				Name:        "errors_total",
				Help:        "Failed storage operations.",
				ConstLabels: labels,
			}, func() float64 { return float64(store.Metrics().Errors) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace:   "yangtze",
				Subsystem:   "storage",
				Name:        "conflicts_total",
				Help:        "Updates rejected for a stale version.",
				ConstLabels: labels,
			}, func() float64 { return float64(store.Metrics().Conflicts) }),
		)
	}
	return m
}

// RecordHTTPRequest observes one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}
