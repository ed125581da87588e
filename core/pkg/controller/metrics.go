package controller

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	passes          *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	objects         *prometheus.GaugeVec
	reconcileErrors *prometheus.CounterVec
	listFailures    *prometheus.CounterVec
	restarts        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	labels := []string{"controller"}
	m := &metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yangtze",
			Subsystem: "controller",
			Name:      "passes_total",
			Help:      "Completed reconciliation passes.",
		}, labels),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "yangtze",
			Subsystem: "controller",
			Name:      "pass_duration_seconds",
			Help:      "Duration of reconciliation passes in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		objects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "yangtze",
			Subsystem: "controller",
			Name:      "objects",
			Help:      "Objects seen in the last pass.",
		}, labels),
		reconcileErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yangtze",
			Subsystem: "controller",
			Name:      "reconcile_errors_total",
			Help:      "Execute calls that returned an error.",
		}, labels),
		listFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yangtze",
			Subsystem: "controller",
			Name:      "list_failures_total",
			Help:      "Failed list calls.",
		}, labels),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yangtze",
			Subsystem: "controller",
			Name:      "restarts_total",
			Help:      "Controller loop restarts.",
		}, labels),
	}
	reg.MustRegister(m.passes, m.passDuration, m.objects, m.reconcileErrors, m.listFailures, m.restarts)
	return m
}
