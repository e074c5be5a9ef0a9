// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ChatConnections prometheus.Gauge
	ChatMessages    *prometheus.CounterVec
	ChatDropped     prometheus.Counter
}

// New registers every collector on a fresh registry, so tests can build
// as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskchat",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskchat",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChatConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskchat",
			Name:      "chat_connections",
			Help:      "Open chat connections.",
		}),
		ChatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskchat",
			Name:      "chat_messages_total",
			Help:      "Inbound chat messages by kind (broadcast, direct).",
		}, []string{"kind"}),
		ChatDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskchat",
			Name:      "chat_delivery_failures_total",
			Help:      "Per-connection deliveries that failed.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.ChatConnections,
		m.ChatMessages,
		m.ChatDropped,
	)
	return m
}
