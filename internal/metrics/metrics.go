// Package metrics exposes account events as Prometheus counters
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/vidtube/internal/service/audit"
)

const namespace = "vidtube"

// Metrics owns dedicated registry, nothing is registered globally
type Metrics struct {
	registry *prometheus.Registry

	authEvents  *prometheus.CounterVec
	tokenReused prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Account and session events by type and result.",
		}, []string{"type", "result"}),
		tokenReused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_reuse_detected_total",
			Help:      "Superseded refresh tokens presented for refresh.",
		}),
	}

	m.registry.MustRegister(
		m.authEvents,
		m.tokenReused,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Record implements audit.Sink
func (m *Metrics) Record(_ context.Context, event audit.Event) {
	result := "success"
	if !event.Success {
		result = "failure"
	}
	m.authEvents.WithLabelValues(string(event.Type), result).Inc()

	if event.Type == audit.EventTokenReuse {
		m.tokenReused.Inc()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves metrics in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
