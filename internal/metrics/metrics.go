// internal/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"link-service/internal/task"
)

const namespace = "link_service"

// Metrics holds the worker and link collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	iterations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	lifecycle  *prometheus.CounterVec
	running    prometheus.Gauge
	connected  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "iterations_total",
			Help:      "Worker loop iterations, by role.",
		}, []string{"role"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "failures_total",
			Help:      "Worker iterations whose body returned an error, by role.",
		}, []string{"role"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "events_total",
			Help:      "Coordinator lifecycle events, by type.",
		}, []string{"event"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "running",
			Help:      "1 while a worker is tracked.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "connected",
			Help:      "1 while the operator has the link connected.",
		}),
	}

	m.registry.MustRegister(
		m.iterations,
		m.failures,
		m.lifecycle,
		m.running,
		m.connected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// InstrumentWork counts iterations and failures of next.
func (m *Metrics) InstrumentWork(next task.WorkFunc) task.WorkFunc {
	return func(ctx context.Context, it task.Iteration) error {
		err := next(ctx, it)
		role := it.Role.String()
		m.iterations.WithLabelValues(role).Inc()
		if err != nil {
			m.failures.WithLabelValues(role).Inc()
		}
		return err
	}
}

// ObserveEvent is a task.Observer.
func (m *Metrics) ObserveEvent(ev task.Event) {
	m.lifecycle.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case task.EventWorkerCreated:
		m.running.Set(1)
	case task.EventWorkerDeleted:
		m.running.Set(0)
	}
}

func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
