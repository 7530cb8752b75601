package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TaskEvents      *prometheus.CounterVec
	TaskTransitions *prometheus.CounterVec
	RemoteErrors    *prometheus.CounterVec
	ReconcileTicks  prometheus.Counter
	InFlightTasks   prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TaskEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_events_total",
			Help:      "Task command events by type.",
		}, []string{"event"}),
		TaskTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_transitions_total",
			Help:      "Task status transitions by source and target status.",
		}, []string{"from", "to"}),
		RemoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_errors_total",
			Help:      "Remote call failures by collaborator and operation.",
		}, []string{"target", "op"}),
		ReconcileTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_ticks_total",
			Help:      "Completed reconciliation loop ticks.",
		}),
		InFlightTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight_tasks",
			Help:      "Tasks in a status the reconciler actively polls.",
		}),
	}
}

func (m *Metrics) ObserveTaskEvent(event string) {
	if m == nil {
		return
	}
	m.TaskEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.TaskTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveRemoteError(target, op string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(target, op).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
