package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine. One instance is wired
// through the components at startup.
type Metrics struct {
	SessionsConnected prometheus.Gauge
	EventsBroadcast   *prometheus.CounterVec
	SessionErrors     *prometheus.CounterVec

	EvaluationsTotal   prometheus.Counter
	EvaluationFailures prometheus.Counter
	EvaluationsDropped prometheus.Counter
	TransitionsTotal   *prometheus.CounterVec

	NotificationsDispatched *prometheus.CounterVec
	PushAttempts            prometheus.Counter
	PushFailures            *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on a caller-supplied registry so tests can isolate.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "custodia_sessions_connected",
			Help: "Currently connected realtime sessions",
		}),
		EventsBroadcast: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_events_broadcast_total",
			Help: "Events broadcast to rooms, by event name",
		}, []string{"event"}),
		SessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_session_errors_total",
			Help: "Error events sent to sessions, by reason",
		}, []string{"reason"}),
		EvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "custodia_geofence_evaluations_total",
			Help: "Geofence evaluation rounds completed",
		}),
		EvaluationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "custodia_geofence_evaluation_failures_total",
			Help: "Evaluation rounds skipped because the zone lookup failed",
		}),
		EvaluationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "custodia_geofence_evaluations_dropped_total",
			Help: "Updates dropped because the evaluation queue was full",
		}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_geofence_transitions_total",
			Help: "Zone transitions detected, by kind",
		}, []string{"kind"}),
		NotificationsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_notifications_dispatched_total",
			Help: "Notifications persisted, by category",
		}, []string{"category"}),
		PushAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "custodia_push_attempts_total",
			Help: "Push deliveries attempted",
		}),
		PushFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_push_failures_total",
			Help: "Push deliveries failed, by classification",
		}, []string{"reason"}),
	}
}
