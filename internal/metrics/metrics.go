// Package metrics holds the Prometheus collectors for both binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsAdmitted  *prometheus.CounterVec
	RequestsRefused   *prometheus.CounterVec
	RequestsCanceled  prometheus.Counter
	Decisions         *prometheus.CounterVec
	AutoRejected      prometheus.Counter
	EventTransitions  *prometheus.CounterVec
	HitsSent          prometheus.Counter
	HitsDropped       prometheus.Counter
	HitSendFailures   prometheus.Counter
	HitsStored        prometheus.Counter
	StatsFailures     prometheus.Counter
	StatsBreakerState prometheus.Gauge
	ViewCacheHits     prometheus.Counter
	ViewCacheMisses   prometheus.Counter
}

// New creates the metrics and registers them with reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RequestsAdmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ewm_requests_admitted_total",
			Help: "Participation requests created, by initial status",
		}, []string{"status"}),
		RequestsRefused: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ewm_requests_refused_total",
			Help: "Participation requests refused at creation, by reason",
		}, []string{"reason"}),
		RequestsCanceled: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_requests_canceled_total",
			Help: "Participation requests canceled by their requester",
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ewm_request_decisions_total",
			Help: "Requests confirmed or rejected by batch decisions",
		}, []string{"status"}),
		AutoRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_requests_auto_rejected_total",
			Help: "Pending requests rejected because an event's capacity ran out",
		}),
		EventTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ewm_event_transitions_total",
			Help: "Event lifecycle transitions, by resulting state",
		}, []string{"state"}),
		HitsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_stats_hits_sent_total",
			Help: "Hits delivered to the stats service",
		}),
		HitsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_stats_hits_dropped_total",
			Help: "Hits dropped because the send buffer was full",
		}),
		HitSendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_stats_hit_send_failures_total",
			Help: "Hits that could not be delivered to the stats service",
		}),
		HitsStored: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_stats_hits_stored_total",
			Help: "Hits persisted by the stats service",
		}),
		StatsFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_stats_view_query_failures_total",
			Help: "View queries that failed and degraded to zero views",
		}),
		StatsBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "ewm_stats_circuit_breaker_state",
			Help: "Current stats client circuit breaker state (0=closed, 1=open)",
		}),
		ViewCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_view_cache_hits_total",
			Help: "View queries answered from the cache",
		}),
		ViewCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "ewm_view_cache_misses_total",
			Help: "View queries that fell through to the stats service",
		}),
	}
}

// SetBreakerState sets the circuit breaker state gauge.
func (m *Metrics) SetBreakerState(open bool) {
	if open {
		m.StatsBreakerState.Set(1)
	} else {
		m.StatsBreakerState.Set(0)
	}
}
