// Package metrics exposes Prometheus collectors for the request governor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes tracked by the dispatcher.
const (
	OutcomeCacheHit  = "cache_hit"
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics holds the governor's Prometheus collectors.
type Metrics struct {
	requests   *prometheus.CounterVec
	spendUsd   prometheus.Counter
	rejections prometheus.Counter
}

// New registers the collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tollgate_requests_total",
				Help: "Dispatched requests by outcome",
			},
			[]string{"outcome"},
		),
		spendUsd: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tollgate_spend_usd_total",
				Help: "Actual dollars recorded for completed paid calls",
			},
		),
		rejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tollgate_budget_rejections_total",
				Help: "Requests declined by the budget governor",
			},
		),
	}
}

// ObserveOutcome counts one request with the given outcome.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeRejected {
		m.rejections.Inc()
	}
}

// AddSpend records actual dollars spent on a completed call.
func (m *Metrics) AddSpend(usd float64) {
	if m == nil {
		return
	}
	m.spendUsd.Add(usd)
}
