package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOutcome(OutcomeCompleted)
	m.ObserveOutcome(OutcomeCompleted)
	m.ObserveOutcome(OutcomeRejected)

	if got := testutil.ToFloat64(m.requests.WithLabelValues(OutcomeCompleted)); got != 2 {
		t.Errorf("completed count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rejections); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
}

func TestAddSpend(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddSpend(0.25)
	m.AddSpend(0.50)

	if got := testutil.ToFloat64(m.spendUsd); got != 0.75 {
		t.Errorf("spend = %v, want 0.75", got)
	}
}

func TestNilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.ObserveOutcome(OutcomeFailed)
	m.AddSpend(1.0)
}
