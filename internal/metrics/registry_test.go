package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterRetrievalMetrics()
	RegisterRetrievalMetrics()
	RegisterRebuildMetrics()
	RegisterRebuildMetrics()
}

func TestRetrievalCounters(t *testing.T) {
	before := testutil.ToFloat64(RetrievalRequestsTotal.WithLabelValues(OutcomeOK))
	RetrievalRequestsTotal.WithLabelValues(OutcomeOK).Inc()
	if got := testutil.ToFloat64(RetrievalRequestsTotal.WithLabelValues(OutcomeOK)); got != before+1 {
		t.Errorf("counter = %f, want %f", got, before+1)
	}

	RebuildRunning.Set(1)
	if testutil.ToFloat64(RebuildRunning) != 1 {
		t.Error("gauge not set")
	}
	RebuildRunning.Set(0)
}
