package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecord_BeforeInitIsNoop(t *testing.T) {
	if scoresTotal != nil {
		t.Skip("metrics already initialised")
	}
	RecordScore("low", 43)
	RecordLookup("ok")
	RecordError("timeout")
	StartTimer().ObserveLookup()
}

func TestRecord_AfterInit(t *testing.T) {
	InitMetrics()
	InitMetrics() // second call must not panic on duplicate registration

	before := counterValue(t, "truthcore_scores_total", "level", "medium")
	RecordScore("medium", 60)
	if got := counterValue(t, "truthcore_scores_total", "level", "medium"); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}

	before = counterValue(t, "truthcore_lookup_total", "outcome", "fallback")
	RecordLookup("fallback")
	if got := counterValue(t, "truthcore_lookup_total", "outcome", "fallback"); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}

	before = counterValue(t, "truthcore_lookup_errors_total", "error_type", "auth")
	RecordError("auth")
	if got := counterValue(t, "truthcore_lookup_errors_total", "error_type", "auth"); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}

	timer := &Timer{start: time.Now().Add(-time.Second)}
	timer.ObserveLookup()
	var nilTimer *Timer
	nilTimer.ObserveLookup()
}
