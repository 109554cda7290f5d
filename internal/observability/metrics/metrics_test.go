package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRunMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRunMetrics(reg)

	m.ObserveRun("reminders", "preview")
	m.ObserveCandidate()
	m.ObserveSend("sent")
	m.ObservePhoneField("changed")
	m.ObserveRunDuration("reminders", 0.2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(families))
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *RunMetrics
	m.ObserveRun("reminders", "apply")
	m.ObserveCandidate()
	m.ObserveSend("error")
	m.ObservePhoneField("invalid")
	m.ObserveRunDuration("phones", 1.0)
}
