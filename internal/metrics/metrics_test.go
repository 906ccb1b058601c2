package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()

	// This should not panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustRegister() panicked: %v", r)
		}
	}()

	MustRegister(reg)

	// Record some values so metrics appear in Gather()
	RecordCommand("aging")
	RecordDispatch("delivered")
	RecordRetry("timeout")
	RecordCallbackFailure()
	ObserveRemoteCall("token", 0.05)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Errorf("Registry.Gather() error: %v", err)
	}

	expectedMetrics := []string{
		"arcorelay_commands_total",
		"arcorelay_dispatches_total",
		"arcorelay_retries_total",
		"arcorelay_callback_failures_total",
		"arcorelay_remote_call_duration_seconds",
	}

	registeredMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		registeredMetrics[mf.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !registeredMetrics[expected] {
			t.Errorf("Expected metric %s not found in registry", expected)
		}
	}
}

func TestRecordCommand(t *testing.T) {
	CommandsTotal.Reset()

	tests := []struct {
		name  string
		kind  string
		calls int
	}{
		{name: "single aging command", kind: "aging", calls: 1},
		{name: "multiple escola commands", kind: "escola", calls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.calls; i++ {
				RecordCommand(tt.kind)
			}

			got := testutil.ToFloat64(CommandsTotal.WithLabelValues(tt.kind))
			if got != float64(tt.calls) {
				t.Errorf("CommandsTotal{kind=%q} = %v, want %v", tt.kind, got, float64(tt.calls))
			}
		})
	}
}

func TestRecordDispatch(t *testing.T) {
	DispatchesTotal.Reset()

	statuses := []string{"delivered", "failed", "failed", "rejected"}
	for _, s := range statuses {
		RecordDispatch(s)
	}

	if got := testutil.ToFloat64(DispatchesTotal.WithLabelValues("delivered")); got != 1 {
		t.Errorf("DispatchesTotal{status=delivered} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DispatchesTotal.WithLabelValues("failed")); got != 2 {
		t.Errorf("DispatchesTotal{status=failed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(DispatchesTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("DispatchesTotal{status=rejected} = %v, want 1", got)
	}
}

func TestRecordRetry(t *testing.T) {
	RetriesTotal.Reset()

	reasons := []string{"timeout", "http_5xx", "http_5xx", "http_429"}
	for _, r := range reasons {
		RecordRetry(r)
	}

	if got := testutil.ToFloat64(RetriesTotal.WithLabelValues("http_5xx")); got != 2 {
		t.Errorf("RetriesTotal{reason=http_5xx} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RetriesTotal.WithLabelValues("http_429")); got != 1 {
		t.Errorf("RetriesTotal{reason=http_429} = %v, want 1", got)
	}
}
