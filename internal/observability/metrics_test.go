package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunCollector_ObserveDayIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}

	collector.ObserveDay()
	collector.ObserveDay()

	if got := testutil.ToFloat64(collector.DaysCompleted); got != 2 {
		t.Fatalf("solver_days_completed_total = %v, want 2", got)
	}
}

func TestRunCollector_ObserveEventLabelsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}

	collector.ObserveEvent("EXIT")
	collector.ObserveEvent("EXIT")
	collector.ObserveEvent("EXTERNAL_TRANSFER")

	if got := testutil.ToFloat64(collector.EventsProcessed.WithLabelValues("EXIT")); got != 2 {
		t.Fatalf("EXIT count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.EventsProcessed.WithLabelValues("EXTERNAL_TRANSFER")); got != 1 {
		t.Fatalf("EXTERNAL_TRANSFER count = %v, want 1", got)
	}
}

func TestRunCollector_ObserveErrorLabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}

	collector.ObserveError("NEGATIVE_STATE")

	if got := testutil.ToFloat64(collector.ErrorsTotal.WithLabelValues("NEGATIVE_STATE")); got != 1 {
		t.Fatalf("solver_errors_total{code=NEGATIVE_STATE} = %v, want 1", got)
	}
}

func TestRunCollector_HandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRunCollector(reg)
	if err != nil {
		t.Fatalf("NewRunCollector: %v", err)
	}
	collector.ObserveDay()
	collector.ObserveSSASteps(10)
	collector.SetActiveWorkers(4)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"solver_days_completed_total",
		"solver_ssa_steps_total",
		"solver_active_workers",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestNewRunCollector_NilRegistererUsesDefault(t *testing.T) {
	if _, err := NewRunCollector(nil); err != nil {
		t.Fatalf("NewRunCollector(nil): %v", err)
	}
}
