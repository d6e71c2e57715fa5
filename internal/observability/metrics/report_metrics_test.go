package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestReportMetricsRecording(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newReportMetrics(registry, Config{ServiceName: "orderbill-test", Environment: "test"})

	m.RecordReport(ReportStatusSuccess, 150*time.Millisecond)
	m.RecordReport(ReportStatusValidationError, time.Millisecond)
	m.RecordOrder(true)
	m.RecordOrder(false)
	m.RecordOrderFailure()
	m.RecordServiceCost("Quantity")
	m.RecordRuleFailure("")
	m.RecordCalculationFailure("case_based_tier")

	if got := testutil.ToFloat64(m.reports.WithLabelValues(ReportStatusSuccess)); got != 1 {
		t.Fatalf("expected 1 successful report, got %v", got)
	}
	if got := testutil.ToFloat64(m.ordersProcessed); got != 2 {
		t.Fatalf("expected 2 processed orders, got %v", got)
	}
	if got := testutil.ToFloat64(m.ordersBilled); got != 1 {
		t.Fatalf("expected 1 billed order, got %v", got)
	}
	if got := testutil.ToFloat64(m.orderFailures); got != 1 {
		t.Fatalf("expected 1 order failure, got %v", got)
	}
	if got := testutil.CollectAndCount(m.ruleFailures); got != 1 {
		t.Fatalf("expected order failures to stay out of rule failures, got %d series", got)
	}
	if got := testutil.ToFloat64(m.serviceCosts.WithLabelValues("quantity")); got != 1 {
		t.Fatalf("expected normalized charge type label, got %v", got)
	}
	if got := testutil.ToFloat64(m.ruleFailures.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty reason to map to unknown, got %v", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var histogram *dto.Histogram
	for _, family := range families {
		if family.GetName() == "orderbill_report_generation_duration_seconds" {
			histogram = family.GetMetric()[0].GetHistogram()
			for _, label := range family.GetMetric()[0].GetLabel() {
				if label.GetName() == "service" && label.GetValue() != "orderbill-test" {
					t.Fatalf("unexpected service label %q", label.GetValue())
				}
			}
		}
	}
	if histogram == nil || histogram.GetSampleCount() != 2 {
		t.Fatalf("expected 2 duration samples, got %+v", histogram)
	}
}

func TestNilReportMetricsIsNoop(t *testing.T) {
	var m *ReportMetrics
	m.RecordReport(ReportStatusFailed, time.Second)
	m.RecordOrder(true)
	m.RecordOrderFailure()
	m.RecordServiceCost("single")
	m.RecordRuleFailure(RuleFailurePanic)
	m.RecordCalculationFailure("single")
}

func TestReportSingleton(t *testing.T) {
	ResetReportMetricsForTest()
	t.Cleanup(ResetReportMetricsForTest)

	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	t.Cleanup(func() { prometheus.DefaultRegisterer = prev })

	first := ReportWithConfig(Config{ServiceName: "a"})
	second := Report()
	if first != second {
		t.Fatalf("expected singleton instance")
	}
}
