package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ReportStatusSuccess         = "success"
	ReportStatusValidationError = "validation_error"
	ReportStatusFailed          = "failed"
)

const (
	RuleFailureUnsupported = "unsupported"
	RuleFailurePanic       = "panic"
	RuleFailureLogic       = "unknown_logic"
)

// Config carries the constant labels attached to every series.
type Config struct {
	ServiceName string
	Environment string
}

// ReportMetrics captures billing report generation signals. A nil
// *ReportMetrics is valid and records nothing.
type ReportMetrics struct {
	reports             *prometheus.CounterVec
	duration            prometheus.Observer
	ordersProcessed     prometheus.Counter
	ordersBilled        prometheus.Counter
	orderFailures       prometheus.Counter
	serviceCosts        *prometheus.CounterVec
	ruleFailures        *prometheus.CounterVec
	calculationFailures *prometheus.CounterVec
}

var (
	reportMetricsOnce sync.Once
	reportMetrics     *ReportMetrics
)

// Report returns the singleton report metrics registry.
func Report() *ReportMetrics {
	return ReportWithConfig(Config{})
}

// ReportWithConfig returns the singleton report metrics registry using config labels.
func ReportWithConfig(cfg Config) *ReportMetrics {
	reportMetricsOnce.Do(func() {
		reportMetrics = newReportMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return reportMetrics
}

// ResetReportMetricsForTest resets the singleton for tests.
func ResetReportMetricsForTest() {
	reportMetricsOnce = sync.Once{}
	reportMetrics = nil
}

func newReportMetrics(registerer prometheus.Registerer, cfg Config) *ReportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "orderbill"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "orderbill_reports_generated_total",
		Help:        "Billing report generations by outcome.",
		ConstLabels: constLabels,
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "orderbill_report_generation_duration_seconds",
		Help:        "Wall time of a single report generation.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		ConstLabels: constLabels,
	})
	ordersProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "orderbill_orders_processed_total",
		Help:        "Orders evaluated during report generation.",
		ConstLabels: constLabels,
	})
	ordersBilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "orderbill_orders_billed_total",
		Help:        "Orders that produced at least one service cost.",
		ConstLabels: constLabels,
	})
	orderFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "orderbill_order_failures_total",
		Help:        "Orders dropped from a report after an unexpected failure.",
		ConstLabels: constLabels,
	})
	serviceCosts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "orderbill_service_costs_total",
		Help:        "Service cost lines created by charge type.",
		ConstLabels: constLabels,
	}, []string{"charge_type"})
	ruleFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "orderbill_rule_evaluation_failures_total",
		Help:        "Rule evaluations that fell back to false.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	calculationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "orderbill_calculation_failures_total",
		Help:        "Cost calculations that fell back to zero.",
		ConstLabels: constLabels,
	}, []string{"charge_type"})

	registerer.MustRegister(
		reports,
		duration,
		ordersProcessed,
		ordersBilled,
		orderFailures,
		serviceCosts,
		ruleFailures,
		calculationFailures,
	)

	return &ReportMetrics{
		reports:             reports,
		duration:            duration,
		ordersProcessed:     ordersProcessed,
		ordersBilled:        ordersBilled,
		orderFailures:       orderFailures,
		serviceCosts:        serviceCosts,
		ruleFailures:        ruleFailures,
		calculationFailures: calculationFailures,
	}
}

func (m *ReportMetrics) RecordReport(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *ReportMetrics) RecordOrder(billed bool) {
	if m == nil {
		return
	}
	m.ordersProcessed.Inc()
	if billed {
		m.ordersBilled.Inc()
	}
}

func (m *ReportMetrics) RecordOrderFailure() {
	if m == nil {
		return
	}
	m.orderFailures.Inc()
}

func (m *ReportMetrics) RecordServiceCost(chargeType string) {
	if m == nil {
		return
	}
	m.serviceCosts.WithLabelValues(normalizeLabel(chargeType)).Inc()
}

func (m *ReportMetrics) RecordRuleFailure(reason string) {
	if m == nil {
		return
	}
	m.ruleFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *ReportMetrics) RecordCalculationFailure(chargeType string) {
	if m == nil {
		return
	}
	m.calculationFailures.WithLabelValues(normalizeLabel(chargeType)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}
