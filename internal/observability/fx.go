package observability

import (
	"github.com/smallbiznis/orderbill/internal/config"
	"github.com/smallbiznis/orderbill/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(provideReportMetrics),
)

func provideReportMetrics(cfg config.Config) *metrics.ReportMetrics {
	return metrics.ReportWithConfig(metrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	})
}
