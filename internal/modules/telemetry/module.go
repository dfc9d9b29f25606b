package telemetry

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/config"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"
)

const serviceName = "signal_bot"

func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(serviceName)
	l, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = l.Sync()
			return nil
		},
	})
	return l, nil
}

// NewTracer зависит от логгера: closeFn пишет через pkg/logger.
func NewTracer(lc fx.Lifecycle, cfg *config.Config, _ *zap.Logger) (opentracing.Tracer, error) {
	tracing.SetServiceName(serviceName)
	tracer, closeFn, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeFn()
			return nil
		},
	})
	return tracer, nil
}

func Module() fx.Option {
	return fx.Module("telemetry",
		fx.Provide(
			NewLogger,
			NewTracer,
			metrics.NewRegistry,
			func(reg *prometheus.Registry) *metrics.Metrics {
				return metrics.New(reg)
			},
		),
	)
}
