package pipeline

import (
	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	audit "signal_bot/internal/modules/audit/service"
	"signal_bot/internal/modules/config"
	exchange "signal_bot/internal/modules/exchange/service"
	"signal_bot/internal/notify"
)

func NewPipeline(
	cfg *config.Config,
	ex *exchange.Client,
	n notify.Notifier,
	sink audit.Sink,
	m *metrics.Metrics,
	tracer opentracing.Tracer,
	log *zap.Logger,
) *Pipeline {
	return New(ex, n, sink, cfg.Exchange.QuoteAsset, m, tracer, log)
}

func Module() fx.Option {
	return fx.Module("pipeline",
		fx.Provide(NewPipeline),
	)
}
