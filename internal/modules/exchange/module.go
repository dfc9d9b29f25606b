package exchange

import (
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/exchange/service"
	"signal_bot/pkg/httpclient"
)

func NewClient(cfg *config.Config, m *metrics.Metrics, tracer opentracing.Tracer, log *zap.Logger) (*service.Client, error) {
	hc, err := httpclient.New(cfg.Exchange.Timeout, cfg.Exchange.ProxyURL)
	if err != nil {
		return nil, errors.Wrap(err, "exchange http client")
	}

	if cfg.Exchange.DryRun {
		log.Warn("exchange dry-run: orders go to the test endpoint", zap.String("path", cfg.Exchange.TestOrderPath))
	}
	return service.NewClient(cfg.Exchange, hc, m, tracer, log), nil
}

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(NewClient),
	)
}
