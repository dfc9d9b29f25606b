package stream

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/stream/service"
)

func NewHub(cfg *config.Config, m *metrics.Metrics, log *zap.Logger) *service.Hub {
	return service.NewHub(cfg.Audit.StreamToken, m, log)
}

func Module() fx.Option {
	return fx.Module("stream",
		fx.Provide(NewHub),
		fx.Invoke(func(lc fx.Lifecycle, h *service.Hub) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					h.Close()
					return nil
				},
			})
		}),
	)
}
