package audit

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/audit/service"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/postgres"
	stream "signal_bot/internal/modules/stream/service"
)

// NewSink: основной журнал (файл или postgres) и, если включено,
// websocket-трансляция.
func NewSink(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, hub *stream.Hub, log *zap.Logger) (service.Sink, error) {
	var primary service.Sink

	switch cfg.Audit.Driver {
	case "postgres":
		tx, err := postgres.Open(ctx, cfg.Audit.DB)
		if err != nil {
			return nil, err
		}
		pg := service.NewPgSink(tx)
		lc.Append(fx.Hook{
			OnStart: pg.EnsureSchema,
			OnStop: func(context.Context) error {
				tx.Close()
				return nil
			},
		})
		primary = pg
	default:
		f, err := service.NewFileSink(cfg.Audit.FilePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return f.Close() },
		})
		primary = f
	}
	log.Info("audit sink ready", zap.String("driver", cfg.Audit.Driver), zap.Bool("stream", cfg.Audit.Stream))

	if !cfg.Audit.Stream {
		return primary, nil
	}
	return service.Multi{primary, hub}, nil
}

func Module() fx.Option {
	return fx.Module("audit",
		fx.Provide(NewSink),
	)
}
