package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"signal_bot/internal/modules/audit"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/exchange"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/stream"
	"signal_bot/internal/modules/telemetry"
	"signal_bot/internal/modules/webhook"
	"signal_bot/internal/notify"
	"signal_bot/internal/pipeline"
)

func main() {
	fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		telemetry.Module(),
		health.Module(),
		exchange.Module(),
		notify.Module(),
		stream.Module(),
		audit.Module(),
		pipeline.Module(),
		webhook.Module(),
	).Run()
}
