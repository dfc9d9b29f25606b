package notify

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/httpclient"
)

func New(cfg *config.Config, log *zap.Logger) (Notifier, error) {
	if cfg.Notify.Driver == "stdout" {
		return NewStdout(log), nil
	}

	hc, err := httpclient.New(cfg.Notify.Timeout, cfg.Notify.ProxyURL)
	if err != nil {
		return nil, err
	}
	return NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, cfg.Notify.ParseMode, "", hc)
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(New),
	)
}
