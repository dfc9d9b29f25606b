package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier — канал уведомлений оператора. Ошибка только логируется
// вызывающим и никогда не влияет на ответ вебхука.
type Notifier interface {
	Send(ctx context.Context, msg string) error
}

// Telegram — отправка в один фиксированный чат.
type Telegram struct {
	bot       *tgbot.BotAPI
	chatID    int64
	parseMode string
}

// NewTelegram проверяет токен через getMe. endpoint — формат
// tgbot.APIEndpoint, в тестах подменяется на фейковый сервер.
func NewTelegram(token string, chatID int64, parseMode, endpoint string, client tgbot.HTTPClient) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbot.APIEndpoint
	}
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{
		bot:       b,
		chatID:    chatID,
		parseMode: parseMode,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := tgbot.NewMessage(t.chatID, msg)
	m.ParseMode = t.parseMode
	if _, err := t.bot.Send(m); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Stdout — пишет уведомления в лог. Для локального запуска без бота.
type Stdout struct {
	log *zap.Logger
}

func NewStdout(log *zap.Logger) *Stdout {
	return &Stdout{log: log.Named("notify")}
}

func (s *Stdout) Send(_ context.Context, msg string) error {
	s.log.Info(msg)
	return nil
}
