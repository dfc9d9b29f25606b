package service

import (
	"context"

	"go.uber.org/multierr"

	"signal_bot/internal/models"
)

// Sink — append-only журнал исходов. Реализации безопасны для
// параллельных вызовов.
type Sink interface {
	Append(ctx context.Context, rec models.AuditRecord) error
}

// Multi пишет во все sink'и, даже если какой-то упал.
type Multi []Sink

func (m Multi) Append(ctx context.Context, rec models.AuditRecord) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Append(ctx, rec))
	}
	return err
}
