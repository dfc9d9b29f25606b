package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS order_audit (
	id             UUID PRIMARY KEY,
	request_id     TEXT        NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	direction      TEXT,
	symbol         TEXT,
	side           TEXT,
	quantity       NUMERIC,
	price          NUMERIC,
	outcome        TEXT        NOT NULL,
	result_summary TEXT        NOT NULL,
	order_id       TEXT,
	order_status   TEXT,
	balance_after  NUMERIC
)`
	createIndexSQL = `CREATE INDEX IF NOT EXISTS order_audit_created_at_idx ON order_audit (created_at)`

	insertSQL = `
INSERT INTO order_audit (
	id, request_id, created_at, direction, symbol, side, quantity, price,
	outcome, result_summary, order_id, order_status, balance_after
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
)

// PgSink — таблица order_audit. Только INSERT, записи не обновляются.
type PgSink struct {
	db db.TxManager
}

func NewPgSink(tx db.TxManager) *PgSink {
	return &PgSink{db: tx}
}

// EnsureSchema создаёт таблицу и индекс одной транзакцией.
func (s *PgSink) EnsureSchema(ctx context.Context) error {
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		if _, err := tx.Exec(ctxTx, createTableSQL); err != nil {
			return fmt.Errorf("create order_audit: %w", err)
		}
		if _, err := tx.Exec(ctxTx, createIndexSQL); err != nil {
			return fmt.Errorf("create order_audit index: %w", err)
		}
		return nil
	})
}

func (s *PgSink) Append(ctx context.Context, rec models.AuditRecord) error {
	_, err := s.db.Conn().Exec(ctx, insertSQL,
		rec.ID,
		rec.RequestID,
		rec.Timestamp,
		nullString(string(rec.Direction)),
		nullString(rec.Symbol),
		nullString(string(rec.Side)),
		nullDecimal(rec.Quantity),
		nullDecimal(rec.Price),
		rec.Outcome,
		rec.ResultSummary,
		nullString(rec.OrderID),
		nullString(rec.OrderStatus),
		nullDecimal(rec.BalanceAfter),
	)
	if err != nil {
		return fmt.Errorf("insert order_audit: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
