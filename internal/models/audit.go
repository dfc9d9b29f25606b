package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditRecord — одна запись на каждый завершённый прогон пайплайна.
// После Append не меняется.
type AuditRecord struct {
	ID            string           `json:"id"`
	RequestID     string           `json:"request_id"`
	Timestamp     time.Time        `json:"timestamp"`
	Direction     Direction        `json:"direction,omitempty"`
	Symbol        string           `json:"symbol,omitempty"`
	Side          Side             `json:"side,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Outcome       string           `json:"outcome"`
	ResultSummary string           `json:"result_summary"`
	OrderID       string           `json:"order_id,omitempty"`
	OrderStatus   string           `json:"order_status,omitempty"`
	BalanceAfter  *decimal.Decimal `json:"balance_after,omitempty"`
}
