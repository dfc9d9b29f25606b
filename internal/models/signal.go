package models

import "github.com/shopspring/decimal"

// Direction — направление входящего сигнала.
type Direction string

const (
	DirectionEnter Direction = "ENTER" // LONG Signal
	DirectionExit  Direction = "EXIT"  // SELL Signal
)

// Side на стороне биржи: "BUY"/"SELL".
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Side маппит направление сигнала в сторону ордера.
func (d Direction) Side() Side {
	if d == DirectionExit {
		return SideSell
	}
	return SideBuy
}

// Signal — нормализованный сигнал, уже прошедший валидацию.
// Quantity > 0, Price > 0, Symbol не пустой.
type Signal struct {
	Direction Direction
	Symbol    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	// RawFields — информационные ключи (Equity, Available Cash, ...),
	// которые не участвуют в валидации.
	RawFields map[string]string
}

// Notional = Quantity * Price, сколько quote-актива блокирует ордер.
func (s Signal) Notional() decimal.Decimal {
	return s.Quantity.Mul(s.Price)
}
