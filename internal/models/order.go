package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// OrderRequest — параметры ордера без timestamp/signature:
// они генерируются клиентом заново на каждую попытку.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Type        OrderType
	TimeInForce TimeInForce
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

// Balance по одному активу. Не кешируется.
type Balance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

type ResultKind string

const (
	ResultSuccess        ResultKind = "success"
	ResultExchangeError  ResultKind = "exchange_error"
	ResultTransportError ResultKind = "transport_error"
)

// OrderResult — tagged union: Success{OrderID, Status},
// ExchangeError{Code, Message}, TransportError{Attempts, LastError}.
type OrderResult struct {
	Kind ResultKind

	// Success
	OrderID string
	Status  string

	// ExchangeError
	Code    int
	Message string

	// TransportError
	Attempts  int
	LastError error

	// Raw — тело ответа биржи как есть (пусто для TransportError).
	Raw []byte
}

func NewSuccess(orderID, status string, raw []byte) OrderResult {
	return OrderResult{Kind: ResultSuccess, OrderID: orderID, Status: status, Raw: raw}
}

func NewExchangeError(code int, msg string, raw []byte) OrderResult {
	return OrderResult{Kind: ResultExchangeError, Code: code, Message: msg, Raw: raw}
}

func NewTransportError(attempts int, lastErr error) OrderResult {
	return OrderResult{Kind: ResultTransportError, Attempts: attempts, LastError: lastErr}
}

func (r OrderResult) OK() bool { return r.Kind == ResultSuccess }

// Summary — короткое описание результата для аудита и логов.
func (r OrderResult) Summary() string {
	switch r.Kind {
	case ResultSuccess:
		return fmt.Sprintf("order %s %s", r.OrderID, r.Status)
	case ResultExchangeError:
		return fmt.Sprintf("exchange error %d: %s", r.Code, r.Message)
	case ResultTransportError:
		return fmt.Sprintf("submission failed after %d attempts: %v", r.Attempts, r.LastError)
	default:
		return string(r.Kind)
	}
}
