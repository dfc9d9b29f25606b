package service

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"signal_bot/internal/models"
)

// orderParams в порядке, который биржа использует для подписи.
func orderParams(req models.OrderRequest) Params {
	return Params{}.
		Add("symbol", req.Symbol).
		Add("side", string(req.Side)).
		Add("type", string(req.Type)).
		Add("timeInForce", string(req.TimeInForce)).
		Add("quantity", req.Quantity.String()).
		Add("price", req.Price.String())
}

// PlaceOrder отправляет LIMIT-ордер. Ретраи — только на транспортных ошибках,
// timestamp и подпись пересобираются на каждой попытке.
// Отказ биржи возвращается сразу как ExchangeError.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) models.OrderResult {
	path := c.orderPath
	if c.dryRun {
		path = c.testOrderPath
	}
	base := orderParams(req)

	var result models.OrderResult
	attempts, err := c.retry.Do(ctx, func(attempt int) error {
		params := append(Params{}, base...).Add("timestamp", c.timestamp())
		resp, err := c.do(ctx, http.MethodPost, path, "place_order", params)
		if err != nil {
			c.log.Warn("place order attempt failed",
				zap.String("symbol", req.Symbol),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		result = c.orderResult(resp)
		return nil
	})
	c.metrics.OrderAttempts.Observe(float64(attempts))
	return submitResult(result, attempts, err)
}

// CancelOrder — DELETE по symbol+orderId, та же дисциплина подписи и ретраев.
// Пайплайн его не вызывает; это задел на сценарии отката.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) models.OrderResult {
	var result models.OrderResult
	attempts, err := c.retry.Do(ctx, func(attempt int) error {
		params := Params{}.
			Add("symbol", symbol).
			Add("orderId", orderID).
			Add("timestamp", c.timestamp())
		resp, err := c.do(ctx, http.MethodDelete, c.orderPath, "cancel_order", params)
		if err != nil {
			c.log.Warn("cancel order attempt failed",
				zap.String("symbol", symbol),
				zap.String("order_id", orderID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		result = c.orderResult(resp)
		return nil
	})
	return submitResult(result, attempts, err)
}

// submitResult: ParamError означает, что запрос не ушёл на биржу,
// это терминальный отказ, а не сбой транспорта.
func submitResult(result models.OrderResult, attempts int, err error) models.OrderResult {
	var pe *ParamError
	switch {
	case err == nil:
		return result
	case errors.As(err, &pe):
		return models.NewExchangeError(0, pe.Error(), nil)
	default:
		return models.NewTransportError(attempts, err)
	}
}

func (c *Client) orderResult(resp *response) models.OrderResult {
	obj, apiErr := checkAPI(resp)
	if apiErr != nil {
		return models.NewExchangeError(apiErr.Code, apiErr.Msg, resp.body)
	}
	status := stringField(obj, "status")
	if status == "" && c.dryRun {
		status = "TEST"
	}
	return models.NewSuccess(stringField(obj, "orderId"), status, resp.body)
}
