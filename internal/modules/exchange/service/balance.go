package service

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signal_bot/internal/models"
)

type accountResponse struct {
	Balances []models.Balance `json:"balances"`
}

// GetBalance — свободный остаток по asset. Без ретраев: устаревшее
// чтение баланса лучше отдать наверх как ошибку, чем молча повторять.
// Если актива нет в списке — нулевой баланс.
func (c *Client) GetBalance(ctx context.Context, asset string) (models.Balance, error) {
	params := Params{}.Add("timestamp", c.timestamp())

	resp, err := c.do(ctx, http.MethodGet, c.accountPath, "get_balance", params)
	if err != nil {
		return models.Balance{}, err
	}
	if _, apiErr := checkAPI(resp); apiErr != nil {
		return models.Balance{}, apiErr
	}

	var acc accountResponse
	if err := numberAPI.Unmarshal(resp.body, &acc); err != nil {
		return models.Balance{}, &APIError{HTTPStatus: resp.status, Msg: "decode balances: " + err.Error(), Body: resp.body}
	}

	for _, b := range acc.Balances {
		if b.Asset == asset {
			c.log.Debug("balance fetched", zap.String("asset", asset), zap.String("free", b.Free.String()))
			return b, nil
		}
	}
	return models.Balance{Asset: asset, Free: decimal.Zero, Locked: decimal.Zero}, nil
}
