package signal

import (
	"strings"
)

const (
	headerLong = "LONG Signal"
	headerSell = "SELL Signal"
)

// ключи текста алерта -> имена полей
var textKeys = map[string]string{
	"Symbol":         "symbol",
	"Buy Qty":        "buy_qty",
	"Close Qty":      "close_qty",
	"Price":          "price",
	"Equity":         "equity",
	"Available Cash": "available_cash",
	"Unsold Value":   "unsold_value",
}

// decodeText разбирает алерт вида
//
//	🟢 LONG Signal
//	Symbol: BTCUSDT
//	Buy Qty: 0.001
//	Price: $50000
func decodeText(body []byte) (RawSignal, error) {
	lines := strings.Split(strings.ReplaceAll(string(body), "\r\n", "\n"), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return RawSignal{}, malformed("empty text body", nil)
	}

	raw := RawSignal{Fields: map[string]string{}}
	switch header := lines[i]; {
	case strings.Contains(header, headerLong):
		raw.DirectionWord = "LONG"
	case strings.Contains(header, headerSell):
		raw.DirectionWord = "SELL"
	default:
		return RawSignal{}, malformed("first line must contain \""+headerLong+"\" or \""+headerSell+"\"", nil)
	}

	for _, line := range lines[i+1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = cleanValue(value)

		name, known := textKeys[key]
		if !known {
			raw.Fields[key] = value
			continue
		}
		switch name {
		case "symbol":
			raw.Symbol = value
		case "buy_qty":
			raw.BuyQty = value
		case "close_qty":
			raw.CloseQty = value
		case "price":
			raw.Price = value
		default:
			raw.Fields[name] = value
		}
	}
	return raw, nil
}
