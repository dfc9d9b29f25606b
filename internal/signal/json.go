package signal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// числа оставляем как json.Number, чтобы "0.001" и 0.001 давали одну строку
var numberAPI = sonic.Config{UseNumber: true}.Froze()

func decodeJSON(body []byte) (RawSignal, error) {
	var obj map[string]interface{}
	if err := numberAPI.Unmarshal(body, &obj); err != nil {
		return RawSignal{}, malformed("invalid JSON body", err)
	}
	if obj == nil {
		return RawSignal{}, malformed("JSON body must be an object", nil)
	}

	raw := RawSignal{Fields: map[string]string{}}
	// signal приоритетнее direction независимо от порядка ключей
	var direction string
	hasSignal := false
	for k, v := range obj {
		val := cleanValue(jsonString(v))
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "signal":
			raw.DirectionWord = val
			hasSignal = true
		case "direction":
			direction = val
		case "symbol":
			raw.Symbol = val
		case "buy_qty":
			raw.BuyQty = val
		case "close_qty":
			raw.CloseQty = val
		case "price":
			raw.Price = val
		default:
			raw.Fields[k] = val
		}
	}
	if !hasSignal {
		raw.DirectionWord = direction
	}
	return raw, nil
}

func jsonString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case map[string]interface{}, []interface{}:
		b, err := sonic.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
