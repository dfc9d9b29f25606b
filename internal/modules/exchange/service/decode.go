package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// числа как json.Number: orderId у биржи не влезает в float64
var numberAPI = sonic.Config{UseNumber: true}.Froze()

// checkAPI разбирает тело ответа. Ответ считается отказом биржи, если
// в нём есть ненулевой "code" или статус не 2xx. Тело, которое не
// удалось разобрать, тоже терминально: повтор POST с неизвестным
// результатом может задвоить ордер.
func checkAPI(resp *response) (map[string]interface{}, *APIError) {
	var obj map[string]interface{}
	if err := numberAPI.Unmarshal(resp.body, &obj); err != nil || obj == nil {
		return nil, &APIError{
			HTTPStatus: resp.status,
			Code:       resp.status,
			Msg:        fmt.Sprintf("unexpected response: %s", truncate(resp.body, 256)),
			Body:       resp.body,
		}
	}

	code, hasCode := intField(obj, "code")
	if (hasCode && code != 0) || resp.status/100 != 2 {
		if !hasCode {
			code = resp.status
		}
		msg := stringField(obj, "msg")
		if msg == "" {
			msg = stringField(obj, "message")
		}
		if msg == "" {
			msg = string(truncate(resp.body, 256))
		}
		return obj, &APIError{HTTPStatus: resp.status, Code: code, Msg: msg, Body: resp.body}
	}
	return obj, nil
}

func stringField(obj map[string]interface{}, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func intField(obj map[string]interface{}, key string) (int, bool) {
	switch v := obj[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
