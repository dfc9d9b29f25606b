package signal

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
)

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var se *Error
	require.True(t, errors.As(err, &se), "expected *signal.Error, got %v", err)
	return se.Reason
}

func TestParseJSONEnter(t *testing.T) {
	body := []byte(`{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"0.001","price":"50000","strategy":"ema"}`)

	sig, err := Parse(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, models.DirectionEnter, sig.Direction)
	assert.Equal(t, models.SideBuy, sig.Direction.Side())
	assert.Equal(t, "BTCUSDT", sig.Symbol)
	assert.True(t, sig.Quantity.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, sig.Price.Equal(decimal.RequireFromString("50000")))
	assert.Equal(t, map[string]string{"strategy": "ema"}, sig.RawFields)
}

func TestParseJSONNumbersAndCharset(t *testing.T) {
	body := []byte(`{"direction":"exit","symbol":"ETHUSDT","close_qty":0.25,"price":3100.5}`)

	sig, err := Parse(body, "application/json; charset=utf-8")
	require.NoError(t, err)

	assert.Equal(t, models.DirectionExit, sig.Direction)
	assert.Equal(t, models.SideSell, sig.Direction.Side())
	assert.Equal(t, "0.25", sig.Quantity.String())
	assert.Equal(t, "3100.5", sig.Price.String())
}

func TestParseDirectionAliases(t *testing.T) {
	cases := map[string]models.Direction{
		"LONG":  models.DirectionEnter,
		"buy":   models.DirectionEnter,
		"Enter": models.DirectionEnter,
		"SELL":  models.DirectionExit,
		"exit":  models.DirectionExit,
		"close": models.DirectionExit,
	}
	for word, want := range cases {
		got, ok := ParseDirection(word)
		assert.True(t, ok, word)
		assert.Equal(t, want, got, word)
	}

	_, ok := ParseDirection("SHORT")
	assert.False(t, ok)
}

func TestParseSignalKeyWinsOverDirection(t *testing.T) {
	body := []byte(`{"signal":"SELL","direction":"LONG","symbol":"BTCUSDT","close_qty":"1","price":"2"}`)

	sig, err := Parse(body, "application/json")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionExit, sig.Direction)
}

func TestParseSignalKeyWinsCaseInsensitive(t *testing.T) {
	// порядок обхода map случайный, прогоняем несколько раз
	body := []byte(`{"Signal":"SELL","direction":"LONG","symbol":"BTCUSDT","close_qty":"1","price":"2"}`)
	for i := 0; i < 50; i++ {
		sig, err := Parse(body, ContentTypeJSON)
		require.NoError(t, err)
		require.Equal(t, models.DirectionExit, sig.Direction)
	}
}

func TestParseNumberBounds(t *testing.T) {
	body := []byte(`{"signal":"LONG","symbol":"BTC-USDT","buy_qty":"1e-18","price":"1E18"}`)

	sig, err := Parse(body, ContentTypeJSON)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", sig.Symbol)
	assert.Equal(t, "0.000000000000000001", sig.Quantity.String())
	assert.Equal(t, "1000000000000000000", sig.Price.String())
}

func TestParseText(t *testing.T) {
	body := []byte("🟢 LONG Signal\r\n" +
		"Symbol: BTCUSDT\r\n" +
		"Buy Qty: 0.0015\r\n" +
		"Price: $ 64250.75\r\n" +
		"Equity: $1020.40\r\n" +
		"Available Cash: $900\r\n" +
		"Unsold Value: $120.40\r\n")

	sig, err := Parse(body, "text/plain")
	require.NoError(t, err)

	assert.Equal(t, models.DirectionEnter, sig.Direction)
	assert.Equal(t, "BTCUSDT", sig.Symbol)
	assert.Equal(t, "0.0015", sig.Quantity.String())
	assert.Equal(t, "64250.75", sig.Price.String())
	assert.Equal(t, map[string]string{
		"equity":         "1020.40",
		"available_cash": "900",
		"unsold_value":   "120.40",
	}, sig.RawFields)
}

func TestParseTextSkipsLeadingBlankLines(t *testing.T) {
	body := []byte("\n\n  🔴 SELL Signal\nSymbol: SOLUSDT\nClose Qty: 3\nPrice: $142.1\n")

	sig, err := Parse(body, "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionExit, sig.Direction)
	assert.Equal(t, "3", sig.Quantity.String())
}

func TestParseTextRoundTrip(t *testing.T) {
	in := []models.Signal{
		{Direction: models.DirectionEnter, Symbol: "BTCUSDT", Quantity: decimal.RequireFromString("0.001"), Price: decimal.RequireFromString("50000")},
		{Direction: models.DirectionExit, Symbol: "DOGEUSDT", Quantity: decimal.RequireFromString("1250"), Price: decimal.RequireFromString("0.13772")},
	}
	for _, want := range in {
		header, qtyKey := "LONG Signal", "Buy Qty"
		if want.Direction == models.DirectionExit {
			header, qtyKey = "SELL Signal", "Close Qty"
		}
		text := fmt.Sprintf("%s\nSymbol: %s\n%s: %s\nPrice: $%s\n", header, want.Symbol, qtyKey, want.Quantity, want.Price)

		got, err := Parse([]byte(text), ContentTypeText)
		require.NoError(t, err)
		assert.Equal(t, want.Direction, got.Direction)
		assert.Equal(t, want.Symbol, got.Symbol)
		assert.True(t, want.Quantity.Equal(got.Quantity))
		assert.True(t, want.Price.Equal(got.Price))
	}
}

func TestParseUnsupportedContentType(t *testing.T) {
	for _, ct := range []string{"application/xml", "", "text/html", "not a / media type"} {
		_, err := Parse([]byte(`{}`), ct)
		assert.Equal(t, ReasonUnsupportedContentType, reasonOf(t, err), ct)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
		ct   string
	}{
		{"broken json", `{"signal":`, ContentTypeJSON},
		{"json array", `[1,2]`, ContentTypeJSON},
		{"json null", `null`, ContentTypeJSON},
		{"empty text", "\n \n", ContentTypeText},
		{"no header", "Symbol: BTCUSDT\nPrice: 1", ContentTypeText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body), tc.ct)
			assert.Equal(t, ReasonMalformed, reasonOf(t, err))
		})
	}
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reason Reason
		field  string
	}{
		{"no direction", `{"symbol":"BTCUSDT","buy_qty":"1","price":"1"}`, ReasonMissingField, "signal"},
		{"unknown direction", `{"signal":"SHORT","symbol":"BTCUSDT","buy_qty":"1","price":"1"}`, ReasonInvalidField, "signal"},
		{"no symbol", `{"signal":"LONG","buy_qty":"1","price":"1"}`, ReasonMissingField, "symbol"},
		{"no price", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"1"}`, ReasonMissingField, "price"},
		{"enter without buy_qty", `{"signal":"LONG","symbol":"BTCUSDT","close_qty":"1","price":"1"}`, ReasonMissingField, "buy_qty"},
		{"exit without close_qty", `{"signal":"SELL","symbol":"BTCUSDT","buy_qty":"1","price":"1"}`, ReasonMissingField, "close_qty"},
		{"symbol with params", `{"signal":"LONG","symbol":"BTCUSDT&type=MARKET&side=SELL","buy_qty":"1","price":"1"}`, ReasonInvalidField, "symbol"},
		{"symbol with space", `{"signal":"LONG","symbol":"BTC USDT","buy_qty":"1","price":"1"}`, ReasonInvalidField, "symbol"},
		{"symbol too long", `{"signal":"LONG","symbol":"` + strings.Repeat("A", 33) + `","buy_qty":"1","price":"1"}`, ReasonInvalidField, "symbol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body), ContentTypeJSON)
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.reason, se.Reason)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestParseBadNumbers(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"letters in qty", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"abc","price":"1"}`, "buy_qty"},
		{"zero qty", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"0","price":"1"}`, "buy_qty"},
		{"negative price", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"1","price":"-5"}`, "price"},
		{"bad close qty", `{"signal":"SELL","symbol":"BTCUSDT","close_qty":"1,5","price":"1"}`, "close_qty"},
		{"huge exponent", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"1e10000000","price":"1"}`, "buy_qty"},
		{"tiny exponent", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"1e-10000000","price":"1"}`, "buy_qty"},
		{"exponent as json number", `{"signal":"SELL","symbol":"BTCUSDT","close_qty":1,"price":1e30}`, "price"},
		{"too many digits", `{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"1","price":"` + strings.Repeat("9", 64) + `"}`, "price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body), ContentTypeJSON)
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, ReasonBadNumber, se.Reason)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestDecodeKeepsPartialFieldsForReport(t *testing.T) {
	raw, err := Decode([]byte(`{"signal":"LONG","symbol":"BTCUSDT","buy_qty":"x"}`), ContentTypeJSON)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", raw.Symbol)
	assert.Equal(t, "x", raw.Quantity())
	assert.Empty(t, raw.Price)
}
