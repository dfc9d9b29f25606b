// Package signal разбирает входящий вебхук (JSON или текст алерта)
// в models.Signal. Разбор всё-или-ничего: при любой ошибке Signal нет.
package signal

import (
	"mime"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// тикер спотовой пары: только буквы, цифры, "-" и "_"
var symbolRe = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// Ограничения на числа из вебхука. decimal хранит экспоненту отдельно,
// и "1e10000000" раскрывается в огромный big.Int при сравнении или печати.
const (
	maxNumberLen = 40
	maxExponent  = 18
)

// RawSignal — поля как пришли, строками, до валидации и перевода в decimal.
// Пайплайн держит его, чтобы показать в отчёте то, что удалось достать.
type RawSignal struct {
	DirectionWord string
	Symbol        string
	BuyQty        string
	CloseQty      string
	Price         string
	// Fields — остальные ключи (equity, available_cash, ...).
	Fields map[string]string
}

// Quantity — количество для направления; если направление неизвестно,
// то первое непустое.
func (r RawSignal) Quantity() string {
	switch dir, _ := ParseDirection(r.DirectionWord); dir {
	case models.DirectionEnter:
		return r.BuyQty
	case models.DirectionExit:
		return r.CloseQty
	}
	if r.BuyQty != "" {
		return r.BuyQty
	}
	return r.CloseQty
}

// ParseDirection: LONG/BUY/ENTER -> Enter, SELL/EXIT/CLOSE -> Exit, регистр не важен.
func ParseDirection(word string) (models.Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(word)) {
	case "LONG", "BUY", "ENTER":
		return models.DirectionEnter, true
	case "SELL", "EXIT", "CLOSE":
		return models.DirectionExit, true
	default:
		return "", false
	}
}

// MediaType нормализует Content-Type: без параметров, в нижнем регистре.
func MediaType(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", &Error{Reason: ReasonUnsupportedContentType, Msg: "content type must be application/json or text/plain", Err: err}
	}
	if mt != ContentTypeJSON && mt != ContentTypeText {
		return "", &Error{Reason: ReasonUnsupportedContentType, Msg: "content type must be application/json or text/plain, got " + mt}
	}
	return mt, nil
}

// Decode выбирает кодировку по Content-Type и достаёт сырые поля.
func Decode(body []byte, contentType string) (RawSignal, error) {
	mt, err := MediaType(contentType)
	if err != nil {
		return RawSignal{}, err
	}
	if mt == ContentTypeJSON {
		return decodeJSON(body)
	}
	return decodeText(body)
}

// Validate проверяет обязательные поля для направления сигнала.
func Validate(raw RawSignal) (models.Direction, error) {
	if strings.TrimSpace(raw.DirectionWord) == "" {
		return "", missing("signal")
	}
	dir, ok := ParseDirection(raw.DirectionWord)
	if !ok {
		return "", &Error{Reason: ReasonInvalidField, Field: "signal", Msg: "unknown direction " + raw.DirectionWord}
	}
	if raw.Symbol == "" {
		return "", missing("symbol")
	}
	if !symbolRe.MatchString(raw.Symbol) {
		return "", &Error{Reason: ReasonInvalidField, Field: "symbol", Msg: "invalid symbol " + raw.Symbol}
	}
	if raw.Price == "" {
		return "", missing("price")
	}
	if dir == models.DirectionEnter && raw.BuyQty == "" {
		return "", missing("buy_qty")
	}
	if dir == models.DirectionExit && raw.CloseQty == "" {
		return "", missing("close_qty")
	}
	return dir, nil
}

// Build: Validate + перевод количества и цены в decimal. Оба > 0.
func Build(raw RawSignal) (models.Signal, error) {
	dir, err := Validate(raw)
	if err != nil {
		return models.Signal{}, err
	}

	qtyField := "buy_qty"
	if dir == models.DirectionExit {
		qtyField = "close_qty"
	}
	qty, err := positive(qtyField, raw.Quantity())
	if err != nil {
		return models.Signal{}, err
	}
	price, err := positive("price", raw.Price)
	if err != nil {
		return models.Signal{}, err
	}

	fields := make(map[string]string, len(raw.Fields))
	for k, v := range raw.Fields {
		fields[k] = v
	}
	return models.Signal{
		Direction: dir,
		Symbol:    raw.Symbol,
		Quantity:  qty,
		Price:     price,
		RawFields: fields,
	}, nil
}

// Parse = Decode + Build.
func Parse(body []byte, contentType string) (models.Signal, error) {
	raw, err := Decode(body, contentType)
	if err != nil {
		return models.Signal{}, err
	}
	return Build(raw)
}

func positive(field, value string) (decimal.Decimal, error) {
	if len(value) > maxNumberLen {
		return decimal.Decimal{}, badNumber(field, value[:maxNumberLen]+"...", "too many digits")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, badNumber(field, value, "not a decimal number")
	}
	if exp := d.Exponent(); exp < -maxExponent || exp > maxExponent {
		return decimal.Decimal{}, badNumber(field, value, "exponent out of range")
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, badNumber(field, value, "must be greater than zero")
	}
	return d, nil
}

// cleanValue: пробелы по краям и ведущий "$".
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "$")
	return strings.TrimSpace(v)
}
