package pipeline

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
)

const unknown = "unknown"

// report — то, что уходит оператору. Пустые поля печатаются как "unknown".
type report struct {
	Side     models.Side
	Symbol   string
	Quantity string
	Price    string
	Status   string
	Err      string
	Balance  *decimal.Decimal
	Asset    string
}

func (r report) String() string {
	var b strings.Builder
	if r.Err == "" {
		action := "BUY"
		if r.Side == models.SideSell {
			action = "SELL"
		}
		fmt.Fprintf(&b, "📥 %s order placed\n\n", action)
	} else {
		b.WriteString("❌ Order failed\n\n")
	}

	fmt.Fprintf(&b, "📌 Symbol: %s\n", orUnknown(r.Symbol))
	fmt.Fprintf(&b, "🔢 Quantity: %s\n", orUnknown(r.Quantity))
	fmt.Fprintf(&b, "💵 Price: %s\n", orUnknown(r.Price))
	if r.Err == "" {
		fmt.Fprintf(&b, "📝 Status: %s\n", orUnknown(r.Status))
	} else {
		fmt.Fprintf(&b, "📝 Error: %s\n", r.Err)
	}

	balance := unknown
	if r.Balance != nil {
		balance = r.Balance.StringFixed(2)
	}
	fmt.Fprintf(&b, "💰 Total balance: %s %s", balance, r.Asset)
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

func formatQty(d decimal.Decimal) string   { return d.StringFixed(8) }
func formatPrice(d decimal.Decimal) string { return d.StringFixed(2) }
