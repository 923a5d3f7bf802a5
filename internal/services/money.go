package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"balwatch/internal/models"
)

// currencySymbols covers the codes the formatter renders natively.
// Anything else falls back to "<amount> <code>".
var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"NZD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"CHF": "CHF ",
	"SEK": "kr ",
	"NOK": "kr ",
	"DKK": "kr ",
	"INR": "₹",
	"KRW": "₩",
	"BRL": "R$",
	"MXN": "$",
}

// ResolveBalance picks the numeric balance for an account, preferring
// a parseable available-balance over the posted balance. The second
// return is false when neither field is numeric.
func ResolveBalance(account *models.Account) (float64, bool) {
	if account.AvailableBalance != "" {
		if d, err := decimal.NewFromString(account.AvailableBalance); err == nil {
			return d.InexactFloat64(), true
		}
	}
	if account.Balance != "" {
		if d, err := decimal.NewFromString(account.Balance); err == nil {
			return d.InexactFloat64(), true
		}
	}
	return 0, false
}

// FormatAmount renders an amount in the given currency to two decimal
// places, e.g. "$150.50" or "150.50 SGD" for codes without a known
// symbol.
func FormatAmount(amount float64, currency string) string {
	fixed := decimal.NewFromFloat(amount).StringFixed(2)
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + fixed
	}
	return fmt.Sprintf("%s %s", fixed, currency)
}

// FormatSignedAmount renders a delta with an explicit sign, e.g.
// "+$50.50" or "-12.00 SGD".
func FormatSignedAmount(amount float64, currency string) string {
	if amount < 0 {
		return "-" + FormatAmount(-amount, currency)
	}
	return "+" + FormatAmount(amount, currency)
}

// DirectionIndicator returns the arrow prefixed to a delta message.
func DirectionIndicator(delta float64) string {
	if delta < 0 {
		return "▼"
	}
	return "▲"
}
