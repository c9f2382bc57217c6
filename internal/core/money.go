package core

import "github.com/shopspring/decimal"

// CurrencySymbol prefixes every amount shown to the user.
const CurrencySymbol = "₹"

// FormatMoney renders an amount with two decimals, e.g. "₹50.00".
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Neg().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}
