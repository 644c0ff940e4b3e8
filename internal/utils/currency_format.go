package utils

import (
	"github.com/shopspring/decimal"
)

// MoneyPrecision is the number of decimals balances and amounts carry.
const MoneyPrecision = 2

// FormatWithPrecision formats an amount with exactly precision decimals.
// Example: amount 150 with precision 2 returns "150.00"
// Example: amount 12.345 with precision 2 returns "12.35"
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.StringFixed(int32(precision))
}

// FormatMoney formats an amount with MoneyPrecision decimals.
func FormatMoney(amount decimal.Decimal) string {
	return FormatWithPrecision(amount, MoneyPrecision)
}

// HasAtMostDecimals reports whether amount needs no more than places decimals.
func HasAtMostDecimals(amount decimal.Decimal, places int32) bool {
	return amount.Equal(amount.Truncate(places))
}
