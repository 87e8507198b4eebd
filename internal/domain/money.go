package domain

import "github.com/shopspring/decimal"

// AmountScale is the number of fractional digits amounts and balances are stored with
const AmountScale = 4

// maxMoney bounds the magnitude of a stored amount or balance (NUMERIC(19, 4))
var maxMoney = decimal.New(1, 19-AmountScale)

// IsStorableMoney reports whether d can be stored without rounding or overflow
func IsStorableMoney(d decimal.Decimal) bool {
	return d.Abs().LessThan(maxMoney) && d.Equal(d.Truncate(AmountScale))
}

// IsValidAmount reports whether d is usable as a transaction, recurring or budget amount
func IsValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && IsStorableMoney(d)
}

// FormatMoney renders d at the stored scale
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
