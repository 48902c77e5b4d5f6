// Package money holds the rounding and tax arithmetic shared by pricing and
// the stores. Everything operates on decimal values so repeated round trips
// through totals stay exact.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places, half away from zero.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// LineTax computes the GST amount for a discounted line subtotal.
func LineTax(discountedSubtotal, gstPercentage decimal.Decimal) decimal.Decimal {
	return Round2(discountedSubtotal.Mul(gstPercentage).Div(hundred))
}

// GrandTotal sums discounted line subtotals and their GST amounts.
func GrandTotal(discountedSubtotals, gstAmounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range discountedSubtotals {
		total = total.Add(s)
	}
	for _, g := range gstAmounts {
		total = total.Add(g)
	}
	return Round2(total)
}

// ClampZero floors negative amounts at zero.
func ClampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
