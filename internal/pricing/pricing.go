// Package pricing turns cart lines with product snapshots into final line and
// order totals. Order-level discounts are folded into the lines proportionally
// to each line's pre-discount subtotal; the order's grand total is then just
// the sum of discounted subtotals and GST amounts.
package pricing

import (
	"github.com/shopspring/decimal"

	"retailpos/backend/internal/money"
)

// Line is a cart entry joined with its product snapshot. Discount is the raw
// per-line discount from the request.
type Line struct {
	ProductID     string
	ProductName   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	GSTPercentage decimal.Decimal
	Discount      decimal.Decimal
}

type PricedLine struct {
	Line
	BaseSubtotal       decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	GSTAmount          decimal.Decimal
	TotalPrice         decimal.Decimal
}

type Totals struct {
	Subtotal      decimal.Decimal
	GSTTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	OrderDiscount decimal.Decimal
}

// SumDiscounts folds discount entries into a single order-level amount.
// Negative entries count as zero, never as credits.
func SumDiscounts(entries []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(money.ClampZero(e))
	}
	return total
}

// Allocate distributes orderDiscount across lines weighted by base subtotal,
// applies per-line discounts, and computes GST on the discounted subtotals.
// A discount larger than a line's subtotal zeroes that line rather than going
// negative.
func Allocate(lines []Line, orderDiscount decimal.Decimal) ([]PricedLine, Totals) {
	orderDiscount = money.ClampZero(orderDiscount)

	totalBase := decimal.Zero
	priced := make([]PricedLine, len(lines))
	for i, line := range lines {
		base := line.UnitPrice.Mul(line.Quantity)
		priced[i] = PricedLine{Line: line, BaseSubtotal: base}
		totalBase = totalBase.Add(base)
	}

	subtotal := decimal.Zero
	gstTotal := decimal.Zero
	for i := range priced {
		share := decimal.Zero
		if totalBase.IsPositive() {
			share = priced[i].BaseSubtotal.Div(totalBase).Mul(orderDiscount)
		}
		lineDiscount := money.ClampZero(priced[i].Discount).Add(share)
		discounted := money.Round2(money.ClampZero(priced[i].BaseSubtotal.Sub(lineDiscount)))
		gst := money.LineTax(discounted, priced[i].GSTPercentage)

		priced[i].DiscountedSubtotal = discounted
		priced[i].GSTAmount = gst
		priced[i].TotalPrice = money.Round2(discounted.Add(gst))

		subtotal = subtotal.Add(discounted)
		gstTotal = gstTotal.Add(gst)
	}

	totals := Totals{
		Subtotal:      money.Round2(subtotal),
		GSTTotal:      money.Round2(gstTotal),
		GrandTotal:    money.Round2(subtotal.Add(gstTotal)),
		OrderDiscount: orderDiscount,
	}
	return priced, totals
}
