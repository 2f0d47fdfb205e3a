package sales

import (
	"github.com/shopspring/decimal"

	"reda-store/internal/models"
)

// Line is the priced part of a sale item.
type Line struct {
	Qty          int
	UnitPrice    float64
	GettingPrice float64
	Subtotal     float64
}

type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	Total          float64
	TotalCost      float64
	Profit         float64
}

// ComputeTotals prices a sale. A percent discount is rounded to whole
// currency units; a flat discount is taken as given. Total never drops
// below zero, profit may.
func ComputeTotals(lines []Line, discount float64, discountType string) Totals {
	subtotal := decimal.Zero
	cost := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.Subtotal))
		cost = cost.Add(decimal.NewFromFloat(l.GettingPrice).Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	d := decimal.NewFromFloat(discount)
	discountAmount := d
	if discountType == models.DiscountPercent {
		discountAmount = subtotal.Mul(d).Div(decimal.NewFromInt(100)).Round(0)
	}

	total := subtotal.Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal.InexactFloat64(),
		DiscountAmount: discountAmount.InexactFloat64(),
		Total:          total.InexactFloat64(),
		TotalCost:      cost.InexactFloat64(),
		Profit:         total.Sub(cost).InexactFloat64(),
	}
}

// lineSubtotalMatches allows half a cent of float noise from the client.
func lineSubtotalMatches(l Line) bool {
	want := decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Qty)))
	diff := want.Sub(decimal.NewFromFloat(l.Subtotal)).Abs()
	return diff.LessThanOrEqual(decimal.RequireFromString("0.005"))
}
