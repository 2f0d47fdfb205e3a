package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reda-store/internal/models"
)

func TestComputeTotalsFlat(t *testing.T) {
	got := ComputeTotals([]Line{
		{Qty: 3, UnitPrice: 100, GettingPrice: 50, Subtotal: 300},
		{Qty: 1, UnitPrice: 20.5, GettingPrice: 10.25, Subtotal: 20.5},
	}, 20, models.DiscountFlat)

	assert.Equal(t, 320.5, got.Subtotal)
	assert.Equal(t, 20.0, got.DiscountAmount)
	assert.Equal(t, 300.5, got.Total)
	assert.Equal(t, 160.25, got.TotalCost)
	assert.Equal(t, 140.25, got.Profit)
}

func TestComputeTotalsPercentRounds(t *testing.T) {
	// 10% of 333 is 33.3, rounded to 33
	got := ComputeTotals([]Line{{Qty: 3, UnitPrice: 111, GettingPrice: 100, Subtotal: 333}}, 10, models.DiscountPercent)

	assert.Equal(t, 33.0, got.DiscountAmount)
	assert.Equal(t, 300.0, got.Total)
	assert.Equal(t, 0.0, got.Profit)
}

func TestComputeTotalsDiscountLargerThanSubtotal(t *testing.T) {
	got := ComputeTotals([]Line{{Qty: 1, UnitPrice: 100, GettingPrice: 60, Subtotal: 100}}, 150, models.DiscountFlat)

	assert.Equal(t, 150.0, got.DiscountAmount)
	assert.Equal(t, 0.0, got.Total)
	assert.Equal(t, -60.0, got.Profit)
}

func TestComputeTotalsAvoidsFloatDrift(t *testing.T) {
	got := ComputeTotals([]Line{
		{Qty: 1, UnitPrice: 0.1, Subtotal: 0.1},
		{Qty: 1, UnitPrice: 0.2, Subtotal: 0.2},
	}, 0, models.DiscountFlat)

	assert.Equal(t, 0.3, got.Total)
}

func TestLineSubtotalMatches(t *testing.T) {
	assert.True(t, lineSubtotalMatches(Line{Qty: 3, UnitPrice: 33.33, Subtotal: 99.99}))
	assert.True(t, lineSubtotalMatches(Line{Qty: 3, UnitPrice: 33.333, Subtotal: 99.995}))
	assert.False(t, lineSubtotalMatches(Line{Qty: 3, UnitPrice: 100, Subtotal: 250}))
}

func TestBillNumberFormat(t *testing.T) {
	assert.Equal(t, "REDA-20261019-00007", FormatBillNo("REDA", "20261019", 7))
	assert.Equal(t, "REDA-20261019-123456", FormatBillNo("REDA", "20261019", 123456))
	assert.Equal(t, "RTN-REDA-20261019-00007", ReturnBillNo("REDA-20261019-00007"))
	assert.Equal(t, "bill:seq:20261019", redisKey("20261019"))
}
