package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicely/internal/models"
)

func item(desc string, qty int64, rate string) models.LineItem {
	return models.LineItem{
		Description: desc,
		Quantity:    qty,
		Rate:        decimal.RequireFromString(rate),
	}
}

func noDiscount() models.Discount {
	return models.Discount{Amount: decimal.Zero, Type: models.DiscountFixed}
}

func TestComputeTotals_SingleItemNoTaxNoDiscount(t *testing.T) {
	totals, items, err := ComputeTotals(
		[]models.LineItem{item("Design work", 2, "150.00")},
		decimal.Zero,
		noDiscount(),
	)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("300.00")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.Total.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("300.00")))
}

func TestComputeTotals_TaxAndPercentDiscount(t *testing.T) {
	// subtotal 1000, tax 10% = 100, discount 5% of subtotal = 50, total 1050
	totals, _, err := ComputeTotals(
		[]models.LineItem{item("Consulting", 10, "100")},
		decimal.NewFromInt(10),
		models.Discount{Amount: decimal.NewFromInt(5), Type: models.DiscountPercent},
	)
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.TaxAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1050)))
}

func TestComputeTotals_FixedDiscount(t *testing.T) {
	totals, _, err := ComputeTotals(
		[]models.LineItem{item("Hosting", 1, "80")},
		decimal.Zero,
		models.Discount{Amount: decimal.NewFromInt(30), Type: models.DiscountFixed},
	)
	require.NoError(t, err)

	assert.True(t, totals.DiscountAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(50)))
}

func TestComputeTotals_DiscountExceedsTotalGoesNegative(t *testing.T) {
	totals, _, err := ComputeTotals(
		[]models.LineItem{item("Small job", 1, "40")},
		decimal.Zero,
		models.Discount{Amount: decimal.NewFromInt(100), Type: models.DiscountFixed},
	)
	require.NoError(t, err)

	assert.True(t, totals.Total.Equal(decimal.NewFromInt(-60)), "total = %s", totals.Total)
}

func TestComputeTotals_TaxPercentClamped(t *testing.T) {
	over, _, err := ComputeTotals(
		[]models.LineItem{item("Widget", 1, "100")},
		decimal.NewFromInt(150),
		noDiscount(),
	)
	require.NoError(t, err)
	assert.True(t, over.TaxAmount.Equal(decimal.NewFromInt(100)), "tax clamped to 100%%")

	under, _, err := ComputeTotals(
		[]models.LineItem{item("Widget", 1, "100")},
		decimal.NewFromInt(-5),
		noDiscount(),
	)
	require.NoError(t, err)
	assert.True(t, under.TaxAmount.IsZero(), "negative tax clamped to zero")
}

func TestComputeTotals_FiltersInvalidItems(t *testing.T) {
	totals, items, err := ComputeTotals(
		[]models.LineItem{
			item("", 1, "50"),        // blank description
			item("Valid", 3, "20"),   // kept
			item("Zero qty", 0, "5"), // quantity not positive
			item("Free", 2, "0"),     // rate not positive
		},
		decimal.Zero,
		noDiscount(),
	)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Valid", items[0].Description)
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(60)))
}

func TestComputeTotals_AllItemsInvalid(t *testing.T) {
	_, _, err := ComputeTotals(
		[]models.LineItem{item("", 0, "0")},
		decimal.Zero,
		noDiscount(),
	)
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestComputeTotals_EmptyItems(t *testing.T) {
	_, _, err := ComputeTotals(nil, decimal.Zero, noDiscount())
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestComputeTotals_NegativeDiscountRejected(t *testing.T) {
	_, _, err := ComputeTotals(
		[]models.LineItem{item("Widget", 1, "10")},
		decimal.Zero,
		models.Discount{Amount: decimal.NewFromInt(-1), Type: models.DiscountFixed},
	)
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestComputeTotals_UnknownDiscountTypeRejected(t *testing.T) {
	_, _, err := ComputeTotals(
		[]models.LineItem{item("Widget", 1, "10")},
		decimal.Zero,
		models.Discount{Amount: decimal.NewFromInt(1), Type: models.DiscountType("coupon")},
	)
	assert.ErrorIs(t, err, ErrInvalidInvoice)
}

func TestComputeTotals_EmptyDiscountTypeTreatedAsFixed(t *testing.T) {
	totals, _, err := ComputeTotals(
		[]models.LineItem{item("Widget", 1, "10")},
		decimal.Zero,
		models.Discount{Amount: decimal.NewFromInt(2)},
	)
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(8)))
}

func TestComputeTotals_Idempotent(t *testing.T) {
	items := []models.LineItem{
		item("Design", 3, "99.99"),
		item("Review", 1, "49.50"),
	}
	// Amounts supplied by the caller are never trusted.
	items[0].Amount = decimal.NewFromInt(1)

	tax := decimal.RequireFromString("7.5")
	discount := models.Discount{Amount: decimal.NewFromInt(10), Type: models.DiscountPercent}

	first, firstItems, err := ComputeTotals(items, tax, discount)
	require.NoError(t, err)
	second, _, err := ComputeTotals(firstItems, tax, discount)
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestValidateItem(t *testing.T) {
	assert.NoError(t, ValidateItem(item("Fine", 1, "1")))
	assert.ErrorIs(t, ValidateItem(item("   ", 1, "1")), ErrInvalidInvoice)
	assert.ErrorIs(t, ValidateItem(item("Qty", -1, "1")), ErrInvalidInvoice)
	assert.ErrorIs(t, ValidateItem(item("Rate", 1, "-2")), ErrInvalidInvoice)
}
