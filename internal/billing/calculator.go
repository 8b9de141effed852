// Package billing is the financial core of the invoicing system: the totals
// calculator, the status lifecycle and the date-relative classifier that
// reporting builds on.
//
// Everything in this package is pure computation over decimal values. Calling
// any function twice with the same inputs yields identical results, so
// derived invoice fields can be recomputed on every write without drift.
package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoicely/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Totals is the derived financial state of an invoice.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// ValidateItem checks a single line item: non-blank description, quantity
// above zero, rate above zero.
func ValidateItem(item models.LineItem) error {
	if strings.TrimSpace(item.Description) == "" {
		return fmt.Errorf("%w: line item description is empty", ErrInvalidInvoice)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: line item %q quantity must be at least 1", ErrInvalidInvoice, item.Description)
	}
	if item.Rate.Sign() <= 0 {
		return fmt.Errorf("%w: line item %q rate must be positive", ErrInvalidInvoice, item.Description)
	}
	return nil
}

// ComputeTotals derives subtotal, tax, discount and total from the given
// line items. It returns the recomputed items alongside the totals: each
// amount is rewritten as quantity × rate and never trusted from the caller.
//
// Items failing validation do not count toward totals and are dropped from
// the returned list. The call fails with ErrInvalidInvoice only when no item
// at all passes, so one bad row in a draft does not block the rest.
//
// Tax is a percentage of the subtotal, clamped to [0, 100]. A percent
// discount is taken on the subtotal; a fixed discount is taken verbatim.
// The total is not clamped at zero: a discount larger than subtotal plus tax
// produces a negative total rather than silently rewriting the money.
//
// Currency plays no part here. Display rounding per currency happens at the
// presentation boundary (see the currency package); totals keep full decimal
// precision so recomputation is exact.
func ComputeTotals(items []models.LineItem, taxPercent decimal.Decimal, discount models.Discount) (Totals, []models.LineItem, error) {
	if len(items) == 0 {
		return Totals{}, nil, fmt.Errorf("%w: at least one line item is required", ErrInvalidInvoice)
	}
	if discount.Amount.Sign() < 0 {
		return Totals{}, nil, fmt.Errorf("%w: discount cannot be negative", ErrInvalidInvoice)
	}
	switch discount.Type {
	case models.DiscountPercent, models.DiscountFixed:
	case "":
		// No discount specified; treat as a zero fixed discount.
		discount.Type = models.DiscountFixed
	default:
		return Totals{}, nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidInvoice, discount.Type)
	}

	recomputed := make([]models.LineItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		if err := ValidateItem(item); err != nil {
			continue
		}
		item.Amount = decimal.NewFromInt(item.Quantity).Mul(item.Rate)
		recomputed = append(recomputed, item)
		subtotal = subtotal.Add(item.Amount)
	}
	if len(recomputed) == 0 {
		return Totals{}, nil, fmt.Errorf("%w: no line item passes validation", ErrInvalidInvoice)
	}

	taxAmount := subtotal.Mul(clampPercent(taxPercent)).Div(hundred)

	var discountAmount decimal.Decimal
	if discount.Type == models.DiscountPercent {
		discountAmount = subtotal.Mul(discount.Amount).Div(hundred)
	} else {
		discountAmount = discount.Amount
	}

	totals := Totals{
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		Total:          subtotal.Add(taxAmount).Sub(discountAmount),
	}
	return totals, recomputed, nil
}

// clampPercent maps any tax percentage into [0, 100].
func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.Sign() < 0 {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
