package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicely/internal/currency"
)

// Status is the persisted invoice status. The set is closed; anything else
// is rejected at the boundary.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// DiscountType selects how a discount amount is interpreted.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Discount is an invoice-level reduction, either a percentage of the
// subtotal or a fixed amount in the invoice currency.
type Discount struct {
	Amount decimal.Decimal `json:"amount"`
	Type   DiscountType    `json:"type"`
}

// LineItem is one billable row on an invoice. Amount is derived
// (quantity × rate); the billing calculator is its only writer.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is the aggregate the rest of the system revolves around. Subtotal,
// TaxAmount, DiscountTotal and Total are derived, recomputed on every
// mutation of items, tax or discount. InvoiceNumber and Currency are
// immutable once the invoice exists.
type Invoice struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	ClientID      uuid.UUID       `json:"client_id" db:"client_id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	Items         []LineItem      `json:"items" db:"items"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxPercent    decimal.Decimal `json:"tax_percent" db:"tax_percent"`
	TaxAmount     decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	Discount      Discount        `json:"discount"`
	DiscountTotal decimal.Decimal `json:"discount_total" db:"discount_total"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Currency      currency.Code   `json:"currency" db:"currency"`
	Status        Status          `json:"status" db:"status"`
	IssueDate     time.Time       `json:"issue_date" db:"issue_date"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	Notes         *string         `json:"notes" db:"notes"`
	LogoObject    *string         `json:"logo_object" db:"logo_object"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// IsPaid reports whether the stored status is paid. Paid is terminal for
// reporting purposes: a paid invoice is never overdue or upcoming.
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid
}

// EffectiveCurrency returns the invoice currency, defaulting records
// persisted without one to USD.
func (i *Invoice) EffectiveCurrency() currency.Code {
	if !currency.IsValid(i.Currency) {
		return currency.Default
	}
	return i.Currency
}
