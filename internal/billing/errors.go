package billing

import "errors"

var (
	// ErrInvalidInvoice means the caller supplied line items, tax or discount
	// that cannot produce totals: no valid line item, a negative discount, or
	// an unknown discount type. Never retryable; the input must be corrected.
	ErrInvalidInvoice = errors.New("invalid invoice")

	// ErrInvalidStatus means a status value outside the closed set
	// {draft, sent, paid, overdue}.
	ErrInvalidStatus = errors.New("invalid invoice status")
)
