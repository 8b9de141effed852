package billing

import (
	"fmt"
	"time"

	"github.com/labstack/gommon/random"

	"invoicely/internal/models"
)

// Bucket is the derived, non-persisted classification of a non-paid invoice
// relative to an evaluation time. Reporting uses buckets, never the stored
// status, to decide what is overdue.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketUpcoming Bucket = "upcoming"
)

// ParseStatus validates a caller-supplied status against the closed set.
// Any status may be set directly; the lifecycle does not force invoices
// through intermediate states.
func ParseStatus(raw string) (models.Status, error) {
	switch s := models.Status(raw); s {
	case models.StatusDraft, models.StatusSent, models.StatusPaid, models.StatusOverdue:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// IsOverdue reports whether the invoice is effectively overdue at now:
// not paid and past its due date. The stored status is advisory; this
// derived check is the single authority for reporting.
func IsOverdue(inv *models.Invoice, now time.Time) bool {
	return !inv.IsPaid() && inv.DueDate.Before(now)
}

// Classify places a non-paid invoice into exactly one bucket relative to
// now. Paid invoices are in neither bucket; ok is false for them. Together
// the buckets partition the non-paid set: every non-paid invoice is either
// overdue or upcoming, never both.
func Classify(inv *models.Invoice, now time.Time) (Bucket, bool) {
	if inv.IsPaid() {
		return "", false
	}
	if inv.DueDate.Before(now) {
		return BucketOverdue, true
	}
	return BucketUpcoming, true
}

const numberSuffixLen = 6

// GenerateInvoiceNumber produces a number of the form INV-YYYYMM-XXXXXX,
// where the suffix is random base36. Six characters of entropy make
// collisions within a month vanishingly rare; the database uniqueness
// constraint remains the final guard and callers retry on violation.
func GenerateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"),
		random.String(numberSuffixLen, random.Lowercase+random.Numeric))
}
