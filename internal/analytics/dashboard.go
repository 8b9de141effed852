// Package analytics rolls a user's invoices up into dashboard statistics:
// earnings and unpaid balances partitioned by currency, overdue and upcoming
// invoice lists, recent activity and a monthly earnings series.
package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicely/internal/billing"
	"invoicely/internal/currency"
	"invoicely/internal/models"
)

// ClientRef is the display annotation attached to invoice summaries.
type ClientRef struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

// InvoiceSummary is an invoice row prepared for dashboard display.
type InvoiceSummary struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	ClientName    string          `json:"client_name"`
	ClientCompany string          `json:"client_company"`
	Total         decimal.Decimal `json:"total"`
	Currency      currency.Code   `json:"currency"`
	Status        models.Status   `json:"status"`
	DueDate       time.Time       `json:"due_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MonthlyEarning is one point of the paid-earnings time series. Totals are
// summed across currencies, a knowing display simplification inherited from
// the dashboard design; the per-currency maps carry the exact figures.
type MonthlyEarning struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// CountStats is the invoice count block of the dashboard.
type CountStats struct {
	TotalInvoices   int `json:"total_invoices"`
	PaidInvoices    int `json:"paid_invoices"`
	UnpaidInvoices  int `json:"unpaid_invoices"`
	OverdueInvoices int `json:"overdue_invoices"`
}

// DashboardStats is the full dashboard payload. TotalEarnings and
// UnpaidAmount are cross-currency raw sums kept for headline display only;
// EarningsByCurrency and UnpaidByCurrency never mix currencies.
type DashboardStats struct {
	TotalEarnings         decimal.Decimal                 `json:"total_earnings"`
	UnpaidAmount          decimal.Decimal                 `json:"unpaid_amount"`
	EarningsByCurrency    map[currency.Code]decimal.Decimal `json:"earnings_by_currency"`
	UnpaidByCurrency      map[currency.Code]decimal.Decimal `json:"unpaid_by_currency"`
	PaidCountByCurrency   map[currency.Code]int           `json:"paid_count_by_currency"`
	UnpaidCountByCurrency map[currency.Code]int           `json:"unpaid_count_by_currency"`
	TotalClients          int                             `json:"total_clients"`
	RecentInvoices        []InvoiceSummary                `json:"recent_invoices"`
	OverdueInvoices       []InvoiceSummary                `json:"overdue_invoices"`
	UpcomingInvoices      []InvoiceSummary                `json:"upcoming_invoices"`
	MonthlyEarnings       []MonthlyEarning                `json:"monthly_earnings"`
	Stats                 CountStats                      `json:"stats"`
	ComputedAt            time.Time                       `json:"computed_at"`
}

const recentLimit = 5

const earningsWindow = 30 * 24 * time.Hour

// ComputeDashboard folds an already-loaded snapshot of a user's invoices
// into dashboard statistics. Pure: no I/O, deterministic for a fixed now.
// Zero invoices yields all-zero, all-empty statistics, never an error.
//
// Unpaid means stored status sent or overdue. Overdue and upcoming are NOT
// read from the stored status: they are derived from the due date relative
// to now (see billing.Classify), so a stale "sent" invoice past its due
// date still lands in the overdue list.
func ComputeDashboard(invoices []*models.Invoice, clients map[uuid.UUID]ClientRef, clientsCount int, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalEarnings:         decimal.Zero,
		UnpaidAmount:          decimal.Zero,
		EarningsByCurrency:    make(map[currency.Code]decimal.Decimal),
		UnpaidByCurrency:      make(map[currency.Code]decimal.Decimal),
		PaidCountByCurrency:   make(map[currency.Code]int),
		UnpaidCountByCurrency: make(map[currency.Code]int),
		TotalClients:          clientsCount,
		RecentInvoices:        []InvoiceSummary{},
		OverdueInvoices:       []InvoiceSummary{},
		UpcomingInvoices:      []InvoiceSummary{},
		MonthlyEarnings:       []MonthlyEarning{},
		ComputedAt:            now,
	}

	windowStart := now.Add(-earningsWindow)
	monthly := make(map[[2]int]decimal.Decimal)

	for _, inv := range invoices {
		stats.Stats.TotalInvoices++
		curr := inv.EffectiveCurrency()

		switch inv.Status {
		case models.StatusPaid:
			stats.Stats.PaidInvoices++
			stats.TotalEarnings = stats.TotalEarnings.Add(inv.Total)
			stats.EarningsByCurrency[curr] = stats.EarningsByCurrency[curr].Add(inv.Total)
			stats.PaidCountByCurrency[curr]++
			if !inv.CreatedAt.Before(windowStart) {
				key := [2]int{inv.CreatedAt.Year(), int(inv.CreatedAt.Month())}
				monthly[key] = monthly[key].Add(inv.Total)
			}
		case models.StatusSent, models.StatusOverdue:
			stats.Stats.UnpaidInvoices++
			stats.UnpaidAmount = stats.UnpaidAmount.Add(inv.Total)
			stats.UnpaidByCurrency[curr] = stats.UnpaidByCurrency[curr].Add(inv.Total)
			stats.UnpaidCountByCurrency[curr]++
		}

		if bucket, ok := billing.Classify(inv, now); ok {
			summary := summarize(inv, clients)
			if bucket == billing.BucketOverdue {
				stats.OverdueInvoices = append(stats.OverdueInvoices, summary)
				stats.Stats.OverdueInvoices++
			} else {
				stats.UpcomingInvoices = append(stats.UpcomingInvoices, summary)
			}
		}
	}

	stats.RecentInvoices = recent(invoices, clients)
	stats.MonthlyEarnings = sortedMonthly(monthly)
	return stats
}

func summarize(inv *models.Invoice, clients map[uuid.UUID]ClientRef) InvoiceSummary {
	ref := clients[inv.ClientID] // zero value tolerated: client may be deleted
	return InvoiceSummary{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		ClientName:    ref.Name,
		ClientCompany: ref.Company,
		Total:         inv.Total,
		Currency:      inv.EffectiveCurrency(),
		Status:        inv.Status,
		DueDate:       inv.DueDate,
		CreatedAt:     inv.CreatedAt,
	}
}

// recent returns the newest invoices by creation time, up to recentLimit.
func recent(invoices []*models.Invoice, clients map[uuid.UUID]ClientRef) []InvoiceSummary {
	sorted := make([]*models.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentLimit {
		sorted = sorted[:recentLimit]
	}
	out := make([]InvoiceSummary, len(sorted))
	for i, inv := range sorted {
		out[i] = summarize(inv, clients)
	}
	return out
}

func sortedMonthly(monthly map[[2]int]decimal.Decimal) []MonthlyEarning {
	out := make([]MonthlyEarning, 0, len(monthly))
	for key, total := range monthly {
		out = append(out, MonthlyEarning{Year: key[0], Month: key[1], Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
