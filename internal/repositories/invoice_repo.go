package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"invoicely/internal/currency"
	"invoicely/internal/models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, status *models.Status, sortBy, order string) ([]*models.Invoice, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	ListOwners(ctx context.Context) ([]uuid.UUID, error)
}

type invoiceRepo struct {
	db DB
}

func NewInvoiceRepo(db DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, user_id, client_id, invoice_number, items, subtotal, tax_percent, tax_amount,
		discount_amount, discount_type, discount_total, total, currency, status,
		issue_date, due_date, notes, logo_object, created_at, updated_at`

// sortColumns whitelists the caller-selectable sort keys. Anything else
// falls back to created_at.
var sortColumns = map[string]string{
	"created_at":     "created_at",
	"due_date":       "due_date",
	"issue_date":     "issue_date",
	"total":          "total",
	"invoice_number": "invoice_number",
	"status":         "status",
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	items, err := json.Marshal(invoice.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	query := `
		INSERT INTO invoices (id, user_id, client_id, invoice_number, items, subtotal, tax_percent, tax_amount,
			discount_amount, discount_type, discount_total, total, currency, status,
			issue_date, due_date, notes, logo_object, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		invoice.ID, invoice.UserID, invoice.ClientID, invoice.InvoiceNumber, items,
		invoice.Subtotal, invoice.TaxPercent, invoice.TaxAmount,
		invoice.Discount.Amount, string(invoice.Discount.Type), invoice.DiscountTotal, invoice.Total,
		string(invoice.Currency), string(invoice.Status),
		invoice.IssueDate, invoice.DueDate, invoice.Notes, invoice.LogoObject)
	return err
}

func (r *invoiceRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE user_id = $1 AND id = $2
	`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	items, err := json.Marshal(invoice.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	// invoice_number and currency are set once at creation and never updated.
	query := `
		UPDATE invoices
		SET client_id = $1, items = $2, subtotal = $3, tax_percent = $4, tax_amount = $5,
			discount_amount = $6, discount_type = $7, discount_total = $8, total = $9,
			status = $10, issue_date = $11, due_date = $12, notes = $13, logo_object = $14, updated_at = NOW()
		WHERE user_id = $15 AND id = $16
	`
	tag, err := r.db.Exec(ctx, query,
		invoice.ClientID, items, invoice.Subtotal, invoice.TaxPercent, invoice.TaxAmount,
		invoice.Discount.Amount, string(invoice.Discount.Type), invoice.DiscountTotal, invoice.Total,
		string(invoice.Status), invoice.IssueDate, invoice.DueDate, invoice.Notes, invoice.LogoObject,
		invoice.UserID, invoice.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) error {
	query := `UPDATE invoices SET status = $1, updated_at = NOW() WHERE user_id = $2 AND id = $3`
	tag, err := r.db.Exec(ctx, query, string(status), userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM invoices WHERE user_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) List(ctx context.Context, userID uuid.UUID, status *models.Status, sortBy, order string) ([]*models.Invoice, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE user_id = $1
	`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, column, direction)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// MarkOverdue moves stale sent invoices past their due date to the overdue
// status. Display-only convergence: reporting derives overdue from the due
// date regardless of what is stored here.
func (r *invoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE invoices SET status = 'overdue', updated_at = NOW() WHERE status = 'sent' AND due_date < $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *invoiceRepo) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT user_id FROM invoices`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	var items []byte
	var discountType, curr, status string
	err := row.Scan(
		&invoice.ID, &invoice.UserID, &invoice.ClientID, &invoice.InvoiceNumber, &items,
		&invoice.Subtotal, &invoice.TaxPercent, &invoice.TaxAmount,
		&invoice.Discount.Amount, &discountType, &invoice.DiscountTotal, &invoice.Total,
		&curr, &status, &invoice.IssueDate, &invoice.DueDate,
		&invoice.Notes, &invoice.LogoObject, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &invoice.Items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	invoice.Discount.Type = models.DiscountType(discountType)
	invoice.Currency = currency.Code(curr)
	invoice.Status = models.Status(status)
	return invoice, nil
}
