package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicely/internal/billing"
	"invoicely/internal/caching"
	"invoicely/internal/currency"
	"invoicely/internal/models"
	"invoicely/internal/repositories"
)

// numberRetries bounds regeneration attempts when an invoice number collides
// with an existing one. The suffix has 36^6 combinations, so a second
// collision in a row is effectively a broken RNG.
const numberRetries = 5

// LogoBucket holds uploaded invoice logos.
const LogoBucket = "invoicely-logos"

// CreateInvoiceRequest carries caller input for a new invoice. Derived
// fields (amounts, subtotal, totals) are never accepted from the caller.
type CreateInvoiceRequest struct {
	ClientID   uuid.UUID
	Items      []models.LineItem
	TaxPercent decimal.Decimal
	Discount   models.Discount
	Currency   string // coerced to the supported set, USD fallback
	Status     string // optional, defaults to draft
	IssueDate  *time.Time
	DueDate    time.Time
	Notes      *string
}

// UpdateInvoiceRequest mirrors CreateInvoiceRequest minus the currency:
// currency is set once at creation and silently preserved on update.
type UpdateInvoiceRequest struct {
	ClientID   uuid.UUID
	Items      []models.LineItem
	TaxPercent decimal.Decimal
	Discount   models.Discount
	Status     string // optional, keeps current status when empty
	IssueDate  *time.Time
	DueDate    time.Time
	Notes      *string
}

// InvoiceServiceInterface defines the invoice orchestration surface.
type InvoiceServiceInterface interface {
	CreateInvoice(ctx context.Context, userID uuid.UUID, req *CreateInvoiceRequest) (*models.Invoice, error)
	GetInvoiceByID(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, userID uuid.UUID, statusFilter, sortBy, order string) ([]*models.Invoice, error)
	UpdateInvoice(ctx context.Context, userID, invoiceID uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, userID, invoiceID uuid.UUID, rawStatus string) error
	DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error
	MarkOverdueInvoices(ctx context.Context) (int64, error)
	UploadLogo(ctx context.Context, userID, invoiceID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error)
	LogoURL(ctx context.Context, userID, invoiceID uuid.UUID) (string, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	clientRepo  repositories.ClientRepository
	cacheSvc    caching.CacheService
	minioSvc    MinioService
	now         func() time.Time
}

// NewInvoiceService creates a new invoice service. cacheSvc and minioSvc may
// be nil; the service degrades to uncached stats and no logo storage.
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, clientRepo repositories.ClientRepository, cacheSvc caching.CacheService, minioSvc MinioService) InvoiceServiceInterface {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		cacheSvc:    cacheSvc,
		minioSvc:    minioSvc,
		now:         time.Now,
	}
}

// CreateInvoice validates client ownership, derives the financial fields,
// assigns a fresh invoice number and persists the invoice. Number
// collisions are retried with a newly generated number.
func (s *invoiceService) CreateInvoice(ctx context.Context, userID uuid.UUID, req *CreateInvoiceRequest) (*models.Invoice, error) {
	if _, err := s.clientRepo.GetByID(ctx, userID, req.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	status := models.StatusDraft
	if req.Status != "" {
		parsed, err := billing.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	if req.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", billing.ErrInvalidInvoice)
	}

	totals, items, err := billing.ComputeTotals(req.Items, req.TaxPercent, req.Discount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	issueDate := now
	if req.IssueDate != nil && !req.IssueDate.IsZero() {
		issueDate = *req.IssueDate
	}

	invoice := &models.Invoice{
		ID:            uuid.New(),
		UserID:        userID,
		ClientID:      req.ClientID,
		Items:         items,
		Subtotal:      totals.Subtotal,
		TaxPercent:    req.TaxPercent,
		TaxAmount:     totals.TaxAmount,
		Discount:      req.Discount,
		DiscountTotal: totals.DiscountAmount,
		Total:         totals.Total,
		Currency:      currency.Coerce(req.Currency),
		Status:        status,
		IssueDate:     issueDate,
		DueDate:       req.DueDate,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if invoice.Discount.Type == "" {
		invoice.Discount.Type = models.DiscountFixed
	}

	for attempt := 0; ; attempt++ {
		invoice.InvoiceNumber = billing.GenerateInvoiceNumber(now)
		err = s.invoiceRepo.Create(ctx, invoice)
		if err == nil {
			break
		}
		if !repositories.IsUniqueViolation(err) || attempt >= numberRetries {
			return nil, fmt.Errorf("create invoice: %w", err)
		}
		log.Printf("Invoice number %s collided, regenerating (attempt %d)", invoice.InvoiceNumber, attempt+1)
	}

	s.invalidateDashboard(ctx, userID)
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByID(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, userID, invoiceID)
}

// ListInvoices returns the user's invoices, optionally filtered by status.
// An empty filter or "all" disables filtering; anything else must be a
// member of the closed status set.
func (s *invoiceService) ListInvoices(ctx context.Context, userID uuid.UUID, statusFilter, sortBy, order string) ([]*models.Invoice, error) {
	var status *models.Status
	if statusFilter != "" && statusFilter != "all" {
		parsed, err := billing.ParseStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}
	return s.invoiceRepo.List(ctx, userID, status, sortBy, order)
}

// UpdateInvoice re-derives every financial field from the submitted items.
// Invoice number, currency and creation time are preserved from the stored
// record regardless of what the caller sends.
func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, invoiceID uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error) {
	existing, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	if _, err := s.clientRepo.GetByID(ctx, userID, req.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	status := existing.Status
	if req.Status != "" {
		parsed, err := billing.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	if req.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", billing.ErrInvalidInvoice)
	}

	totals, items, err := billing.ComputeTotals(req.Items, req.TaxPercent, req.Discount)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.ClientID = req.ClientID
	updated.Items = items
	updated.Subtotal = totals.Subtotal
	updated.TaxPercent = req.TaxPercent
	updated.TaxAmount = totals.TaxAmount
	updated.Discount = req.Discount
	updated.DiscountTotal = totals.DiscountAmount
	updated.Total = totals.Total
	updated.Status = status
	updated.DueDate = req.DueDate
	updated.Notes = req.Notes
	updated.UpdatedAt = s.now()
	if req.IssueDate != nil && !req.IssueDate.IsZero() {
		updated.IssueDate = *req.IssueDate
	}
	if updated.Discount.Type == "" {
		updated.Discount.Type = models.DiscountFixed
	}

	if err := s.invoiceRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx, userID)
	return &updated, nil
}

// UpdateInvoiceStatus sets the stored status directly. The closed set is the
// only constraint: transitions are caller-driven, including paid → anything
// being rejected solely by convention upstream, not here.
func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, userID, invoiceID uuid.UUID, rawStatus string) error {
	status, err := billing.ParseStatus(rawStatus)
	if err != nil {
		return err
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, userID, invoiceID, status); err != nil {
		return err
	}
	s.invalidateDashboard(ctx, userID)
	return nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return err
	}
	if err := s.invoiceRepo.Delete(ctx, userID, invoiceID); err != nil {
		return err
	}
	if invoice.LogoObject != nil && s.minioSvc != nil {
		if err := s.minioSvc.DeleteLogo(ctx, LogoBucket, *invoice.LogoObject); err != nil {
			log.Printf("Failed to delete logo object %s: %v", *invoice.LogoObject, err)
		}
	}
	s.invalidateDashboard(ctx, userID)
	return nil
}

// MarkOverdueInvoices sweeps stale sent invoices past their due date into
// the overdue display status. Run periodically by the scheduler.
func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	return s.invoiceRepo.MarkOverdue(ctx, s.now())
}

// UploadLogo stores a logo image for the invoice and records its object key.
func (s *invoiceService) UploadLogo(ctx context.Context, userID, invoiceID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error) {
	if s.minioSvc == nil {
		return "", fmt.Errorf("logo storage is not configured")
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("%s/%s", userID.String(), invoiceID.String())
	if err := s.minioSvc.UploadLogo(ctx, LogoBucket, objectName, reader, size, contentType); err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}

	invoice.LogoObject = &objectName
	invoice.UpdatedAt = s.now()
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return "", err
	}
	return objectName, nil
}

// LogoURL returns a short-lived presigned URL for the invoice logo.
func (s *invoiceService) LogoURL(ctx context.Context, userID, invoiceID uuid.UUID) (string, error) {
	if s.minioSvc == nil {
		return "", fmt.Errorf("logo storage is not configured")
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return "", err
	}
	if invoice.LogoObject == nil {
		return "", repositories.ErrNotFound
	}
	return s.minioSvc.GetPresignedURL(ctx, LogoBucket, *invoice.LogoObject, 15*time.Minute)
}

func (s *invoiceService) invalidateDashboard(ctx context.Context, userID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.InvalidateDashboard(ctx, userID); err != nil {
		log.Printf("Failed to invalidate dashboard cache for user %s: %v", userID, err)
	}
}
