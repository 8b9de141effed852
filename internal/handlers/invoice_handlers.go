package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"invoicely/internal/billing"
	"invoicely/internal/common"
	"invoicely/internal/models"
	"invoicely/internal/repositories"
	"invoicely/internal/services"
)

// maxLogoSize bounds logo uploads at 2 MiB.
const maxLogoSize = 2 << 20

// InvoiceHandlers handles HTTP requests for invoices.
type InvoiceHandlers struct {
	invoiceService services.InvoiceServiceInterface
}

func NewInvoiceHandlers(invoiceService services.InvoiceServiceInterface) *InvoiceHandlers {
	return &InvoiceHandlers{invoiceService: invoiceService}
}

type lineItemPayload struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

type discountPayload struct {
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
}

type invoicePayload struct {
	ClientID   string            `json:"client_id"`
	Items      []lineItemPayload `json:"items"`
	TaxPercent decimal.Decimal   `json:"tax_percent"`
	Discount   *discountPayload  `json:"discount"`
	Currency   string            `json:"currency"`
	Status     string            `json:"status"`
	IssueDate  string            `json:"issue_date"`
	DueDate    string            `json:"due_date"`
	Notes      *string           `json:"notes"`
}

func (p *invoicePayload) items() []models.LineItem {
	items := make([]models.LineItem, len(p.Items))
	for i, it := range p.Items {
		items[i] = models.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
		}
	}
	return items
}

func (p *invoicePayload) discount() models.Discount {
	if p.Discount == nil {
		return models.Discount{Type: models.DiscountFixed}
	}
	return models.Discount{
		Amount: p.Discount.Amount,
		Type:   models.DiscountType(p.Discount.Type),
	}
}

// CreateInvoice handles POST /invoices.
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var payload invoicePayload
	if err := c.Bind(&payload); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	clientID, err := common.ValidateUUID(payload.ClientID, "client_id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}
	if len(payload.Items) == 0 {
		return common.SendValidationError(c, "items", "At least one item is required")
	}
	dueDate, err := common.ParseDate(payload.DueDate, "due_date")
	if err != nil {
		return common.SendValidationError(c, "due_date", err.Error())
	}

	req := &services.CreateInvoiceRequest{
		ClientID:   clientID,
		Items:      payload.items(),
		TaxPercent: payload.TaxPercent,
		Discount:   payload.discount(),
		Currency:   payload.Currency,
		Status:     payload.Status,
		DueDate:    dueDate,
		Notes:      payload.Notes,
	}
	if payload.IssueDate != "" {
		issueDate, err := common.ParseDate(payload.IssueDate, "issue_date")
		if err != nil {
			return common.SendValidationError(c, "issue_date", err.Error())
		}
		req.IssueDate = &issueDate
	}

	invoice, err := h.invoiceService.CreateInvoice(ctx, userID, req)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices handles GET /invoices?status=&sortBy=&order=.
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	status := c.QueryParam("status")
	sortBy := c.QueryParam("sortBy")
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := c.QueryParam("order")
	if order == "" {
		order = "desc"
	}

	invoices, err := h.invoiceService.ListInvoices(ctx, userID, status, sortBy, order)
	if err != nil {
		return invoiceError(c, err)
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}
	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /invoices/:id.
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, userID, invoiceID)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice handles PUT /invoices/:id.
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var payload invoicePayload
	if err := c.Bind(&payload); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	clientID, err := common.ValidateUUID(payload.ClientID, "client_id")
	if err != nil {
		return common.SendValidationError(c, "client_id", err.Error())
	}
	if len(payload.Items) == 0 {
		return common.SendValidationError(c, "items", "At least one item is required")
	}
	dueDate, err := common.ParseDate(payload.DueDate, "due_date")
	if err != nil {
		return common.SendValidationError(c, "due_date", err.Error())
	}

	req := &services.UpdateInvoiceRequest{
		ClientID:   clientID,
		Items:      payload.items(),
		TaxPercent: payload.TaxPercent,
		Discount:   payload.discount(),
		Status:     payload.Status,
		DueDate:    dueDate,
		Notes:      payload.Notes,
	}
	if payload.IssueDate != "" {
		issueDate, err := common.ParseDate(payload.IssueDate, "issue_date")
		if err != nil {
			return common.SendValidationError(c, "issue_date", err.Error())
		}
		req.IssueDate = &issueDate
	}

	invoice, err := h.invoiceService.UpdateInvoice(ctx, userID, invoiceID, req)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoiceStatus handles PUT /invoices/:id/status.
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.invoiceService.UpdateInvoiceStatus(ctx, userID, invoiceID, req.Status); err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

// DeleteInvoice handles DELETE /invoices/:id.
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.invoiceService.DeleteInvoice(ctx, userID, invoiceID); err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Invoice deleted successfully"})
}

// UploadLogo handles POST /invoices/:id/logo (multipart form, field "logo").
func (h *InvoiceHandlers) UploadLogo(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return common.SendValidationError(c, "logo", "Logo file is required")
	}
	if file.Size > maxLogoSize {
		return common.SendValidationError(c, "logo", "Logo must be 2MB or smaller")
	}

	src, err := file.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read upload")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	objectName, err := h.invoiceService.UploadLogo(ctx, userID, invoiceID, src, file.Size, contentType)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"logo_object": objectName})
}

// GetLogo handles GET /invoices/:id/logo and returns a presigned URL.
func (h *InvoiceHandlers) GetLogo(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	url, err := h.invoiceService.LogoURL(ctx, userID, invoiceID)
	if err != nil {
		return invoiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url, "expires_in": (15 * time.Minute).String()})
}

// invoiceError maps service errors to the standardized responses: caller
// mistakes are 400s, missing or foreign-owned records are 404s.
func invoiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return common.SendNotFoundError(c, "invoice or client")
	case errors.Is(err, billing.ErrInvalidInvoice):
		return common.SendClientError(c, err.Error())
	case errors.Is(err, billing.ErrInvalidStatus):
		return common.SendClientError(c, err.Error())
	default:
		return common.SendServerError(c, "Internal error")
	}
}
