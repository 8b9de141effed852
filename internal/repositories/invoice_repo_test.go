package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"invoicely/internal/currency"
	"invoicely/internal/models"
)

type InvoiceRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      InvoiceRepository
	userID    uuid.UUID
	invoiceID uuid.UUID
	context   context.Context
}

func (suite *InvoiceRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInvoiceRepo(mock)
	suite.userID = uuid.New()
	suite.invoiceID = uuid.New()
	suite.context = context.Background()
}

func (suite *InvoiceRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestInvoiceRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceRepoTestSuite))
}

func (suite *InvoiceRepoTestSuite) sampleInvoice() *models.Invoice {
	return &models.Invoice{
		ID:            suite.invoiceID,
		UserID:        suite.userID,
		ClientID:      uuid.New(),
		InvoiceNumber: "INV-202604-a1b2c3",
		Items: []models.LineItem{
			{Description: "Work", Quantity: 2, Rate: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100)},
		},
		Subtotal:   decimal.NewFromInt(100),
		TaxPercent: decimal.NewFromInt(10),
		TaxAmount:  decimal.NewFromInt(10),
		Discount:   models.Discount{Amount: decimal.Zero, Type: models.DiscountFixed},
		Total:      decimal.NewFromInt(110),
		Currency:   currency.USD,
		Status:     models.StatusDraft,
		IssueDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *InvoiceRepoTestSuite) TestCreate_Success() {
	inv := suite.sampleInvoice()

	suite.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(inv.ID, inv.UserID, inv.ClientID, inv.InvoiceNumber, pgxmock.AnyArg(),
			inv.Subtotal, inv.TaxPercent, inv.TaxAmount,
			inv.Discount.Amount, "fixed", inv.DiscountTotal, inv.Total,
			"USD", "draft", inv.IssueDate, inv.DueDate, inv.Notes, inv.LogoObject).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, inv)
	assert.NoError(suite.T(), err)
}

func (suite *InvoiceRepoTestSuite) TestCreate_NumberCollision() {
	inv := suite.sampleInvoice()

	suite.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(inv.ID, inv.UserID, inv.ClientID, inv.InvoiceNumber, pgxmock.AnyArg(),
			inv.Subtotal, inv.TaxPercent, inv.TaxAmount,
			inv.Discount.Amount, "fixed", inv.DiscountTotal, inv.Total,
			"USD", "draft", inv.IssueDate, inv.DueDate, inv.Notes, inv.LogoObject).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "invoices_invoice_number_key"})

	err := suite.repo.Create(suite.context, inv)
	require.Error(suite.T(), err)
	assert.True(suite.T(), IsUniqueViolation(err))
}

func (suite *InvoiceRepoTestSuite) invoiceRows(inv *models.Invoice) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "user_id", "client_id", "invoice_number", "items", "subtotal", "tax_percent", "tax_amount",
		"discount_amount", "discount_type", "discount_total", "total", "currency", "status",
		"issue_date", "due_date", "notes", "logo_object", "created_at", "updated_at",
	}).AddRow(inv.ID, inv.UserID, inv.ClientID, inv.InvoiceNumber,
		[]byte(`[{"description":"Work","quantity":2,"rate":"50","amount":"100"}]`),
		inv.Subtotal, inv.TaxPercent, inv.TaxAmount,
		inv.Discount.Amount, string(inv.Discount.Type), inv.DiscountTotal, inv.Total,
		string(inv.Currency), string(inv.Status),
		inv.IssueDate, inv.DueDate, inv.Notes, inv.LogoObject, now, now)
}

func (suite *InvoiceRepoTestSuite) TestGetByID_Success() {
	inv := suite.sampleInvoice()

	suite.mock.ExpectQuery(`FROM invoices\s+WHERE user_id = \$1 AND id = \$2`).
		WithArgs(suite.userID, suite.invoiceID).
		WillReturnRows(suite.invoiceRows(inv))

	got, err := suite.repo.GetByID(suite.context, suite.userID, suite.invoiceID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), inv.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(suite.T(), currency.USD, got.Currency)
	assert.Equal(suite.T(), models.StatusDraft, got.Status)
	require.Len(suite.T(), got.Items, 1)
	assert.Equal(suite.T(), "Work", got.Items[0].Description)
	assert.True(suite.T(), got.Items[0].Amount.Equal(decimal.NewFromInt(100)))
}

func (suite *InvoiceRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`FROM invoices`).
		WithArgs(suite.userID, suite.invoiceID).
		WillReturnError(pgx.ErrNoRows)

	got, err := suite.repo.GetByID(suite.context, suite.userID, suite.invoiceID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), got)
}

func (suite *InvoiceRepoTestSuite) TestUpdateStatus_Success() {
	suite.mock.ExpectExec(`UPDATE invoices SET status = \$1`).
		WithArgs("paid", suite.userID, suite.invoiceID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.UpdateStatus(suite.context, suite.userID, suite.invoiceID, models.StatusPaid)
	assert.NoError(suite.T(), err)
}

func (suite *InvoiceRepoTestSuite) TestUpdateStatus_NotFound() {
	suite.mock.ExpectExec(`UPDATE invoices SET status = \$1`).
		WithArgs("paid", suite.userID, suite.invoiceID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.UpdateStatus(suite.context, suite.userID, suite.invoiceID, models.StatusPaid)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *InvoiceRepoTestSuite) TestDelete_NotFound() {
	suite.mock.ExpectExec(`DELETE FROM invoices`).
		WithArgs(suite.userID, suite.invoiceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := suite.repo.Delete(suite.context, suite.userID, suite.invoiceID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *InvoiceRepoTestSuite) TestList_FiltersByStatus() {
	inv := suite.sampleInvoice()
	inv.Status = models.StatusPaid
	paid := models.StatusPaid

	suite.mock.ExpectQuery(`FROM invoices\s+WHERE user_id = \$1\s+AND status = \$2 ORDER BY created_at DESC`).
		WithArgs(suite.userID, "paid").
		WillReturnRows(suite.invoiceRows(inv))

	invoices, err := suite.repo.List(suite.context, suite.userID, &paid, "", "")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), invoices, 1)
	assert.Equal(suite.T(), models.StatusPaid, invoices[0].Status)
}

func (suite *InvoiceRepoTestSuite) TestList_UnknownSortFallsBack() {
	suite.mock.ExpectQuery(`FROM invoices\s+WHERE user_id = \$1\s+ORDER BY created_at ASC`).
		WithArgs(suite.userID).
		WillReturnRows(suite.invoiceRows(suite.sampleInvoice()))

	// "; DROP TABLE" style input never reaches the query.
	_, err := suite.repo.List(suite.context, suite.userID, nil, "items; DROP TABLE invoices", "asc")
	assert.NoError(suite.T(), err)
}

func (suite *InvoiceRepoTestSuite) TestMarkOverdue() {
	now := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	suite.mock.ExpectExec(`UPDATE invoices SET status = 'overdue', updated_at = NOW\(\) WHERE status = 'sent' AND due_date < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	marked, err := suite.repo.MarkOverdue(suite.context, now)
	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 4, marked)
}

func (suite *InvoiceRepoTestSuite) TestListOwners() {
	userA := uuid.New()
	userB := uuid.New()
	rows := pgxmock.NewRows([]string{"user_id"}).AddRow(userA).AddRow(userB)

	suite.mock.ExpectQuery(`SELECT DISTINCT user_id FROM invoices`).WillReturnRows(rows)

	owners, err := suite.repo.ListOwners(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{userA, userB}, owners)
}
