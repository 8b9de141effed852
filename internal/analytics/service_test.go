package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"invoicely/internal/models"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) error {
	args := m.Called(ctx, userID, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, userID uuid.UUID, status *models.Status, sortBy, order string) ([]*models.Invoice, error) {
	args := m.Called(ctx, userID, status, sortBy, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Client, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

type MockDashboardCache struct {
	mock.Mock
}

func (m *MockDashboardCache) GetDashboard(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DashboardStats), args.Error(1)
}

func (m *MockDashboardCache) SetDashboard(ctx context.Context, userID uuid.UUID, stats *DashboardStats, ttl time.Duration) error {
	args := m.Called(ctx, userID, stats, ttl)
	return args.Error(0)
}

func (m *MockDashboardCache) InvalidateDashboard(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type AnalyticsServiceTestSuite struct {
	suite.Suite
	mockInvoices *MockInvoiceRepository
	mockClients  *MockClientRepository
	mockCache    *MockDashboardCache
	service      *Service
	userID       uuid.UUID
	now          time.Time
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	suite.mockInvoices = &MockInvoiceRepository{}
	suite.mockClients = &MockClientRepository{}
	suite.mockCache = &MockDashboardCache{}
	suite.now = time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)
	suite.service = &Service{
		invoiceRepo: suite.mockInvoices,
		clientRepo:  suite.mockClients,
		cache:       suite.mockCache,
		now:         func() time.Time { return suite.now },
	}
	suite.userID = uuid.New()

	suite.mockInvoices.Test(suite.T())
	suite.mockClients.Test(suite.T())
	suite.mockCache.Test(suite.T())
}

func (suite *AnalyticsServiceTestSuite) TearDownTest() {
	suite.mockInvoices.AssertExpectations(suite.T())
	suite.mockClients.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (suite *AnalyticsServiceTestSuite) TestDashboard_CacheHit() {
	ctx := context.Background()
	cached := &DashboardStats{TotalClients: 7, ComputedAt: suite.now.Add(-time.Minute)}

	suite.mockCache.On("GetDashboard", ctx, suite.userID).Return(cached, nil)

	stats, err := suite.service.Dashboard(ctx, suite.userID)
	require.NoError(suite.T(), err)
	assert.Same(suite.T(), cached, stats)
	suite.mockInvoices.AssertNotCalled(suite.T(), "List")
}

func (suite *AnalyticsServiceTestSuite) TestDashboard_CacheMissRecomputesAndCaches() {
	ctx := context.Background()
	companyPtr := "Acme Holdings"
	client := &models.Client{ID: uuid.New(), UserID: suite.userID, Name: "Acme", Company: &companyPtr}
	invoices := []*models.Invoice{
		{
			ID:       uuid.New(),
			ClientID: client.ID,
			Status:   models.StatusPaid,
			Total:    decimal.NewFromInt(120),
			DueDate:  suite.now.AddDate(0, 0, -3),
		},
	}

	suite.mockCache.On("GetDashboard", ctx, suite.userID).Return(nil, errors.New("cache miss"))
	suite.mockInvoices.On("List", ctx, suite.userID, (*models.Status)(nil), "created_at", "desc").Return(invoices, nil)
	suite.mockClients.On("List", ctx, suite.userID).Return([]*models.Client{client}, nil)
	suite.mockCache.On("SetDashboard", ctx, suite.userID, mock.AnythingOfType("*analytics.DashboardStats"), cacheTTL).Return(nil)

	stats, err := suite.service.Dashboard(ctx, suite.userID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), stats.TotalEarnings.Equal(decimal.NewFromInt(120)))
	assert.Equal(suite.T(), 1, stats.TotalClients)
	assert.Equal(suite.T(), suite.now, stats.ComputedAt)
}

func (suite *AnalyticsServiceTestSuite) TestDashboard_RepoErrorPropagates() {
	ctx := context.Background()

	suite.mockCache.On("GetDashboard", ctx, suite.userID).Return(nil, errors.New("cache miss"))
	suite.mockInvoices.On("List", ctx, suite.userID, (*models.Status)(nil), "created_at", "desc").
		Return(nil, errors.New("connection refused"))

	stats, err := suite.service.Dashboard(ctx, suite.userID)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), stats)
}

func (suite *AnalyticsServiceTestSuite) TestRefresh_WritesCache() {
	ctx := context.Background()

	suite.mockInvoices.On("List", ctx, suite.userID, (*models.Status)(nil), "created_at", "desc").
		Return([]*models.Invoice{}, nil)
	suite.mockClients.On("List", ctx, suite.userID).Return([]*models.Client{}, nil)
	suite.mockCache.On("SetDashboard", ctx, suite.userID, mock.AnythingOfType("*analytics.DashboardStats"), cacheTTL).Return(nil)

	err := suite.service.Refresh(ctx, suite.userID)
	assert.NoError(suite.T(), err)
}
