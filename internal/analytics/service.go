package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"invoicely/internal/repositories"
)

// DashboardCache is the slice of the cache layer this service needs. The
// redis-backed implementation lives in the caching package; the interface is
// declared here so caching can depend on the stats types without a cycle.
type DashboardCache interface {
	GetDashboard(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)
	SetDashboard(ctx context.Context, userID uuid.UUID, stats *DashboardStats, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context, userID uuid.UUID) error
}

const cacheTTL = 5 * time.Minute

// Service loads a user's invoices and clients, folds them into
// DashboardStats and caches the result per user.
type Service struct {
	invoiceRepo repositories.InvoiceRepository
	clientRepo  repositories.ClientRepository
	cache       DashboardCache
	now         func() time.Time
}

// NewService creates the reporting service. cache may be nil; stats are then
// recomputed on every call.
func NewService(invoiceRepo repositories.InvoiceRepository, clientRepo repositories.ClientRepository, cache DashboardCache) *Service {
	return &Service{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		cache:       cache,
		now:         time.Now,
	}
}

// Dashboard returns the user's dashboard statistics, served from cache when
// a fresh entry exists.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	if s.cache != nil {
		if stats, err := s.cache.GetDashboard(ctx, userID); err == nil {
			return stats, nil
		}
	}

	stats, err := s.Recompute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, userID, stats, cacheTTL); err != nil {
			log.Printf("Failed to cache dashboard for user %s: %v", userID, err)
		}
	}
	return stats, nil
}

// Recompute loads a fresh snapshot and folds it, bypassing the cache read.
// Used by the background refresh job and on cache miss.
func (s *Service) Recompute(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	invoices, err := s.invoiceRepo.List(ctx, userID, nil, "created_at", "desc")
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	clients, err := s.clientRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}

	refs := make(map[uuid.UUID]ClientRef, len(clients))
	for _, c := range clients {
		ref := ClientRef{Name: c.Name}
		if c.Company != nil {
			ref.Company = *c.Company
		}
		refs[c.ID] = ref
	}

	return ComputeDashboard(invoices, refs, len(clients), s.now()), nil
}

// Refresh recomputes and re-caches a user's stats. Called by the scheduler
// so first dashboard loads after the TTL lapses stay warm.
func (s *Service) Refresh(ctx context.Context, userID uuid.UUID) error {
	stats, err := s.Recompute(ctx, userID)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.SetDashboard(ctx, userID, stats, cacheTTL)
}
