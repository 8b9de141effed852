package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"invoicely/internal/caching"
	"invoicely/internal/common"
	"invoicely/internal/models"
	"invoicely/internal/repositories"
)

// ClientRequest carries caller input for creating or updating a client.
type ClientRequest struct {
	Name    string
	Email   string
	Company *string
	Phone   *string
	Address *string
}

type ClientServiceInterface interface {
	CreateClient(ctx context.Context, userID uuid.UUID, req *ClientRequest) (*models.Client, error)
	GetClientByID(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context, userID uuid.UUID) ([]*models.Client, error)
	UpdateClient(ctx context.Context, userID, clientID uuid.UUID, req *ClientRequest) (*models.Client, error)
	DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error
}

type clientService struct {
	clientRepo repositories.ClientRepository
	cacheSvc   caching.CacheService
}

func NewClientService(clientRepo repositories.ClientRepository, cacheSvc caching.CacheService) ClientServiceInterface {
	return &clientService{clientRepo: clientRepo, cacheSvc: cacheSvc}
}

func validateClientRequest(req *ClientRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return common.ValidateEmail(req.Email, "email")
}

func (s *clientService) CreateClient(ctx context.Context, userID uuid.UUID, req *ClientRequest) (*models.Client, error) {
	if err := validateClientRequest(req); err != nil {
		return nil, err
	}

	client := &models.Client{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Company: req.Company,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.invalidateDashboard(ctx, userID)
	return client, nil
}

func (s *clientService) GetClientByID(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	return s.clientRepo.GetByID(ctx, userID, clientID)
}

func (s *clientService) ListClients(ctx context.Context, userID uuid.UUID) ([]*models.Client, error) {
	return s.clientRepo.List(ctx, userID)
}

func (s *clientService) UpdateClient(ctx context.Context, userID, clientID uuid.UUID, req *ClientRequest) (*models.Client, error) {
	if err := validateClientRequest(req); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}

	client.Name = strings.TrimSpace(req.Name)
	client.Email = strings.TrimSpace(req.Email)
	client.Company = req.Company
	client.Phone = req.Phone
	client.Address = req.Address

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx, userID)
	return client, nil
}

// DeleteClient removes the client. Existing invoices keep their dangling
// reference; no cascade.
func (s *clientService) DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, userID, clientID); err != nil {
		return err
	}
	s.invalidateDashboard(ctx, userID)
	return nil
}

func (s *clientService) invalidateDashboard(ctx context.Context, userID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.InvalidateDashboard(ctx, userID); err != nil {
		log.Printf("Failed to invalidate dashboard cache for user %s: %v", userID, err)
	}
}
