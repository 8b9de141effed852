package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"invoicely/internal/models"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*models.Client, error)
}

type clientRepo struct {
	db DB
}

func NewClientRepo(db DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, user_id, name, email, company, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		client.ID, client.UserID, client.Name, client.Email, client.Company, client.Phone, client.Address)
	return err
}

func (r *clientRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Client, error) {
	query := `
		SELECT id, user_id, name, email, company, phone, address, created_at, updated_at
		FROM clients
		WHERE user_id = $1 AND id = $2
	`
	client := &models.Client{}
	err := r.db.QueryRow(ctx, query, userID, id).Scan(
		&client.ID, &client.UserID, &client.Name, &client.Email,
		&client.Company, &client.Phone, &client.Address, &client.CreatedAt, &client.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $1, email = $2, company = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE user_id = $6 AND id = $7
	`
	tag, err := r.db.Exec(ctx, query,
		client.Name, client.Email, client.Company, client.Phone, client.Address,
		client.UserID, client.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the client only. Invoices referencing it keep a dangling
// client id and render without a client annotation.
func (r *clientRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE user_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepo) List(ctx context.Context, userID uuid.UUID) ([]*models.Client, error) {
	query := `
		SELECT id, user_id, name, email, company, phone, address, created_at, updated_at
		FROM clients
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client := &models.Client{}
		if err := rows.Scan(
			&client.ID, &client.UserID, &client.Name, &client.Email,
			&client.Company, &client.Phone, &client.Address, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}
