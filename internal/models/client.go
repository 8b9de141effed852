package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a billable party owned by exactly one user. Identity is
// immutable; contact fields are mutable. Deleting a client does not cascade
// to its invoices.
type Client struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Company   *string   `json:"company" db:"company"`
	Phone     *string   `json:"phone" db:"phone"`
	Address   *string   `json:"address" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
