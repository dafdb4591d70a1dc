package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type ClientFilter struct {
	Search  *string
	Page    int
	PerPage int
}

type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	GetByEmail(ctx context.Context, email string) (*Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*Client, int, error)
}
