package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ActorStaff  = "staff"
	ActorClient = "client"
	ActorSystem = "system"
)

type AuditEntry struct {
	ID         uuid.UUID              `json:"id"`
	Actor      string                 `json:"actor"`
	ActorType  string                 `json:"actor_type"` // staff, client, system
	Action     string                 `json:"action"`     // e.g. report.create, invoice.payment
	Resource   string                 `json:"resource"`   // report, invoice, client
	ResourceID string                 `json:"resource_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type AuditFilter struct {
	Actor      *string
	ActorType  *string
	Action     *string
	Resource   *string
	ResourceID *string
	Since      *time.Time
	Page       int
	PerPage    int
	SortOrder  string
}

type AuditRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]*AuditEntry, int, error)
}
