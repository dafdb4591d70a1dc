package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Report is one device inspection record produced by back-office staff.
type Report struct {
	ID             uuid.UUID  `json:"id"`
	ClientID       uuid.UUID  `json:"client_id"`
	DeviceModel    string     `json:"device_model"`
	SerialNumber   string     `json:"serial_number"`
	InspectionDate *time.Time `json:"inspection_date,omitempty"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EffectiveDate is the inspection date, or the creation date when the report
// was never inspected.
func (r Report) EffectiveDate() time.Time {
	if r.InspectionDate != nil && !r.InspectionDate.IsZero() {
		return *r.InspectionDate
	}
	return r.CreatedAt
}

type ReportFilter struct {
	ClientID  *uuid.UUID
	Status    *string
	Search    *string
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
}

type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	List(ctx context.Context, filter ReportFilter) ([]*Report, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
