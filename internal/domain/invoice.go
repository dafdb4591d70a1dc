package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// Invoice is a billing record optionally linked to a Report.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      uuid.UUID       `json:"client_id"`
	ReportID      *uuid.UUID      `json:"report_id,omitempty"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        InvoiceStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Outstanding is the unpaid part of the invoice total, never negative.
func (i Invoice) Outstanding() decimal.Decimal {
	rest := i.Total.Sub(i.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

type InvoiceFilter struct {
	ClientID  *uuid.UUID
	ReportID  *uuid.UUID
	Status    *InvoiceStatus
	Page      int
	PerPage   int
	SortOrder string
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int, error)
	// AddPayment atomically adds amount to the paid total and returns the
	// updated invoice. It fails with ErrInvalidInput when the result would
	// exceed the invoice total.
	AddPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
