package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type InvoiceService struct {
	repo       domain.InvoiceRepository
	reportRepo domain.ReportRepository
	clientRepo domain.ClientRepository
	log        *slog.Logger
}

func NewInvoiceService(
	repo domain.InvoiceRepository,
	reportRepo domain.ReportRepository,
	clientRepo domain.ClientRepository,
	log *slog.Logger,
) *InvoiceService {
	return &InvoiceService{
		repo:       repo,
		reportRepo: reportRepo,
		clientRepo: clientRepo,
		log:        log,
	}
}

type CreateInvoiceInput struct {
	ClientID      uuid.UUID
	ReportID      *uuid.UUID
	Date          time.Time
	PaymentMethod string `validate:"required,oneof=cash card transfer pix"`
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	PaidAmount    decimal.Decimal
}

// Create bills a client. Total is Subtotal minus Discount; the status
// follows from how much of it is already paid.
func (s *InvoiceService) Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client_id is required", domain.ErrInvalidInput)
	}
	if input.Subtotal.IsNegative() || input.Discount.IsNegative() || input.PaidAmount.IsNegative() {
		return nil, fmt.Errorf("%w: amounts must not be negative", domain.ErrInvalidInput)
	}
	if input.Discount.GreaterThan(input.Subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", domain.ErrInvalidInput)
	}

	total := input.Subtotal.Sub(input.Discount)
	if input.PaidAmount.GreaterThan(total) {
		return nil, fmt.Errorf("%w: paid amount exceeds total", domain.ErrInvalidInput)
	}

	if _, err := s.clientRepo.GetByID(ctx, input.ClientID); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	if input.ReportID != nil {
		report, err := s.reportRepo.GetByID(ctx, *input.ReportID)
		if err != nil {
			return nil, fmt.Errorf("report: %w", err)
		}
		if report.ClientID != input.ClientID {
			return nil, fmt.Errorf("%w: report belongs to another client", domain.ErrInvalidInput)
		}
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	invoice := &domain.Invoice{
		ClientID:      input.ClientID,
		ReportID:      input.ReportID,
		Date:          date,
		PaymentMethod: input.PaymentMethod,
		Subtotal:      input.Subtotal,
		Discount:      input.Discount,
		Total:         total,
		PaidAmount:    input.PaidAmount,
		Status:        paymentStatus(total, input.PaidAmount),
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.log.Info("invoice created", "id", invoice.ID, "client_id", invoice.ClientID, "total", total.StringFixed(2))
	return invoice, nil
}

// RecordPayment adds amount to what has been paid on an invoice. The check
// against the outstanding balance happens in the same repository write as
// the increment.
func (s *InvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Invoice, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", domain.ErrInvalidInput)
	}

	invoice, err := s.repo.AddPayment(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.log.Info("payment recorded", "id", id, "amount", amount.StringFixed(2), "status", invoice.Status)
	return invoice, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *InvoiceService) List(ctx context.Context, filter domain.InvoiceFilter) ([]*domain.Invoice, int, error) {
	return s.repo.List(ctx, filter)
}

// ListForClient returns every invoice of one client, newest first.
func (s *InvoiceService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Invoice, error) {
	invoices, _, err := s.repo.List(ctx, domain.InvoiceFilter{
		ClientID:  &clientID,
		Page:      1,
		PerPage:   clientListLimit,
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("list client invoices: %w", err)
	}
	return invoices, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func paymentStatus(total, paid decimal.Decimal) domain.InvoiceStatus {
	switch {
	case paid.IsZero() && total.IsPositive():
		return domain.InvoiceStatusUnpaid
	case paid.LessThan(total):
		return domain.InvoiceStatusPartial
	default:
		return domain.InvoiceStatusPaid
	}
}
