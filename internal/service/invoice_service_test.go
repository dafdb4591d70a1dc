package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type invoiceFixture struct {
	svc      *InvoiceService
	repo     *mockInvoiceRepo
	reports  *mockReportRepo
	clients  *mockClientRepo
	clientID uuid.UUID
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	f := &invoiceFixture{
		repo:    newMockInvoiceRepo(),
		reports: newMockReportRepo(),
		clients: newMockClientRepo(),
	}
	f.svc = NewInvoiceService(f.repo, f.reports, f.clients, testLogger())
	f.clientID = seedClient(t, f.clients, "ana@example.com").ID
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateInvoice_ComputesTotalAndStatus(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		paid   string
		status domain.InvoiceStatus
	}{
		{"unpaid", "0", domain.InvoiceStatusUnpaid},
		{"partial", "50", domain.InvoiceStatusPartial},
		{"paid", "89.90", domain.InvoiceStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := f.svc.Create(ctx, CreateInvoiceInput{
				ClientID:      f.clientID,
				PaymentMethod: "card",
				Subtotal:      dec("99.90"),
				Discount:      dec("10"),
				PaidAmount:    dec(tt.paid),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !inv.Total.Equal(dec("89.90")) {
				t.Errorf("expected total 89.90, got %s", inv.Total)
			}
			if inv.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, inv.Status)
			}
			if inv.Date.IsZero() {
				t.Error("expected date to default to now")
			}
		})
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	f := newInvoiceFixture(t)

	cases := map[string]CreateInvoiceInput{
		"missing method":    {ClientID: f.clientID, Subtotal: dec("10")},
		"unknown method":    {ClientID: f.clientID, PaymentMethod: "barter", Subtotal: dec("10")},
		"negative subtotal": {ClientID: f.clientID, PaymentMethod: "cash", Subtotal: dec("-1")},
		"discount too big":  {ClientID: f.clientID, PaymentMethod: "cash", Subtotal: dec("10"), Discount: dec("11")},
		"overpaid":          {ClientID: f.clientID, PaymentMethod: "cash", Subtotal: dec("10"), PaidAmount: dec("10.01")},
		"missing client":    {PaymentMethod: "cash", Subtotal: dec("10")},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Create(context.Background(), input); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateInvoice_ReportMustBelongToClient(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	other := seedClient(t, f.clients, "bob@example.com")

	report := &domain.Report{ClientID: other.ID, DeviceModel: "Pixel", SerialNumber: "1"}
	f.reports.Create(ctx, report)

	_, err := f.svc.Create(ctx, CreateInvoiceInput{
		ClientID:      f.clientID,
		ReportID:      &report.ID,
		PaymentMethod: "cash",
		Subtotal:      dec("10"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	missing := uuid.New()
	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		ClientID:      f.clientID,
		ReportID:      &missing,
		PaymentMethod: "cash",
		Subtotal:      dec("10"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPayment(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, CreateInvoiceInput{
		ClientID:      f.clientID,
		PaymentMethod: "transfer",
		Subtotal:      dec("100"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.RecordPayment(ctx, inv.ID, dec("40"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.InvoiceStatusPartial || !updated.Outstanding().Equal(dec("60")) {
		t.Errorf("expected partial with 60 outstanding, got %s / %s", updated.Status, updated.Outstanding())
	}

	if _, err := f.svc.RecordPayment(ctx, inv.ID, dec("60.01")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for overpayment, got %v", err)
	}
	if _, err := f.svc.RecordPayment(ctx, inv.ID, dec("0")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero payment, got %v", err)
	}

	updated, err = f.svc.RecordPayment(ctx, inv.ID, dec("60"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.InvoiceStatusPaid {
		t.Errorf("expected paid, got %s", updated.Status)
	}
	if f.repo.invoices[inv.ID].Status != domain.InvoiceStatusPaid {
		t.Errorf("repository not updated")
	}
}

func TestRecordPayment_ConcurrentPaymentsCannotOverpay(t *testing.T) {
	f := newInvoiceFixture(t)
	f.repo.payDelay = 10 * time.Millisecond
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, CreateInvoiceInput{
		ClientID:      f.clientID,
		PaymentMethod: "cash",
		Subtotal:      dec("100"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordPayment(ctx, inv.ID, dec("60"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var accepted, rejected int
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrInvalidInput):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Fatalf("expected one accepted and one rejected payment, got %d / %d", accepted, rejected)
	}

	stored, err := f.repo.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.PaidAmount.Equal(dec("60")) || stored.Status != domain.InvoiceStatusPartial {
		t.Errorf("expected 60 paid and partial, got %s / %s", stored.PaidAmount, stored.Status)
	}
}

func TestRecordPayment_UnknownInvoice(t *testing.T) {
	f := newInvoiceFixture(t)
	if _, err := f.svc.RecordPayment(context.Background(), uuid.New(), dec("10")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPaymentStatus_ZeroTotal(t *testing.T) {
	if got := paymentStatus(decimal.Zero, decimal.Zero); got != domain.InvoiceStatusPaid {
		t.Errorf("expected a free invoice to be paid, got %s", got)
	}
}
