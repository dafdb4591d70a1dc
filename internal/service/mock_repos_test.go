package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CaioWing/repairdesk/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock Client Repository ---

type mockClientRepo struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*domain.Client
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: make(map[uuid.UUID]*domain.Client)}
}

func (m *mockClientRepo) Create(_ context.Context, c *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.clients {
		if existing.Email == c.Email {
			return domain.ErrConflict
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.clients[c.ID] = c
	return nil
}

func (m *mockClientRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockClientRepo) GetByEmail(_ context.Context, email string) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockClientRepo) List(_ context.Context, f domain.ClientFilter) ([]*domain.Client, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Client
	for _, c := range m.clients {
		if f.Search != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*f.Search)) {
			continue
		}
		result = append(result, c)
	}
	return result, len(result), nil
}

// --- Mock Report Repository ---

type mockReportRepo struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*domain.Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[uuid.UUID]*domain.Report)}
}

func (m *mockReportRepo) Create(_ context.Context, r *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.reports[r.ID] = r
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockReportRepo) List(_ context.Context, f domain.ReportFilter) ([]*domain.Report, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Report
	for _, r := range m.reports {
		if f.ClientID != nil && r.ClientID != *f.ClientID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EffectiveDate().After(result[j].EffectiveDate())
	})
	return result, len(result), nil
}

func (m *mockReportRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, notes *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	if notes != nil {
		r.Notes = *notes
	}
	return nil
}

func (m *mockReportRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

// --- Mock Invoice Repository ---

type mockInvoiceRepo struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]*domain.Invoice
	payDelay time.Duration
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[uuid.UUID]*domain.Invoice)}
}

func (m *mockInvoiceRepo) Create(_ context.Context, inv *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	m.invoices[inv.ID] = inv
	return nil
}

func (m *mockInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inv, ok := m.invoices[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockInvoiceRepo) List(_ context.Context, f domain.InvoiceFilter) ([]*domain.Invoice, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Invoice
	for _, inv := range m.invoices {
		if f.ClientID != nil && inv.ClientID != *f.ClientID {
			continue
		}
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		result = append(result, inv)
	}
	return result, len(result), nil
}

func (m *mockInvoiceRepo) AddPayment(_ context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.payDelay > 0 {
		time.Sleep(m.payDelay)
	}
	paid := inv.PaidAmount.Add(amount)
	if paid.GreaterThan(inv.Total) {
		return nil, fmt.Errorf("%w: payment exceeds outstanding", domain.ErrInvalidInput)
	}
	inv.PaidAmount = paid
	inv.Status = paymentStatus(inv.Total, paid)
	cp := *inv
	return &cp, nil
}

func (m *mockInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

// --- Mock Audit Repository ---

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
	err     error
}

func (m *mockAuditRepo) Create(_ context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = uuid.New()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, _ domain.AuditFilter) ([]*domain.AuditEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, len(m.entries), nil
}

// --- Mock File Store ---

type mockFileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}

func (m *mockFileStore) Save(name string, reader io.Reader) (string, int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", 0, err
	}
	path := "/mock/storage/" + name
	m.mu.Lock()
	m.files[path] = data
	m.mu.Unlock()
	return path, int64(len(data)), nil
}

func (m *mockFileStore) Open(path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockFileStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

var errDBDown = errors.New("connection refused")
