package export

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/storage/local"
)

var now = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func sampleData() ([]domain.Report, []domain.Invoice) {
	inspected := now.AddDate(0, 0, -4)
	reports := []domain.Report{
		{ID: uuid.New(), DeviceModel: "iPhone 12", SerialNumber: "SN-1", Status: "repaired", InspectionDate: &inspected, CreatedAt: now.AddDate(0, 0, -10)},
		{ID: uuid.New(), DeviceModel: "Galaxy S21", SerialNumber: "SN-2", Status: "pending", CreatedAt: now.AddDate(-2, 0, 0)},
	}
	invoices := []domain.Invoice{
		{
			ID:            uuid.New(),
			Date:          now,
			PaymentMethod: "card",
			Subtotal:      decimal.NewFromInt(120),
			Discount:      decimal.NewFromInt(20),
			Total:         decimal.NewFromInt(100),
			PaidAmount:    decimal.NewFromInt(40),
			Status:        domain.InvoiceStatusPartial,
		},
	}
	return reports, invoices
}

func TestWriteWorkbook(t *testing.T) {
	reports, invoices := sampleData()

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, reports, invoices, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetReports)
	require.NoError(t, err)
	require.Len(t, rows, len(reports)+1)
	assert.Equal(t, "Device model", rows[0][0])
	assert.Equal(t, "iPhone 12", rows[1][0])
	assert.Equal(t, "2026-06-11", rows[1][2])
	assert.Equal(t, "10", rows[1][6], "replacement window days left")
	assert.Equal(t, "0", rows[2][5], "expired defect warranty")

	rows, err = f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, len(invoices)+1)
	assert.Equal(t, "card", rows[1][2])
	assert.Equal(t, "60", rows[1][7])
	assert.Equal(t, "partial", rows[1][8])
}

func TestWriteWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil, nil, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetReports)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSaveWorkbook(t *testing.T) {
	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	reports, invoices := sampleData()

	path, err := SaveWorkbook(store, "../escape.xlsx", reports, invoices, now)
	require.NoError(t, err)

	rc, err := store.Open(path)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.NotEmpty(t, body)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "escape.xlsx", info.Name())
}
