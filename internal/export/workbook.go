// Package export writes a client's reports and invoices to an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/storage"
	"github.com/CaioWing/repairdesk/internal/warranty"
)

const (
	SheetReports  = "Reports"
	SheetInvoices = "Invoices"
	dateLayout    = "2006-01-02"
)

var (
	reportHeader = []interface{}{
		"Device model", "Serial number", "Date", "Status", "Notes",
		"Defect warranty (days left)", "Replacement (days left)", "Maintenance (days left)",
	}
	invoiceHeader = []interface{}{
		"Invoice", "Date", "Payment method", "Subtotal", "Discount", "Total", "Paid", "Outstanding", "Status",
	}
)

// WriteWorkbook writes one row per report and per invoice, warranty columns
// computed as of now.
func WriteWorkbook(w io.Writer, reports []domain.Report, invoices []domain.Invoice, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReports); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetInvoices); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRow(f, SheetReports, 1, reportHeader); err != nil {
		return err
	}
	for i, r := range reports {
		status := warranty.All(r.EffectiveDate(), now)
		row := []interface{}{
			r.DeviceModel,
			r.SerialNumber,
			r.EffectiveDate().Format(dateLayout),
			r.Status,
			r.Notes,
			daysLeft(status[warranty.ManufacturingDefect]),
			daysLeft(status[warranty.Replacement]),
			daysLeft(status[warranty.PeriodicMaintenance]),
		}
		if err := writeRow(f, SheetReports, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, SheetInvoices, 1, invoiceHeader); err != nil {
		return err
	}
	for i, inv := range invoices {
		row := []interface{}{
			inv.ID.String(),
			inv.Date.Format(dateLayout),
			inv.PaymentMethod,
			inv.Subtotal.InexactFloat64(),
			inv.Discount.InexactFloat64(),
			inv.Total.InexactFloat64(),
			inv.PaidAmount.InexactFloat64(),
			inv.Outstanding().InexactFloat64(),
			string(inv.Status),
		}
		if err := writeRow(f, SheetInvoices, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook renders the workbook and hands it to store under name.
func SaveWorkbook(store storage.FileStore, name string, reports []domain.Report, invoices []domain.Invoice, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, reports, invoices, now); err != nil {
		return "", err
	}
	path, _, err := store.Save(name, &buf)
	if err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func daysLeft(s warranty.Status) int {
	if !s.Active {
		return 0
	}
	return s.DaysRemaining
}
