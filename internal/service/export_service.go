package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/export"
	"github.com/CaioWing/repairdesk/internal/storage"
)

// ExportService renders a client's records to a workbook kept in a
// FileStore until it has been downloaded.
type ExportService struct {
	reports  *ReportService
	invoices *InvoiceService
	clients  domain.ClientRepository
	store    storage.FileStore
	log      *slog.Logger
}

func NewExportService(
	reports *ReportService,
	invoices *InvoiceService,
	clients domain.ClientRepository,
	store storage.FileStore,
	log *slog.Logger,
) *ExportService {
	return &ExportService{
		reports:  reports,
		invoices: invoices,
		clients:  clients,
		store:    store,
		log:      log,
	}
}

type ExportFile struct {
	Name string
	Path string
}

func (s *ExportService) ExportClient(ctx context.Context, clientID uuid.UUID, now time.Time) (*ExportFile, error) {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	reports, err := s.reports.ListForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("client-%s-%s.xlsx", clientID.String()[:8], now.Format("20060102-150405"))
	path, err := export.SaveWorkbook(s.store, name, derefAll(reports), derefAll(invoices), now)
	if err != nil {
		return nil, err
	}

	s.log.Info("client export written", "client_id", clientID, "path", path, "reports", len(reports), "invoices", len(invoices))
	return &ExportFile{Name: name, Path: path}, nil
}

// Stream copies an export to w and removes it from the store afterwards.
func (s *ExportService) Stream(w io.Writer, file *ExportFile) error {
	rc, err := s.store.Open(file.Path)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(w, rc)
	rc.Close()

	if err := s.store.Delete(file.Path); err != nil {
		s.log.Warn("remove export", "path", file.Path, "err", err)
	}
	if copyErr != nil {
		return fmt.Errorf("stream export: %w", copyErr)
	}
	return nil
}

func derefAll[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, *it)
	}
	return out
}
